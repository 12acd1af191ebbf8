package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/grocerybot/core/config"
	coredatabase "github.com/m3rciful/grocerybot/core/database"
	"github.com/m3rciful/grocerybot/core/logger"
)

// Options control the generic bootstrap pipeline shared between bots.
type Options[T any] struct {
	Config   *coreconfig.Config
	Database coredatabase.Config
	Modules  Modules[T]

	LoggerInit func(*coreconfig.Config) error
	Connect    func(context.Context, coredatabase.Config) (*sqlx.DB, error)
	Migrate    func(context.Context, coredatabase.Config) error
}

// Result exposes infrastructure initialized by the bootstrap pipeline.
type Result[T any] struct {
	DB       *sqlx.DB
	Services T
}

// SQL satisfies Storage.
func (r *Result[T]) SQL() *sqlx.DB { return r.DB }

// Run initializes the logger, connects to the database, applies migrations,
// runs seeders in order and finally builds the application services. The
// connection is closed again when any later step fails.
func Run[T any](ctx context.Context, opts Options[T]) (res *Result[T], err error) {
	if opts.Config == nil {
		return nil, errors.New("bootstrap: nil config provided")
	}
	opts.fill()

	if err := opts.LoggerInit(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger: %w", err)
	}
	db, err := opts.Connect(ctx, opts.Database)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: database: %w", err)
	}
	defer func() {
		if err != nil {
			_ = db.Close()
		}
	}()

	if err := opts.Migrate(ctx, opts.Database); err != nil {
		return nil, fmt.Errorf("bootstrap: migrations: %w", err)
	}
	res = &Result[T]{DB: db}
	for _, s := range opts.Modules.Seeders {
		start := time.Now()
		if err := s.Seed(ctx, res); err != nil {
			return nil, fmt.Errorf("bootstrap: seeder %s: %w", s.Name(), err)
		}
		logger.LogEvent(ctx, logger.SEED, slog.LevelInfo, "seed",
			slog.String("seeder", s.Name()),
			slog.Duration("duration", logger.RoundMS(time.Since(start))),
		)
	}
	if opts.Modules.Services == nil {
		return res, nil
	}
	if res.Services, err = opts.Modules.Services.Provide(ctx, res); err != nil {
		return nil, fmt.Errorf("bootstrap: services: %w", err)
	}
	return res, nil
}

func (o *Options[T]) fill() {
	if o.LoggerInit == nil {
		o.LoggerInit = logger.InitLogger
	}
	if o.Connect == nil {
		o.Connect = coredatabase.Connect
	}
	if o.Migrate == nil {
		o.Migrate = coredatabase.RunMigrations
	}
}
