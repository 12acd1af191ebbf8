package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/m3rciful/grocerybot/core/logger"
)

// ErrDirtyMigration means a previous run failed halfway; the schema needs a
// manual fix and a forced version before migrations can continue.
var ErrDirtyMigration = errors.New("dirty migration")

const (
	defaultMigrationsDir = "migrations"
	readyTimeout         = 30 * time.Second
)

// RunMigrations waits for Postgres and applies every pending up migration.
func RunMigrations(ctx context.Context, cfg Config) error {
	if err := WaitForPostgres(ctx, cfg, readyTimeout); err != nil {
		logger.MIG.Error("db not ready", slog.String("event", "db.migrate"), logger.Err(err))
		return fmt.Errorf("database not ready: %w", err)
	}
	dir, err := migrationsDir(cfg.MigrationsDir)
	if err != nil {
		return err
	}

	m, err := migrate.New("file://"+filepath.ToSlash(dir), cfg.URL())
	if err != nil {
		logger.MIG.Error("init failed", slog.String("event", "db.migrate"), slog.String("path", dir), logger.Err(err))
		return fmt.Errorf("init migrations: %w", err)
	}
	defer m.Close()

	from, dirty, _ := m.Version()
	if dirty {
		return fmt.Errorf("version %d: %w", from, ErrDirtyMigration)
	}

	start := time.Now()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.MIG.Error("migration failed",
			slog.String("event", "apply"),
			slog.Duration("duration", logger.RoundMS(time.Since(start))),
			logger.Err(err),
		)
		return fmt.Errorf("apply migrations: %w", err)
	}
	to, _, _ := m.Version()

	applied := appliedBetween(upFiles(dir), uint64(from), uint64(to))
	logger.MIG.Info("migrations summary",
		slog.String("event", "summary"),
		slog.Uint64("from_ver", uint64(from)),
		slog.Uint64("to_ver", uint64(to)),
		slog.Int("files", len(applied)),
		slog.String("files_preview", logger.Preview(applied, 6)),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return nil
}

func migrationsDir(dir string) (string, error) {
	if strings.TrimSpace(dir) == "" {
		dir = defaultMigrationsDir
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve migrations dir: %w", err)
	}
	if info, err := os.Stat(abs); err != nil || !info.IsDir() {
		return "", fmt.Errorf("migrations dir %s not found", abs)
	}
	return abs, nil
}

func upFiles(dir string) []string {
	matches, _ := filepath.Glob(filepath.Join(dir, "*.up.sql"))
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, filepath.Base(m))
	}
	slices.Sort(names)
	return names
}

// appliedBetween picks the files with versions in (from, to].
func appliedBetween(files []string, from, to uint64) []string {
	var out []string
	for _, f := range files {
		prefix, _, _ := strings.Cut(f, "_")
		v, err := strconv.ParseUint(prefix, 10, 64)
		if err == nil && v > from && v <= to {
			out = append(out, f)
		}
	}
	return out
}
