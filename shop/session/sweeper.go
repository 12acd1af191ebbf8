package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/m3rciful/grocerybot/core/logger"
)

// DefaultSweepSpec runs the idle sweep once a minute.
const DefaultSweepSpec = "@every 1m"

// Sweepable is a table that can drop idle entries.
type Sweepable interface {
	Name() string
	Sweep(cutoff time.Time) int
}

// Sweeper periodically removes entries idle for longer than ttl.
type Sweeper struct {
	cron   *cron.Cron
	ttl    time.Duration
	now    func() time.Time
	tables []Sweepable
}

// NewSweeper schedules a sweep of tables on spec (standard cron or @every syntax).
func NewSweeper(spec string, ttl time.Duration, tables ...Sweepable) (*Sweeper, error) {
	if ttl <= 0 {
		return nil, fmt.Errorf("session: sweeper ttl must be positive")
	}
	if spec == "" {
		spec = DefaultSweepSpec
	}
	s := &Sweeper{
		cron:   cron.New(),
		ttl:    ttl,
		now:    time.Now,
		tables: tables,
	}
	if _, err := s.cron.AddFunc(spec, s.RunOnce); err != nil {
		return nil, fmt.Errorf("session: sweeper schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start begins the schedule in its own goroutine.
func (s *Sweeper) Start() {
	s.cron.Start()
}

// Stop halts the schedule and waits for a running sweep or ctx, whichever comes first.
func (s *Sweeper) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

// RunOnce sweeps every table immediately.
func (s *Sweeper) RunOnce() {
	cutoff := s.now().Add(-s.ttl)
	for _, t := range s.tables {
		if n := t.Sweep(cutoff); n > 0 {
			logger.Info(context.Background(), "shop.session", "sweep",
				slog.String("table", t.Name()),
				slog.Int("removed", n),
			)
		}
	}
}
