package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// BackendMemory keeps state in process memory.
	BackendMemory = "memory"
	// BackendRedis keeps state in Redis for multi-instance deployments.
	BackendRedis = "redis"
)

// Config selects and tunes the session backend.
type Config struct {
	Backend   string        `yaml:"backend" envconfig:"SESSION_BACKEND"`
	IdleTTL   time.Duration `yaml:"idle_ttl" envconfig:"SESSION_IDLE_TTL"`
	SweepSpec string        `yaml:"sweep_spec" envconfig:"SESSION_SWEEP_SPEC"`
	KeyPrefix string        `yaml:"key_prefix" envconfig:"SESSION_KEY_PREFIX"`
}

// Normalize applies defaults and validates the backend name.
func (c *Config) Normalize() error {
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	if c.Backend == "" {
		c.Backend = BackendMemory
	}
	if c.Backend != BackendMemory && c.Backend != BackendRedis {
		return fmt.Errorf("invalid session.backend %q; allowed: memory, redis", c.Backend)
	}
	if c.IdleTTL < 0 {
		return fmt.Errorf("session.idle_ttl must be >= 0")
	}
	if c.IdleTTL == 0 {
		c.IdleTTL = 24 * time.Hour
	}
	if c.SweepSpec == "" {
		c.SweepSpec = DefaultSweepSpec
	}
	if c.KeyPrefix == "" {
		c.KeyPrefix = "grocerybot"
	}
	return nil
}

// Store bundles the three session tables.
type Store struct {
	Checkouts Table[Checkout]
	Reviews   Table[PendingReview]
	// Links maps order ids to their status message. Links never expire.
	Links Table[MessageRef]

	sweeper *Sweeper
}

// NewMemoryStore builds in-process tables and a cron sweeper for the idle ones.
func NewMemoryStore(cfg Config) (*Store, error) {
	checkouts := NewMemoryTable[Checkout]("checkouts")
	reviews := NewMemoryTable[PendingReview]("reviews")
	sweeper, err := NewSweeper(cfg.SweepSpec, cfg.IdleTTL, checkouts, reviews)
	if err != nil {
		return nil, err
	}
	return &Store{
		Checkouts: checkouts,
		Reviews:   reviews,
		Links:     NewMemoryTable[MessageRef]("links"),
		sweeper:   sweeper,
	}, nil
}

// NewRedisStore builds Redis tables; idle expiry is delegated to key TTLs.
func NewRedisStore(client redis.UniversalClient, cfg Config) *Store {
	return &Store{
		Checkouts: NewRedisTable[Checkout](client, cfg.KeyPrefix+":checkout", cfg.IdleTTL),
		Reviews:   NewRedisTable[PendingReview](client, cfg.KeyPrefix+":review", cfg.IdleTTL),
		Links:     NewRedisTable[MessageRef](client, cfg.KeyPrefix+":status_msg", 0),
	}
}

// Start launches background maintenance, if any.
func (s *Store) Start() {
	if s.sweeper != nil {
		s.sweeper.Start()
	}
}

// Stop halts background maintenance.
func (s *Store) Stop(ctx context.Context) {
	if s.sweeper != nil {
		s.sweeper.Stop(ctx)
	}
}
