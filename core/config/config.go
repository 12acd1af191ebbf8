package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// TelegramConfig holds Telegram bot settings shared by every bot built on core.
type TelegramConfig struct {
	Token string `yaml:"token" envconfig:"BOT_TOKEN"`
	// OwnerID is promoted to the owner role on first contact; 0 disables promotion.
	OwnerID int64  `yaml:"owner_id" envconfig:"TELEGRAM_OWNER_ID"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
	// DropPending discards updates queued while the bot was offline.
	DropPending bool `yaml:"drop_pending" envconfig:"TELEGRAM_DROP_PENDING"`
}

// WebhookConfig specifies webhook settings.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format      string `yaml:"format" envconfig:"LOG_FORMAT"`
	KeysOrder   string `yaml:"keys_order"`
	DebugSample string `yaml:"debug_sample"`
	Dir         string `yaml:"dir"`
	BotFile     string `yaml:"bot_file"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile" envconfig:"LOG_PROFILE"`
}

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"
)

const (
	// UpdateCallback identifies callback updates for rate limit exclusions.
	UpdateCallback = "callback"
	// UpdateMessage identifies message updates for rate limit exclusions.
	UpdateMessage = "message"
)

// RateLimitConfig holds settings for rate limiting.
// ExcludeUpdates accepts update types to bypass limiting:
// - "callback": inline button presses
// - "message": text, contact and photo messages
type RateLimitConfig struct {
	IntervalMS     int      `yaml:"interval_ms" envconfig:"RATE_LIMIT_INTERVAL_MS"`
	ExcludeUpdates []string `yaml:"exclude_updates" envconfig:"RATE_LIMIT_EXCLUDE_UPDATES"`
}

// Config aggregates the configuration that belongs to the reusable core.
type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Logging   LoggingConfig   `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// LoadInto reads a YAML file into dst and then applies environment overrides.
// dst must be a pointer to a struct carrying yaml and envconfig tags.
func LoadInto(path string, dst any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := envconfig.Process("", dst); err != nil {
		return fmt.Errorf("env overrides: %w", err)
	}
	return nil
}

// Load reads the core configuration alone.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := LoadInto(path, &cfg); err != nil {
		return nil, err
	}
	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize lower-cases enumerations, applies defaults and validates.
// Errors are keyed by the YAML path of the offending field.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return errors.New("nil config")
	}
	tg := &cfg.Telegram
	tg.RunMode = strings.ToLower(strings.TrimSpace(tg.RunMode))
	if tg.RunMode == "" || tg.RunMode == "polling" {
		tg.RunMode = RunModeLongpoll
	}
	for i, v := range cfg.RateLimit.ExcludeUpdates {
		cfg.RateLimit.ExcludeUpdates[i] = strings.ToLower(strings.TrimSpace(v))
	}

	webhook := tg.RunMode == RunModeWebhook
	return validation.Errors{
		"telegram.token": validation.Validate(tg.Token, validation.Required),
		"telegram.run_mode": validation.Validate(tg.RunMode,
			validation.In(RunModeWebhook, RunModeLongpoll).Error("allowed: webhook, longpoll")),
		"telegram.longpoll_timeout_seconds": validation.Validate(tg.LongPollTimeoutSeconds,
			validation.Min(0)),
		"webhook.url":    validation.Validate(cfg.Webhook.URL, validation.When(webhook, validation.Required, is.URL)),
		"webhook.listen": validation.Validate(cfg.Webhook.Listen, validation.When(webhook, validation.Required)),
		"webhook.port": validation.Validate(cfg.Webhook.Port,
			validation.When(webhook, validation.Required, validation.Min(1), validation.Max(65535))),
		"rate_limit.exclude_updates": validation.Validate(cfg.RateLimit.ExcludeUpdates,
			validation.Each(validation.In(UpdateCallback, UpdateMessage).Error("allowed: callback, message"))),
		"rate_limit.interval_ms": validation.Validate(cfg.RateLimit.IntervalMS, validation.Min(0)),
	}.Filter()
}
