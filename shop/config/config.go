// Package config holds the grocery bot configuration on top of the core one.
package config

import (
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"

	coreconfig "github.com/m3rciful/grocerybot/core/config"
	"github.com/m3rciful/grocerybot/core/database"
	"github.com/m3rciful/grocerybot/shop/session"
)

// DefaultMinOrder is the order total required to start a regular checkout.
var DefaultMinOrder = decimal.NewFromInt(3000)

const (
	defaultTimezone    = "Europe/Moscow"
	defaultAboutText   = "🛒 Мы доставляем свежие фрукты, овощи и зелень прямо к вашей двери.\n\nРаботаем ежедневно с 9:00 до 21:00."
	defaultOrderNotes  = "Заказ через Telegram бота"
	defaultSupportText = "📞 Служба поддержки\n\nЕсли у вас возникли вопросы по заказу, напишите нам, и мы ответим в ближайшее время."
)

// RedisConfig points at the Redis instance used by the redis session backend.
type RedisConfig struct {
	Addr     string `yaml:"addr" envconfig:"REDIS_ADDR"`
	Password string `yaml:"password" envconfig:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" envconfig:"REDIS_DB"`
}

// ShopConfig carries storefront settings.
type ShopConfig struct {
	MinOrderAmount decimal.Decimal `yaml:"min_order_amount" envconfig:"SHOP_MIN_ORDER_AMOUNT"`
	// BypassZone names the delivery zone allowed to order below the minimum; empty disables it.
	BypassZone string `yaml:"bypass_zone" envconfig:"SHOP_BYPASS_ZONE"`
	// AdminIDs are Telegram ids registered with the admin role.
	AdminIDs    []int64 `yaml:"admin_ids" envconfig:"SHOP_ADMIN_IDS"`
	SeedDemo    bool    `yaml:"seed_demo" envconfig:"SHOP_SEED_DEMO"`
	Timezone    string  `yaml:"timezone" envconfig:"SHOP_TIMEZONE"`
	AboutText   string  `yaml:"about_text"`
	SupportText string  `yaml:"support_text"`
	OrderNotes  string  `yaml:"order_notes"`

	location *time.Location
}

// Location returns the parsed Timezone.
func (s ShopConfig) Location() *time.Location {
	if s.location == nil {
		return time.UTC
	}
	return s.location
}

// Config is the full application configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database database.Config `yaml:"database"`
	Redis    RedisConfig     `yaml:"redis"`
	Session  session.Config  `yaml:"session"`
	Shop     ShopConfig      `yaml:"shop"`
}

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Config
}

// Load reads path, applies env overrides and normalizes the result.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.LoadInto(path, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize fills defaults and validates every section.
func (c *Config) Normalize() error {
	if err := coreconfig.Normalize(&c.Config); err != nil {
		return err
	}
	if err := c.Session.Normalize(); err != nil {
		return err
	}

	if c.Shop.MinOrderAmount.IsZero() {
		c.Shop.MinOrderAmount = DefaultMinOrder
	}
	c.Shop.BypassZone = strings.TrimSpace(c.Shop.BypassZone)
	if c.Shop.Timezone == "" {
		c.Shop.Timezone = defaultTimezone
	}
	loc, err := time.LoadLocation(c.Shop.Timezone)
	if err != nil {
		return fmt.Errorf("shop.timezone: %w", err)
	}
	c.Shop.location = loc
	if strings.TrimSpace(c.Shop.AboutText) == "" {
		c.Shop.AboutText = defaultAboutText
	}
	if strings.TrimSpace(c.Shop.SupportText) == "" {
		c.Shop.SupportText = defaultSupportText
	}
	if c.Shop.OrderNotes == "" {
		c.Shop.OrderNotes = defaultOrderNotes
	}
	if c.Database.MigrationsDir == "" {
		c.Database.MigrationsDir = "migrations"
	}

	return validation.Errors{
		"shop.min_order_amount": validation.Validate(c.Shop.MinOrderAmount, validation.By(nonNegative)),
		"redis.addr": validation.Validate(c.Redis.Addr,
			validation.When(c.Session.Backend == session.BackendRedis, validation.Required)),
		"database.host": validation.Validate(c.Database.Host, validation.Required),
		"database.name": validation.Validate(c.Database.Name, validation.Required),
	}.Filter()
}

func nonNegative(v any) error {
	d, ok := v.(decimal.Decimal)
	if !ok || d.IsNegative() {
		return validation.NewError("validation_amount_non_negative", "must not be negative")
	}
	return nil
}
