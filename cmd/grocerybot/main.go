// Command grocerybot runs the grocery storefront Telegram bot.
package main

import (
	"context"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/m3rciful/grocerybot/core/bootstrap"
	"github.com/m3rciful/grocerybot/core/cmd"
	tgsender "github.com/m3rciful/grocerybot/core/telegram/sender"
	"github.com/m3rciful/grocerybot/shop/bot"
	"github.com/m3rciful/grocerybot/shop/config"
	"github.com/m3rciful/grocerybot/shop/seed"
	"github.com/m3rciful/grocerybot/shop/session"
	"github.com/m3rciful/grocerybot/shop/storage/postgres"
)

var _ bot.Store = (*postgres.Store)(nil)

func main() {
	err := cmd.Run(cmd.Options[*config.Config]{
		ConfigEnvVar:      "CONFIG_PATH",
		DefaultConfigPath: "config.yaml",
		LoadConfig:        config.Load,
		Bootstrap:         bootstrapApp,
	})
	if err != nil {
		log.Fatal(err)
	}
}

func bootstrapApp(ctx context.Context, cfg *config.Config) (cmd.TelegramApp, error) {
	var seeders []bootstrap.Seeder
	if cfg.Shop.SeedDemo {
		seeders = append(seeders, seed.CatalogSeeder(func(s bootstrap.Storage) seed.CatalogWriter {
			return postgres.New(s.SQL())
		}, seed.Demo()))
	}
	seeders = append(seeders, seed.OwnerSeeder(func(s bootstrap.Storage) seed.RoleWriter {
		return postgres.New(s.SQL())
	}, cfg.Telegram.OwnerID))

	res, err := bootstrap.Run(ctx, bootstrap.Options[*bot.App]{
		Config:   cfg.CoreConfig(),
		Database: cfg.Database,
		Modules: bootstrap.Modules[*bot.App]{
			Seeders: seeders,
			Services: bootstrap.ServiceProviderFunc[*bot.App](func(ctx context.Context, s bootstrap.Storage) (*bot.App, error) {
				return provide(ctx, cfg, s)
			}),
		},
	})
	if err != nil {
		return nil, err
	}
	return res.Services, nil
}

func provide(ctx context.Context, cfg *config.Config, storage bootstrap.Storage) (*bot.App, error) {
	db := storage.SQL()
	closers := []func() error{db.Close}

	var sessions *session.Store
	switch cfg.Session.Backend {
	case session.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		sessions = session.NewRedisStore(client, cfg.Session)
		closers = append(closers, client.Close)
	default:
		var err error
		sessions, err = session.NewMemoryStore(cfg.Session)
		if err != nil {
			return nil, err
		}
	}

	dispatcher := tgsender.NewDispatcher(tgsender.Options{MaxRetries: 2})
	transport := bot.NewTransport(dispatcher)
	svc := bot.NewServices(postgres.New(db), sessions, transport, cfg.Shop)
	return bot.NewApp(cfg, svc, dispatcher, closers...), nil
}
