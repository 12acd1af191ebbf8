// Package seed loads the demo catalog and promotes the configured owner.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/m3rciful/grocerybot/core/bootstrap"
	"github.com/m3rciful/grocerybot/core/logger"
	"github.com/m3rciful/grocerybot/shop/domain"
)

// CatalogWriter creates catalog rows that do not exist yet.
type CatalogWriter interface {
	EnsureProduct(ctx context.Context, seed domain.NewProductSeed) (bool, error)
}

// RoleWriter changes a registered user's role.
type RoleWriter interface {
	SetRole(ctx context.Context, telegramID int64, role domain.Role) error
}

// Catalog ensures every seed exists and returns how many products were created.
func Catalog(ctx context.Context, w CatalogWriter, seeds []domain.NewProductSeed) (int, error) {
	created := 0
	for _, s := range seeds {
		ok, err := w.EnsureProduct(ctx, s)
		if err != nil {
			return created, fmt.Errorf("seed %s/%s: %w", s.Category, s.Name, err)
		}
		if ok {
			created++
		}
	}
	return created, nil
}

// CatalogSeeder wraps Catalog as a bootstrap seeder. open builds the writer
// over the storage the pipeline has just connected.
func CatalogSeeder(open func(bootstrap.Storage) CatalogWriter, seeds []domain.NewProductSeed) bootstrap.Seeder {
	return bootstrap.SeederFunc{
		Label: "demo_catalog",
		Fn: func(ctx context.Context, storage bootstrap.Storage) error {
			n, err := Catalog(ctx, open(storage), seeds)
			if err != nil {
				return err
			}
			logger.Info(ctx, "seed", "catalog.seeded",
				slog.Int("created", n),
				slog.Int("total", len(seeds)),
			)
			return nil
		},
	}
}

// OwnerSeeder promotes telegramID to owner when that user is already registered.
// Unregistered owners receive the role on their first /start.
func OwnerSeeder(open func(bootstrap.Storage) RoleWriter, telegramID int64) bootstrap.Seeder {
	return bootstrap.SeederFunc{
		Label: "owner",
		Fn: func(ctx context.Context, storage bootstrap.Storage) error {
			if telegramID == 0 {
				return nil
			}
			err := open(storage).SetRole(ctx, telegramID, domain.RoleOwner)
			if errors.Is(err, domain.ErrNotFound) {
				return nil
			}
			return err
		},
	}
}
