package bootstrap

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// Storage represents shared infrastructure passed to optional modules.
type Storage interface {
	SQL() *sqlx.DB
}

// Seeder loads reference data into a storage implementation.
type Seeder interface {
	Name() string
	Seed(ctx context.Context, storage Storage) error
}

// SeederFunc adapts a bare function to the Seeder interface.
type SeederFunc struct {
	Label string
	Fn    func(ctx context.Context, storage Storage) error
}

// Name returns the label used in logs.
func (f SeederFunc) Name() string { return f.Label }

// Seed executes the underlying function.
func (f SeederFunc) Seed(ctx context.Context, storage Storage) error {
	return f.Fn(ctx, storage)
}

// ServiceProvider wires application services on top of initialized storage.
type ServiceProvider[T any] interface {
	Provide(ctx context.Context, storage Storage) (T, error)
}

// ServiceProviderFunc adapts a function to the ServiceProvider interface.
type ServiceProviderFunc[T any] func(ctx context.Context, storage Storage) (T, error)

// Provide executes the underlying function.
func (f ServiceProviderFunc[T]) Provide(ctx context.Context, storage Storage) (T, error) {
	return f(ctx, storage)
}

// Modules groups optional bootstrapping hooks for seeding and service initialization.
type Modules[T any] struct {
	Seeders  []Seeder
	Services ServiceProvider[T]
}
