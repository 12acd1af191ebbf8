package seed_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/grocerybot/core/bootstrap"
	"github.com/m3rciful/grocerybot/shop/domain"
	"github.com/m3rciful/grocerybot/shop/seed"
	"github.com/m3rciful/grocerybot/shop/storage/memory"
)

func TestDemoSeedsAreValid(t *testing.T) {
	for _, s := range seed.Demo() {
		assert.NoError(t, s.Validate(), s.Name)
	}
}

func TestCatalogIsIdempotent(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	n, err := seed.Catalog(ctx, store, seed.Demo())
	require.NoError(t, err)
	assert.Equal(t, len(seed.Demo()), n)

	n, err = seed.Catalog(ctx, store, seed.Demo())
	require.NoError(t, err)
	assert.Zero(t, n)

	cats, err := store.Categories(ctx)
	require.NoError(t, err)
	assert.Len(t, cats, 4)
}

func TestCatalogSeederRunsThroughBootstrapInterface(t *testing.T) {
	store := memory.New()
	s := seed.CatalogSeeder(func(bootstrap.Storage) seed.CatalogWriter { return store }, seed.Demo()[:2])
	assert.Equal(t, "demo_catalog", s.Name())
	require.NoError(t, s.Seed(context.Background(), nil))

	cats, err := store.Categories(context.Background())
	require.NoError(t, err)
	require.Len(t, cats, 1)
	subs, err := store.Subcategories(context.Background(), cats[0].ID)
	require.NoError(t, err)
	assert.Len(t, subs, 1)
}

func TestOwnerSeeder(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	require.NoError(t, seed.OwnerSeeder(owner(store), 42).Seed(ctx, nil), "unregistered owner is skipped")

	_, _, err := store.FindOrCreate(ctx, domain.Profile{TelegramID: 42, FirstName: "O"}, domain.RoleUser)
	require.NoError(t, err)
	require.NoError(t, seed.OwnerSeeder(owner(store), 42).Seed(ctx, nil))

	ok, err := store.IsAdmin(ctx, 42)
	require.NoError(t, err)
	assert.True(t, ok)
}

func owner(store *memory.Store) func(bootstrap.Storage) seed.RoleWriter {
	return func(bootstrap.Storage) seed.RoleWriter { return store }
}
