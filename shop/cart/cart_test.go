package cart_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/grocerybot/shop/cart"
	"github.com/m3rciful/grocerybot/shop/domain"
	"github.com/m3rciful/grocerybot/shop/storage/memory"
)

const userID = 5

func setup(t *testing.T, p domain.Product) (*cart.Service, *memory.Store, domain.Product) {
	t.Helper()
	store := memory.New()
	p.IsAvailable = true
	if p.Price.IsZero() {
		p.Price = decimal.NewFromInt(100)
	}
	p = store.PutProduct(p)
	return cart.NewService(store, store, decimal.NewFromInt(3000)), store, p
}

func TestAddUsesMinimumThenStep(t *testing.T) {
	ctx := context.Background()
	svc, _, p := setup(t, domain.Product{Name: "Картофель", Step: 2, MinQuantity: 5})

	res, err := svc.Add(ctx, userID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, cart.OutcomeAdded, res.Outcome)
	require.Len(t, res.View.Lines, 1)
	assert.Equal(t, 5, res.View.Lines[0].Quantity)

	lineID := res.View.Lines[0].ID
	for k := 1; k <= 4; k++ {
		res, err = svc.Increment(ctx, userID, lineID)
		require.NoError(t, err)
		assert.Equal(t, cart.OutcomeIncremented, res.Outcome)
		assert.Equal(t, 5+2*k, res.View.Lines[0].Quantity)
	}

	res, err = svc.Add(ctx, userID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 15, res.View.Lines[0].Quantity)
}

func TestIncrementNeverStartsBelowMinimum(t *testing.T) {
	ctx := context.Background()
	for _, tc := range []struct{ step, min int }{{1, 1}, {3, 1}, {1, 4}, {2, 3}, {0, 0}} {
		svc, _, p := setup(t, domain.Product{Name: "x", Step: tc.step, MinQuantity: tc.min})
		res, err := svc.Add(ctx, userID, p.ID)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, res.View.Lines[0].Quantity, p.MinimumQuantity())
		assert.Equal(t, p.FirstAddQuantity(), res.View.Lines[0].Quantity)
	}
}

func TestDecrementBelowMinimumIsRejected(t *testing.T) {
	ctx := context.Background()
	svc, _, p := setup(t, domain.Product{Name: "Морковь", Step: 1, MinQuantity: 3, Unit: "шт"})
	res, err := svc.Add(ctx, userID, p.ID)
	require.NoError(t, err)
	lineID := res.View.Lines[0].ID

	_, err = svc.Decrement(ctx, userID, lineID)
	var below *cart.BelowMinimumError
	require.ErrorAs(t, err, &below)
	assert.Equal(t, 3, below.Minimum)
	assert.Equal(t, "шт", below.Unit)
	assert.Equal(t, "below_minimum", below.Code())
	assert.ErrorIs(t, err, cart.ErrBelowMinimum)

	view, err := svc.View(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 3, view.Lines[0].Quantity)
}

func TestDecrementToZeroRemovesAndRepeatsAsNoop(t *testing.T) {
	ctx := context.Background()
	svc, _, p := setup(t, domain.Product{Name: "Лук", Step: 2, MinQuantity: 2})
	res, err := svc.Add(ctx, userID, p.ID)
	require.NoError(t, err)
	lineID := res.View.Lines[0].ID

	res, err = svc.Decrement(ctx, userID, lineID)
	require.NoError(t, err)
	assert.Equal(t, cart.OutcomeRemoved, res.Outcome)
	assert.True(t, res.View.Empty())

	res, err = svc.Decrement(ctx, userID, lineID)
	require.NoError(t, err)
	assert.Equal(t, cart.OutcomeNoop, res.Outcome)
}

func TestDecrementBySteps(t *testing.T) {
	ctx := context.Background()
	svc, _, p := setup(t, domain.Product{Name: "Рис", Step: 2, MinQuantity: 2})
	res, _ := svc.Add(ctx, userID, p.ID)
	lineID := res.View.Lines[0].ID
	_, _ = svc.Increment(ctx, userID, lineID)

	res, err := svc.Decrement(ctx, userID, lineID)
	require.NoError(t, err)
	assert.Equal(t, cart.OutcomeDecremented, res.Outcome)
	assert.Equal(t, 2, res.View.Lines[0].Quantity)
}

func TestAddRejectsUnavailableAndUnknown(t *testing.T) {
	ctx := context.Background()
	svc, store, p := setup(t, domain.Product{Name: "Клубника"})
	p.IsAvailable = false
	store.PutProduct(p)

	_, err := svc.Add(ctx, userID, p.ID)
	assert.ErrorIs(t, err, domain.ErrProductUnavailable)

	_, err = svc.Add(ctx, userID, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Increment(ctx, userID, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestViewShortfallAndClear(t *testing.T) {
	ctx := context.Background()
	svc, _, p := setup(t, domain.Product{Name: "Сыр", Price: decimal.NewFromInt(1000)})
	res, err := svc.Add(ctx, userID, p.ID)
	require.NoError(t, err)
	assert.False(t, res.View.CanCheckout())
	assert.True(t, res.View.Shortfall().Equal(decimal.NewFromInt(2000)))

	lineID := res.View.Lines[0].ID
	_, _ = svc.Increment(ctx, userID, lineID)
	res, err = svc.Increment(ctx, userID, lineID)
	require.NoError(t, err)
	assert.True(t, res.View.CanCheckout())
	assert.True(t, res.View.Shortfall().IsZero())
	assert.Equal(t, 3, res.View.Count)

	res, err = svc.Remove(ctx, userID, lineID)
	require.NoError(t, err)
	assert.Equal(t, cart.OutcomeRemoved, res.Outcome)

	_, _ = svc.Add(ctx, userID, p.ID)
	res, err = svc.Clear(ctx, userID)
	require.NoError(t, err)
	assert.True(t, res.View.Empty())
}

func TestLinesAreScopedToUser(t *testing.T) {
	ctx := context.Background()
	svc, _, p := setup(t, domain.Product{Name: "Мёд"})
	res, err := svc.Add(ctx, userID, p.ID)
	require.NoError(t, err)

	_, err = svc.Increment(ctx, userID+1, res.View.Lines[0].ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
