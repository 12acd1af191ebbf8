package checkout_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/grocerybot/shop/checkout"
	"github.com/m3rciful/grocerybot/shop/domain"
	"github.com/m3rciful/grocerybot/shop/session"
	"github.com/m3rciful/grocerybot/shop/storage/memory"
)

type recordingNotifier struct {
	mu     sync.Mutex
	orders []int64
	admins []int64
}

func (n *recordingNotifier) OrderPlaced(_ context.Context, order domain.Order, _ domain.User, admins []domain.User) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.orders = append(n.orders, order.ID)
	for _, a := range admins {
		n.admins = append(n.admins, a.TelegramID)
	}
}

func (n *recordingNotifier) snapshot() ([]int64, []int64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]int64(nil), n.orders...), append([]int64(nil), n.admins...)
}

type linkRecorder map[int64]session.MessageRef

func (l linkRecorder) Link(_ context.Context, orderID int64, ref session.MessageRef) error {
	l[orderID] = ref
	return nil
}

type fixture struct {
	ctl      *checkout.Controller
	store    *memory.Store
	sessions *session.Checkouts
	notifier *recordingNotifier
	links    linkRecorder
	user     domain.User
	a, b     domain.Product
}

func newFixture(t *testing.T, minOrder int64) *fixture {
	t.Helper()
	store := memory.New()
	f := &fixture{
		store:    store,
		sessions: session.NewCheckouts(session.NewMemoryTable[session.Checkout]("checkouts")),
		notifier: &recordingNotifier{},
		links:    linkRecorder{},
	}
	f.user = store.PutUser(domain.User{TelegramID: 500, FirstName: "Ира", Role: domain.RoleUser, IsActive: true})
	store.PutUser(domain.User{TelegramID: 900, FirstName: "Админ", Role: domain.RoleAdmin, IsActive: true})
	store.PutUser(domain.User{TelegramID: 901, FirstName: "Владелец", Role: domain.RoleOwner, IsActive: true})
	f.a = store.PutProduct(domain.Product{Name: "A", Price: decimal.NewFromInt(100), IsAvailable: true})
	f.b = store.PutProduct(domain.Product{Name: "B", Price: decimal.NewFromInt(50), IsAvailable: true})
	f.ctl = checkout.NewController(checkout.Deps{
		Sessions: f.sessions,
		Carts:    store,
		Orders:   store,
		Admins:   store,
		Notifier: f.notifier,
		Linker:   f.links,
	}, checkout.Config{MinOrder: decimal.NewFromInt(minOrder), BypassZone: "Пригород", Notes: "Заказ через Telegram бота"})
	return f
}

func (f *fixture) fillCart(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.store.AddItem(ctx, f.user.ID, f.a.ID, 2))
	require.NoError(t, f.store.AddItem(ctx, f.user.ID, f.b.ID, 1))
}

func TestConfirmPlacesSnapshotOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 200)
	f.fillCart(t)

	sess, err := f.ctl.Begin(ctx, f.user, false)
	require.NoError(t, err)

	f.a.Price = decimal.NewFromInt(999)
	f.store.PutProduct(f.a)

	_, err = f.ctl.SubmitAddress(ctx, f.user.ID, "ул. Садовая, 5")
	require.NoError(t, err)

	ref := session.MessageRef{ChatID: 500, MessageID: 42}
	order, err := f.ctl.Confirm(ctx, f.user, sess.Generation, ref)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusPending, order.Status)
	assert.True(t, order.TotalPrice.Equal(decimal.NewFromInt(250)), order.TotalPrice.String())
	require.Len(t, order.Lines, 2)
	assert.True(t, order.Lines[0].Price.Equal(decimal.NewFromInt(100)))
	assert.True(t, order.Lines[1].Price.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, "ул. Садовая, 5", order.Address)

	lines, err := f.store.Lines(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Empty(t, lines)

	_, ok, err := f.sessions.Get(ctx, f.user.ID)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, ref, f.links[order.ID])

	require.Eventually(t, func() bool {
		orders, _ := f.notifier.snapshot()
		return len(orders) == 1
	}, time.Second, 5*time.Millisecond)
	_, admins := f.notifier.snapshot()
	assert.ElementsMatch(t, []int64{900, 901}, admins)

	_, err = f.ctl.Confirm(ctx, f.user, sess.Generation, ref)
	assert.ErrorIs(t, err, session.ErrRestartCheckout)
}

func TestConfirmWithoutAddressCreatesNoOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)
	f.fillCart(t)
	sess, err := f.ctl.Begin(ctx, f.user, false)
	require.NoError(t, err)

	_, err = f.ctl.Confirm(ctx, f.user, sess.Generation, session.MessageRef{})
	assert.ErrorIs(t, err, session.ErrRestartCheckout)

	orders, err := f.store.OrdersForUser(ctx, f.user.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestFailedOrderRestoresSessionAndKeepsCart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)
	f.fillCart(t)
	sess, _ := f.ctl.Begin(ctx, f.user, false)
	_, _ = f.ctl.SubmitAddress(ctx, f.user.ID, "ул. Садовая, 5")

	f.store.FailPlaceOrder = errors.New("connection reset")
	_, err := f.ctl.Confirm(ctx, f.user, sess.Generation, session.MessageRef{})
	require.ErrorIs(t, err, checkout.ErrPlaceOrder)

	restored, ok, err := f.sessions.Get(ctx, f.user.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, session.StepAwaitingConfirmation, restored.Step)

	lines, _ := f.store.Lines(ctx, f.user.ID)
	assert.Len(t, lines, 2)

	f.store.FailPlaceOrder = nil
	order, err := f.ctl.Confirm(ctx, f.user, sess.Generation, session.MessageRef{})
	require.NoError(t, err)
	assert.NotZero(t, order.ID)
}

func TestBeginEnforcesMinimumUnlessBypass(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 3000)
	f.fillCart(t)

	_, err := f.ctl.Begin(ctx, f.user, false)
	var short *checkout.ShortfallError
	require.ErrorAs(t, err, &short)
	assert.True(t, short.Shortfall().Equal(decimal.NewFromInt(2750)))

	sess, err := f.ctl.Begin(ctx, f.user, true)
	require.NoError(t, err)
	assert.Equal(t, "Пригород", sess.Zone)
}

func TestBeginRejectsEmptyCart(t *testing.T) {
	f := newFixture(t, 0)
	_, err := f.ctl.Begin(context.Background(), f.user, false)
	assert.ErrorIs(t, err, checkout.ErrEmptyCart)
}

func TestSubmitAddressValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)
	f.fillCart(t)
	_, _ = f.ctl.Begin(ctx, f.user, false)

	var invalid *checkout.InvalidAddressError
	_, err := f.ctl.SubmitAddress(ctx, f.user.ID, "  ул ")
	require.ErrorAs(t, err, &invalid)
	_, err = f.ctl.SubmitAddress(ctx, f.user.ID, strings.Repeat("д", 501))
	require.ErrorAs(t, err, &invalid)

	sess, ok, err := f.sessions.Get(ctx, f.user.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, session.StepAwaitingAddress, sess.Step)

	_, err = f.ctl.SubmitAddress(ctx, f.user.ID, strings.Repeat("д", 500))
	require.NoError(t, err)
}

func TestAddressOutsideCheckoutAsksToRestart(t *testing.T) {
	f := newFixture(t, 0)
	_, err := f.ctl.SubmitAddress(context.Background(), f.user.ID, "ул. Садовая, 5")
	assert.ErrorIs(t, err, session.ErrRestartCheckout)
}

func TestStaleConfirmIsRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)
	f.fillCart(t)
	_, _ = f.ctl.Begin(ctx, f.user, false)
	_, _ = f.ctl.SubmitAddress(ctx, f.user.ID, "ул. Садовая, 5")

	_, err := f.ctl.Confirm(ctx, f.user, uuid.New(), session.MessageRef{})
	assert.ErrorIs(t, err, session.ErrStaleGeneration)
}

func TestCancelAndEditAddress(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)
	f.fillCart(t)
	_, _ = f.ctl.Begin(ctx, f.user, false)
	_, _ = f.ctl.SubmitAddress(ctx, f.user.ID, "ул. Садовая, 5")

	sess, err := f.ctl.EditAddress(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, session.StepAwaitingAddress, sess.Step)

	require.NoError(t, f.ctl.Cancel(ctx, f.user.ID))
	_, ok, _ := f.sessions.Get(ctx, f.user.ID)
	assert.False(t, ok)
}

func TestBypassWithoutZone(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	ctl := checkout.NewController(checkout.Deps{
		Sessions: session.NewCheckouts(session.NewMemoryTable[session.Checkout]("checkouts")),
		Carts:    store,
		Orders:   store,
	}, checkout.Config{})
	_, err := ctl.Begin(ctx, domain.User{ID: 1}, true)
	assert.ErrorIs(t, err, checkout.ErrBypassUnavailable)
}
