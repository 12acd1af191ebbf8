package status_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/grocerybot/shop/domain"
	"github.com/m3rciful/grocerybot/shop/session"
	"github.com/m3rciful/grocerybot/shop/status"
	"github.com/m3rciful/grocerybot/shop/storage/memory"
)

type fakeTransport struct {
	editErr error
	edits   []session.MessageRef
	deletes []session.MessageRef
	sent    []string
	nextID  int
}

func (f *fakeTransport) EditText(_ context.Context, ref session.MessageRef, _ string) error {
	f.edits = append(f.edits, ref)
	return f.editErr
}

func (f *fakeTransport) DeleteMessage(_ context.Context, ref session.MessageRef) error {
	f.deletes = append(f.deletes, ref)
	return nil
}

func (f *fakeTransport) SendText(_ context.Context, chatID int64, text string) (session.MessageRef, error) {
	f.sent = append(f.sent, text)
	f.nextID++
	return session.MessageRef{ChatID: chatID, MessageID: 1000 + f.nextID}, nil
}

func render(o domain.Order) string { return string(o.Status) }

func newLinker(tr *fakeTransport) (*status.Linker, session.Table[session.MessageRef]) {
	links := session.NewMemoryTable[session.MessageRef]("links")
	return status.NewLinker(links, tr, render), links
}

func TestOnStatusChangedWithoutLinkIsNoop(t *testing.T) {
	tr := &fakeTransport{}
	l, _ := newLinker(tr)

	outcome, err := l.OnStatusChanged(context.Background(), domain.Order{ID: 77, Status: domain.StatusReady})
	require.NoError(t, err)
	assert.Equal(t, status.OutcomeSkipped, outcome)
	assert.Empty(t, tr.edits)
	assert.Empty(t, tr.sent)
}

func TestOnStatusChangedEditsInPlace(t *testing.T) {
	tr := &fakeTransport{}
	l, _ := newLinker(tr)
	ctx := context.Background()
	ref := session.MessageRef{ChatID: 500, MessageID: 42}
	require.NoError(t, l.Link(ctx, 7, ref))

	outcome, err := l.OnStatusChanged(ctx, domain.Order{ID: 7, Status: domain.StatusConfirmed})
	require.NoError(t, err)
	assert.Equal(t, status.OutcomeEdited, outcome)
	assert.Equal(t, []session.MessageRef{ref}, tr.edits)
	assert.Empty(t, tr.sent)
}

func TestOnStatusChangedFallsBackToResend(t *testing.T) {
	tr := &fakeTransport{editErr: errors.New("message can't be edited")}
	l, links := newLinker(tr)
	ctx := context.Background()
	old := session.MessageRef{ChatID: 500, MessageID: 42}
	require.NoError(t, l.Link(ctx, 7, old))

	outcome, err := l.OnStatusChanged(ctx, domain.Order{ID: 7, Status: domain.StatusDelivered})
	require.NoError(t, err)
	assert.Equal(t, status.OutcomeResent, outcome)
	assert.Equal(t, []session.MessageRef{old}, tr.deletes)
	assert.Equal(t, []string{"delivered"}, tr.sent)

	ref, ok, err := links.Get(ctx, 7)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, session.MessageRef{ChatID: 500, MessageID: 1001}, ref)
}

func TestChangeStatusUpdatesStoreThenMessage(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	order, err := store.PlaceOrder(ctx, domain.NewOrder{
		UserID:  1,
		Address: "ул. Мира, 2",
		Lines:   []domain.OrderLine{{ProductID: 1, Quantity: 1, Price: decimal.NewFromInt(10)}},
	})
	require.NoError(t, err)

	tr := &fakeTransport{}
	l, _ := newLinker(tr)
	require.NoError(t, l.Link(ctx, order.ID, session.MessageRef{ChatID: 1, MessageID: 2}))
	svc := status.NewService(store, l)

	updated, outcome, err := svc.ChangeStatus(ctx, status.ChangeRequest{OrderID: order.ID, Status: domain.StatusPreparing})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPreparing, updated.Status)
	assert.Equal(t, status.OutcomeEdited, outcome)

	_, _, err = svc.ChangeStatus(ctx, status.ChangeRequest{OrderID: 999, Status: domain.StatusReady})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, _, err = svc.ChangeStatus(ctx, status.ChangeRequest{OrderID: order.ID, Status: "lost"})
	assert.Error(t, err)
}

func TestParseChangeRequest(t *testing.T) {
	req, err := status.ParseChangeRequest("#12 Ready")
	require.NoError(t, err)
	assert.Equal(t, status.ChangeRequest{OrderID: 12, Status: domain.StatusReady}, req)

	for _, bad := range []string{"", "12", "x ready", "12 lost", "0 ready", "1 ready extra"} {
		_, err := status.ParseChangeRequest(bad)
		assert.Error(t, err, bad)
	}
}
