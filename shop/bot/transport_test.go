package bot

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/grocerybot/shop/domain"
	"github.com/m3rciful/grocerybot/shop/session"

	tele "gopkg.in/telebot.v4"
)

func TestTransportDetached(t *testing.T) {
	tr := NewTransport(nil)
	ctx := context.Background()

	err := tr.EditText(ctx, session.MessageRef{ChatID: 1, MessageID: 2}, "x")
	assert.ErrorIs(t, err, ErrDetached)
	_, err = tr.SendText(ctx, 1, "x")
	assert.ErrorIs(t, err, ErrDetached)
	assert.ErrorIs(t, tr.DeleteMessage(ctx, session.MessageRef{}), ErrDetached)

	// Notifications are dropped rather than failing the order.
	tr.OrderPlaced(ctx, domain.Order{ID: 1}, domain.User{}, []domain.User{{TelegramID: 5}})
}

func TestTransportEditIgnoresUnchangedText(t *testing.T) {
	api := &fakeMessenger{editErr: fmt.Errorf("edit: %w", tele.ErrMessageNotModified)}
	tr := NewTransport(nil)
	tr.Attach(api)

	assert.NoError(t, tr.EditText(context.Background(), session.MessageRef{ChatID: 1, MessageID: 2}, "x"))

	api.editErr = tele.ErrCantEditMessage
	assert.ErrorIs(t, tr.EditText(context.Background(), session.MessageRef{ChatID: 1, MessageID: 2}, "x"),
		tele.ErrCantEditMessage)
}

func TestTransportSendAndDelete(t *testing.T) {
	api := &fakeMessenger{}
	tr := NewTransport(nil)
	tr.Attach(api)
	ctx := context.Background()

	ref, err := tr.SendText(ctx, 42, "hello")
	require.NoError(t, err)
	assert.Equal(t, session.MessageRef{ChatID: 42, MessageID: 1001}, ref)

	require.NoError(t, tr.DeleteMessage(ctx, ref))
	assert.Equal(t, []string{"42/1001"}, api.deleted)
}

func TestTransportNotifiesEveryAdmin(t *testing.T) {
	api := &fakeMessenger{}
	tr := NewTransport(nil)
	tr.Attach(api)
	phone := "79001234567"

	tr.OrderPlaced(context.Background(),
		domain.Order{ID: 9, TotalPrice: decimal.NewFromInt(1800), Address: "ул. Мира, 3"},
		domain.User{FirstName: "Олег", Phone: &phone},
		[]domain.User{{TelegramID: 2}, {TelegramID: 3}},
	)

	for _, chat := range []int64{2, 3} {
		sent := api.sentTo(chat)
		require.Len(t, sent, 1)
		containsAll(t, sent[0].text, "Новый заказ", "#9", "1800 ₽", "+7 (900) 123-45-67", "ул. Мира, 3")
	}
}
