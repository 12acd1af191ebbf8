package bot

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"

	"github.com/m3rciful/grocerybot/core/logger"
	tgsender "github.com/m3rciful/grocerybot/core/telegram/sender"
	"github.com/m3rciful/grocerybot/shop/domain"
	"github.com/m3rciful/grocerybot/shop/session"

	tele "gopkg.in/telebot.v4"
)

// ErrDetached is returned when the transport is used before the bot started.
var ErrDetached = errors.New("bot: transport not attached")

// Messenger is the subset of *tele.Bot the transport calls.
type Messenger interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
	Edit(msg tele.Editable, what interface{}, opts ...interface{}) (*tele.Message, error)
	Delete(msg tele.Editable) error
}

// Transport sends messages outside of an update: status message sync and
// operator broadcasts. Broadcasts go through the outbound dispatcher.
type Transport struct {
	mu         sync.RWMutex
	api        Messenger
	dispatcher *tgsender.Dispatcher
}

// NewTransport returns a detached transport; Attach binds it to the running bot.
func NewTransport(dispatcher *tgsender.Dispatcher) *Transport {
	return &Transport{dispatcher: dispatcher}
}

// Attach binds the transport to api.
func (t *Transport) Attach(api Messenger) {
	t.mu.Lock()
	t.api = api
	t.mu.Unlock()
}

func (t *Transport) messenger() (Messenger, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.api == nil {
		return nil, ErrDetached
	}
	return t.api, nil
}

func stored(ref session.MessageRef) tele.StoredMessage {
	return tele.StoredMessage{MessageID: strconv.Itoa(ref.MessageID), ChatID: ref.ChatID}
}

// EditText replaces the text of ref. An unchanged text is not an error.
func (t *Transport) EditText(_ context.Context, ref session.MessageRef, text string) error {
	api, err := t.messenger()
	if err != nil {
		return err
	}
	_, err = api.Edit(stored(ref), text, &tele.SendOptions{
		ParseMode:   tele.ModeMarkdown,
		ReplyMarkup: statusKeyboard(),
	})
	if errors.Is(err, tele.ErrMessageNotModified) {
		return nil
	}
	return err
}

// DeleteMessage removes ref.
func (t *Transport) DeleteMessage(_ context.Context, ref session.MessageRef) error {
	api, err := t.messenger()
	if err != nil {
		return err
	}
	return api.Delete(stored(ref))
}

// SendText sends text to chatID and returns the new message.
func (t *Transport) SendText(_ context.Context, chatID int64, text string) (session.MessageRef, error) {
	api, err := t.messenger()
	if err != nil {
		return session.MessageRef{}, err
	}
	msg, err := api.Send(tele.ChatID(chatID), text, &tele.SendOptions{
		ParseMode:   tele.ModeMarkdown,
		ReplyMarkup: statusKeyboard(),
	})
	if err != nil {
		return session.MessageRef{}, err
	}
	return session.MessageRef{ChatID: chatID, MessageID: msg.ID}, nil
}

// OrderPlaced queues a new-order notice for every operator.
func (t *Transport) OrderPlaced(ctx context.Context, order domain.Order, customer domain.User, admins []domain.User) {
	api, err := t.messenger()
	if err != nil {
		logger.Warn(ctx, "shop.notify", "admin.notify", slog.String("status", "skip"), logger.Err(err))
		return
	}
	text := AdminOrderText(order, customer)
	queued := 0
	for _, admin := range admins {
		chat := tele.ChatID(admin.TelegramID)
		run := func() error {
			_, err := api.Send(chat, text, &tele.SendOptions{ParseMode: tele.ModeMarkdown})
			return err
		}
		if err := t.enqueue(tgsender.ForChat(ctx, admin.TelegramID), run); err != nil {
			logger.Warn(ctx, "shop.notify", "admin.notify",
				slog.Int64("admin_id", admin.TelegramID),
				slog.String("status", "fail"),
				logger.Err(err),
			)
			continue
		}
		queued++
	}
	logger.Info(ctx, "shop.notify", "admin.notify",
		slog.Int64("order_id", order.ID),
		slog.Int("admins", len(admins)),
		slog.Int("queued", queued),
	)
}

func (t *Transport) enqueue(ctx context.Context, run func() error) error {
	if t.dispatcher == nil {
		return run()
	}
	return t.dispatcher.Enqueue(ctx, "send.admin_order", "sendMessage", run)
}
