package helpers

import (
	"context"
	"errors"

	tele "gopkg.in/telebot.v4"
)

// ErrNoSender is returned for updates that carry no sender, e.g. channel posts.
var ErrNoSender = errors.New("telegram: update has no sender")

// UserLookup resolves Telegram accounts to application users of type T.
type UserLookup[T any] interface {
	ByTelegramID(ctx context.Context, telegramID int64) (T, error)
}

// CurrentUser resolves the sender of the update through lookup.
func CurrentUser[T any](c tele.Context, lookup UserLookup[T]) (T, error) {
	var zero T
	sender := c.Sender()
	if sender == nil {
		return zero, ErrNoSender
	}
	return lookup.ByTelegramID(BuildContext(c), sender.ID)
}
