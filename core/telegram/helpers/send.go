package helpers

import (
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/m3rciful/grocerybot/core/logger"
	"github.com/m3rciful/grocerybot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

var dispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher routes helper sends through d; nil makes them synchronous.
func SetDispatcher(d *sender.Dispatcher) {
	dispatcher.Store(d)
}

// send runs fn on the dispatcher, or inline when there is none or it refuses the job.
func send(c tele.Context, action, endpoint string, fn func() error) error {
	d := dispatcher.Load()
	if d == nil {
		return fn()
	}
	ctx := BuildContext(c)
	err := d.Enqueue(ctx, action, endpoint, fn)
	if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
		logger.Warn(ctx, "tg.sender", "queue.fallback",
			slog.String("action", action),
			slog.String("err", err.Error()),
		)
		return fn()
	}
	return err
}

func markdown(markup []*tele.ReplyMarkup) *tele.SendOptions {
	opts := &tele.SendOptions{ParseMode: tele.ModeMarkdown}
	if len(markup) > 0 {
		opts.ReplyMarkup = markup[0]
	}
	return opts
}

// SendText sends raw text (no parse mode) to the current recipient.
func SendText(c tele.Context, text string, opts ...*tele.SendOptions) error {
	return send(c, "send.text", "sendMessage", func() error {
		if len(opts) > 0 && opts[0] != nil {
			return c.Send(text, opts[0])
		}
		return c.Send(text)
	})
}

// SendMD sends Markdown text with optional reply markup.
func SendMD(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	return SendText(c, text, markdown(markup))
}

// EditOrSendMD edits the message behind the update, sending a new one when
// it cannot be edited.
func EditOrSendMD(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	return c.EditOrSend(text, markdown(markup))
}

// ShowMD replaces the message of a button press or answers a message with a
// new one. An edit that changes nothing is not an error.
func ShowMD(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	var err error
	if c.Callback() != nil {
		err = EditOrSendMD(c, text, markup...)
	} else {
		err = SendMD(c, text, markup...)
	}
	if errors.Is(err, tele.ErrMessageNotModified) || errors.Is(err, tele.ErrSameMessageContent) {
		return nil
	}
	return err
}
