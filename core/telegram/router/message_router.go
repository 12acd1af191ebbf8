package router

import (
	"context"
	"time"

	tg "github.com/m3rciful/grocerybot/core/telegram"
	tghelpers "github.com/m3rciful/grocerybot/core/telegram/helpers"
	"github.com/m3rciful/grocerybot/core/telegram/ui"

	tele "gopkg.in/telebot.v4"
)

// FSM is implemented by conversation flows that consume free-form input
// (text or photos) while a user is in the middle of a multi-step dialog.
type FSM interface {
	InProgress(ctx context.Context, userID int64) bool
	ManagerHandler(c tele.Context) error
}

// MessageOptions controls fallback behaviour for non-command messages.
type MessageOptions struct {
	UnknownText     tele.HandlerFunc
	UnknownPhoto    tele.HandlerFunc
	UnknownDocument tele.HandlerFunc
	// Contact handles shared contacts; nil leaves contacts unhandled.
	Contact tele.HandlerFunc
}

// FallbackOptions fills the unknown-input handlers from p.
func FallbackOptions(p ui.FallbackProvider, contact tele.HandlerFunc) MessageOptions {
	return MessageOptions{
		UnknownText:     p.UnknownText(),
		UnknownPhoto:    p.UnknownPhoto(),
		UnknownDocument: p.UnknownDocument(),
		Contact:         contact,
	}
}

// MessageRoutes builds handlers for text, photo, document and contact messages.
// Text and photos go to the FSM first when the sender has a dialog in progress.
func MessageRoutes(fsm FSM, reg *tg.Registry, opts MessageOptions) []tg.Route {
	inDialog := func(c tele.Context) bool {
		return fsm != nil && c.Sender() != nil &&
			fsm.InProgress(tghelpers.BuildContext(c), c.Sender().ID)
	}
	toDialog := func(c tele.Context, name string, start time.Time) error {
		return run(c, name, start, func() error { return fsm.ManagerHandler(c) })
	}

	onText := func(c tele.Context) error {
		start := time.Now()
		if inDialog(c) {
			return toDialog(c, "fsm", start)
		}
		if reg != nil {
			if key, cmd, ok := reg.LookupCommand(c.Text()); ok && !cmd.AdminOnly {
				return run(c, handlerName(key), start, func() error { return cmd.Handler(c) })
			}
			if fb := reg.TextFallback(); fb != nil {
				return run(c, "fallback", start, func() error { return fb(c) })
			}
		}
		return orSkip(c, "unknown_text", start, opts.UnknownText)
	}

	onPhoto := func(c tele.Context) error {
		start := time.Now()
		if inDialog(c) {
			return toDialog(c, "fsm_photo", start)
		}
		return orSkip(c, "unexpected_photo", start, opts.UnknownPhoto)
	}

	onDocument := func(c tele.Context) error {
		return orSkip(c, "unexpected_document", time.Now(), opts.UnknownDocument)
	}

	routes := []tg.Route{
		{Endpoint: tele.OnText, Handler: wrap(onText)},
		{Endpoint: tele.OnPhoto, Handler: wrap(onPhoto)},
		{Endpoint: tele.OnDocument, Handler: wrap(onDocument)},
	}
	if opts.Contact != nil {
		routes = append(routes, tg.Route{Endpoint: tele.OnContact, Handler: wrap(func(c tele.Context) error {
			return run(c, "contact", time.Now(), func() error { return opts.Contact(c) })
		})})
	}
	return routes
}

func orSkip(c tele.Context, name string, start time.Time, h tele.HandlerFunc) error {
	if h == nil {
		skip(c, name, start)
		return nil
	}
	return run(c, name, start, func() error { return h(c) })
}
