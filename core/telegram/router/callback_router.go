package router

import (
	"log/slog"
	"time"

	tg "github.com/m3rciful/grocerybot/core/telegram"
	"github.com/m3rciful/grocerybot/core/telegram/callbacks"
	"github.com/m3rciful/grocerybot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CallbackOptions customises fallback behaviour for callbacks.
type CallbackOptions struct {
	// NotFound overrides the registry fallback for unknown keys.
	NotFound tele.HandlerFunc
	// KeepPending skips the automatic empty answer so handlers can answer with text.
	KeepPending bool
}

// CallbackRoute returns a handler that dispatches callbacks by their unique key.
func CallbackRoute(reg *tg.Registry, opts CallbackOptions) tg.Route {
	notFound := opts.NotFound
	if notFound == nil {
		notFound = reg.CallbackNotFound()
	}
	handler := func(c tele.Context) error {
		cb := c.Callback()
		if cb == nil {
			return nil
		}
		start := time.Now()
		key, payload := callbacks.ParseCallbackData(cb)
		if !opts.KeepPending {
			_ = c.Respond()
		}
		attrs := []slog.Attr{slog.String("cb_key", key), slog.Int("payload_len", len(payload))}
		name := "callback." + handlerName(key)

		if h, ok := reg.GetCallback(key); ok {
			return run(c, name, start, func() error { return h(c) }, attrs...)
		}
		attrs = append(attrs, slog.String("reason", "not_found"))
		if notFound == nil {
			skip(c, name, start, attrs...)
			return nil
		}
		return run(c, name, start, func() error { return notFound(c) }, attrs...)
	}
	return tg.Route{Endpoint: tele.OnCallback, Handler: wrap(handler)}
}

func wrap(h tele.HandlerFunc) tele.HandlerFunc {
	return middleware.RecoverMiddleware(middleware.LoggerMiddleware(middleware.MessageMetricsMiddleware(h)))
}
