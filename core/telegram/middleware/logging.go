package middleware

import (
	"log/slog"
	"sync"

	"github.com/m3rciful/grocerybot/core/logger"
	"github.com/m3rciful/grocerybot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/grocerybot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// seenUpdates remembers the last update ids that were logged, so the receipt
// line is written once even when the middleware runs on several branches.
type seenUpdates struct {
	mu   sync.Mutex
	ids  [256]int
	set  map[int]struct{}
	next int
}

func (s *seenUpdates) firstTime(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.set == nil {
		s.set = make(map[int]struct{}, len(s.ids))
	}
	if _, ok := s.set[id]; ok {
		return false
	}
	delete(s.set, s.ids[s.next])
	s.ids[s.next] = id
	s.set[id] = struct{}{}
	s.next = (s.next + 1) % len(s.ids)
	return true
}

var seen seenUpdates

// LoggerMiddleware attaches the update context (rid, ids) and writes one
// debug receipt line per update.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := tghelpers.NewUpdateContext(c)
		upd := c.Update()
		if logger.ShouldSampleDebug() && seen.firstTime(upd.ID) {
			logger.LogEvent(ctx, logger.Component("tg"), slog.LevelDebug, "update.received", receiptAttrs(c, upd)...)
		}
		return next(c)
	}
}

func receiptAttrs(c tele.Context, upd tele.Update) []slog.Attr {
	attrs := []slog.Attr{slog.String("status", "ok"), slog.Int("update_id", upd.ID)}
	if chat := c.Chat(); chat != nil {
		attrs = append(attrs, slog.Int64("chat_id", chat.ID), slog.String("chat_type", string(chat.Type)))
	}
	if user := c.Sender(); user != nil {
		attrs = append(attrs, slog.Int64("user_id", user.ID))
		if user.Username != "" {
			attrs = append(attrs, slog.String("username", logger.SanitizeLimit(user.Username, 64)))
		}
		if user.LanguageCode != "" {
			attrs = append(attrs, slog.String("lang", user.LanguageCode))
		}
	}
	switch {
	case upd.Callback != nil:
		key, payload := callbacks.ParseCallbackData(upd.Callback)
		if key != "" {
			attrs = append(attrs, slog.String("cb_key", logger.SanitizeLimit(key, 128)))
		}
		if payload != "" {
			attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(payload, 256)))
		}
	case upd.Message != nil && upd.Message.Contact != nil:
		attrs = append(attrs, slog.String("kind", "contact"))
	case upd.Message != nil && upd.Message.Photo != nil:
		attrs = append(attrs, slog.String("kind", "photo"))
	case upd.Message != nil:
		if t := c.Text(); t != "" {
			attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(t, 256)))
		}
	}
	return attrs
}
