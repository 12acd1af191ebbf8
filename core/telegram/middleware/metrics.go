package middleware

import (
	tele "gopkg.in/telebot.v4"
)

const countersKey = "reply_counters"

// replyCounters tracks what a handler sent back for the handler summary log.
type replyCounters struct {
	messages int
	keyboard bool
}

// metricsContext wraps tele.Context to count outbound messages and keyboard usage.
type metricsContext struct {
	tele.Context
	counters *replyCounters
}

func (m metricsContext) record(err error, opts []any) error {
	if err != nil {
		return err
	}
	m.counters.messages++
	if hasKeyboard(opts) {
		m.counters.keyboard = true
	}
	return nil
}

func hasKeyboard(opts []any) bool {
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.SendOptions:
			if v != nil && v.ReplyMarkup != nil {
				return true
			}
		case *tele.ReplyMarkup:
			if v != nil {
				return true
			}
		}
	}
	return false
}

// Send proxies tele.Context.Send while updating counters.
func (m metricsContext) Send(what any, opts ...any) error {
	return m.record(m.Context.Send(what, opts...), opts)
}

// Reply proxies tele.Context.Reply while updating counters.
func (m metricsContext) Reply(what any, opts ...any) error {
	return m.record(m.Context.Reply(what, opts...), opts)
}

// Edit proxies tele.Context.Edit; edits count as responses.
func (m metricsContext) Edit(what any, opts ...any) error {
	return m.record(m.Context.Edit(what, opts...), opts)
}

// EditOrSend proxies tele.Context.EditOrSend while updating counters.
func (m metricsContext) EditOrSend(what any, opts ...any) error {
	return m.record(m.Context.EditOrSend(what, opts...), opts)
}

// EditOrReply proxies tele.Context.EditOrReply while updating counters.
func (m metricsContext) EditOrReply(what any, opts ...any) error {
	return m.record(m.Context.EditOrReply(what, opts...), opts)
}

// MessageMetricsMiddleware instruments context to track messages count and keyboard usage.
func MessageMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		counters := &replyCounters{}
		c.Set(countersKey, counters)
		return next(metricsContext{Context: c, counters: counters})
	}
}

// GetCounters reads message count and keyboard presence flags from context.
func GetCounters(c tele.Context) (int, bool) {
	if c == nil {
		return 0, false
	}
	counters, ok := c.Get(countersKey).(*replyCounters)
	if !ok || counters == nil {
		return 0, false
	}
	return counters.messages, counters.keyboard
}
