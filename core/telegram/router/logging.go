package router

import (
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/m3rciful/grocerybot/core/logger"
	tghelpers "github.com/m3rciful/grocerybot/core/telegram/helpers"
	"github.com/m3rciful/grocerybot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

const (
	statusOK   = "ok"
	statusFail = "fail"
	statusSkip = "skip"
)

// run executes fn as handler name and emits one handler.handled record.
func run(c tele.Context, name string, start time.Time, fn func() error, extras ...slog.Attr) error {
	tghelpers.WithHandler(c, name)
	err := fn()
	status := statusOK
	if err != nil {
		status = statusFail
	}
	summarize(c, name, start, status, err, extras...)
	return err
}

// skip records an update that no handler consumed.
func skip(c tele.Context, name string, start time.Time, extras ...slog.Attr) {
	summarize(c, name, start, statusSkip, nil, extras...)
}

func summarize(c tele.Context, name string, start time.Time, status string, err error, extras ...slog.Attr) {
	ctx := tghelpers.WithHandler(c, name)
	sent, kb := middleware.GetCounters(c)
	attrs := make([]slog.Attr, 0, 8+len(extras))
	attrs = append(attrs,
		slog.String("handler", name),
		slog.String("status", status),
		slog.Int("messages", sent),
		slog.Bool("kb", kb),
		slog.Int64("duration_ms", logger.RoundMS(time.Since(start)).Milliseconds()),
	)
	level := slog.LevelInfo
	if err != nil {
		level = slog.LevelWarn
		attrs = append(attrs,
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			slog.String("err_code", errorCode(err)),
		)
	}
	attrs = append(attrs, extras...)
	logger.LogEvent(ctx, logger.Component("tg"), level, "handler.handled", attrs...)
}

// handlerName turns "/orders_admin" or "Cart Inc" into a log-friendly name.
func handlerName(name string) string {
	name = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "/"))
	if name == "" {
		return "unknown"
	}
	return strings.ReplaceAll(name, " ", "_")
}

// errorCode prefers an explicit Code() and falls back to the error's type name.
func errorCode(err error) string {
	var coded interface{ Code() string }
	if errors.As(err, &coded) {
		if code := strings.TrimSpace(coded.Code()); code != "" {
			return strings.ToUpper(strings.ReplaceAll(code, " ", "_"))
		}
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		t := reflect.TypeOf(e)
		for t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		switch name := t.Name(); name {
		case "", "errorString", "wrapError", "wrapErrors", "joinError":
		default:
			return strings.ToUpper(name)
		}
	}
	return "UNKNOWN_ERROR"
}
