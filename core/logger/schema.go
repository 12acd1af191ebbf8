package logger

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	// LevelDebug represents the debug severity level name.
	LevelDebug = "DEBUG"
	// LevelInfo represents the info severity level name.
	LevelInfo = "INFO"
	// LevelWarn represents the warning severity level name.
	LevelWarn = "WARN"
	// LevelError represents the error severity level name.
	LevelError = "ERROR"
)

// enum is a closed set of lower-case values.
type enum map[string]struct{}

func newEnum(values ...string) enum {
	e := make(enum, len(values))
	for _, v := range values {
		e[v] = struct{}{}
	}
	return e
}

// normalize lower-cases v and reports whether it belongs to the set.
func (e enum) normalize(v string) (string, bool) {
	v = strings.ToLower(strings.TrimSpace(v))
	_, ok := e[v]
	return v, ok && v != ""
}

var (
	statuses = newEnum("ok", "fail", "skip", "retry", "rate_limited", "rejected", "cancelled")
	outcomes = newEnum("ok", "fail", "rejected", "cancelled", "rate_limited")
)

func normalizeLevel(level string) string {
	switch strings.ToLower(level) {
	case "", "info":
		return LevelInfo
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	}
	return strings.ToUpper(level)
}

// maskers hide customer data that must not reach log sinks verbatim.
var maskers = map[string]func(string) string{
	"phone":   maskPhone,
	"address": maskText,
	"text":    maskText,
}

// maskPhone keeps the last four digits: "79123456789" -> "*******6789".
func maskPhone(v string) string {
	n := utf8.RuneCountInString(v)
	if n <= 4 {
		return strings.Repeat("*", n)
	}
	r := []rune(v)
	return strings.Repeat("*", n-4) + string(r[n-4:])
}

// maskText keeps only the length of free-form input.
func maskText(v string) string {
	if v == "" {
		return ""
	}
	return "<" + strconv.Itoa(utf8.RuneCountInString(v)) + " chars>"
}

var defaultKeyOrder = []string{
	"ts",
	"level",
	"component",
	"event",
	"status",
	"rid",
	"rid_full",
	"ts_unix_nano",
	"update_id",
	"user_id",
	"chat_id",
	"chat_type",
	"handler",
	"cb_key",
	"outcome",
	"duration_ms",
	"messages",
	"kb",
	"step",
	"generation",
	"order_id",
	"order_status",
	"product_id",
	"cart_item_id",
	"quantity",
	"total",
	"rating",
	"review_kind",
	"photos",
	"count",
	"payload",
	"lang",
	"username",
	"mode",
	"listen",
	"public_url",
	"db",
	"host",
	"port",
	"err",
	"err_code",
	"cause",
	"attempts",
}
