package callbacks

import (
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Sep separates fields inside a callback payload.
const Sep = ":"

// PayloadInt64 parses callback payload as int64.
func PayloadInt64(c tele.Context) (int64, error) {
	return strconv.ParseInt(CallbackPayload(c), 10, 64)
}

// PayloadParts splits the callback payload into exactly n parts.
func PayloadParts(c tele.Context, n int) ([]string, error) {
	p := CallbackPayload(c)
	if p == "" {
		return nil, strconv.ErrSyntax
	}
	parts := strings.Split(p, Sep)
	if n > 0 && len(parts) != n {
		return nil, strconv.ErrSyntax
	}
	return parts, nil
}

// PayloadInt64s parses a Sep-joined payload into n int64 values.
func PayloadInt64s(c tele.Context, n int) ([]int64, error) {
	parts, err := PayloadParts(c, n)
	if err != nil {
		return nil, err
	}
	out := make([]int64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Join renders values into a payload understood by PayloadParts.
func Join(values ...int64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatInt(v, 10)
	}
	return strings.Join(parts, Sep)
}
