package logger

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// ordered returns the entry keys: those named in order first, the rest sorted.
func (e *entry) ordered(order []string) []string {
	keys := make([]string, 0, len(e.keys))
	listed := make(map[string]struct{}, len(order))
	for _, k := range order {
		listed[k] = struct{}{}
		if _, ok := e.vals[k]; ok {
			keys = append(keys, k)
		}
	}
	n := len(keys)
	for _, k := range e.keys {
		if _, ok := listed[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys[n:])
	return keys
}

func (e *entry) appendJSON(dst []byte, order []string) ([]byte, error) {
	dst = append(dst, '{')
	for i, k := range e.ordered(order) {
		if i > 0 {
			dst = append(dst, ',')
		}
		dst = strconv.AppendQuote(dst, k)
		dst = append(dst, ':')
		switch v := e.vals[k].(type) {
		case string:
			data, err := json.Marshal(v)
			if err != nil {
				return nil, err
			}
			dst = append(dst, data...)
		case int64:
			dst = strconv.AppendInt(dst, v, 10)
		case bool:
			dst = strconv.AppendBool(dst, v)
		default:
			data, err := json.Marshal(v)
			if err != nil {
				return nil, err
			}
			dst = append(dst, data...)
		}
	}
	return append(dst, '}'), nil
}

func (e *entry) appendKV(dst []byte, order []string) []byte {
	for i, k := range e.ordered(order) {
		if i > 0 {
			dst = append(dst, ' ')
		}
		dst = append(dst, k...)
		dst = append(dst, '=')
		dst = appendKVValue(dst, e.vals[k])
	}
	return dst
}

func appendKVValue(dst []byte, v any) []byte {
	switch x := v.(type) {
	case int64:
		return strconv.AppendInt(dst, x, 10)
	case int:
		return strconv.AppendInt(dst, int64(x), 10)
	case bool:
		return strconv.AppendBool(dst, x)
	case float64:
		return strconv.AppendFloat(dst, x, 'g', -1, 64)
	}
	s := stringOf(v)
	if strings.IndexFunc(s, needsQuote) >= 0 {
		return strconv.AppendQuote(dst, s)
	}
	return append(dst, s...)
}

func stringOf(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return strings.Trim(string(data), `"`)
}

func needsQuote(r rune) bool {
	return r <= ' ' || r == '=' || r == '"'
}
