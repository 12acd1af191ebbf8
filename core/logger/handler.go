package logger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"
)

var errWriterNotReady = errors.New("logger: writer not initialized")

type logFormat string

const (
	formatJSON logFormat = "json"
	formatKV   logFormat = "kv"

	timeFormatMillis = "2006-01-02T15:04:05.000Z07:00"
)

type handlerConfig struct {
	level    slog.Leveler
	writer   *asyncWriter
	format   logFormat
	keyOrder []string
}

// structuredHandler renders one flat line per record. Nested groups become
// dotted keys and duration values become *_ms integers.
type structuredHandler struct {
	cfg    *handlerConfig
	pre    []slog.Attr
	prefix string
}

func newStructuredHandler(cfg handlerConfig) *structuredHandler {
	if cfg.level == nil {
		cfg.level = slog.LevelInfo
	}
	if cfg.keyOrder == nil {
		cfg.keyOrder = defaultKeyOrder
	}
	return &structuredHandler{cfg: &cfg}
}

func (h *structuredHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.cfg.level.Level()
}

func (h *structuredHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.cfg.writer == nil {
		return errWriterNotReady
	}
	e := newEntry(16)
	ts := r.Time.UTC()
	e.set("ts", ts.Truncate(time.Millisecond).Format(timeFormatMillis))
	e.set("level", normalizeLevel(r.Level.String()))
	if h.cfg.format == formatJSON {
		e.set("ts_unix_nano", ts.UnixNano())
	}
	for _, a := range h.pre {
		e.add("", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		e.add(h.prefix, a)
		return true
	})
	e.fromContext(ctx)
	e.finish(r.Message, h.cfg.format == formatJSON)

	var line []byte
	if h.cfg.format == formatJSON {
		var err error
		if line, err = e.appendJSON(nil, h.cfg.keyOrder); err != nil {
			return err
		}
	} else {
		line = e.appendKV(nil, h.cfg.keyOrder)
	}
	return h.cfg.writer.Write(append(line, '\n'))
}

func (h *structuredHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	if h.prefix != "" {
		attrs = []slog.Attr{{Key: h.prefix, Value: slog.GroupValue(attrs...)}}
	}
	clone := *h
	clone.pre = append(append(make([]slog.Attr, 0, len(h.pre)+len(attrs)), h.pre...), attrs...)
	return &clone
}

func (h *structuredHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = joinKey(h.prefix, name)
	return &clone
}

func joinKey(prefix, key string) string {
	switch {
	case prefix == "":
		return key
	case key == "":
		return prefix
	}
	return prefix + "." + key
}

// entry is an insertion-ordered set of log fields.
type entry struct {
	keys []string
	vals map[string]any
}

func newEntry(size int) *entry {
	return &entry{keys: make([]string, 0, size), vals: make(map[string]any, size)}
}

func (e *entry) set(key string, v any) {
	if _, ok := e.vals[key]; !ok {
		e.keys = append(e.keys, key)
	}
	e.vals[key] = v
}

func (e *entry) setDefault(key string, v any) {
	if _, ok := e.vals[key]; !ok {
		e.set(key, v)
	}
}

func (e *entry) str(key string) string {
	switch v := e.vals[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// add flattens a into the entry under prefix.
func (e *entry) add(prefix string, a slog.Attr) {
	key := joinKey(prefix, a.Key)
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		for _, child := range v.Group() {
			e.add(key, child)
		}
		return
	}
	if key == "" {
		return
	}
	if k, val, ok := fieldValue(key, v); ok {
		e.set(k, val)
	}
}

func fieldValue(key string, v slog.Value) (string, any, bool) {
	switch v.Kind() {
	case slog.KindString:
		return key, strings.TrimSpace(v.String()), true
	case slog.KindBool:
		return key, v.Bool(), true
	case slog.KindInt64:
		return key, v.Int64(), true
	case slog.KindUint64:
		if u := v.Uint64(); u <= math.MaxInt64 {
			return key, int64(u), true
		}
		return key, v.Uint64(), true
	case slog.KindFloat64:
		return key, v.Float64(), true
	case slog.KindDuration:
		return msKey(key), RoundMS(v.Duration()).Milliseconds(), true
	case slog.KindTime:
		return key, v.Time().UTC().Format(time.RFC3339Nano), true
	}
	switch x := v.Any().(type) {
	case nil:
		return "", nil, false
	case error:
		return key, x.Error(), true
	case time.Duration:
		return msKey(key), RoundMS(x).Milliseconds(), true
	case fmt.Stringer:
		return key, x.String(), true
	default:
		return key, fmt.Sprint(x), true
	}
}

// msKey maps duration attributes onto the *_ms naming used by dashboards.
func msKey(key string) string {
	switch {
	case key == "duration":
		return "duration_ms"
	case strings.HasSuffix(key, "_ms"):
		return key
	}
	return key + "_ms"
}

// fromContext fills update identifiers the record did not set itself.
func (e *entry) fromContext(ctx context.Context) {
	m := metaFrom(ctx)
	if m.rid != "" {
		e.setDefault("rid", m.rid)
	}
	if m.userID != 0 {
		e.setDefault("user_id", m.userID)
	}
	if m.updateID != 0 {
		e.setDefault("update_id", m.updateID)
	}
	if m.chatID != 0 {
		e.setDefault("chat_id", m.chatID)
	}
	if m.handler != "" {
		e.setDefault("handler", m.handler)
	}
}

// finish applies defaults, normalizes enumerations, masks customer data and
// drops empty values.
func (e *entry) finish(msg string, keepFullRID bool) {
	if rid := e.str("rid"); rid != "" {
		if compact := CompactRID(rid); compact != rid {
			if keepFullRID {
				e.setDefault("rid_full", rid)
			}
			e.set("rid", compact)
		}
	}
	if e.str("event") == "" {
		if msg == "" {
			msg = "unknown"
		}
		e.set("event", msg)
	}
	if e.str("component") == "" {
		e.set("component", "app")
	}
	if s, ok := statuses.normalize(e.str("status")); ok {
		e.set("status", s)
	}
	if raw := e.str("outcome"); raw != "" {
		if o, ok := outcomes.normalize(raw); ok {
			e.set("outcome", o)
		} else {
			e.vals["outcome"] = ""
		}
	}
	for key, mask := range maskers {
		if v, ok := e.vals[key].(string); ok {
			e.vals[key] = mask(v)
		}
	}

	kept := e.keys[:0]
	for _, k := range e.keys {
		if v := e.vals[k]; v == nil || v == "" {
			delete(e.vals, k)
			continue
		}
		kept = append(kept, k)
	}
	e.keys = kept
}
