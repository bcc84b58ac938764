package log

import (
	"context"
	"io"
	"log/slog"
	"sync"
)

// Format selects which LogFormatter backs a Logger's output.
type Format string

const (
	// FormatJSON writes one JSON object per line via slog's own JSON
	// handler. This is the package default.
	FormatJSON Format = "json"
	// FormatText writes human-readable lines via TextFormatter.
	FormatText Format = "text"
	// FormatColor writes ANSI-colored lines via ColorFormatter, for an
	// operator watching stderr on a terminal.
	FormatColor Format = "color"
)

// formatterHandler adapts a LogFormatter to slog.Handler, so TextFormatter
// and ColorFormatter can back a Logger the same way slog.NewJSONHandler
// does. Attributes attached via Logger.With/Module are flattened into the
// LogEntry's Fields map, qualified by any active group.
type formatterHandler struct {
	mu        *sync.Mutex
	w         io.Writer
	formatter LogFormatter
	level     slog.Leveler
	attrs     []slog.Attr
	group     string
}

func newFormatterHandler(w io.Writer, formatter LogFormatter, level slog.Leveler) *formatterHandler {
	return &formatterHandler{mu: &sync.Mutex{}, w: w, formatter: formatter, level: level}
}

func (h *formatterHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *formatterHandler) Handle(_ context.Context, r slog.Record) error {
	fields := make(map[string]interface{}, len(h.attrs)+r.NumAttrs())
	for _, a := range h.attrs {
		fields[h.qualify(a.Key)] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		fields[h.qualify(a.Key)] = a.Value.Any()
		return true
	})

	entry := LogEntry{
		Timestamp: r.Time,
		Level:     levelFromSlog(r.Level),
		Message:   r.Message,
		Fields:    fields,
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, h.formatter.Format(entry)+"\n")
	return err
}

func (h *formatterHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &formatterHandler{mu: h.mu, w: h.w, formatter: h.formatter, level: h.level, attrs: merged, group: h.group}
}

func (h *formatterHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	group := name
	if h.group != "" {
		group = h.group + "." + name
	}
	return &formatterHandler{mu: h.mu, w: h.w, formatter: h.formatter, level: h.level, attrs: h.attrs, group: group}
}

func (h *formatterHandler) qualify(key string) string {
	if h.group == "" {
		return key
	}
	return h.group + "." + key
}

// levelFromSlog maps slog's level down to the coarser LogLevel the
// formatters render. slog has no FATAL notion, so nothing here ever
// produces it; the formatters render FATAL only for a LogEntry built with
// that level directly.
func levelFromSlog(l slog.Level) LogLevel {
	switch {
	case l < slog.LevelInfo:
		return DEBUG
	case l < slog.LevelWarn:
		return INFO
	case l < slog.LevelError:
		return WARN
	default:
		return ERROR
	}
}

// handlerForFormat builds the slog.Handler backing a given Format, writing
// to w at the given level. Unknown formats fall back to JSON.
func handlerForFormat(format Format, w io.Writer, level slog.Level) slog.Handler {
	switch format {
	case FormatText:
		return newFormatterHandler(w, &TextFormatter{}, level)
	case FormatColor:
		return newFormatterHandler(w, &ColorFormatter{}, level)
	default:
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	}
}
