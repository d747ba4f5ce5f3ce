package logging

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// ConsoleOptions configures a ConsoleHandler.
type ConsoleOptions struct {
	Level slog.Leveler
	// Color forces colored levels on or off. Nil follows color.NoColor,
	// which fatih/color derives from the terminal.
	Color *bool
	// TimeFormat defaults to "15:04:05".
	TimeFormat string
}

// ConsoleHandler writes one human-readable line per record:
//
//	10:30:00 INFO  Collection ensured collection=users status=created
type ConsoleHandler struct {
	w       io.Writer
	mu      *sync.Mutex
	level   slog.Leveler
	timeFmt string
	colors  map[slog.Level]*color.Color

	prefix string // pre-rendered WithAttrs output
	groups string // dotted group prefix, "" or "a.b."
}

func NewConsoleHandler(w io.Writer, opts *ConsoleOptions) *ConsoleHandler {
	if opts == nil {
		opts = &ConsoleOptions{}
	}
	h := &ConsoleHandler{
		w:       w,
		mu:      &sync.Mutex{},
		level:   opts.Level,
		timeFmt: opts.TimeFormat,
		colors: map[slog.Level]*color.Color{
			slog.LevelDebug: color.New(color.FgHiBlack),
			slog.LevelInfo:  color.New(color.FgCyan),
			slog.LevelWarn:  color.New(color.FgYellow),
			slog.LevelError: color.New(color.FgRed, color.Bold),
		},
	}
	if h.level == nil {
		h.level = slog.LevelInfo
	}
	if h.timeFmt == "" {
		h.timeFmt = "15:04:05"
	}
	enabled := !color.NoColor
	if opts.Color != nil {
		enabled = *opts.Color
	}
	for _, c := range h.colors {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return h
}

func (h *ConsoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *ConsoleHandler) Handle(_ context.Context, r slog.Record) error {
	buf := make([]byte, 0, 256)
	if !r.Time.IsZero() {
		buf = append(buf, r.Time.Format(h.timeFmt)...)
		buf = append(buf, ' ')
	}
	buf = append(buf, h.levelLabel(r.Level)...)
	buf = append(buf, ' ')
	buf = append(buf, r.Message...)
	buf = append(buf, h.prefix...)
	r.Attrs(func(a slog.Attr) bool {
		buf = appendAttr(buf, h.groups, a)
		return true
	})
	buf = append(buf, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf)
	return err
}

func (h *ConsoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	c := *h
	buf := []byte(h.prefix)
	for _, a := range attrs {
		buf = appendAttr(buf, h.groups, a)
	}
	c.prefix = string(buf)
	return &c
}

func (h *ConsoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := *h
	c.groups = h.groups + name + "."
	return &c
}

// levelLabel pads the level to five columns before coloring it.
func (h *ConsoleHandler) levelLabel(level slog.Level) string {
	label := level.String()
	if pad := 5 - len(label); pad > 0 {
		label += strings.Repeat(" ", pad)
	}
	key := slog.LevelInfo
	switch {
	case level >= slog.LevelError:
		key = slog.LevelError
	case level >= slog.LevelWarn:
		key = slog.LevelWarn
	case level < slog.LevelInfo:
		key = slog.LevelDebug
	}
	return h.colors[key].Sprint(label)
}

func appendAttr(buf []byte, groups string, a slog.Attr) []byte {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return buf
	}
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		if len(attrs) == 0 {
			return buf
		}
		// Inline groups (empty key) splice their attrs into the parent.
		prefix := groups
		if a.Key != "" {
			prefix += a.Key + "."
		}
		for _, ga := range attrs {
			buf = appendAttr(buf, prefix, ga)
		}
		return buf
	}

	buf = append(buf, ' ')
	buf = append(buf, groups...)
	buf = append(buf, a.Key...)
	buf = append(buf, '=')
	return appendValue(buf, a.Value)
}

func appendValue(buf []byte, v slog.Value) []byte {
	switch v.Kind() {
	case slog.KindString:
		return appendString(buf, v.String())
	case slog.KindInt64:
		return strconv.AppendInt(buf, v.Int64(), 10)
	case slog.KindUint64:
		return strconv.AppendUint(buf, v.Uint64(), 10)
	case slog.KindFloat64:
		return strconv.AppendFloat(buf, v.Float64(), 'g', -1, 64)
	case slog.KindBool:
		return strconv.AppendBool(buf, v.Bool())
	case slog.KindDuration:
		return append(buf, v.Duration().String()...)
	case slog.KindTime:
		return append(buf, v.Time().Format(time.RFC3339)...)
	default:
		if err, ok := v.Any().(error); ok {
			return appendString(buf, err.Error())
		}
		return appendString(buf, v.String())
	}
}

// appendString quotes s when it is empty or contains spaces, quotes, '=' or
// control characters.
func appendString(buf []byte, s string) []byte {
	if s != "" && !strings.ContainsAny(s, " \"=\\\n\t") {
		return append(buf, s...)
	}
	return strconv.AppendQuote(buf, s)
}
