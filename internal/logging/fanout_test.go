package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

// mockHandler is a test handler that can be configured to fail
type mockHandler struct {
	enabled bool
	err     error
	handled int
}

func (h *mockHandler) Enabled(context.Context, slog.Level) bool { return h.enabled }

func (h *mockHandler) Handle(context.Context, slog.Record) error {
	h.handled++
	return h.err
}

func (h *mockHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *mockHandler) WithGroup(string) slog.Handler      { return h }

func TestMultiHandler_Handle(t *testing.T) {
	buf1, buf2 := &bytes.Buffer{}, &bytes.Buffer{}
	logger := slog.New(NewMultiHandler(
		slog.NewTextHandler(buf1, nil),
		slog.NewJSONHandler(buf2, nil),
	))

	logger.With("run", 1).WithGroup("g").Info("test message", "key", "value")

	assert.Contains(t, buf1.String(), "g.key=value")
	assert.Contains(t, buf1.String(), "run=1")
	assert.Contains(t, buf2.String(), `"g":{"key":"value"}`)
}

func TestMultiHandler_Enabled(t *testing.T) {
	h := NewMultiHandler(&mockHandler{}, &mockHandler{enabled: true})
	assert.True(t, h.Enabled(context.Background(), slog.LevelInfo))

	assert.False(t, NewMultiHandler(&mockHandler{}).Enabled(context.Background(), slog.LevelInfo))
	assert.False(t, NewMultiHandler().Enabled(context.Background(), slog.LevelInfo))
}

func TestMultiHandler_HandlesAllAndJoinsErrors(t *testing.T) {
	errA, errB := errors.New("a"), errors.New("b")
	h1 := &mockHandler{enabled: true, err: errA}
	h2 := &mockHandler{enabled: false}
	h3 := &mockHandler{enabled: true, err: errB}

	err := NewMultiHandler(h1, h2, h3).Handle(context.Background(), slog.Record{Level: slog.LevelInfo})

	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
	assert.Equal(t, 1, h1.handled)
	assert.Equal(t, 0, h2.handled)
	assert.Equal(t, 1, h3.handled)
}

func TestLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	inner := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := slog.New(NewLevelFilter(inner, slog.LevelWarn).WithAttrs([]slog.Attr{slog.String("a", "b")}).WithGroup("g"))

	logger.Info("info message")
	logger.Warn("warning message", "k", "v")

	assert.NotContains(t, buf.String(), "info message")
	assert.Contains(t, buf.String(), "warning message")
	assert.Contains(t, buf.String(), "a=b g.k=v")
}

func TestLevelFilter_HandleBelowThreshold(t *testing.T) {
	inner := &mockHandler{enabled: true}
	f := NewLevelFilter(inner, slog.LevelError)

	assert.False(t, f.Enabled(context.Background(), slog.LevelWarn))
	assert.NoError(t, f.Handle(context.Background(), slog.Record{Level: slog.LevelWarn}))
	assert.Equal(t, 0, inner.handled)

	assert.NoError(t, f.Handle(context.Background(), slog.Record{Level: slog.LevelError}))
	assert.Equal(t, 1, inner.handled)
}
