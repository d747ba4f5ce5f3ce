package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syntrixbase/schemasync/internal/config"
)

func fileLoggingConfig(t *testing.T) config.LoggingConfig {
	cfg := config.DefaultLoggingConfig()
	cfg.Dir = t.TempDir()
	cfg.File.Enabled = true
	return cfg
}

func TestNewLogger_ConsoleOnlyByDefault(t *testing.T) {
	cfg := config.DefaultLoggingConfig()
	cfg.Dir = filepath.Join(t.TempDir(), "logs")
	var console bytes.Buffer

	logger, err := NewLogger(cfg, &console)
	require.NoError(t, err)

	logger.Info("Collection ensured", "collection", "users")
	logger.Debug("hidden")

	assert.Contains(t, console.String(), "Collection ensured collection=users")
	assert.NotContains(t, console.String(), "hidden")
	assert.NoDirExists(t, cfg.Dir)
}

func TestNewLogger_JSONConsole(t *testing.T) {
	cfg := config.DefaultLoggingConfig()
	cfg.Console.Format = "json"
	var console bytes.Buffer

	logger, err := NewLogger(cfg, &console)
	require.NoError(t, err)

	logger.Info("test json", "key", "value")

	assert.Contains(t, console.String(), `"msg":"test json"`)
	assert.Contains(t, console.String(), `"key":"value"`)
}

func TestNewLogger_ErrorLogSeparation(t *testing.T) {
	cfg := fileLoggingConfig(t)
	cfg.File.Level = "debug"
	cfg.File.Format = "json"

	logger, err := NewLogger(cfg, nil)
	require.NoError(t, err)

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warning message")
	logger.Error("error message")

	require.NoError(t, Shutdown())

	mainContent, err := os.ReadFile(filepath.Join(cfg.Dir, mainLogName))
	require.NoError(t, err)
	assert.Contains(t, string(mainContent), "debug message")
	assert.Contains(t, string(mainContent), "info message")
	assert.Contains(t, string(mainContent), "error message")

	errorContent, err := os.ReadFile(filepath.Join(cfg.Dir, errorLogName))
	require.NoError(t, err)
	assert.NotContains(t, string(errorContent), "info message")
	assert.Contains(t, string(errorContent), "warning message")
	assert.Contains(t, string(errorContent), "error message")
}

func TestNewLogger_AllOutputsDisabled(t *testing.T) {
	cfg := config.DefaultLoggingConfig()
	off := false
	cfg.Console.Enabled = &off

	logger, err := NewLogger(cfg, os.Stderr)
	require.NoError(t, err)
	assert.NotPanics(t, func() { logger.Error("dropped") })
}

func TestNewLogger_BadDirectory(t *testing.T) {
	cfg := fileLoggingConfig(t)
	blocker := filepath.Join(cfg.Dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))
	cfg.Dir = filepath.Join(blocker, "logs")

	_, err := NewLogger(cfg, nil)
	assert.Error(t, err)
}

func TestInitialize_SetsGlobalLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	cfg := fileLoggingConfig(t)
	var console bytes.Buffer

	require.NoError(t, Initialize(cfg, &console))
	slog.Info("global test message")
	require.NoError(t, Shutdown())

	content, err := os.ReadFile(filepath.Join(cfg.Dir, mainLogName))
	require.NoError(t, err)
	assert.Contains(t, string(content), "global test message")
	assert.Contains(t, console.String(), "global test message")
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"invalid": slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), in)
	}
}
