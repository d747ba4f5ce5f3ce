package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func boolPtr(b bool) *bool { return &b }

func TestDefaultLoggingConfig(t *testing.T) {
	cfg := DefaultLoggingConfig()

	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "text", cfg.Format)
	assert.Equal(t, "logs", cfg.Dir)
	assert.Equal(t, 20, cfg.Rotation.MaxSize)
	assert.True(t, cfg.Rotation.Compress)
	assert.True(t, cfg.Console.IsEnabled())
	assert.False(t, cfg.File.Enabled)
}

func TestLoggingConfigYAMLParsing(t *testing.T) {
	yamlData := `
level: "debug"
format: "json"
dir: "/var/log/schemasync"
rotation:
  max_size: 50
console:
  enabled: false
file:
  enabled: true
  level: "info"
`

	var cfg LoggingConfig
	require.NoError(t, yaml.Unmarshal([]byte(yamlData), &cfg))

	assert.Equal(t, "debug", cfg.Level)
	assert.Equal(t, "/var/log/schemasync", cfg.Dir)
	assert.Equal(t, 50, cfg.Rotation.MaxSize)
	assert.False(t, cfg.Console.IsEnabled())
	assert.True(t, cfg.File.Enabled)
}

func TestLoggingConfigApplyDefaults(t *testing.T) {
	cfg := &LoggingConfig{}
	cfg.ApplyDefaults()

	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "text", cfg.Format)
	assert.Equal(t, "logs", cfg.Dir)
	assert.Equal(t, 20, cfg.Rotation.MaxSize)
	assert.Equal(t, 5, cfg.Rotation.MaxBackups)
	assert.Equal(t, 14, cfg.Rotation.MaxAge)
	assert.True(t, cfg.Console.IsEnabled())
	assert.False(t, cfg.File.Enabled)
}

func TestLoggingConfigApplyDefaultsWithPartialConfig(t *testing.T) {
	cfg := &LoggingConfig{
		Level:   "debug",
		Format:  "json",
		Console: ConsoleConfig{Enabled: boolPtr(false), Level: "warn"},
	}
	cfg.ApplyDefaults()

	assert.Equal(t, "warn", cfg.Console.Level)
	assert.Equal(t, "json", cfg.Console.Format)
	assert.False(t, cfg.Console.IsEnabled())
	assert.Equal(t, "debug", cfg.File.Level)
	assert.Equal(t, "json", cfg.File.Format)
}

func TestLoggingConfigResolvePaths(t *testing.T) {
	tests := []struct {
		name      string
		configDir string
		dir       string
		expected  string
	}{
		{"relative path next to config dir", "/app/config", "logs", "/app/logs"},
		{"dot-dot path from config dir", "/app/config", "../var/logs", "/app/var/logs"},
		{"absolute path unchanged", "/app/config", "/var/log/schemasync", "/var/log/schemasync"},
		{"empty dir unchanged", "/app/config", "", ""},
		{"no config dir", "", "logs", "logs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &LoggingConfig{Dir: tt.dir}
			cfg.ResolvePaths(tt.configDir)
			assert.Equal(t, filepath.FromSlash(tt.expected), cfg.Dir)
		})
	}
}

func TestLoggingConfigValidation(t *testing.T) {
	tests := []struct {
		name        string
		cfg         LoggingConfig
		expectError bool
	}{
		{
			name: "valid config",
			cfg:  LoggingConfig{Level: "info", Format: "text", Dir: "logs"},
		},
		{
			name:        "invalid level",
			cfg:         LoggingConfig{Level: "invalid", Format: "text"},
			expectError: true,
		},
		{
			name:        "invalid format",
			cfg:         LoggingConfig{Level: "info", Format: "xml"},
			expectError: true,
		},
		{
			name: "empty dir with file output disabled",
			cfg:  LoggingConfig{Level: "info", Format: "text"},
		},
		{
			name: "empty dir with file output enabled",
			cfg: LoggingConfig{
				Level: "info", Format: "text",
				File: FileConfig{Enabled: true},
			},
			expectError: true,
		},
		{
			name: "invalid console level",
			cfg: LoggingConfig{
				Level: "info", Format: "text",
				Console: ConsoleConfig{Level: "invalid"},
			},
			expectError: true,
		},
		{
			name: "invalid console level ignored when disabled",
			cfg: LoggingConfig{
				Level: "info", Format: "text",
				Console: ConsoleConfig{Enabled: boolPtr(false), Level: "invalid"},
			},
		},
		{
			name: "invalid file format when enabled",
			cfg: LoggingConfig{
				Level: "info", Format: "text", Dir: "logs",
				File: FileConfig{Enabled: true, Format: "xml"},
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoggingConfigApplyEnvOverrides(t *testing.T) {
	cfg := DefaultLoggingConfig()

	require.NoError(t, cfg.ApplyEnvOverrides(envOf(map[string]string{
		"SCHEMASYNC_LOG_LEVEL":  "debug",
		"SCHEMASYNC_LOG_FORMAT": "json",
	})))

	assert.Equal(t, "debug", cfg.Level)
	assert.Equal(t, "debug", cfg.Console.Level)
	assert.Equal(t, "json", cfg.Console.Format)
	assert.Equal(t, "debug", cfg.File.Level)
}
