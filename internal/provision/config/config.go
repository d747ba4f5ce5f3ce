// Package config provides configuration for the provisioning orchestrator.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Config holds pacing, timeout and readiness settings.
type Config struct {
	// AttributeDelay is the pause after every attribute attempt.
	// Defaults to 1.5s.
	AttributeDelay time.Duration `yaml:"attribute_delay"`

	// IndexDelay is the pause after every index attempt.
	// Defaults to 2s.
	IndexDelay time.Duration `yaml:"index_delay"`

	// SettleDelay is the fixed wait between a collection's attributes and its
	// indexes when readiness polling is unavailable or disabled.
	// Defaults to 5s.
	SettleDelay time.Duration `yaml:"settle_delay"`

	// CallTimeout bounds each remote call. Defaults to 30s.
	CallTimeout time.Duration `yaml:"call_timeout"`

	// RunTimeout bounds the whole run. Defaults to 30m.
	RunTimeout time.Duration `yaml:"run_timeout"`

	Readiness ReadinessConfig `yaml:"readiness"`
}

// ReadinessConfig controls attribute status polling.
type ReadinessConfig struct {
	Enabled *bool `yaml:"enabled"`

	// Timeout bounds polling for one collection's attributes.
	Timeout time.Duration `yaml:"timeout"`

	InitialInterval time.Duration `yaml:"initial_interval"`
	MaxInterval     time.Duration `yaml:"max_interval"`
}

// IsEnabled reports whether readiness polling is on. Unset means enabled.
func (r ReadinessConfig) IsEnabled() bool {
	return r.Enabled == nil || *r.Enabled
}

// DefaultConfig returns the default provisioning configuration.
func DefaultConfig() Config {
	enabled := true
	return Config{
		AttributeDelay: 1500 * time.Millisecond,
		IndexDelay:     2 * time.Second,
		SettleDelay:    5 * time.Second,
		CallTimeout:    30 * time.Second,
		RunTimeout:     30 * time.Minute,
		Readiness: ReadinessConfig{
			Enabled:         &enabled,
			Timeout:         60 * time.Second,
			InitialInterval: 250 * time.Millisecond,
			MaxInterval:     5 * time.Second,
		},
	}
}

// ApplyDefaults fills in missing values with defaults. A zero delay is a
// valid setting, so only negative delays are replaced.
func (c *Config) ApplyDefaults() {
	defaults := DefaultConfig()
	if c.AttributeDelay < 0 {
		c.AttributeDelay = defaults.AttributeDelay
	}
	if c.IndexDelay < 0 {
		c.IndexDelay = defaults.IndexDelay
	}
	if c.SettleDelay < 0 {
		c.SettleDelay = defaults.SettleDelay
	}
	if c.CallTimeout <= 0 {
		c.CallTimeout = defaults.CallTimeout
	}
	if c.RunTimeout <= 0 {
		c.RunTimeout = defaults.RunTimeout
	}
	if c.Readiness.Enabled == nil {
		c.Readiness.Enabled = defaults.Readiness.Enabled
	}
	if c.Readiness.Timeout <= 0 {
		c.Readiness.Timeout = defaults.Readiness.Timeout
	}
	if c.Readiness.InitialInterval <= 0 {
		c.Readiness.InitialInterval = defaults.Readiness.InitialInterval
	}
	if c.Readiness.MaxInterval <= 0 {
		c.Readiness.MaxInterval = defaults.Readiness.MaxInterval
	}
}

// ApplyEnvOverrides applies SCHEMASYNC_* overrides read through lookup.
func (c *Config) ApplyEnvOverrides(lookup func(string) (string, bool)) error {
	durations := []struct {
		name string
		dst  *time.Duration
	}{
		{"SCHEMASYNC_ATTRIBUTE_DELAY", &c.AttributeDelay},
		{"SCHEMASYNC_INDEX_DELAY", &c.IndexDelay},
		{"SCHEMASYNC_SETTLE_DELAY", &c.SettleDelay},
		{"SCHEMASYNC_CALL_TIMEOUT", &c.CallTimeout},
		{"SCHEMASYNC_RUN_TIMEOUT", &c.RunTimeout},
		{"SCHEMASYNC_READINESS_TIMEOUT", &c.Readiness.Timeout},
	}
	for _, d := range durations {
		v, ok := lookup(d.name)
		if !ok || v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", d.name, err)
		}
		*d.dst = parsed
	}

	if v, ok := lookup("SCHEMASYNC_READINESS_ENABLED"); ok && v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("SCHEMASYNC_READINESS_ENABLED: %w", err)
		}
		c.Readiness.Enabled = &enabled
	}
	return nil
}

// ResolvePaths is a no-op; provisioning has no paths.
func (*Config) ResolvePaths(string) {}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.AttributeDelay < 0 {
		return errors.New("provision.attribute_delay must not be negative")
	}
	if c.IndexDelay < 0 {
		return errors.New("provision.index_delay must not be negative")
	}
	if c.SettleDelay < 0 {
		return errors.New("provision.settle_delay must not be negative")
	}
	if c.CallTimeout <= 0 {
		return errors.New("provision.call_timeout must be positive")
	}
	if c.RunTimeout <= 0 {
		return errors.New("provision.run_timeout must be positive")
	}
	if c.CallTimeout > c.RunTimeout {
		return fmt.Errorf("provision.call_timeout (%s) must not exceed provision.run_timeout (%s)", c.CallTimeout, c.RunTimeout)
	}
	if c.Readiness.IsEnabled() {
		if c.Readiness.Timeout <= 0 {
			return errors.New("provision.readiness.timeout must be positive")
		}
		if c.Readiness.InitialInterval <= 0 {
			return errors.New("provision.readiness.initial_interval must be positive")
		}
		if c.Readiness.MaxInterval < c.Readiness.InitialInterval {
			return errors.New("provision.readiness.max_interval must be at least initial_interval")
		}
	}
	return nil
}
