package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/syntrixbase/schemasync/internal/catalog"
)

var validate = validator.New()

// CatalogConfig selects the catalog to provision.
type CatalogConfig struct {
	// Source is "minimal", "full" or a path to a YAML catalog.
	Source string `yaml:"source"`
}

func DefaultCatalogConfig() CatalogConfig {
	return CatalogConfig{Source: catalog.Full}
}

func (c *CatalogConfig) ApplyDefaults() {
	if c.Source == "" {
		c.Source = catalog.Full
	}
}

func (c *CatalogConfig) ApplyEnvOverrides(lookup func(string) (string, bool)) error {
	if v, ok := lookup("SCHEMASYNC_CATALOG"); ok && v != "" {
		c.Source = v
	}
	return nil
}

// ResolvePaths resolves a relative catalog file against configDir. Builtin
// names are left alone.
func (c *CatalogConfig) ResolvePaths(configDir string) {
	if c.Source == "" || catalog.IsBuiltin(c.Source) || filepath.IsAbs(c.Source) || configDir == "" {
		return
	}
	c.Source = filepath.Clean(filepath.Join(configDir, c.Source))
}

func (c *CatalogConfig) Validate() error {
	if strings.TrimSpace(c.Source) == "" {
		return fmt.Errorf("catalog.source cannot be empty")
	}
	return nil
}

// SeedMode controls the sample-data step.
type SeedMode string

const (
	SeedAsk    SeedMode = "ask"
	SeedAlways SeedMode = "always"
	SeedNever  SeedMode = "never"
)

// ParseSeedMode accepts ask, always or never in any case.
func ParseSeedMode(s string) (SeedMode, error) {
	switch m := SeedMode(strings.ToLower(strings.TrimSpace(s))); m {
	case SeedAsk, SeedAlways, SeedNever:
		return m, nil
	}
	return "", fmt.Errorf("invalid seed mode: %q (must be ask, always, or never)", s)
}

// SeedConfig holds sample-data settings.
type SeedConfig struct {
	Mode SeedMode `yaml:"mode"`
}

func DefaultSeedConfig() SeedConfig {
	return SeedConfig{Mode: SeedAsk}
}

func (c *SeedConfig) ApplyDefaults() {
	if c.Mode == "" {
		c.Mode = SeedAsk
	}
}

func (c *SeedConfig) ApplyEnvOverrides(lookup func(string) (string, bool)) error {
	if v, ok := lookup("SCHEMASYNC_SEED"); ok && v != "" {
		c.Mode = SeedMode(v)
	}
	return nil
}

func (c *SeedConfig) ResolvePaths(_ string) {}

func (c *SeedConfig) Validate() error {
	mode, err := ParseSeedMode(string(c.Mode))
	if err != nil {
		return fmt.Errorf("seed.mode: %w", err)
	}
	c.Mode = mode
	return nil
}

// EventsConfig configures the NATS event stream. An empty URL disables it.
type EventsConfig struct {
	NATSURL string `yaml:"nats_url" validate:"omitempty,url"`
	Subject string `yaml:"subject" validate:"required"`
	// Stream, when set, publishes through a JetStream stream of that name
	// instead of core NATS.
	Stream string `yaml:"stream" validate:"omitempty,alphanum"`
}

func DefaultEventsConfig() EventsConfig {
	return EventsConfig{Subject: "schemasync.events"}
}

// Enabled reports whether events are published.
func (c EventsConfig) Enabled() bool {
	return c.NATSURL != ""
}

func (c *EventsConfig) ApplyDefaults() {
	if c.Subject == "" {
		c.Subject = "schemasync.events"
	}
}

func (c *EventsConfig) ApplyEnvOverrides(lookup func(string) (string, bool)) error {
	if v, ok := lookup("SCHEMASYNC_NATS_URL"); ok {
		c.NATSURL = strings.TrimSpace(v)
	}
	if v, ok := lookup("SCHEMASYNC_NATS_STREAM"); ok {
		c.Stream = strings.TrimSpace(v)
	}
	return nil
}

func (c *EventsConfig) ResolvePaths(_ string) {}

func (c *EventsConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("events: %w", err)
	}
	return nil
}

// MetricsConfig configures pushing run metrics to a Prometheus Pushgateway.
// An empty URL disables pushing.
type MetricsConfig struct {
	PushgatewayURL string `yaml:"pushgateway_url" validate:"omitempty,url"`
	Job            string `yaml:"job" validate:"required"`
}

func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{Job: "schemasync"}
}

// Enabled reports whether metrics are pushed.
func (c MetricsConfig) Enabled() bool {
	return c.PushgatewayURL != ""
}

func (c *MetricsConfig) ApplyDefaults() {
	if c.Job == "" {
		c.Job = "schemasync"
	}
}

func (c *MetricsConfig) ApplyEnvOverrides(lookup func(string) (string, bool)) error {
	if v, ok := lookup("SCHEMASYNC_PUSHGATEWAY_URL"); ok {
		c.PushgatewayURL = strings.TrimSpace(v)
	}
	return nil
}

func (c *MetricsConfig) ResolvePaths(_ string) {}

func (c *MetricsConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	return nil
}
