// Package config loads schemasync settings: the required connection
// variables from the environment and the optional tool settings from a YAML
// file with SCHEMASYNC_* overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	provision "github.com/syntrixbase/schemasync/internal/provision/config"
)

// DefaultConfigPath is read when no file is named and it exists.
const DefaultConfigPath = "config/schemasync.yml"

// Config holds the application configuration
type Config struct {
	Catalog   CatalogConfig    `yaml:"catalog"`
	Provision provision.Config `yaml:"provision"`
	Seed      SeedConfig       `yaml:"seed"`
	Logging   LoggingConfig    `yaml:"logging"`
	Events    EventsConfig     `yaml:"events"`
	Metrics   MetricsConfig    `yaml:"metrics"`

	// Path is the file that was loaded, empty when none was.
	Path string `yaml:"-"`
}

// LoadOptions controls LoadConfig.
type LoadOptions struct {
	// Path names the config file. It must exist when set.
	Path string
	// Lookup reads environment variables. Defaults to os.LookupEnv.
	Lookup func(string) (string, bool)
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Catalog:   DefaultCatalogConfig(),
		Provision: provision.DefaultConfig(),
		Seed:      DefaultSeedConfig(),
		Logging:   DefaultLoggingConfig(),
		Events:    DefaultEventsConfig(),
		Metrics:   DefaultMetricsConfig(),
	}
}

// LoadConfig loads tool settings.
// Order: defaults -> YAML file -> ApplyDefaults -> ApplyEnvOverrides -> ResolvePaths -> Validate
func LoadConfig(opts LoadOptions) (*Config, error) {
	lookup := opts.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}

	// 1. Start with default values so YAML can override them
	cfg := Default()

	// 2. Pick and load the file, if any
	path, explicit := opts.Path, opts.Path != ""
	if !explicit {
		if v, ok := lookup("SCHEMASYNC_CONFIG"); ok && v != "" {
			path, explicit = v, true
		} else {
			path = DefaultConfigPath
		}
	}
	loaded, err := loadFile(path, cfg)
	if err != nil {
		return nil, err
	}
	if !loaded && explicit {
		return nil, fmt.Errorf("config file %s not found", path)
	}

	configDir := ""
	if loaded {
		cfg.Path = path
		configDir = filepath.Dir(path)
	}

	// 3. Lifecycle
	if err := ApplyServiceConfigs(configDir, lookup,
		&cfg.Catalog,
		&cfg.Provision,
		&cfg.Seed,
		&cfg.Logging,
		&cfg.Events,
		&cfg.Metrics,
	); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return cfg, nil
}

// loadFile decodes filename over cfg. It reports false when the file does
// not exist.
func loadFile(filename string, cfg *Config) (bool, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("reading %s: %w", filename, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("parsing %s: %w", filename, err)
	}
	return true, nil
}
