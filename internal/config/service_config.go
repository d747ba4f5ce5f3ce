package config

// ServiceConfig defines the standard configuration lifecycle methods.
// Each section implements it so that LoadConfig can process them uniformly.
type ServiceConfig interface {
	// ApplyDefaults fills zero values with sensible defaults
	ApplyDefaults()

	// ApplyEnvOverrides applies SCHEMASYNC_* overrides read through lookup.
	ApplyEnvOverrides(lookup func(string) (string, bool)) error

	// ResolvePaths resolves relative paths against the directory holding
	// the config file.
	ResolvePaths(configDir string)

	// Validate returns an error if the section is invalid.
	Validate() error
}

// ApplyServiceConfigs applies the configuration lifecycle to all sections.
// It calls ApplyDefaults, ApplyEnvOverrides, ResolvePaths, and Validate in order.
func ApplyServiceConfigs(configDir string, lookup func(string) (string, bool), configs ...ServiceConfig) error {
	for _, cfg := range configs {
		cfg.ApplyDefaults()
		if err := cfg.ApplyEnvOverrides(lookup); err != nil {
			return err
		}
		cfg.ResolvePaths(configDir)
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	return nil
}
