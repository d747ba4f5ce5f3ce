package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// mockServiceConfig implements ServiceConfig for testing ApplyServiceConfigs
type mockServiceConfig struct {
	defaultsApplied  bool
	overridesApplied bool
	pathsResolved    bool
	validated        bool
	baseDir          string
	overrideErr      error
	validateErr      error
}

func (m *mockServiceConfig) ApplyDefaults() {
	m.defaultsApplied = true
}

func (m *mockServiceConfig) ApplyEnvOverrides(func(string) (string, bool)) error {
	m.overridesApplied = true
	return m.overrideErr
}

func (m *mockServiceConfig) ResolvePaths(baseDir string) {
	m.pathsResolved = true
	m.baseDir = baseDir
}

func (m *mockServiceConfig) Validate() error {
	m.validated = true
	return m.validateErr
}

func TestApplyServiceConfigs_AllMethodsCalled(t *testing.T) {
	cfg1 := &mockServiceConfig{}
	cfg2 := &mockServiceConfig{}

	err := ApplyServiceConfigs("config", envOf(nil), cfg1, cfg2)

	assert.NoError(t, err)
	for _, cfg := range []*mockServiceConfig{cfg1, cfg2} {
		assert.True(t, cfg.defaultsApplied)
		assert.True(t, cfg.overridesApplied)
		assert.True(t, cfg.pathsResolved)
		assert.True(t, cfg.validated)
		assert.Equal(t, "config", cfg.baseDir)
	}
}

func TestApplyServiceConfigs_ValidationError(t *testing.T) {
	cfg1 := &mockServiceConfig{}
	cfg2 := &mockServiceConfig{validateErr: assert.AnError}
	cfg3 := &mockServiceConfig{}

	err := ApplyServiceConfigs("config", envOf(nil), cfg1, cfg2, cfg3)

	assert.Equal(t, assert.AnError, err)
	assert.False(t, cfg3.defaultsApplied)
}

func TestApplyServiceConfigs_OverrideError(t *testing.T) {
	cfg := &mockServiceConfig{overrideErr: assert.AnError}

	err := ApplyServiceConfigs("config", envOf(nil), cfg)

	assert.Equal(t, assert.AnError, err)
	assert.False(t, cfg.pathsResolved)
	assert.False(t, cfg.validated)
}

func TestApplyServiceConfigs_EmptyList(t *testing.T) {
	assert.NoError(t, ApplyServiceConfigs("config", envOf(nil)))
}
