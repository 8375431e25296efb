package options

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	value   int
	name    string
	enabled bool
}

func withValue(v int) Option[*testConfig] {
	return func(c *testConfig) { c.value = v }
}

func withName(name string) Option[*testConfig] {
	return func(c *testConfig) { c.name = name }
}

func withEnabled(enabled bool) Option[*testConfig] {
	return func(c *testConfig) { c.enabled = enabled }
}

func TestApply_appliesInOrder(t *testing.T) {
	cfg := &testConfig{}

	Apply(cfg, withValue(10), withName("test"), withEnabled(true))

	require.Equal(t, 10, cfg.value)
	require.Equal(t, "test", cfg.name)
	require.True(t, cfg.enabled)
}

func TestApply_laterOptionWins(t *testing.T) {
	cfg := &testConfig{}

	Apply(cfg, withValue(1), withValue(2))

	require.Equal(t, 2, cfg.value)
}

func TestApply_noOptionsLeavesTargetUnchanged(t *testing.T) {
	cfg := &testConfig{}

	Apply(cfg)

	require.Equal(t, testConfig{}, *cfg)
}
