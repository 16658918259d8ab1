package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, Validate(cfg))
	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "stdout", cfg.Logging.Output)
	assert.Equal(t, DefaultMaxNestingDepth, cfg.Interpreter.MaxNestingDepth)
	assert.Equal(t, DefaultMetricsBindAddress, cfg.Metrics.BindAddress)
	assert.Equal(t, "refcount", cfg.Registry.EvictionPolicy)
}

func TestApplyDefaultsPreservesExplicitValues(t *testing.T) {
	cfg := &Config{
		Logging: LoggingConfig{Level: "debug", Format: "json", Output: "/var/log/cdrstream.log"},
		Interpreter: InterpreterConfig{
			MaxNestingDepth: 8,
		},
		Registry: RegistryConfig{EvictionPolicy: "retain"},
	}
	ApplyDefaults(cfg)

	assert.Equal(t, "DEBUG", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "/var/log/cdrstream.log", cfg.Logging.Output)
	assert.Equal(t, 8, cfg.Interpreter.MaxNestingDepth)
	assert.Equal(t, "retain", cfg.Registry.EvictionPolicy)
	// Untouched sections still get defaults.
	assert.Equal(t, DefaultMetricsBindAddress, cfg.Metrics.BindAddress)
}

func TestBufpoolConfigConversion(t *testing.T) {
	cfg := DefaultConfig()
	bp := cfg.Pool.BufpoolConfig()
	assert.Equal(t, cfg.Pool.SmallSize, bp.SmallSize)
	assert.Equal(t, cfg.Pool.MediumSize, bp.MediumSize)
	assert.Equal(t, cfg.Pool.LargeSize, bp.LargeSize)
}
