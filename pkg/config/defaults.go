package config

import (
	"strings"

	"github.com/ddsx/cdrstream/pkg/bufpool"
)

// DefaultMaxNestingDepth is the interpreter's default recursion guard:
// deep enough for any realistic IDL nesting, shallow enough to bound
// stack growth from a malformed program.
const DefaultMaxNestingDepth = 32

// DefaultMetricsBindAddress is the default metrics/introspection HTTP
// listen address, loopback-only so metrics are opt-in to expose externally.
const DefaultMetricsBindAddress = "127.0.0.1:9090"

// DefaultConfig returns a fully populated Config using only default values,
// as returned by Load when no config file is present.
func DefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills in zero-valued fields of cfg with defaults. Called
// after unmarshaling a partial config file so unspecified fields still get
// sensible values.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyPoolDefaults(&cfg.Pool)
	applyInterpreterDefaults(&cfg.Interpreter)
	applyMetricsDefaults(&cfg.Metrics)
	applyRegistryDefaults(&cfg.Registry)
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyPoolDefaults(cfg *PoolConfig) {
	if cfg.SmallSize == 0 {
		cfg.SmallSize = bufpool.DefaultSmallSize
	}
	if cfg.MediumSize == 0 {
		cfg.MediumSize = bufpool.DefaultMediumSize
	}
	if cfg.LargeSize == 0 {
		cfg.LargeSize = bufpool.DefaultLargeSize
	}
	if cfg.RetentionThreshold == 0 {
		cfg.RetentionThreshold = 1 << 20
	}
}

func applyInterpreterDefaults(cfg *InterpreterConfig) {
	if cfg.MaxNestingDepth == 0 {
		cfg.MaxNestingDepth = DefaultMaxNestingDepth
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.BindAddress == "" {
		cfg.BindAddress = DefaultMetricsBindAddress
	}
}

func applyRegistryDefaults(cfg *RegistryConfig) {
	if cfg.EvictionPolicy == "" {
		cfg.EvictionPolicy = "refcount"
	}
}

// BufpoolConfig converts cfg's pool settings into a pkg/bufpool.Config.
func (cfg PoolConfig) BufpoolConfig() bufpool.Config {
	return bufpool.Config{
		SmallSize:  cfg.SmallSize,
		MediumSize: cfg.MediumSize,
		LargeSize:  cfg.LargeSize,
	}
}
