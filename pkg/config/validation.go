package config

import (
	"fmt"
	"strings"
)

var (
	validLogLevels  = []string{"DEBUG", "INFO", "WARN", "ERROR"}
	validLogFormats = []string{"text", "json"}
	validEviction   = []string{"refcount", "retain"}
)

// Validate checks cfg for internally inconsistent or out-of-range values.
// Called after ApplyDefaults, so every field is expected to be populated.
func Validate(cfg *Config) error {
	if err := validateLogging(&cfg.Logging); err != nil {
		return err
	}
	if err := validatePool(&cfg.Pool); err != nil {
		return err
	}
	if err := validateInterpreter(&cfg.Interpreter); err != nil {
		return err
	}
	if err := validateRegistry(&cfg.Registry); err != nil {
		return err
	}
	return nil
}

func validateLogging(cfg *LoggingConfig) error {
	if !oneOf(strings.ToUpper(cfg.Level), validLogLevels) {
		return fmt.Errorf("logging.level: invalid value %q, must be one of %v", cfg.Level, validLogLevels)
	}
	if !oneOf(cfg.Format, validLogFormats) {
		return fmt.Errorf("logging.format: invalid value %q, must be one of %v", cfg.Format, validLogFormats)
	}
	if cfg.Output == "" {
		return fmt.Errorf("logging.output: must not be empty")
	}
	return nil
}

func validatePool(cfg *PoolConfig) error {
	if cfg.SmallSize <= 0 || cfg.MediumSize <= 0 || cfg.LargeSize <= 0 {
		return fmt.Errorf("pool: size classes must be positive")
	}
	if cfg.SmallSize >= cfg.MediumSize {
		return fmt.Errorf("pool: small_size (%d) must be smaller than medium_size (%d)", cfg.SmallSize, cfg.MediumSize)
	}
	if cfg.MediumSize >= cfg.LargeSize {
		return fmt.Errorf("pool: medium_size (%d) must be smaller than large_size (%d)", cfg.MediumSize, cfg.LargeSize)
	}
	if cfg.RetentionThreshold <= 0 {
		return fmt.Errorf("pool.retention_threshold: must be positive")
	}
	return nil
}

func validateInterpreter(cfg *InterpreterConfig) error {
	if cfg.MaxNestingDepth <= 0 {
		return fmt.Errorf("interpreter.max_nesting_depth: must be positive, got %d", cfg.MaxNestingDepth)
	}
	return nil
}

func validateRegistry(cfg *RegistryConfig) error {
	if !oneOf(cfg.EvictionPolicy, validEviction) {
		return fmt.Errorf("registry.eviction_policy: invalid value %q, must be one of %v", cfg.EvictionPolicy, validEviction)
	}
	return nil
}

func oneOf(v string, options []string) bool {
	for _, opt := range options {
		if v == opt {
			return true
		}
	}
	return false
}
