// Package config loads cdrstream's process configuration: a viper-backed
// loader with a mapstructure decode hook for human-friendly duration
// strings, environment overrides of a YAML file with defaults beneath
// (see Config), and a Load/MustLoad/SaveConfig surface.
//
// This package configures the CDR engine itself: buffer pool tiers, the
// interpreter's nesting-depth guard, the metrics HTTP bind address,
// logging, and the sertype registry's eviction policy.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the cdrstream process configuration.
//
// Configuration sources, in order of precedence:
//  1. Environment variables (CDRSTREAM_*)
//  2. Configuration file (YAML)
//  3. Default values (lowest priority)
//
// When no configuration file is found, Load returns DefaultConfig()
// without consulting the environment. No CLI flag is bound to a config
// key; cmd/cdrstream's --config flag only selects the file.
type Config struct {
	// Logging controls log output behavior.
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Pool configures the tiered buffer pool (pkg/bufpool). Nothing in
	// this module builds a pool from it; see PoolConfig.BufpoolConfig.
	Pool PoolConfig `mapstructure:"pool" yaml:"pool"`

	// Interpreter controls cdr/interp's safety limits.
	Interpreter InterpreterConfig `mapstructure:"interpreter" yaml:"interpreter"`

	// Metrics contains Prometheus metrics server configuration.
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// Registry contains sertype registry configuration.
	Registry RegistryConfig `mapstructure:"registry" yaml:"registry"`
}

// LoggingConfig controls logging behavior. Mirrors internal/logger.Config.
type LoggingConfig struct {
	// Level is the minimum log level to output.
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive).
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format specifies the log output format.
	// Valid values: text, json.
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output specifies where logs are written: stdout, stderr, or a file path.
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// PoolConfig sets the size classes of the tiered buffer pool (pkg/bufpool);
// BufpoolConfig converts it into a bufpool.Config.
type PoolConfig struct {
	// SmallSize handles control messages and small samples.
	// Default: 4KB.
	SmallSize int `mapstructure:"small_size" validate:"omitempty,gt=0" yaml:"small_size"`

	// MediumSize handles typical typed samples.
	// Default: 64KB.
	MediumSize int `mapstructure:"medium_size" validate:"omitempty,gt=0" yaml:"medium_size"`

	// LargeSize handles bulk/large sequence payloads.
	// Default: 1MB.
	LargeSize int `mapstructure:"large_size" validate:"omitempty,gt=0" yaml:"large_size"`

	// RetentionThreshold is a payload capacity in bytes. pkg/serdata does
	// not read it: its pool-eligibility check uses its own fixed 1MB
	// constant. Default: 1MB.
	RetentionThreshold int `mapstructure:"retention_threshold" validate:"omitempty,gt=0" yaml:"retention_threshold"`
}

// InterpreterConfig controls cdr/interp's execution limits.
type InterpreterConfig struct {
	// MaxNestingDepth caps how many nested aggregate frames (struct inside
	// struct, sequence of struct, union arm) the interpreter will descend
	// into before returning cdrerrors.ErrNestingTooDeep. Guards against
	// malformed or adversarial programs/wire data driving unbounded
	// recursion. Default: 32.
	MaxNestingDepth int `mapstructure:"max_nesting_depth" validate:"omitempty,gt=0" yaml:"max_nesting_depth"`
}

// MetricsConfig configures the Prometheus metrics HTTP server
// (pkg/metrics/prometheus, served by pkg/introspect).
type MetricsConfig struct {
	// Enabled controls whether metrics collection and the HTTP server run.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// BindAddress is the host:port the metrics/introspection server listens
	// on. Default: "127.0.0.1:9090".
	BindAddress string `mapstructure:"bind_address" yaml:"bind_address"`
}

// RegistryConfig controls the sertype registry's (pkg/registry) eviction
// behavior.
type RegistryConfig struct {
	// EvictionPolicy selects when a registered type descriptor is dropped.
	// Valid values:
	//   "refcount" - evict as soon as the last Release brings the count to
	//                zero (the registry's default behavior).
	//   "retain"   - never evict automatically; types accumulate until the
	//                process exits. Useful for CLI one-shot commands that
	//                register many ad hoc types and want each Lookup/Get
	//                call to remain valid without tracking releases.
	EvictionPolicy string `mapstructure:"eviction_policy" validate:"omitempty,oneof=refcount retain" yaml:"eviction_policy"`
}

// Load loads configuration from file, environment, and defaults.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	found, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}
	if !found {
		return DefaultConfig(), nil
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration, returning a user-friendly error when no
// config file exists at the default location and none was specified.
func MustLoad(configPath string) (*Config, error) {
	if configPath == "" {
		if !DefaultConfigExists() {
			return nil, fmt.Errorf("no configuration file found at default location: %s\n\n"+
				"Initialize one first:\n"+
				"  cdrstream init\n\n"+
				"Or specify a custom config file:\n"+
				"  cdrstream <command> --config /path/to/config.yaml",
				GetDefaultConfigPath())
		}
		configPath = GetDefaultConfigPath()
	} else if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// SaveConfig writes cfg to path in YAML form, creating parent directories
// as needed.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// setupViper wires environment variable and config-file search behavior.
func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("CDRSTREAM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the config file if present, returning (found, err).
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}
	return true, nil
}

// configDecodeHooks composes the mapstructure decode hooks this config
// needs: only time.Duration parsing, since every numeric field here is a
// plain byte count or count rather than a human-sized quantity.
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(durationDecodeHook())
}

func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// getConfigDir returns $XDG_CONFIG_HOME/cdrstream, falling back to
// ~/.config/cdrstream, or "." if the home directory cannot be determined.
func getConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "cdrstream")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "cdrstream")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists reports whether a config file exists at the default
// location.
func DefaultConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir returns the configuration directory path.
func GetConfigDir() string {
	return getConfigDir()
}
