package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateRejectsBadLogLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logging.Level = "TRACE"
	assert.Error(t, Validate(cfg))
}

func TestValidateRejectsBadLogFormat(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logging.Format = "xml"
	assert.Error(t, Validate(cfg))
}

func TestValidateRejectsUnorderedPoolTiers(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Pool.SmallSize = cfg.Pool.MediumSize
	assert.Error(t, Validate(cfg))
}

func TestValidateRejectsNonPositiveNestingDepth(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Interpreter.MaxNestingDepth = 0
	assert.Error(t, Validate(cfg))
}

func TestValidateRejectsUnknownEvictionPolicy(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Registry.EvictionPolicy = "lru"
	assert.Error(t, Validate(cfg))
}

func TestValidateAcceptsDefaults(t *testing.T) {
	assert.NoError(t, Validate(DefaultConfig()))
}
