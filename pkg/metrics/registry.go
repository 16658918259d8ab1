// Package metrics defines the CDR-engine metrics surface: interface types
// and enable/disable bookkeeping, with the concrete Prometheus
// implementation living in pkg/metrics/prometheus to avoid that package
// importing this one's consumers directly. This package declares the
// interface and a registration hook; prometheus/*.go registers its
// constructor in an init().
package metrics

import (
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registryMu sync.Mutex
	registry   *prometheus.Registry
	enabled    atomic.Bool
)

// InitRegistry creates (or returns the existing) process-wide Prometheus
// registry and marks metrics as enabled. Safe to call more than once.
func InitRegistry() *prometheus.Registry {
	registryMu.Lock()
	defer registryMu.Unlock()

	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	enabled.Store(true)
	return registry
}

// IsEnabled reports whether InitRegistry has been called. Metrics
// constructors return nil when false, so instrumented code pays zero
// overhead unless the operator opts in (pkg/config's MetricsConfig.Enabled).
func IsEnabled() bool {
	return enabled.Load()
}

// GetRegistry returns the process-wide registry, creating it if necessary.
// Prefer InitRegistry at startup; GetRegistry exists for constructors that
// run after InitRegistry has already been called.
func GetRegistry() *prometheus.Registry {
	registryMu.Lock()
	defer registryMu.Unlock()

	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	return registry
}

// Reset clears the registry and disables metrics. Intended for tests that
// need a clean slate between cases exercising InitRegistry/IsEnabled.
func Reset() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = nil
	enabled.Store(false)
}
