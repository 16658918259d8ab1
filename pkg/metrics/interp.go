package metrics

import "time"

// InterpMetrics records cdr/interp throughput and failure counts. All
// methods are no-ops on a nil receiver, so call sites never need an
// IsEnabled() guard of their own.
type InterpMetrics interface {
	ObserveWrite(opKind string, bytes int, duration time.Duration)
	ObserveRead(opKind string, bytes int, duration time.Duration)
	ObserveNormalize(swapped bool, duration time.Duration)
	RecordFailure(op string, reason string)
}

// newPrometheusInterpMetrics is populated by pkg/metrics/prometheus/interp.go's
// init(), avoiding an import of pkg/metrics/prometheus from this package.
var newPrometheusInterpMetrics func() InterpMetrics

// RegisterInterpMetricsConstructor registers the Prometheus constructor.
func RegisterInterpMetricsConstructor(constructor func() InterpMetrics) {
	newPrometheusInterpMetrics = constructor
}

// NewInterpMetrics returns a Prometheus-backed InterpMetrics, or nil when
// metrics are not enabled.
func NewInterpMetrics() InterpMetrics {
	if !IsEnabled() || newPrometheusInterpMetrics == nil {
		return nil
	}
	return newPrometheusInterpMetrics()
}

func ObserveWrite(m InterpMetrics, opKind string, bytes int, duration time.Duration) {
	if m != nil {
		m.ObserveWrite(opKind, bytes, duration)
	}
}

func ObserveRead(m InterpMetrics, opKind string, bytes int, duration time.Duration) {
	if m != nil {
		m.ObserveRead(opKind, bytes, duration)
	}
}

func ObserveNormalize(m InterpMetrics, swapped bool, duration time.Duration) {
	if m != nil {
		m.ObserveNormalize(swapped, duration)
	}
}

func RecordFailure(m InterpMetrics, op, reason string) {
	if m != nil {
		m.RecordFailure(op, reason)
	}
}
