package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ddsx/cdrstream/pkg/metrics"
)

type registryMetrics struct {
	count         prometheus.Gauge
	registrations prometheus.Counter
	evictions     prometheus.Counter
}

func init() {
	metrics.RegisterRegistryMetricsConstructor(newRegistryMetrics)
}

func newRegistryMetrics() metrics.RegistryMetrics {
	if !metrics.IsEnabled() {
		return nil
	}
	reg := metrics.GetRegistry()

	return &registryMetrics{
		count: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "cdrstream_registry_types",
				Help: "Current number of registered sertypes",
			},
		),
		registrations: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "cdrstream_registry_registrations_total",
				Help: "Total number of sertype registrations (including idempotent re-registrations)",
			},
		),
		evictions: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "cdrstream_registry_evictions_total",
				Help: "Total number of sertype evictions",
			},
		),
	}
}

func (m *registryMetrics) RecordCount(n int) {
	if m == nil {
		return
	}
	m.count.Set(float64(n))
}

func (m *registryMetrics) RecordRegistration() {
	if m == nil {
		return
	}
	m.registrations.Inc()
}

func (m *registryMetrics) RecordEviction() {
	if m == nil {
		return
	}
	m.evictions.Inc()
}
