package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ddsx/cdrstream/pkg/metrics"
)

type poolMetrics struct {
	hits *prometheus.CounterVec
	miss *prometheus.CounterVec
	size *prometheus.GaugeVec
}

func init() {
	metrics.RegisterPoolMetricsConstructor(newPoolMetrics)
}

func newPoolMetrics() metrics.PoolMetrics {
	if !metrics.IsEnabled() {
		return nil
	}
	reg := metrics.GetRegistry()

	return &poolMetrics{
		hits: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "cdrstream_pool_hits_total",
				Help: "Total number of buffer/serdata pool hits by pool and size tier",
			},
			[]string{"pool", "tier"},
		),
		miss: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "cdrstream_pool_misses_total",
				Help: "Total number of buffer/serdata pool misses by pool and size tier",
			},
			[]string{"pool", "tier"},
		),
		size: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "cdrstream_pool_size",
				Help: "Current number of pooled entries by pool and size tier",
			},
			[]string{"pool", "tier"},
		),
	}
}

func (m *poolMetrics) RecordHit(pool, tier string) {
	if m == nil {
		return
	}
	m.hits.WithLabelValues(pool, tier).Inc()
}

func (m *poolMetrics) RecordMiss(pool, tier string) {
	if m == nil {
		return
	}
	m.miss.WithLabelValues(pool, tier).Inc()
}

func (m *poolMetrics) RecordSize(pool, tier string, count int) {
	if m == nil {
		return
	}
	m.size.WithLabelValues(pool, tier).Set(float64(count))
}
