package metrics

// PoolMetrics records buffer-pool (pkg/bufpool) and serdata-pool
// (pkg/serdata.Pool) hit/miss behavior.
type PoolMetrics interface {
	RecordHit(pool, tier string)
	RecordMiss(pool, tier string)
	RecordSize(pool, tier string, count int)
}

var newPrometheusPoolMetrics func() PoolMetrics

// RegisterPoolMetricsConstructor registers the Prometheus constructor.
func RegisterPoolMetricsConstructor(constructor func() PoolMetrics) {
	newPrometheusPoolMetrics = constructor
}

// NewPoolMetrics returns a Prometheus-backed PoolMetrics, or nil when
// metrics are not enabled.
func NewPoolMetrics() PoolMetrics {
	if !IsEnabled() || newPrometheusPoolMetrics == nil {
		return nil
	}
	return newPrometheusPoolMetrics()
}

func RecordPoolHit(m PoolMetrics, pool, tier string) {
	if m != nil {
		m.RecordHit(pool, tier)
	}
}

func RecordPoolMiss(m PoolMetrics, pool, tier string) {
	if m != nil {
		m.RecordMiss(pool, tier)
	}
}

func RecordPoolSize(m PoolMetrics, pool, tier string, count int) {
	if m != nil {
		m.RecordSize(pool, tier, count)
	}
}
