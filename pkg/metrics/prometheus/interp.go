package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ddsx/cdrstream/pkg/metrics"
)

type interpMetrics struct {
	writeOps      *prometheus.CounterVec
	writeDuration *prometheus.HistogramVec
	writeBytes    *prometheus.HistogramVec
	readOps       *prometheus.CounterVec
	readDuration  *prometheus.HistogramVec
	readBytes     *prometheus.HistogramVec
	normalizeOps  *prometheus.CounterVec
	normalizeDur  prometheus.Histogram
	failures      *prometheus.CounterVec
}

func init() {
	metrics.RegisterInterpMetricsConstructor(newInterpMetrics)
}

func newInterpMetrics() metrics.InterpMetrics {
	if !metrics.IsEnabled() {
		return nil
	}
	reg := metrics.GetRegistry()

	return &interpMetrics{
		writeOps: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "cdrstream_interp_write_operations_total",
				Help: "Total number of interp.Write invocations by opcode kind",
			},
			[]string{"op_kind"},
		),
		writeDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cdrstream_interp_write_duration_seconds",
				Help:    "Duration of interp.Write invocations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op_kind"},
		),
		writeBytes: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cdrstream_interp_write_bytes",
				Help:    "Distribution of serialized payload sizes produced by interp.Write",
				Buckets: []float64{16, 64, 256, 1024, 4096, 16384, 65536, 262144, 1048576},
			},
			[]string{"op_kind"},
		),
		readOps: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "cdrstream_interp_read_operations_total",
				Help: "Total number of interp.Read invocations by opcode kind",
			},
			[]string{"op_kind"},
		),
		readDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cdrstream_interp_read_duration_seconds",
				Help:    "Duration of interp.Read invocations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op_kind"},
		),
		readBytes: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cdrstream_interp_read_bytes",
				Help:    "Distribution of decoded payload sizes consumed by interp.Read",
				Buckets: []float64{16, 64, 256, 1024, 4096, 16384, 65536, 262144, 1048576},
			},
			[]string{"op_kind"},
		),
		normalizeOps: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "cdrstream_interp_normalize_operations_total",
				Help: "Total number of interp.Normalize invocations, by whether a byte swap occurred",
			},
			[]string{"swapped"},
		),
		normalizeDur: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "cdrstream_interp_normalize_duration_seconds",
				Help:    "Duration of interp.Normalize invocations",
				Buckets: prometheus.DefBuckets,
			},
		),
		failures: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "cdrstream_interp_failures_total",
				Help: "Total number of interpreter failures by operation and reason",
			},
			[]string{"op", "reason"},
		),
	}
}

func (m *interpMetrics) ObserveWrite(opKind string, bytes int, duration time.Duration) {
	if m == nil {
		return
	}
	m.writeOps.WithLabelValues(opKind).Inc()
	m.writeDuration.WithLabelValues(opKind).Observe(duration.Seconds())
	if bytes > 0 {
		m.writeBytes.WithLabelValues(opKind).Observe(float64(bytes))
	}
}

func (m *interpMetrics) ObserveRead(opKind string, bytes int, duration time.Duration) {
	if m == nil {
		return
	}
	m.readOps.WithLabelValues(opKind).Inc()
	m.readDuration.WithLabelValues(opKind).Observe(duration.Seconds())
	if bytes > 0 {
		m.readBytes.WithLabelValues(opKind).Observe(float64(bytes))
	}
}

func (m *interpMetrics) ObserveNormalize(swapped bool, duration time.Duration) {
	if m == nil {
		return
	}
	label := "false"
	if swapped {
		label = "true"
	}
	m.normalizeOps.WithLabelValues(label).Inc()
	m.normalizeDur.Observe(duration.Seconds())
}

func (m *interpMetrics) RecordFailure(op, reason string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(op, reason).Inc()
}
