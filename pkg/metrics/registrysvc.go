package metrics

// RegistryMetrics records pkg/registry sertype table size and churn.
type RegistryMetrics interface {
	RecordCount(n int)
	RecordRegistration()
	RecordEviction()
}

var newPrometheusRegistryMetrics func() RegistryMetrics

// RegisterRegistryMetricsConstructor registers the Prometheus constructor.
func RegisterRegistryMetricsConstructor(constructor func() RegistryMetrics) {
	newPrometheusRegistryMetrics = constructor
}

// NewRegistryMetrics returns a Prometheus-backed RegistryMetrics, or nil
// when metrics are not enabled.
func NewRegistryMetrics() RegistryMetrics {
	if !IsEnabled() || newPrometheusRegistryMetrics == nil {
		return nil
	}
	return newPrometheusRegistryMetrics()
}

func RecordRegistryCount(m RegistryMetrics, n int) {
	if m != nil {
		m.RecordCount(n)
	}
}

func RecordRegistration(m RegistryMetrics) {
	if m != nil {
		m.RecordRegistration()
	}
}

func RecordRegistryEviction(m RegistryMetrics) {
	if m != nil {
		m.RecordEviction()
	}
}
