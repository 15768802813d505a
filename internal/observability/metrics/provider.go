package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// ProviderMetrics contains Prometheus metrics for the model provider.
type ProviderMetrics struct {
	Requests       *prometheus.CounterVec
	Errors         prometheus.Counter
	RequestLatency prometheus.Histogram
	registry       *prometheus.Registry
}

// NewProviderMetrics creates a new instance of ProviderMetrics.
func NewProviderMetrics(registry *prometheus.Registry) (*ProviderMetrics, error) {
	m := &ProviderMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register provider metrics: %w", err)
	}
	return m, nil
}

func (m *ProviderMetrics) initMetrics() {
	m.Requests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "wildscan_provider_requests_total",
		Help: "Total number of model provider requests by operation (identify, classify)",
	}, []string{"operation"})

	m.Errors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wildscan_provider_errors_total",
		Help: "Total number of failed model provider requests",
	})

	m.RequestLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "wildscan_provider_request_latency_seconds",
		Help:    "Latency of model provider requests in seconds",
		Buckets: prometheus.ExponentialBuckets(0.25, 2, 8),
	})
}

// RecordRequest records a provider round trip.
func (m *ProviderMetrics) RecordRequest(operation string, seconds float64) {
	m.Requests.WithLabelValues(operation).Inc()
	m.RequestLatency.Observe(seconds)
}

// IncrementErrors counts a failed provider request.
func (m *ProviderMetrics) IncrementErrors() {
	m.Errors.Inc()
}

// Collect implements the prometheus.Collector interface.
func (m *ProviderMetrics) Collect(ch chan<- prometheus.Metric) {
	m.Requests.Collect(ch)
	ch <- m.Errors
	ch <- m.RequestLatency
}

// Describe implements the prometheus.Collector interface.
func (m *ProviderMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.Requests.Describe(ch)
	ch <- m.Errors.Desc()
	ch <- m.RequestLatency.Desc()
}
