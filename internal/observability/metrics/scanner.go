// Package metrics provides custom Prometheus metrics for the scan pipeline.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// ScannerMetrics contains all Prometheus metrics related to scan processing.
type ScannerMetrics struct {
	ScansTotal      *prometheus.CounterVec
	ScanDuration    prometheus.Histogram
	DegradedScans   prometheus.Counter
	FallbackImages  prometheus.Counter
	PointsAwarded   prometheus.Counter
	CurrencyAwarded prometheus.Counter
	registry        *prometheus.Registry
}

// NewScannerMetrics creates a new instance of ScannerMetrics.
func NewScannerMetrics(registry *prometheus.Registry) (*ScannerMetrics, error) {
	m := &ScannerMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register scanner metrics: %w", err)
	}
	return m, nil
}

func (m *ScannerMetrics) initMetrics() {
	m.ScansTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "wildscan_scans_total",
		Help: "Total number of scan requests by outcome (new, duplicate, error)",
	}, []string{"outcome"})

	m.ScanDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "wildscan_scan_duration_seconds",
		Help:    "End-to-end scan processing duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
	})

	m.DegradedScans = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wildscan_degraded_scans_total",
		Help: "Total number of scans that completed with a placeholder identification",
	})

	m.FallbackImages = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wildscan_fallback_images_total",
		Help: "Total number of scans that stored a fallback image URL instead of an upload",
	})

	m.PointsAwarded = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wildscan_points_awarded_total",
		Help: "Total achievement points granted for scans",
	})

	m.CurrencyAwarded = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wildscan_currency_awarded_total",
		Help: "Total spendable currency granted for scans",
	})
}

// RecordScan records a completed scan with its outcome and duration.
func (m *ScannerMetrics) RecordScan(outcome string, seconds float64) {
	m.ScansTotal.WithLabelValues(outcome).Inc()
	m.ScanDuration.Observe(seconds)
}

// RecordReward records granted points and currency.
func (m *ScannerMetrics) RecordReward(points, currency int) {
	m.PointsAwarded.Add(float64(points))
	m.CurrencyAwarded.Add(float64(currency))
}

// IncrementDegradedScans counts a scan that fell back to placeholder data.
func (m *ScannerMetrics) IncrementDegradedScans() {
	m.DegradedScans.Inc()
}

// IncrementFallbackImages counts a scan that stored a fallback image.
func (m *ScannerMetrics) IncrementFallbackImages() {
	m.FallbackImages.Inc()
}

// Collect implements the prometheus.Collector interface.
func (m *ScannerMetrics) Collect(ch chan<- prometheus.Metric) {
	m.ScansTotal.Collect(ch)
	ch <- m.ScanDuration
	ch <- m.DegradedScans
	ch <- m.FallbackImages
	ch <- m.PointsAwarded
	ch <- m.CurrencyAwarded
}

// Describe implements the prometheus.Collector interface.
func (m *ScannerMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.ScansTotal.Describe(ch)
	ch <- m.ScanDuration.Desc()
	ch <- m.DegradedScans.Desc()
	ch <- m.FallbackImages.Desc()
	ch <- m.PointsAwarded.Desc()
	ch <- m.CurrencyAwarded.Desc()
}
