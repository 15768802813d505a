package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// StorageMetrics contains Prometheus metrics for object storage uploads.
type StorageMetrics struct {
	Uploads      prometheus.Counter
	UploadErrors prometheus.Counter
	UploadBytes  prometheus.Counter
	registry     *prometheus.Registry
}

// NewStorageMetrics creates a new instance of StorageMetrics.
func NewStorageMetrics(registry *prometheus.Registry) (*StorageMetrics, error) {
	m := &StorageMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register storage metrics: %w", err)
	}
	return m, nil
}

func (m *StorageMetrics) initMetrics() {
	m.Uploads = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wildscan_storage_uploads_total",
		Help: "Total number of successful photo uploads",
	})

	m.UploadErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wildscan_storage_upload_errors_total",
		Help: "Total number of failed photo uploads",
	})

	m.UploadBytes = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wildscan_storage_upload_bytes_total",
		Help: "Total bytes uploaded to object storage",
	})
}

// RecordUpload records a successful upload of the given size.
func (m *StorageMetrics) RecordUpload(sizeBytes int) {
	m.Uploads.Inc()
	m.UploadBytes.Add(float64(sizeBytes))
}

// IncrementUploadErrors counts a failed upload.
func (m *StorageMetrics) IncrementUploadErrors() {
	m.UploadErrors.Inc()
}

// Collect implements the prometheus.Collector interface.
func (m *StorageMetrics) Collect(ch chan<- prometheus.Metric) {
	ch <- m.Uploads
	ch <- m.UploadErrors
	ch <- m.UploadBytes
}

// Describe implements the prometheus.Collector interface.
func (m *StorageMetrics) Describe(ch chan<- *prometheus.Desc) {
	ch <- m.Uploads.Desc()
	ch <- m.UploadErrors.Desc()
	ch <- m.UploadBytes.Desc()
}
