package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// EnrichmentMetrics tracks Wikipedia lookups and species enrichment runs.
type EnrichmentMetrics struct {
	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	ErrorsTotal       *prometheus.CounterVec
	CacheLookups      *prometheus.CounterVec
	registry          *prometheus.Registry
}

// NewEnrichmentMetrics creates and registers the enrichment collectors.
func NewEnrichmentMetrics(registry *prometheus.Registry) (*EnrichmentMetrics, error) {
	m := &EnrichmentMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register enrichment metrics: %w", err)
	}
	return m, nil
}

func (m *EnrichmentMetrics) initMetrics() {
	m.OperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrichment_operations_total",
			Help: "Total number of Wikipedia operations by operation and status",
		},
		[]string{"operation", "status"}, // operation: summary, suggest, page_exists, enrich
	)

	m.OperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "enrichment_operation_duration_seconds",
			Help:    "Duration of Wikipedia operations in seconds",
			Buckets: prometheus.ExponentialBuckets(BucketStart10ms, BucketFactor2, BucketCount12),
		},
		[]string{"operation"},
	)

	m.ErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrichment_errors_total",
			Help: "Total number of Wikipedia errors by operation and error type",
		},
		[]string{"operation", "error_type"},
	)

	m.CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrichment_cache_lookups_total",
			Help: "Summary cache lookups by result",
		},
		[]string{"result"}, // hit, miss
	)
}

// RecordOperation implements Recorder.
func (m *EnrichmentMetrics) RecordOperation(operation, status string) {
	m.OperationsTotal.WithLabelValues(operation, status).Inc()
}

// RecordDuration implements Recorder.
func (m *EnrichmentMetrics) RecordDuration(operation string, seconds float64) {
	m.OperationDuration.WithLabelValues(operation).Observe(seconds)
}

// RecordError implements Recorder.
func (m *EnrichmentMetrics) RecordError(operation, errorType string) {
	m.ErrorsTotal.WithLabelValues(operation, errorType).Inc()
}

// RecordCacheLookup counts a summary cache hit or miss.
func (m *EnrichmentMetrics) RecordCacheLookup(hit bool) {
	if hit {
		m.CacheLookups.WithLabelValues(StatusHit).Inc()
		return
	}
	m.CacheLookups.WithLabelValues(StatusMiss).Inc()
}

// Describe implements the prometheus.Collector interface.
func (m *EnrichmentMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.OperationsTotal.Describe(ch)
	m.OperationDuration.Describe(ch)
	m.ErrorsTotal.Describe(ch)
	m.CacheLookups.Describe(ch)
}

// Collect implements the prometheus.Collector interface.
func (m *EnrichmentMetrics) Collect(ch chan<- prometheus.Metric) {
	m.OperationsTotal.Collect(ch)
	m.OperationDuration.Collect(ch)
	m.ErrorsTotal.Collect(ch)
	m.CacheLookups.Collect(ch)
}
