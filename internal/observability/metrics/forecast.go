package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// ForecastMetrics tracks Stormglass requests and forecast upserts.
type ForecastMetrics struct {
	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	ErrorsTotal       *prometheus.CounterVec
	HoursUpserted     *prometheus.CounterVec
	QuotaUsed         prometheus.Gauge
	LastRefreshTime   *prometheus.GaugeVec
	registry          *prometheus.Registry
}

// NewForecastMetrics creates and registers the forecast collectors.
func NewForecastMetrics(registry *prometheus.Registry) (*ForecastMetrics, error) {
	m := &ForecastMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register forecast metrics: %w", err)
	}
	return m, nil
}

func (m *ForecastMetrics) initMetrics() {
	m.OperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forecast_operations_total",
			Help: "Total number of forecast operations by operation and status",
		},
		[]string{"operation", "status"}, // operation: fetch, refresh, upsert
	)

	m.OperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "forecast_operation_duration_seconds",
			Help:    "Duration of forecast operations in seconds",
			Buckets: prometheus.ExponentialBuckets(BucketStart10ms, BucketFactor2, BucketCount12),
		},
		[]string{"operation"},
	)

	m.ErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forecast_errors_total",
			Help: "Total number of forecast errors by operation and error type",
		},
		[]string{"operation", "error_type"},
	)

	m.HoursUpserted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forecast_hours_upserted_total",
			Help: "Forecast hours written, split into created and updated rows",
		},
		[]string{"result"}, // created, updated
	)

	m.QuotaUsed = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "forecast_quota_used_today",
		Help: "Stormglass requests logged since UTC midnight",
	})

	m.LastRefreshTime = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "forecast_last_refresh_timestamp_seconds",
			Help: "Unix time of the last successful refresh per spot",
		},
		[]string{"spot"},
	)
}

// RecordOperation implements Recorder.
func (m *ForecastMetrics) RecordOperation(operation, status string) {
	m.OperationsTotal.WithLabelValues(operation, status).Inc()
}

// RecordDuration implements Recorder.
func (m *ForecastMetrics) RecordDuration(operation string, seconds float64) {
	m.OperationDuration.WithLabelValues(operation).Observe(seconds)
}

// RecordError implements Recorder.
func (m *ForecastMetrics) RecordError(operation, errorType string) {
	m.ErrorsTotal.WithLabelValues(operation, errorType).Inc()
}

// RecordUpsert adds the created and updated row counts of one refresh.
func (m *ForecastMetrics) RecordUpsert(created, updated int) {
	m.HoursUpserted.WithLabelValues("created").Add(float64(created))
	m.HoursUpserted.WithLabelValues("updated").Add(float64(updated))
}

// SetQuotaUsed publishes today's request count.
func (m *ForecastMetrics) SetQuotaUsed(n int) {
	m.QuotaUsed.Set(float64(n))
}

// MarkRefreshed records the refresh time of a spot.
func (m *ForecastMetrics) MarkRefreshed(spot string) {
	m.LastRefreshTime.WithLabelValues(spot).SetToCurrentTime()
}

// Describe implements the prometheus.Collector interface.
func (m *ForecastMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.OperationsTotal.Describe(ch)
	m.OperationDuration.Describe(ch)
	m.ErrorsTotal.Describe(ch)
	m.HoursUpserted.Describe(ch)
	ch <- m.QuotaUsed.Desc()
	m.LastRefreshTime.Describe(ch)
}

// Collect implements the prometheus.Collector interface.
func (m *ForecastMetrics) Collect(ch chan<- prometheus.Metric) {
	m.OperationsTotal.Collect(ch)
	m.OperationDuration.Collect(ch)
	m.ErrorsTotal.Collect(ch)
	m.HoursUpserted.Collect(ch)
	ch <- m.QuotaUsed
	m.LastRefreshTime.Collect(ch)
}
