package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// NotificationMetrics contains Prometheus metrics for push notification delivery.
type NotificationMetrics struct {
	DeliveriesTotal  *prometheus.CounterVec   // by provider, notification type and status
	DeliveryDuration *prometheus.HistogramVec // by provider
	SuppressedTotal  prometheus.Counter       // duplicates dropped inside the dedup window

	registry *prometheus.Registry
}

// NewNotificationMetrics creates and registers the notification collectors.
func NewNotificationMetrics(registry *prometheus.Registry) (*NotificationMetrics, error) {
	m := &NotificationMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register notification metrics: %w", err)
	}
	return m, nil
}

func (m *NotificationMetrics) initMetrics() {
	m.DeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_deliveries_total",
			Help: "Total number of notification delivery attempts by provider, notification type, and status",
		},
		[]string{"provider", "notification_type", "status"},
	)

	m.DeliveryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "notification_delivery_duration_seconds",
			Help:    "Time taken for notification delivery by provider",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
		},
		[]string{"provider"},
	)

	m.SuppressedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notification_suppressed_total",
		Help: "Notifications dropped as duplicates of a recent one",
	})
}

// RecordDelivery records one delivery attempt.
func (m *NotificationMetrics) RecordDelivery(provider, notificationType, status string, duration time.Duration) {
	m.DeliveriesTotal.WithLabelValues(provider, notificationType, status).Inc()
	m.DeliveryDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// IncrementSuppressed counts a dropped duplicate.
func (m *NotificationMetrics) IncrementSuppressed() {
	m.SuppressedTotal.Inc()
}

// Collect implements the prometheus.Collector interface.
func (m *NotificationMetrics) Collect(ch chan<- prometheus.Metric) {
	m.DeliveriesTotal.Collect(ch)
	m.DeliveryDuration.Collect(ch)
	ch <- m.SuppressedTotal
}

// Describe implements the prometheus.Collector interface.
func (m *NotificationMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.DeliveriesTotal.Describe(ch)
	m.DeliveryDuration.Describe(ch)
	ch <- m.SuppressedTotal.Desc()
}
