package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MQTT error stage label values.
const (
	StageConnect        = "connect"
	StagePublish        = "publish"
	StageTimeout        = "timeout"
	StageConnectionLost = "connection_lost"
)

// MQTTMetrics tracks catch event publishing. All methods are safe on a nil receiver.
type MQTTMetrics struct {
	registry *prometheus.Registry

	connected       prometheus.Gauge
	lastConnect     prometheus.Gauge
	published       *prometheus.CounterVec
	errors          *prometheus.CounterVec
	reconnects      prometheus.Counter
	payloadBytes    prometheus.Histogram
	publishDuration prometheus.Histogram
}

// NewMQTTMetrics creates and registers the MQTT collectors.
func NewMQTTMetrics(registry *prometheus.Registry) (*MQTTMetrics, error) {
	m := &MQTTMetrics{
		registry: registry,
		connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mqtt_connected",
			Help: "1 while the broker connection is up",
		}),
		lastConnect: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mqtt_last_connect_timestamp_seconds",
			Help: "Unix time of the last successful broker connection",
		}),
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mqtt_events_published_total",
			Help: "Club events delivered to the broker",
		}, []string{"topic"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mqtt_errors_total",
			Help: "MQTT failures by stage",
		}, []string{"stage"}),
		reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mqtt_reconnect_attempts_total",
			Help: "Reconnection attempts after a lost connection",
		}),
		payloadBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mqtt_event_payload_bytes",
			Help:    "Size of published event payloads",
			Buckets: prometheus.ExponentialBuckets(BucketStart64B, BucketFactor2, BucketCount10),
		}),
		publishDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mqtt_publish_duration_seconds",
			Help:    "Time until the broker acknowledged a publish",
			Buckets: prometheus.ExponentialBuckets(BucketStart1ms, BucketFactor2, BucketCount12),
		}),
	}
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

// SetConnected records the broker connection state.
func (m *MQTTMetrics) SetConnected(connected bool) {
	if m == nil {
		return
	}
	if !connected {
		m.connected.Set(0)
		return
	}
	m.connected.Set(1)
	m.lastConnect.SetToCurrentTime()
}

// RecordPublish records a delivered event.
func (m *MQTTMetrics) RecordPublish(topic string, payloadBytes int, took time.Duration) {
	if m == nil {
		return
	}
	m.published.WithLabelValues(topic).Inc()
	m.payloadBytes.Observe(float64(payloadBytes))
	m.publishDuration.Observe(took.Seconds())
}

// RecordError counts a failure at the given stage.
func (m *MQTTMetrics) RecordError(stage string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(stage).Inc()
}

// RecordReconnectAttempt counts one reconnection attempt.
func (m *MQTTMetrics) RecordReconnectAttempt() {
	if m == nil {
		return
	}
	m.reconnects.Inc()
}

// Describe implements prometheus.Collector.
func (m *MQTTMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.connected.Describe(ch)
	m.lastConnect.Describe(ch)
	m.published.Describe(ch)
	m.errors.Describe(ch)
	m.reconnects.Describe(ch)
	m.payloadBytes.Describe(ch)
	m.publishDuration.Describe(ch)
}

// Collect implements prometheus.Collector.
func (m *MQTTMetrics) Collect(ch chan<- prometheus.Metric) {
	m.connected.Collect(ch)
	m.lastConnect.Collect(ch)
	m.published.Collect(ch)
	m.errors.Collect(ch)
	m.reconnects.Collect(ch)
	m.payloadBytes.Collect(ch)
	m.publishDuration.Collect(ch)
}
