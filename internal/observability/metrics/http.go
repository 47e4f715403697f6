package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Catch submission outcomes.
const (
	CatchAccepted       = "accepted"
	CatchRejected       = "rejected"        // bad payload or unknown species
	CatchBelowMinLength = "below_min_length" // stored, but worth no points
)

// HTTPMetrics covers the API: requests per route template, admin auth
// checks, catch submissions and the response cache. Methods are no-ops on a
// nil receiver.
type HTTPMetrics struct {
	requests     *prometheus.CounterVec
	latency      *prometheus.HistogramVec
	serverErrors *prometheus.CounterVec
	responseSize *prometheus.HistogramVec
	authChecks   *prometheus.CounterVec
	catches      *prometheus.CounterVec
	cacheLookups *prometheus.CounterVec
}

// NewHTTPMetrics creates the API collectors and registers them on registry.
func NewHTTPMetrics(registry *prometheus.Registry) (*HTTPMetrics, error) {
	m := &HTTPMetrics{
		// path is the route template, /api/v2/species/:slug, never the raw URL
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status_code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Time taken for HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		serverErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_request_errors_total",
			Help: "Requests answered with a 5xx status",
		}, []string{"method", "path", "status_code"}),
		responseSize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "Size of HTTP responses in bytes",
			Buckets: prometheus.ExponentialBuckets(BucketStart100B, BucketFactor10, BucketCount6),
		}, []string{"method", "path"}),
		authChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_auth_operations_total",
			Help: "Admin basic auth checks by result",
		}, []string{"auth_type", "status"}),
		catches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catches_submitted_total",
			Help: "Catch submissions by species category and outcome",
		}, []string{"category", "outcome"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_cache_lookups_total",
			Help: "Response cache lookups by cache and result",
		}, []string{"cache", "result"}),
	}
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *HTTPMetrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.requests, m.latency, m.serverErrors, m.responseSize,
		m.authChecks, m.catches, m.cacheLookups,
	}
}

// Describe implements prometheus.Collector.
func (m *HTTPMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, c := range m.collectors() {
		c.Describe(ch)
	}
}

// Collect implements prometheus.Collector.
func (m *HTTPMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, c := range m.collectors() {
		c.Collect(ch)
	}
}

// RecordRequest records one finished request against its route template.
func (m *HTTPMetrics) RecordRequest(method, path string, status int, took time.Duration, size int64) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.requests.WithLabelValues(method, path, code).Inc()
	m.latency.WithLabelValues(method, path).Observe(took.Seconds())
	m.responseSize.WithLabelValues(method, path).Observe(float64(size))
	if status >= 500 {
		m.serverErrors.WithLabelValues(method, path, code).Inc()
	}
}

func (m *HTTPMetrics) RecordAuthOperation(authType, status string) {
	if m == nil {
		return
	}
	m.authChecks.WithLabelValues(authType, status).Inc()
}

// RecordCatch counts a submission. category is "" for rejected payloads.
func (m *HTTPMetrics) RecordCatch(category, outcome string) {
	if m == nil {
		return
	}
	if category == "" {
		category = "unknown"
	}
	m.catches.WithLabelValues(category, outcome).Inc()
}

func (m *HTTPMetrics) RecordCacheLookup(cache string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(cache, result).Inc()
}
