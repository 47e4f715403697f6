// Package stormglass fetches marine point forecasts from the Stormglass API
// and normalizes them into one reading per hour.
//
// A request costs one unit of a small daily quota, so Fetch never retries.
// Repeated failures open a circuit breaker that fails fast until the provider
// had time to recover.
package stormglass

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"github.com/nabos/fishclub/internal/conf"
	"github.com/nabos/fishclub/internal/errors"
	"github.com/nabos/fishclub/internal/httpclient"
	"github.com/nabos/fishclub/internal/logger"
	"github.com/nabos/fishclub/internal/observability/metrics"
)

const (
	DefaultBaseURL = "https://api.stormglass.io/v2/weather/point"
	DefaultTimeout = 20 * time.Second

	// maxBodyBytes bounds a forecast response, a day of hours is far below it
	maxBodyBytes = 4 << 20
)

// StatusError carries the HTTP status of a rejected request.
type StatusError = httpclient.StatusError

var (
	// ErrMissingAPIKey is returned by Fetch when no API key is configured.
	ErrMissingAPIKey = errors.NewStd("stormglass api key not configured")

	// ErrCircuitOpen is returned while the breaker rejects requests.
	ErrCircuitOpen = errors.NewStd("stormglass circuit breaker open")
)

func getLogger() logger.Logger {
	return logger.Global().Module("stormglass")
}

// Config configures a Client.
type Config struct {
	APIKey  string
	BaseURL string
	Source  string // optional comma-separated source filter
	Timeout time.Duration

	// Transport replaces the pooled transport, tests pass httpmock's here
	Transport http.RoundTripper
}

// ConfigFromSettings maps the stormglass settings block to a Config.
func ConfigFromSettings(settings *conf.Settings) Config {
	return Config{
		APIKey:  settings.Stormglass.APIKey,
		BaseURL: settings.Stormglass.BaseURL,
		Source:  settings.Stormglass.Source,
		Timeout: settings.Stormglass.Timeout,
	}
}

// Client is a Stormglass point-forecast client. Safe for concurrent use.
type Client struct {
	http    *httpclient.Client
	baseURL string
	apiKey  string
	source  string
	breaker *gobreaker.CircuitBreaker
	log     logger.Logger

	mu  sync.RWMutex
	rec metrics.Recorder
}

// NewClient creates a client, filling unset Config fields with defaults.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	c := &Client{
		http: httpclient.New(&httpclient.Config{
			DefaultTimeout: cfg.Timeout,
			Transport:      cfg.Transport,
		}),
		baseURL: cfg.BaseURL,
		apiKey:  strings.TrimSpace(cfg.APIKey),
		source:  strings.TrimSpace(cfg.Source),
		log:     getLogger(),
		rec:     metrics.NopRecorder{},
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "stormglass",
		MaxRequests: 1,
		Interval:    10 * time.Minute,
		Timeout:     5 * time.Minute,
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.log.Warn("circuit breaker state changed",
				logger.String("breaker", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()))
		},
	})
	return c
}

// SetRecorder attaches a metrics recorder.
func (c *Client) SetRecorder(rec metrics.Recorder) {
	if rec == nil {
		rec = metrics.NopRecorder{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rec = rec
}

func (c *Client) recorder() metrics.Recorder {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rec
}

// Fetch requests all Params for one point between start and end.
// Non-2xx answers return a *StatusError, transport failures a network error.
func (c *Client) Fetch(ctx context.Context, lat, lng float64, start, end time.Time) (*Payload, error) {
	if c.apiKey == "" {
		return nil, errors.New(ErrMissingAPIKey).
			Component("stormglass").
			Category(errors.CategoryConfiguration).
			Build()
	}

	query := url.Values{
		"lat":    {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lng":    {strconv.FormatFloat(lng, 'f', -1, 64)},
		"params": {strings.Join(Params, ",")},
		"start":  {strconv.FormatInt(start.UTC().Unix(), 10)},
		"end":    {strconv.FormatInt(end.UTC().Unix(), 10)},
	}
	if c.source != "" {
		query.Set("source", c.source)
	}
	header := http.Header{"Authorization": {c.apiKey}}

	rec := c.recorder()
	began := time.Now()
	result, err := c.breaker.Execute(func() (any, error) {
		resp, err := c.http.Get(ctx, c.baseURL, query, header)
		if err != nil {
			return nil, err
		}
		if err := httpclient.CheckStatus(resp); err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		return io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	})
	rec.RecordDuration(metrics.OpFetch, time.Since(began).Seconds())

	if err != nil {
		rec.RecordOperation(metrics.OpFetch, metrics.StatusError)
		return nil, c.fetchError(err, lat, lng)
	}

	payload, err := Decode(result.([]byte))
	if err != nil {
		rec.RecordOperation(metrics.OpFetch, metrics.StatusError)
		rec.RecordError(metrics.OpFetch, "parse")
		return nil, errors.New(err).
			Component("stormglass").
			Category(errors.CategoryForecast).
			Context("operation", "decode_payload").
			Build()
	}

	rec.RecordOperation(metrics.OpFetch, metrics.StatusSuccess)
	c.log.Debug("forecast fetched",
		logger.Float64("lat", lat),
		logger.Float64("lng", lng),
		logger.Int("hours", len(payload.Hours)),
		logger.Int("request_count", payload.Meta.RequestCount),
		logger.Int("daily_quota", payload.Meta.DailyQuota))
	return payload, nil
}

func (c *Client) fetchError(err error, lat, lng float64) error {
	rec := c.recorder()

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		rec.RecordError(metrics.OpFetch, "circuit_open")
		return errors.New(errors.Join(ErrCircuitOpen, err)).
			Component("stormglass").
			Category(errors.CategoryForecast).
			Build()
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		rec.RecordError(metrics.OpFetch, "http")
		return errors.New(statusErr).
			Component("stormglass").
			Category(errors.CategoryHTTP).
			Context("status_code", statusErr.StatusCode).
			Context("lat", lat).
			Context("lng", lng).
			Build()
	}

	rec.RecordError(metrics.OpFetch, "network")
	return errors.New(err).
		Component("stormglass").
		Category(errors.CategoryNetwork).
		Context("lat", lat).
		Context("lng", lng).
		Build()
}

// StatusCode extracts the provider status from a Fetch error, 0 when the
// request never got an answer.
func StatusCode(err error) int {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	return 0
}

// RequestSent reports whether a Fetch error happened after the request was
// handed to the transport. Breaker rejections and a missing API key cost no quota.
func RequestSent(err error) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, ErrCircuitOpen), errors.Is(err, ErrMissingAPIKey):
		return false
	case errors.IsCategory(err, errors.CategoryConfiguration):
		return false
	}
	return true
}

// Close releases idle connections.
func (c *Client) Close() {
	c.http.Close()
}
