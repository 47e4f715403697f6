// Package wikipedia fetches encyclopedia data for species: page summaries
// through the REST API, title suggestions through opensearch and page
// existence through the action API.
//
// Lookups never fail loudly. A summary that cannot be fetched for any reason
// is reported as not found and the cause is logged.
package wikipedia

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/antonholmquist/jason"
	"github.com/k3a/html2text"
	"github.com/patrickmn/go-cache"

	"github.com/nabos/fishclub/internal/conf"
	"github.com/nabos/fishclub/internal/errors"
	"github.com/nabos/fishclub/internal/httpclient"
	"github.com/nabos/fishclub/internal/logger"
	"github.com/nabos/fishclub/internal/observability/metrics"
)

const (
	DefaultBaseURL   = "https://pt.wikipedia.org"
	DefaultUserAgent = "fishclub/1.0 (Species Enrichment)"
	DefaultTimeout   = 10 * time.Second
	DefaultCacheTTL  = 24 * time.Hour

	summaryPath = "/api/rest_v1/page/summary/"
	actionPath  = "/w/api.php"
)

func getLogger() logger.Logger {
	return logger.Global().Module("wikipedia")
}

// Summary is the subset of a page summary used to enrich a species.
type Summary struct {
	Title       string
	Extract     string
	ExtractHTML string
	ImageURL    string
	PageURL     string
}

// Config configures a Client.
type Config struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	CacheTTL  time.Duration // <= 0 disables the summary cache

	// Transport replaces the pooled transport, tests pass httpmock's here
	Transport http.RoundTripper
}

// ConfigFromSettings maps the wikipedia settings block to a Config.
func ConfigFromSettings(settings *conf.Settings) Config {
	return Config{
		BaseURL:   settings.Wikipedia.BaseURL,
		UserAgent: settings.Wikipedia.UserAgent,
		Timeout:   settings.Wikipedia.Timeout,
		CacheTTL:  settings.Wikipedia.CacheTTL,
	}
}

// Client talks to one Wikipedia language edition. Safe for concurrent use.
type Client struct {
	http    *httpclient.Client
	baseURL string
	cache   *cache.Cache
	log     logger.Logger

	mu      sync.RWMutex
	metrics *metrics.EnrichmentMetrics
}

// NewClient creates a client, filling unset Config fields with defaults.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	c := &Client{
		http: httpclient.New(&httpclient.Config{
			DefaultTimeout: cfg.Timeout,
			UserAgent:      cfg.UserAgent,
			Transport:      cfg.Transport,
		}),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		log:     getLogger(),
	}
	if cfg.CacheTTL > 0 {
		c.cache = cache.New(cfg.CacheTTL, 2*cfg.CacheTTL)
	}
	return c
}

// SetMetrics attaches enrichment metrics to the client.
func (c *Client) SetMetrics(m *metrics.EnrichmentMetrics) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metrics = m
}

func (c *Client) recorder() metrics.Recorder {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.metrics == nil {
		return metrics.NopRecorder{}
	}
	return c.metrics
}

// FetchSummary returns the page summary for title. The boolean is false when
// the title is empty, the page does not exist, or the request failed.
func (c *Client) FetchSummary(ctx context.Context, title string) (*Summary, bool) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, false
	}
	key := strings.ReplaceAll(title, " ", "_")

	if c.cache != nil {
		if cached, found := c.cache.Get(key); found {
			c.recordCache(true)
			return cached.(*Summary), true
		}
		c.recordCache(false)
	}

	rec := c.recorder()
	start := time.Now()
	summary, err := c.fetchSummary(ctx, key)
	rec.RecordDuration(metrics.OpSummary, time.Since(start).Seconds())
	if err != nil {
		rec.RecordOperation(metrics.OpSummary, metrics.StatusError)
		rec.RecordError(metrics.OpSummary, errorType(err))
		var statusErr *httpclient.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			c.log.Debug("wikipedia page not found", logger.String("title", title))
		} else {
			c.log.Warn("wikipedia summary lookup failed",
				logger.String("title", title),
				logger.Error(err))
		}
		return nil, false
	}
	rec.RecordOperation(metrics.OpSummary, metrics.StatusSuccess)

	if summary.Title == "" {
		summary.Title = title
	}
	if c.cache != nil {
		c.cache.SetDefault(key, summary)
	}
	return summary, true
}

func (c *Client) fetchSummary(ctx context.Context, key string) (*Summary, error) {
	obj, err := c.getJSON(ctx, c.baseURL+summaryPath+url.PathEscape(key), nil, "summary")
	if err != nil {
		return nil, err
	}

	s := &Summary{}
	s.Title, _ = obj.GetString("title")
	s.Extract, _ = obj.GetString("extract")
	s.ExtractHTML, _ = obj.GetString("extract_html")
	if strings.TrimSpace(s.Extract) == "" && s.ExtractHTML != "" {
		s.Extract = strings.TrimSpace(html2text.HTML2Text(s.ExtractHTML))
	}
	s.ImageURL, _ = obj.GetString("thumbnail", "source")
	s.PageURL, _ = obj.GetString("content_urls", "desktop", "page")
	return s, nil
}

// SuggestTitle asks opensearch for the best matching page title.
// An empty string with a nil error means there was no suggestion.
func (c *Client) SuggestTitle(ctx context.Context, query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", nil
	}

	params := url.Values{
		"action":    {"opensearch"},
		"search":    {query},
		"limit":     {"1"},
		"namespace": {"0"},
		"format":    {"json"},
		"redirects": {"resolve"},
	}

	rec := c.recorder()
	resp, err := c.get(ctx, c.baseURL+actionPath, params)
	if err != nil {
		rec.RecordError(metrics.OpSuggest, errorType(err))
		return "", c.wrap(err, "opensearch", query)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		rec.RecordOperation(metrics.OpSuggest, metrics.StatusSkipped)
		c.log.Debug("opensearch returned non-200",
			logger.String("query", query),
			logger.Int("status", resp.StatusCode))
		return "", nil
	}

	// opensearch answers [query, [titles], [descriptions], [urls]]
	values, err := jason.NewValueFromReader(resp.Body)
	if err != nil {
		rec.RecordError(metrics.OpSuggest, "parse")
		return "", c.wrap(err, "opensearch_decode", query)
	}
	arr, err := values.Array()
	if err != nil || len(arr) < 2 {
		rec.RecordOperation(metrics.OpSuggest, metrics.StatusSkipped)
		return "", nil
	}
	titles, err := arr[1].Array()
	if err != nil || len(titles) == 0 {
		rec.RecordOperation(metrics.OpSuggest, metrics.StatusSkipped)
		return "", nil
	}
	first, err := titles[0].String()
	if err != nil {
		rec.RecordOperation(metrics.OpSuggest, metrics.StatusSkipped)
		return "", nil
	}

	rec.RecordOperation(metrics.OpSuggest, metrics.StatusSuccess)
	return strings.Join(strings.Fields(first), " "), nil
}

// PageExists reports whether title resolves to an existing page.
// A non-200 answer is reported as false without error.
func (c *Client) PageExists(ctx context.Context, title string) (bool, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return false, nil
	}

	params := url.Values{
		"action":    {"query"},
		"titles":    {title},
		"format":    {"json"},
		"redirects": {"1"},
	}

	rec := c.recorder()
	resp, err := c.get(ctx, c.baseURL+actionPath, params)
	if err != nil {
		rec.RecordError(metrics.OpPageExists, errorType(err))
		return false, c.wrap(err, "page_exists", title)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		rec.RecordOperation(metrics.OpPageExists, metrics.StatusSkipped)
		return false, nil
	}

	obj, err := jason.NewObjectFromReader(resp.Body)
	if err != nil {
		rec.RecordError(metrics.OpPageExists, "parse")
		return false, c.wrap(err, "page_exists_decode", title)
	}
	pages, err := obj.GetObject("query", "pages")
	if err != nil {
		rec.RecordOperation(metrics.OpPageExists, metrics.StatusSkipped)
		return false, nil
	}
	for _, page := range pages.Map() {
		pageObj, err := page.Object()
		if err != nil {
			continue
		}
		if _, missing := pageObj.Map()["missing"]; missing {
			rec.RecordOperation(metrics.OpPageExists, metrics.StatusSuccess)
			return false, nil
		}
	}
	rec.RecordOperation(metrics.OpPageExists, metrics.StatusSuccess)
	return len(pages.Map()) > 0, nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.http.Close()
}

func (c *Client) get(ctx context.Context, rawURL string, query url.Values) (*http.Response, error) {
	header := http.Header{"Accept": {"application/json"}}
	return c.http.Get(ctx, rawURL, query, header)
}

// getJSON fetches rawURL and decodes a JSON object, treating non-2xx as an error.
func (c *Client) getJSON(ctx context.Context, rawURL string, query url.Values, operation string) (*jason.Object, error) {
	resp, err := c.get(ctx, rawURL, query)
	if err != nil {
		return nil, c.wrap(err, operation, rawURL)
	}
	if err := httpclient.CheckStatus(resp); err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	obj, err := jason.NewObjectFromReader(resp.Body)
	if err != nil {
		return nil, errors.New(err).
			Component("wikipedia").
			Category(errors.CategoryEnrichment).
			Context("operation", operation+"_decode").
			Build()
	}
	return obj, nil
}

func (c *Client) wrap(err error, operation, target string) error {
	return errors.New(err).
		Component("wikipedia").
		Category(errors.CategoryNetwork).
		Context("operation", operation).
		Context("target", target).
		Build()
}

func (c *Client) recordCache(hit bool) {
	c.mu.RLock()
	m := c.metrics
	c.mu.RUnlock()
	if m != nil {
		m.RecordCacheLookup(hit)
	}
}

func errorType(err error) string {
	var statusErr *httpclient.StatusError
	switch {
	case errors.As(err, &statusErr):
		return "http"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.IsCategory(err, errors.CategoryEnrichment):
		return "parse"
	default:
		return "network"
	}
}
