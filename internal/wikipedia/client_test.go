package wikipedia

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nabos/fishclub/internal/logger"
	"github.com/nabos/fishclub/internal/observability/metrics"
)

const (
	testBase       = "https://pt.wikipedia.org"
	robaloSummary  = testBase + "/api/rest_v1/page/summary/Robalo_flecha"
	actionEndpoint = testBase + "/w/api.php"
)

const robaloJSON = `{
  "title": "Robalo-flecha",
  "extract": "O robalo-flecha (Centropomus undecimalis) é um peixe da família Centropomidae.",
  "extract_html": "<p>O <b>robalo-flecha</b> (<i>Centropomus undecimalis</i>) é um peixe.</p>",
  "thumbnail": {"source": "https://upload.wikimedia.org/robalo.jpg", "width": 320},
  "content_urls": {"desktop": {"page": "https://pt.wikipedia.org/wiki/Robalo-flecha"}}
}`

func newTestClient(t *testing.T, ttl time.Duration) (*Client, *httpmock.MockTransport) {
	t.Helper()
	transport := httpmock.NewMockTransport()
	c := NewClient(Config{
		BaseURL:   testBase,
		UserAgent: DefaultUserAgent,
		Timeout:   time.Second,
		CacheTTL:  ttl,
		Transport: transport,
	})
	t.Cleanup(c.Close)
	return c, transport
}

func TestFetchSummary(t *testing.T) {
	t.Parallel()
	c, transport := newTestClient(t, 0)

	var gotUA string
	transport.RegisterResponder(http.MethodGet, robaloSummary,
		func(req *http.Request) (*http.Response, error) {
			gotUA = req.Header.Get("User-Agent")
			return httpmock.NewStringResponse(http.StatusOK, robaloJSON), nil
		})

	summary, ok := c.FetchSummary(t.Context(), "Robalo flecha")
	require.True(t, ok)
	assert.Equal(t, "Robalo-flecha", summary.Title)
	assert.Contains(t, summary.Extract, "Centropomus undecimalis")
	assert.Equal(t, "https://upload.wikimedia.org/robalo.jpg", summary.ImageURL)
	assert.Equal(t, "https://pt.wikipedia.org/wiki/Robalo-flecha", summary.PageURL)
	assert.Equal(t, DefaultUserAgent, gotUA)
}

func TestFetchSummary_NotFoundCases(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		title     string
		responder httpmock.Responder
	}{
		{"empty title", "  ", nil},
		{"page missing", "Robalo flecha", httpmock.NewStringResponder(http.StatusNotFound, `{"type":"not_found"}`)},
		{"server error", "Robalo flecha", httpmock.NewStringResponder(http.StatusInternalServerError, "")},
		{"malformed json", "Robalo flecha", httpmock.NewStringResponder(http.StatusOK, `{"title":`)},
		{"network failure", "Robalo flecha", httpmock.NewErrorResponder(fmt.Errorf("connection reset by peer"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c, transport := newTestClient(t, 0)
			if tt.responder != nil {
				transport.RegisterResponder(http.MethodGet, robaloSummary, tt.responder)
			}

			summary, ok := c.FetchSummary(t.Context(), tt.title)
			assert.False(t, ok)
			assert.Nil(t, summary)
			if tt.responder == nil {
				assert.Zero(t, transport.GetTotalCallCount())
			}
		})
	}
}

func TestFetchSummary_ExtractHTMLFallback(t *testing.T) {
	t.Parallel()
	c, transport := newTestClient(t, 0)
	transport.RegisterResponder(http.MethodGet, robaloSummary,
		httpmock.NewStringResponder(http.StatusOK, `{"title":"Robalo","extract":"","extract_html":"<p>O <b>robalo</b> vive no litoral.</p>"}`))

	summary, ok := c.FetchSummary(t.Context(), "Robalo flecha")
	require.True(t, ok)
	assert.Equal(t, "O robalo vive no litoral.", summary.Extract)
	assert.Empty(t, summary.ImageURL)
}

func TestFetchSummary_Cached(t *testing.T) {
	t.Parallel()
	c, transport := newTestClient(t, time.Hour)

	reg := prometheus.NewRegistry()
	m, err := metrics.NewEnrichmentMetrics(reg)
	require.NoError(t, err)
	c.SetMetrics(m)

	transport.RegisterResponder(http.MethodGet, robaloSummary, httpmock.NewStringResponder(http.StatusOK, robaloJSON))

	for range 3 {
		_, ok := c.FetchSummary(t.Context(), "Robalo flecha")
		require.True(t, ok)
	}
	assert.Equal(t, 1, transport.GetTotalCallCount())
	assert.InDelta(t, 2, testutil.ToFloat64(m.CacheLookups.WithLabelValues(metrics.StatusHit)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.OperationsTotal.WithLabelValues(metrics.OpSummary, metrics.StatusSuccess)), 0)
}

func actionResponder(t *testing.T, responses map[string]httpmock.Responder) httpmock.Responder {
	t.Helper()
	return func(req *http.Request) (*http.Response, error) {
		r, ok := responses[req.URL.Query().Get("action")]
		if !ok {
			return httpmock.NewStringResponse(http.StatusBadRequest, ""), nil
		}
		return r(req)
	}
}

func TestSuggestTitle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		responder httpmock.Responder
		want      string
		wantErr   bool
	}{
		{
			name:      "first suggestion with collapsed whitespace",
			responder: httpmock.NewStringResponder(http.StatusOK, `["robalo",["Robalo   flecha"],[""],["https://pt.wikipedia.org/wiki/Robalo-flecha"]]`),
			want:      "Robalo flecha",
		},
		{
			name:      "no suggestions",
			responder: httpmock.NewStringResponder(http.StatusOK, `["xyz",[],[],[]]`),
		},
		{
			name:      "non-200 is no suggestion",
			responder: httpmock.NewStringResponder(http.StatusServiceUnavailable, ""),
		},
		{
			name:      "transport failure",
			responder: httpmock.NewErrorResponder(fmt.Errorf("dial tcp: timeout")),
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c, transport := newTestClient(t, 0)
			transport.RegisterResponder(http.MethodGet, actionEndpoint,
				actionResponder(t, map[string]httpmock.Responder{"opensearch": tt.responder}))

			got, err := c.SuggestTitle(t.Context(), "robalo")
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPageExists(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		code int
		want bool
	}{
		{"existing page", `{"query":{"pages":{"123":{"pageid":123,"title":"Robalo"}}}}`, http.StatusOK, true},
		{"missing page", `{"query":{"pages":{"-1":{"title":"Peixe inexistente","missing":""}}}}`, http.StatusOK, false},
		{"no pages", `{"batchcomplete":""}`, http.StatusOK, false},
		{"non-200", ``, http.StatusBadGateway, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c, transport := newTestClient(t, 0)
			transport.RegisterResponder(http.MethodGet, actionEndpoint,
				actionResponder(t, map[string]httpmock.Responder{"query": httpmock.NewStringResponder(tt.code, tt.body)}))

			got, err := c.PageExists(t.Context(), "Robalo")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// Swaps the global logger, so it must not run in parallel.
func TestClientLogsThroughConfiguredLogger(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "fishclub.log")
	central, err := logger.NewCentralLogger(&logger.LoggingConfig{
		DefaultLevel: "debug",
		Console:      &logger.ConsoleOutput{Enabled: false},
		FileOutput:   &logger.FileOutput{Enabled: true, Path: logPath, Level: "debug"},
	})
	require.NoError(t, err)
	previous := logger.Global()
	logger.SetGlobal(central)
	t.Cleanup(func() {
		logger.SetGlobal(previous)
		_ = central.Close()
	})

	c, transport := newTestClient(t, 0)
	transport.RegisterResponder(http.MethodGet, robaloSummary,
		httpmock.NewStringResponder(http.StatusBadGateway, ""))

	_, ok := c.FetchSummary(t.Context(), "Robalo flecha")
	require.False(t, ok)
	require.NoError(t, central.Flush())

	written, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(written), "wikipedia summary lookup failed")
}
