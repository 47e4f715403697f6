package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/nabos/fishclub/internal/logger"
	"github.com/nabos/fishclub/internal/observability/metrics"
)

func newAdminServer(t *testing.T, hash string) (*echo.Echo, *prometheus.Registry) {
	t.Helper()

	reg := prometheus.NewRegistry()
	m, err := metrics.NewHTTPMetrics(reg)
	require.NoError(t, err)

	log, _ := logger.NewTestLogger()
	e := echo.New()
	e.Use(NewMetrics(m))
	admin := e.Group("/admin", NewAdminAuth(AdminAuthConfig{
		Username:     "admin",
		PasswordHash: hash,
		Logger:       log,
		Metrics:      m,
	}))
	admin.POST("/ping", func(c echo.Context) error {
		return c.String(http.StatusOK, "pong")
	})
	return e, reg
}

func TestAdminAuth(t *testing.T) {
	t.Parallel()

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	tests := []struct {
		name     string
		hash     string
		user     string
		password string
		want     int
	}{
		{"valid credentials", string(hash), "admin", "s3cret", http.StatusOK},
		{"wrong password", string(hash), "admin", "nope", http.StatusUnauthorized},
		{"wrong user", string(hash), "root", "s3cret", http.StatusUnauthorized},
		{"no hash configured", "", "admin", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e, _ := newAdminServer(t, tt.hash)

			req := httptest.NewRequest(http.MethodPost, "/admin/ping", http.NoBody)
			req.SetBasicAuth(tt.user, tt.password)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestAdminAuth_MissingHeader(t *testing.T) {
	t.Parallel()
	e, reg := newAdminServer(t, "")

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/ping", http.NoBody))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderWWWAuthenticate), AdminRealm)
	count, err := testutil.GatherAndCount(reg, "http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMetrics_UsesRoutePattern(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m, err := metrics.NewHTTPMetrics(reg)
	require.NoError(t, err)

	e := echo.New()
	e.Use(NewMetrics(m))
	e.GET("/species/:slug", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"slug": c.Param("slug")})
	})

	for _, slug := range []string{"robalo", "tainha", "corvina"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/species/"+slug, http.NoBody))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	expected := `
# HELP http_requests_total Total number of HTTP requests
# TYPE http_requests_total counter
http_requests_total{method="GET",path="/species/:slug",status_code="200"} 3
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "http_requests_total"))
}

func TestSecurityHeadersAndCORS(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name            string
		origins         []string
		wantCredentials string
	}{
		{"wildcard origin", []string{"*"}, ""},
		{"explicit origin", []string{"https://clube.example"}, "true"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultSecurityConfig()
			cfg.AllowedOrigins = tt.origins

			e := echo.New()
			e.Use(NewCORS(cfg), NewSecureHeaders(cfg))
			e.GET("/api/v2/ranking", func(c echo.Context) error {
				return c.JSON(http.StatusOK, map[string]int{})
			})

			req := httptest.NewRequest(http.MethodGet, "/api/v2/ranking", http.NoBody)
			req.Header.Set(echo.HeaderOrigin, "https://clube.example")
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "nosniff", rec.Header().Get(echo.HeaderXContentTypeOptions))
			assert.Equal(t, "DENY", rec.Header().Get(echo.HeaderXFrameOptions))
			assert.Equal(t, apiContentSecurityPolicy, rec.Header().Get(echo.HeaderContentSecurityPolicy))
			assert.NotEmpty(t, rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
			assert.Equal(t, tt.wantCredentials, rec.Header().Get(echo.HeaderAccessControlAllowCredentials))
		})
	}
}

func TestCorrelationIDAndRequestLog(t *testing.T) {
	t.Parallel()

	log, buf := logger.NewTestLogger()
	e := echo.New()
	e.Use(NewCorrelationID(), NewRequestLogger(log, nil))

	var seen string
	e.GET("/api/v2/spots", func(c echo.Context) error {
		seen = logger.CorrelationIDFromContext(c.Request().Context())
		return c.NoContent(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v2/spots", http.NoBody))
	generated := rec.Header().Get(HeaderCorrelationID)
	assert.Len(t, generated, 8)
	assert.Equal(t, generated, seen)
	assert.Contains(t, buf.String(), "correlation_id="+generated)

	req := httptest.NewRequest(http.MethodGet, "/api/v2/spots", http.NoBody)
	req.Header.Set(HeaderCorrelationID, "client-42")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, "client-42", rec.Header().Get(HeaderCorrelationID))
	assert.Equal(t, "client-42", seen)
}
