package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/nabos/fishclub/internal/errors"
	"github.com/nabos/fishclub/internal/observability/metrics"
)

// NewMetrics records every request under its route template
// (/api/v2/species/:slug) so label cardinality stays bounded.
func NewMetrics(m *metrics.HTTPMetrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if m == nil {
				return next(c)
			}

			start := time.Now()
			err := next(c)

			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			status := c.Response().Status
			var he *echo.HTTPError
			if !c.Response().Committed && errors.As(err, &he) {
				status = he.Code
			}

			m.RecordRequest(c.Request().Method, path, status, time.Since(start), c.Response().Size)
			return err
		}
	}
}
