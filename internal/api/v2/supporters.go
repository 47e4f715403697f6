package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nabos/fishclub/internal/datastore/entities"
)

// ListSupporters handles GET /api/v2/supporters. The list changes rarely and is
// cached for a few minutes.
func (c *Controller) ListSupporters(ctx echo.Context) error {
	cached, found := c.respCache.Get(supportersCacheKey)
	c.httpMetrics().RecordCacheLookup(supportersCacheKey, found)
	if found {
		return ctx.JSON(http.StatusOK, map[string]any{"supporters": cached})
	}

	supporters, err := c.supporters.ListActive(ctx.Request().Context(), 0)
	if err != nil {
		return c.handleServiceError(ctx, err, "Failed to list supporters")
	}
	if supporters == nil {
		supporters = []entities.Supporter{}
	}

	c.respCache.SetDefault(supportersCacheKey, supporters)
	return ctx.JSON(http.StatusOK, map[string]any{"supporters": supporters})
}
