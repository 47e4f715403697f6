package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/nabos/fishclub/internal/datastore"
	"github.com/nabos/fishclub/internal/datastore/entities"
	"github.com/nabos/fishclub/internal/logger"
	"github.com/nabos/fishclub/internal/suncalc"
)

// SpotList is the list of active spots.
type SpotList struct {
	Spots []entities.Spot `json:"spots"`
	Query string          `json:"query"`
}

// SpotDetail is a spot with the forecast hour nearest to now and today's sun times.
type SpotDetail struct {
	Spot     entities.Spot          `json:"spot"`
	Forecast *entities.ForecastHour `json:"forecast"`
	Sun      *suncalc.SunEventTimes `json:"sun,omitempty"`
}

// RefreshResponse reports an admin forecast refresh.
type RefreshResponse struct {
	Spot       string `json:"spot"`
	Created    int    `json:"created"`
	QuotaUsed  int    `json:"quota_used"`
	DailyQuota int    `json:"daily_quota"`
}

// ListSpots handles GET /api/v2/spots?q=.
func (c *Controller) ListSpots(ctx echo.Context) error {
	query := ctx.QueryParam("q")
	spots, err := c.spots.SearchActive(ctx.Request().Context(), query)
	if err != nil {
		return c.handleServiceError(ctx, err, "Failed to list spots")
	}
	if spots == nil {
		spots = []entities.Spot{}
	}
	return ctx.JSON(http.StatusOK, SpotList{Spots: spots, Query: query})
}

// GetSpot handles GET /api/v2/spots/:slug. Inactive spots are not shown.
func (c *Controller) GetSpot(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	spot, err := c.spots.GetBySlug(reqCtx, ctx.Param("slug"))
	if err != nil {
		return c.handleServiceError(ctx, err, "Spot not found")
	}
	if !spot.IsActive {
		return c.HandleError(ctx, datastore.ErrSpotNotFound, "Spot not found", http.StatusNotFound)
	}

	now := time.Now()
	detail := SpotDetail{Spot: *spot}

	if c.forecast != nil {
		hour, err := c.forecast.NearestHour(reqCtx, spot.ID, now)
		if err != nil {
			return c.handleServiceError(ctx, err, "Failed to load forecast")
		}
		detail.Forecast = hour
	}

	if c.sunCalc != nil {
		sun, err := c.sunCalc.GetSunEventTimes(spot.Latitude, spot.Longitude, now)
		if err != nil {
			c.log.Debug("no sun times for spot",
				logger.String("spot", spot.Slug),
				logger.Error(err))
		} else {
			detail.Sun = &sun
		}
	}

	return ctx.JSON(http.StatusOK, detail)
}

// RefreshSpot handles POST /api/v2/admin/spots/:slug/refresh.
func (c *Controller) RefreshSpot(ctx echo.Context) error {
	if c.forecast == nil {
		return c.HandleError(ctx, nil, "Forecast refresh is not configured", http.StatusServiceUnavailable)
	}

	reqCtx := ctx.Request().Context()
	spot, err := c.spots.GetBySlug(reqCtx, ctx.Param("slug"))
	if err != nil {
		return c.handleServiceError(ctx, err, "Spot not found")
	}

	created, err := c.forecast.Refresh(reqCtx, spot)
	if err != nil {
		return c.handleServiceError(ctx, err, "Forecast refresh failed")
	}

	used, err := c.forecast.QuotaUsedToday(reqCtx)
	if err != nil {
		return c.handleServiceError(ctx, err, "Failed to read forecast quota")
	}

	return ctx.JSON(http.StatusOK, RefreshResponse{
		Spot:       spot.Slug,
		Created:    created,
		QuotaUsed:  used,
		DailyQuota: c.forecast.DailyQuota(),
	})
}
