package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/nabos/fishclub/internal/ranking"
)

// RankingResponse is the leaderboard.
type RankingResponse struct {
	Entries  []ranking.Entry `json:"entries"`
	CatchCap int             `json:"catch_cap"`
}

// HomeCounts are the club totals shown on the home page.
type HomeCounts struct {
	Members int64 `json:"members"`
	Catches int64 `json:"catches"`
	Species int64 `json:"species"`
}

// HomeSummary is the payload of the home page.
type HomeSummary struct {
	RecentCatches []CatchView     `json:"recent_catches"`
	Counts        HomeCounts      `json:"counts"`
	Podium        []ranking.Entry `json:"podium"`
}

// GetRanking handles GET /api/v2/ranking?top=N. Without top the configured
// default applies, 0 returns every member.
func (c *Controller) GetRanking(ctx echo.Context) error {
	top := c.Settings.Ranking.TopN
	if raw := ctx.QueryParam("top"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return c.HandleError(ctx, err, "top must be a non-negative integer", http.StatusBadRequest)
		}
		top = n
	}

	entries, err := c.ranking.Ranking(ctx.Request().Context(), top)
	if err != nil {
		return c.handleServiceError(ctx, err, "Failed to compute ranking")
	}

	return ctx.JSON(http.StatusOK, RankingResponse{
		Entries:  entries,
		CatchCap: c.engine.Cap(),
	})
}

// GetHome handles GET /api/v2/home.
func (c *Controller) GetHome(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	recent, err := c.catches.Recent(reqCtx, RecentCatchesLimit)
	if err != nil {
		return c.handleServiceError(ctx, err, "Failed to load recent catches")
	}

	var counts HomeCounts
	if counts.Members, err = c.members.Count(reqCtx); err != nil {
		return c.handleServiceError(ctx, err, "Failed to count members")
	}
	if counts.Catches, err = c.catches.Count(reqCtx); err != nil {
		return c.handleServiceError(ctx, err, "Failed to count catches")
	}
	if counts.Species, err = c.species.Count(reqCtx); err != nil {
		return c.handleServiceError(ctx, err, "Failed to count species")
	}

	podium, err := c.ranking.Podium(reqCtx)
	if err != nil {
		return c.handleServiceError(ctx, err, "Failed to compute podium")
	}

	return ctx.JSON(http.StatusOK, HomeSummary{
		RecentCatches: newCatchViews(recent),
		Counts:        counts,
		Podium:        podium,
	})
}
