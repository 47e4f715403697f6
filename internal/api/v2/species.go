package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/nabos/fishclub/internal/logger"
	"github.com/nabos/fishclub/internal/wikipedia"
)

// SpeciesPage is one page of the competition species list.
type SpeciesPage struct {
	Species    []SpeciesView `json:"species"`
	Query      string        `json:"query"`
	Page       int           `json:"page"`
	PageSize   int           `json:"page_size"`
	Total      int64         `json:"total"`
	TotalPages int           `json:"total_pages"`
}

// EnrichResponse reports an admin enrichment run.
type EnrichResponse struct {
	Changed bool        `json:"changed"`
	Species SpeciesView `json:"species"`
}

// ListSpecies handles GET /api/v2/species?q=&page=. A page that is not a positive
// integer shows the first page and a page past the end shows the last one.
func (c *Controller) ListSpecies(ctx echo.Context) error {
	query := ctx.QueryParam("q")
	page, err := strconv.Atoi(ctx.QueryParam("page"))
	if err != nil || page < 1 {
		page = 1
	}

	reqCtx := ctx.Request().Context()
	list, total, err := c.species.ListCompetition(reqCtx, query, page, SpeciesPageSize)
	if err != nil {
		return c.handleServiceError(ctx, err, "Failed to list species")
	}

	totalPages := int((total + SpeciesPageSize - 1) / SpeciesPageSize)
	if totalPages > 0 && page > totalPages {
		page = totalPages
		if list, total, err = c.species.ListCompetition(reqCtx, query, page, SpeciesPageSize); err != nil {
			return c.handleServiceError(ctx, err, "Failed to list species")
		}
	}

	views := make([]SpeciesView, 0, len(list))
	for i := range list {
		views = append(views, newSpeciesView(&list[i]))
	}

	return ctx.JSON(http.StatusOK, SpeciesPage{
		Species:    views,
		Query:      query,
		Page:       page,
		PageSize:   SpeciesPageSize,
		Total:      total,
		TotalPages: totalPages,
	})
}

// GetSpecies handles GET /api/v2/species/:slug. A species with a title but no
// summary or image is enriched on the fly; a failed enrichment still shows the species.
func (c *Controller) GetSpecies(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	species, err := c.species.GetBySlug(reqCtx, ctx.Param("slug"))
	if err != nil {
		return c.handleServiceError(ctx, err, "Species not found")
	}

	if c.enricher != nil && c.Settings.Wikipedia.AutoFill && wikipedia.NeedsEnrichment(species) {
		if _, err := c.enricher.Enrich(reqCtx, species, false); err != nil {
			c.log.Warn("on-demand enrichment failed",
				logger.String("species", species.Slug),
				logger.Error(err))
		}
	}

	return ctx.JSON(http.StatusOK, newSpeciesView(species))
}

// EnrichSpecies handles POST /api/v2/admin/species/:slug/enrich?force=true.
func (c *Controller) EnrichSpecies(ctx echo.Context) error {
	if c.enricher == nil {
		return c.HandleError(ctx, nil, "Species enrichment is not configured", http.StatusServiceUnavailable)
	}

	force := false
	if raw := ctx.QueryParam("force"); raw != "" {
		var err error
		if force, err = strconv.ParseBool(raw); err != nil {
			return c.HandleError(ctx, err, "force must be a boolean", http.StatusBadRequest)
		}
	}

	reqCtx := ctx.Request().Context()
	species, err := c.species.GetBySlug(reqCtx, ctx.Param("slug"))
	if err != nil {
		return c.handleServiceError(ctx, err, "Species not found")
	}

	changed, err := c.enricher.Enrich(reqCtx, species, force)
	if err != nil {
		return c.handleServiceError(ctx, err, "Failed to enrich species")
	}

	return ctx.JSON(http.StatusOK, EnrichResponse{
		Changed: changed,
		Species: newSpeciesView(species),
	})
}
