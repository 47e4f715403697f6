package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	mw "github.com/nabos/fishclub/internal/api/middleware"
	"github.com/nabos/fishclub/internal/datastore"
	"github.com/nabos/fishclub/internal/datastore/entities"
	"github.com/nabos/fishclub/internal/errors"
	"github.com/nabos/fishclub/internal/logger"
	"github.com/nabos/fishclub/internal/mqtt"
	"github.com/nabos/fishclub/internal/observability/metrics"
	"github.com/nabos/fishclub/internal/ranking"
)

// maxClockSkew is how far in the future a reported catch time may lie.
const maxClockSkew = time.Hour

// CatchRequest is the body of POST /api/v2/catches. The species is given by ID or slug.
type CatchRequest struct {
	SpeciesID   uint       `json:"species_id" validate:"required_without=SpeciesSlug"`
	SpeciesSlug string     `json:"species_slug" validate:"required_without=SpeciesID,max=140"`
	LengthCM    float64    `json:"length_cm" validate:"gt=0,lte=1000"`
	WeightKG    float64    `json:"weight_kg" validate:"gte=0,lte=1000"`
	Location    string     `json:"location" validate:"required,max=150"`
	Bait        string     `json:"bait" validate:"max=150"`
	PhotoURL    string     `json:"photo_url" validate:"omitempty,url,max=500"`
	CaughtAt    *time.Time `json:"caught_at"`
}

// CatchCreated is the reply to a recorded catch.
type CatchCreated struct {
	Catch         CatchView `json:"catch"`
	MemberCreated bool      `json:"member_created"`
}

// CreateCatch handles POST /api/v2/catches. The member is identified by the
// X-User-ID header and created on first use.
func (c *Controller) CreateCatch(ctx echo.Context) error {
	userID := strings.TrimSpace(ctx.Request().Header.Get(mw.HeaderUserID))
	if userID == "" {
		return c.HandleError(ctx, nil, "Missing member identity", http.StatusUnauthorized)
	}

	var req CatchRequest
	if err := ctx.Bind(&req); err != nil {
		c.httpMetrics().RecordCatch("", metrics.CatchRejected)
		return c.HandleError(ctx, err, "Invalid request body", http.StatusBadRequest)
	}
	req.Location = strings.TrimSpace(req.Location)
	req.Bait = strings.TrimSpace(req.Bait)
	if err := c.validate.Struct(&req); err != nil {
		c.httpMetrics().RecordCatch("", metrics.CatchRejected)
		return c.HandleError(ctx, err, "Invalid catch", http.StatusBadRequest)
	}

	now := time.Now()
	caughtAt := now
	if req.CaughtAt != nil {
		caughtAt = *req.CaughtAt
		if caughtAt.After(now.Add(maxClockSkew)) {
			c.httpMetrics().RecordCatch("", metrics.CatchRejected)
			return c.HandleError(ctx, nil, "caught_at lies in the future", http.StatusBadRequest)
		}
	}

	reqCtx := ctx.Request().Context()
	species, err := c.resolveSpecies(reqCtx, req)
	if err != nil {
		if errors.Is(err, datastore.ErrSpeciesNotFound) {
			c.httpMetrics().RecordCatch("", metrics.CatchRejected)
			return c.HandleError(ctx, err, "Unknown species", http.StatusUnprocessableEntity)
		}
		return c.handleServiceError(ctx, err, "Failed to load species")
	}

	name := strings.TrimSpace(ctx.Request().Header.Get(mw.HeaderUserName))
	if name == "" {
		name = userID
	}
	member, created, err := c.members.GetOrCreate(reqCtx, userID, entities.Member{
		Name:   name,
		Gender: entities.GenderOther,
	})
	if err != nil {
		return c.handleServiceError(ctx, err, "Failed to resolve member")
	}

	catch := &entities.Catch{
		MemberID:  member.ID,
		SpeciesID: species.ID,
		LengthCM:  req.LengthCM,
		WeightKG:  req.WeightKG,
		Location:  req.Location,
		Bait:      req.Bait,
		PhotoURL:  req.PhotoURL,
		CaughtAt:  caughtAt,
	}
	if err := c.catches.Create(reqCtx, catch); err != nil {
		return c.handleServiceError(ctx, err, "Failed to record catch")
	}
	catch.Member = member
	catch.Species = species

	c.log.Info("catch recorded",
		logger.Int("catch_id", int(catch.ID)),
		logger.Int("member_id", int(member.ID)),
		logger.String("species", species.Slug),
		logger.Float64("length_cm", catch.LengthCM))

	points := ranking.SpeciesPoints(species, catch.LengthCM)
	outcome := metrics.CatchAccepted
	if points == 0 {
		outcome = metrics.CatchBelowMinLength
	}
	category := ""
	if species.Category != nil {
		category = string(*species.Category)
	}
	c.httpMetrics().RecordCatch(category, outcome)

	c.publishCatch(mqtt.NewCatchEventDTO(catch, points))

	return ctx.JSON(http.StatusCreated, CatchCreated{
		Catch:         newCatchView(catch),
		MemberCreated: created,
	})
}

func (c *Controller) resolveSpecies(ctx context.Context, req CatchRequest) (*entities.Species, error) {
	if req.SpeciesID != 0 {
		return c.species.GetByID(ctx, req.SpeciesID)
	}
	return c.species.GetBySlug(ctx, req.SpeciesSlug)
}

// publishCatch sends the event in the background so the broker never delays the reply.
func (c *Controller) publishCatch(event mqtt.CatchEventDTO) {
	if c.publisher == nil {
		return
	}
	c.wg.Go(func() {
		ctx, cancel := context.WithTimeout(c.ctx, publishTimeout)
		defer cancel()
		if err := c.publisher.PublishCatch(ctx, event); err != nil {
			c.log.Warn("catch event not published",
				logger.Int("catch_id", int(event.CatchID)),
				logger.Error(err))
		}
	})
}
