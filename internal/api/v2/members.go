package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/nabos/fishclub/internal/datastore"
	"github.com/nabos/fishclub/internal/datastore/entities"
	"github.com/nabos/fishclub/internal/errors"
)

// MemberFilters echoes the directory filters that were applied.
type MemberFilters struct {
	Query  string `json:"q"`
	Gender string `json:"gender"`
	Age    string `json:"age"`
}

// MemberDirectory is the member list.
type MemberDirectory struct {
	Members []datastore.MemberRow `json:"members"`
	Filters MemberFilters         `json:"filters"`
}

// MemberProfile is one member with their ranking position and catches.
type MemberProfile struct {
	Member  entities.Member `json:"member"`
	Points  int             `json:"points"`
	Rank    int             `json:"rank"`
	Catches []CatchView     `json:"catches"`
}

// ListMembers handles GET /api/v2/members?q=&gender=&age=.
func (c *Controller) ListMembers(ctx echo.Context) error {
	filters := MemberFilters{
		Query:  strings.TrimSpace(ctx.QueryParam("q")),
		Gender: strings.ToUpper(strings.TrimSpace(ctx.QueryParam("gender"))),
		Age:    strings.TrimSpace(ctx.QueryParam("age")),
	}

	rows, err := c.members.Directory(ctx.Request().Context(), datastore.MemberFilter{
		Query:     filters.Query,
		Gender:    entities.Gender(filters.Gender),
		AgeBucket: filters.Age,
	})
	if err != nil {
		return c.handleServiceError(ctx, err, "Failed to list members")
	}
	if rows == nil {
		rows = []datastore.MemberRow{}
	}

	return ctx.JSON(http.StatusOK, MemberDirectory{Members: rows, Filters: filters})
}

// GetMember handles GET /api/v2/members/:id.
func (c *Controller) GetMember(ctx echo.Context) error {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil || id == 0 {
		return c.HandleError(ctx, err, "Invalid member ID", http.StatusBadRequest)
	}

	reqCtx := ctx.Request().Context()
	member, err := c.members.GetByID(reqCtx, uint(id))
	if err != nil {
		return c.handleServiceError(ctx, err, "Member not found")
	}

	catches, err := c.catches.ListByMember(reqCtx, member.ID)
	if err != nil {
		return c.handleServiceError(ctx, err, "Failed to load catches")
	}
	for i := range catches {
		catches[i].Member = member
	}

	profile := MemberProfile{
		Member:  *member,
		Catches: newCatchViews(catches),
	}

	// the ranking only lists members it has seen in the same read
	score, err := c.ranking.MemberScore(reqCtx, member.ID)
	switch {
	case err == nil:
		profile.Points = score.Total
		profile.Rank = score.Rank
	case !errors.Is(err, datastore.ErrMemberNotFound):
		return c.handleServiceError(ctx, err, "Failed to compute member score")
	}

	return ctx.JSON(http.StatusOK, profile)
}
