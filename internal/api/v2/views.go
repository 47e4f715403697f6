package api

import (
	"time"

	"github.com/nabos/fishclub/internal/datastore/entities"
	"github.com/nabos/fishclub/internal/ranking"
)

// CatchView is a catch as shown in lists, with display values for the club's locale.
type CatchView struct {
	ID            uint      `json:"id"`
	MemberID      uint      `json:"member_id"`
	Member        string    `json:"member,omitempty"`
	SpeciesID     uint      `json:"species_id"`
	Species       string    `json:"species,omitempty"`
	SpeciesSlug   string    `json:"species_slug,omitempty"`
	LengthCM      float64   `json:"length_cm"`
	LengthDisplay string    `json:"length_display"`
	WeightKG      float64   `json:"weight_kg"`
	WeightDisplay string    `json:"weight_display"`
	Location      string    `json:"location"`
	Bait          string    `json:"bait,omitempty"`
	PhotoURL      string    `json:"photo_url,omitempty"`
	Points        int       `json:"points"`
	CaughtAt      time.Time `json:"caught_at"`
}

func newCatchView(c *entities.Catch) CatchView {
	v := CatchView{
		ID:            c.ID,
		MemberID:      c.MemberID,
		SpeciesID:     c.SpeciesID,
		LengthCM:      c.LengthCM,
		LengthDisplay: FormatDecimalBR(c.LengthCM),
		WeightKG:      c.WeightKG,
		WeightDisplay: FormatDecimalBR(c.WeightKG),
		Location:      c.Location,
		Bait:          c.Bait,
		PhotoURL:      c.PhotoURL,
		Points:        ranking.Points(c),
		CaughtAt:      c.CaughtAt,
	}
	if c.Member != nil {
		v.Member = c.Member.DisplayName()
	}
	if c.Species != nil {
		v.Species = c.Species.Name
		v.SpeciesSlug = c.Species.Slug
	}
	return v
}

func newCatchViews(catches []entities.Catch) []CatchView {
	views := make([]CatchView, 0, len(catches))
	for i := range catches {
		views = append(views, newCatchView(&catches[i]))
	}
	return views
}

// SpeciesView adds display values of the competition rules to a species.
type SpeciesView struct {
	entities.Species
	MinLengthDisplay   string `json:"min_length_display"`
	PointsPerCMDisplay string `json:"points_per_cm_display"`
}

func newSpeciesView(s *entities.Species) SpeciesView {
	return SpeciesView{
		Species:            *s,
		MinLengthDisplay:   FormatDecimalBR(s.MinLengthCM),
		PointsPerCMDisplay: FormatDecimalBR(s.PointsPerCM),
	}
}
