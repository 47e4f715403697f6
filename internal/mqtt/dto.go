package mqtt

import (
	"time"

	"github.com/nabos/fishclub/internal/datastore/entities"
)

// EventCatchCreated is the event name of a newly recorded catch.
const EventCatchCreated = "catch.created"

// CatchEventDTO is the payload published for a new catch.
//
// Field names are part of the published contract, subscribers depend on them.
type CatchEventDTO struct {
	Event     string    `json:"event"`
	CatchID   uint      `json:"catchId"`
	MemberID  uint      `json:"memberId"`
	Member    string    `json:"member"`
	SpeciesID uint      `json:"speciesId"`
	Species   string    `json:"species"`
	LengthCM  float64   `json:"lengthCm"`
	WeightKG  float64   `json:"weightKg"`
	Points    int       `json:"points"`
	Location  string    `json:"location"`
	Bait      string    `json:"bait,omitempty"`
	CaughtAt  time.Time `json:"caughtAt"`
}

// NewCatchEventDTO builds the event for c. Member and Species are used when preloaded.
func NewCatchEventDTO(c *entities.Catch, points int) CatchEventDTO {
	dto := CatchEventDTO{
		Event:     EventCatchCreated,
		CatchID:   c.ID,
		MemberID:  c.MemberID,
		SpeciesID: c.SpeciesID,
		LengthCM:  c.LengthCM,
		WeightKG:  c.WeightKG,
		Points:    points,
		Location:  c.Location,
		Bait:      c.Bait,
		CaughtAt:  c.CaughtAt.UTC(),
	}
	if c.Member != nil {
		dto.Member = c.Member.DisplayName()
	}
	if c.Species != nil {
		dto.Species = c.Species.Name
	}
	return dto
}
