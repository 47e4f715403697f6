package entities

import "time"

// Catch is a recorded catch. Deleting a member removes its catches; species with
// catches cannot be deleted.
type Catch struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	MemberID  uint    `gorm:"not null;index" json:"member_id"`
	SpeciesID uint    `gorm:"not null;index" json:"species_id"`
	LengthCM  float64 `gorm:"type:decimal(6,2);not null" json:"length_cm"`
	WeightKG  float64 `gorm:"type:decimal(6,2);not null" json:"weight_kg"`
	Location  string  `gorm:"type:varchar(150);not null" json:"location"`
	Bait      string  `gorm:"type:varchar(150)" json:"bait"`
	PhotoURL  string  `gorm:"type:varchar(500)" json:"photo_url"`

	CaughtAt  time.Time `gorm:"not null;index" json:"caught_at"`
	CreatedAt time.Time `gorm:"autoCreateTime;<-:create" json:"created_at"`

	Member  *Member  `gorm:"foreignKey:MemberID;constraint:OnDelete:CASCADE" json:"member,omitempty"`
	Species *Species `gorm:"foreignKey:SpeciesID;constraint:OnDelete:RESTRICT" json:"species,omitempty"`
}

// TableName returns the table name for GORM.
func (Catch) TableName() string {
	return "catches"
}
