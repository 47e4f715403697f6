package entities

import "time"

// SpeciesCategory groups competition species by scoring tier.
type SpeciesCategory string

const (
	CategoryA SpeciesCategory = "A"
	CategoryB SpeciesCategory = "B"
	CategoryC SpeciesCategory = "C"
)

// Species is a fish species. Slug is derived from Name on creation and never recomputed.
type Species struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"type:varchar(120);not null;uniqueIndex" json:"name"`
	Slug string `gorm:"type:varchar(140);not null;uniqueIndex" json:"slug"`

	ScientificName string `gorm:"type:varchar(160)" json:"scientific_name"`
	Summary        string `gorm:"type:text" json:"summary"`
	ImageURL       string `gorm:"type:varchar(500)" json:"image_url"`
	WikipediaTitle string `gorm:"type:varchar(200)" json:"wikipedia_title"`

	// Competition rules
	MinLengthCM          float64          `gorm:"type:decimal(6,2);not null;default:0" json:"min_length_cm"`
	PointsPerCM          float64          `gorm:"type:decimal(6,2);not null;default:0" json:"points_per_cm"`
	Category             *SpeciesCategory `gorm:"type:varchar(1)" json:"category,omitempty"`
	IsCompetitionAllowed bool             `gorm:"not null;index" json:"is_competition_allowed"`

	Behavior  string `gorm:"type:text" json:"behavior"`
	Habitats  string `gorm:"type:text" json:"habitats"`
	BestTimes string `gorm:"type:varchar(180)" json:"best_times"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Photos    []SpeciesPhoto    `gorm:"foreignKey:SpeciesID;constraint:OnDelete:CASCADE" json:"photos,omitempty"`
	BaitIdeas []SpeciesBaitIdea `gorm:"foreignKey:SpeciesID;constraint:OnDelete:CASCADE" json:"bait_ideas,omitempty"`
}

// TableName returns the table name for GORM.
func (Species) TableName() string {
	return "species"
}

// SpeciesPhoto is a gallery image attached to a species.
type SpeciesPhoto struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SpeciesID uint      `gorm:"not null;index" json:"species_id"`
	ImageURL  string    `gorm:"type:varchar(500);not null" json:"image_url"`
	Caption   string    `gorm:"type:varchar(140)" json:"caption"`
	Credit    string    `gorm:"type:varchar(140)" json:"credit"`
	Order     int       `gorm:"column:sort_order;not null;default:0" json:"order"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName returns the table name for GORM.
func (SpeciesPhoto) TableName() string {
	return "species_photos"
}

// SpeciesBaitIdea is a bait or technique suggested for a species.
type SpeciesBaitIdea struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	SpeciesID   uint   `gorm:"not null;index" json:"species_id"`
	Title       string `gorm:"type:varchar(120);not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	Order       int    `gorm:"column:sort_order;not null;default:0" json:"order"`
}

// TableName returns the table name for GORM.
func (SpeciesBaitIdea) TableName() string {
	return "species_bait_ideas"
}
