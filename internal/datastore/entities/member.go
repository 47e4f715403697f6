package entities

import "time"

// Gender of a member as shown in the member directory.
type Gender string

const (
	GenderFemale Gender = "F"
	GenderMale   Gender = "M"
	GenderOther  Gender = "O"
)

// Member is a club member. UserID is the external identity and is unique.
type Member struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"type:varchar(150);not null;uniqueIndex" json:"-"`
	Name      string    `gorm:"type:varchar(120);not null;index" json:"name"`
	Nickname  string    `gorm:"type:varchar(60)" json:"nickname"`
	Age       *int      `json:"age,omitempty"`
	Gender    Gender    `gorm:"type:varchar(1);not null;default:O" json:"gender"`
	Bio       string    `gorm:"type:text" json:"bio"`
	PhotoURL  string    `gorm:"type:varchar(500)" json:"photo_url"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName returns the table name for GORM.
func (Member) TableName() string {
	return "members"
}

// DisplayName returns the nickname when set, otherwise the name.
func (m *Member) DisplayName() string {
	if m.Nickname != "" {
		return m.Nickname
	}
	return m.Name
}
