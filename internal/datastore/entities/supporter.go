package entities

import "time"

// Supporter is a club sponsor. Listings are ordered by (Order, Name).
type Supporter struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(120);not null" json:"name"`
	LogoURL   string    `gorm:"type:varchar(500)" json:"logo_url"`
	Website   string    `gorm:"type:varchar(500)" json:"website"`
	Order     int       `gorm:"column:sort_order;not null;default:0" json:"order"`
	IsActive  bool      `gorm:"not null" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName returns the table name for GORM.
func (Supporter) TableName() string {
	return "supporters"
}
