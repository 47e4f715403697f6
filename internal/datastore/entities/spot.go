package entities

import "time"

// Spot is a fishing location with forecast data.
type Spot struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	Name        string  `gorm:"type:varchar(120);not null" json:"name"`
	Slug        string  `gorm:"type:varchar(140);not null;uniqueIndex" json:"slug"`
	Latitude    float64 `gorm:"type:decimal(9,6);not null" json:"latitude"`
	Longitude   float64 `gorm:"type:decimal(9,6);not null" json:"longitude"`
	Description string  `gorm:"type:text" json:"description"`
	IsActive    bool    `gorm:"not null;index" json:"is_active"`

	LastForecastAt *time.Time `json:"last_forecast_at,omitempty"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

// TableName returns the table name for GORM.
func (Spot) TableName() string {
	return "spots"
}

// ForecastHour is one normalized forecast hour. (SpotID, Time) is unique.
// Metrics the provider did not return stay NULL.
type ForecastHour struct {
	ID     uint      `gorm:"primaryKey" json:"-"`
	SpotID uint      `gorm:"not null;uniqueIndex:idx_forecast_spot_time,priority:1" json:"spot_id"`
	Time   time.Time `gorm:"not null;uniqueIndex:idx_forecast_spot_time,priority:2" json:"time"`

	WindSpeedMS      *float64 `json:"wind_speed_ms"`
	WindDirectionDeg *int     `json:"wind_direction_deg"`
	GustMS           *float64 `json:"gust_ms"`

	WaveHeightM      *float64 `json:"wave_height_m"`
	WavePeriodS      *float64 `json:"wave_period_s"`
	WaveDirectionDeg *int     `json:"wave_direction_deg"`

	SwellHeightM      *float64 `json:"swell_height_m"`
	SwellPeriodS      *float64 `json:"swell_period_s"`
	SwellDirectionDeg *int     `json:"swell_direction_deg"`

	WaterTempC *float64 `json:"water_temp_c"`
	AirTempC   *float64 `json:"air_temp_c"`

	Source    string    `gorm:"type:varchar(30);not null;default:stormglass" json:"source"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"-"`

	Spot *Spot `gorm:"foreignKey:SpotID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName returns the table name for GORM.
func (ForecastHour) TableName() string {
	return "forecast_hours"
}

// RequestLog records one call to the forecast provider. Rows are never updated.
type RequestLog struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	SpotID       *uint     `gorm:"index" json:"spot_id,omitempty"`
	StatusCode   int       `json:"status_code"`
	RequestCount int       `gorm:"not null;default:1" json:"request_count"`
	DailyQuota   int       `json:"daily_quota"`
	ErrorMessage string    `gorm:"type:text" json:"error_message,omitempty"`

	Spot *Spot `gorm:"foreignKey:SpotID;constraint:OnDelete:SET NULL" json:"-"`
}

// TableName returns the table name for GORM.
func (RequestLog) TableName() string {
	return "stormglass_request_logs"
}
