package datastore

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nabos/fishclub/internal/datastore/entities"
)

// forecastMetricColumns are overwritten when an existing (spot, time) row is upserted.
var forecastMetricColumns = []string{
	"wind_speed_ms", "wind_direction_deg", "gust_ms",
	"wave_height_m", "wave_period_s", "wave_direction_deg",
	"swell_height_m", "swell_period_s", "swell_direction_deg",
	"water_temp_c", "air_temp_c",
	"source",
}

// ForecastRepository stores normalized forecast hours and the provider request log.
type ForecastRepository interface {
	// UpsertHours inserts or updates hours by (spot_id, time) inside one transaction and
	// reports how many rows were newly created.
	UpsertHours(ctx context.Context, hours []entities.ForecastHour) (int, error)

	// ListHours returns a spot's hours within [from, to], ordered by time.
	ListHours(ctx context.Context, spotID uint, from, to time.Time) ([]entities.ForecastHour, error)

	// NearestHour returns the stored hour closest to at.
	// Returns ErrForecastNotFound when the spot has no hours.
	NearestHour(ctx context.Context, spotID uint, at time.Time) (*entities.ForecastHour, error)

	// AppendRequestLog records one provider call.
	AppendRequestLog(ctx context.Context, entry *entities.RequestLog) error

	// RequestsSince sums request counts logged at or after since.
	RequestsSince(ctx context.Context, since time.Time) (int, error)

	// RecentRequestLogs returns the latest log entries, newest first.
	RecentRequestLogs(ctx context.Context, limit int) ([]entities.RequestLog, error)
}

type forecastRepository struct {
	db *gorm.DB
}

// NewForecastRepository creates a new ForecastRepository.
func NewForecastRepository(db *gorm.DB) ForecastRepository {
	return &forecastRepository{db: db}
}

// UpsertHours counts existing keys before writing so that created and updated rows can be
// told apart on both SQLite and MySQL, whose affected-row semantics differ for upserts.
func (r *forecastRepository) UpsertHours(ctx context.Context, hours []entities.ForecastHour) (int, error) {
	if len(hours) == 0 {
		return 0, nil
	}

	created := 0
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range hours {
			h := &hours[i]
			if h.SpotID == 0 || h.Time.IsZero() {
				return ErrInvalidInput
			}
			h.Time = h.Time.UTC()
			if h.Source == "" {
				h.Source = "stormglass"
			}

			var existing int64
			if err := tx.Model(&entities.ForecastHour{}).
				Where("spot_id = ? AND time = ?", h.SpotID, h.Time).
				Count(&existing).Error; err != nil {
				return dbError(err, nil, "check-forecast-hour")
			}

			err := tx.Omit("Spot").Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "spot_id"}, {Name: "time"}},
				DoUpdates: clause.AssignmentColumns(forecastMetricColumns),
			}).Create(h).Error
			if err != nil {
				return dbError(err, nil, "upsert-forecast-hour")
			}
			if existing == 0 {
				created++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}

func (r *forecastRepository) ListHours(ctx context.Context, spotID uint, from, to time.Time) ([]entities.ForecastHour, error) {
	var hours []entities.ForecastHour
	err := r.db.WithContext(ctx).
		Where("spot_id = ? AND time BETWEEN ? AND ?", spotID, from.UTC(), to.UTC()).
		Order("time ASC").
		Find(&hours).Error
	return hours, dbError(err, nil, "list-forecast-hours")
}

// NearestHour compares the closest hour on each side of at.
func (r *forecastRepository) NearestHour(ctx context.Context, spotID uint, at time.Time) (*entities.ForecastHour, error) {
	at = at.UTC()

	var before, after []entities.ForecastHour
	if err := r.db.WithContext(ctx).
		Where("spot_id = ? AND time <= ?", spotID, at).
		Order("time DESC").Limit(1).
		Find(&before).Error; err != nil {
		return nil, dbError(err, nil, "nearest-forecast-before")
	}
	if err := r.db.WithContext(ctx).
		Where("spot_id = ? AND time > ?", spotID, at).
		Order("time ASC").Limit(1).
		Find(&after).Error; err != nil {
		return nil, dbError(err, nil, "nearest-forecast-after")
	}

	switch {
	case len(before) == 0 && len(after) == 0:
		return nil, ErrForecastNotFound
	case len(before) == 0:
		return &after[0], nil
	case len(after) == 0:
		return &before[0], nil
	}

	if at.Sub(before[0].Time) <= after[0].Time.Sub(at) {
		return &before[0], nil
	}
	return &after[0], nil
}

func (r *forecastRepository) AppendRequestLog(ctx context.Context, entry *entities.RequestLog) error {
	entry.ID = 0
	return dbError(r.db.WithContext(ctx).Omit("Spot").Create(entry).Error, nil, "append-request-log")
}

func (r *forecastRepository) RequestsSince(ctx context.Context, since time.Time) (int, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&entities.RequestLog{}).
		Where("created_at >= ?", since.UTC()).
		Select("COALESCE(SUM(request_count), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, dbError(err, nil, "sum-request-logs")
	}
	return int(total), nil
}

func (r *forecastRepository) RecentRequestLogs(ctx context.Context, limit int) ([]entities.RequestLog, error) {
	var logs []entities.RequestLog
	err := r.db.WithContext(ctx).Order("created_at DESC, id DESC").Limit(limit).Find(&logs).Error
	return logs, dbError(err, nil, "recent-request-logs")
}
