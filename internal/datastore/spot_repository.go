package datastore

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/nabos/fishclub/internal/datastore/entities"
)

// SpotRepository provides access to fishing spots.
type SpotRepository interface {
	// Create inserts a spot, deriving a unique slug from its name when Slug is empty.
	Create(ctx context.Context, spot *entities.Spot) error

	// GetBySlug retrieves a spot by slug.
	// Returns ErrSpotNotFound if not found.
	GetBySlug(ctx context.Context, slug string) (*entities.Spot, error)

	// ListActive returns active spots ordered by name.
	ListActive(ctx context.Context) ([]entities.Spot, error)

	// SearchActive returns active spots whose name contains query, ignoring case.
	// An empty query behaves like ListActive.
	SearchActive(ctx context.Context, query string) ([]entities.Spot, error)

	// MarkRefreshed sets the spot's last forecast time.
	MarkRefreshed(ctx context.Context, spotID uint, at time.Time) error
}

type spotRepository struct {
	db *gorm.DB
}

// NewSpotRepository creates a new SpotRepository.
func NewSpotRepository(db *gorm.DB) SpotRepository {
	return &spotRepository{db: db}
}

func (r *spotRepository) Create(ctx context.Context, spot *entities.Spot) error {
	if strings.TrimSpace(spot.Name) == "" {
		return ErrInvalidInput
	}
	if spot.Latitude < -90 || spot.Latitude > 90 || spot.Longitude < -180 || spot.Longitude > 180 {
		return ErrInvalidInput
	}

	if spot.Slug == "" {
		base := Slugify(spot.Name)
		if base == "" {
			base = "spot"
		}
		slug, err := UniqueSlug(base, func(candidate string) (bool, error) {
			var count int64
			err := r.db.WithContext(ctx).Model(&entities.Spot{}).
				Where("slug = ? AND id <> ?", candidate, spot.ID).
				Count(&count).Error
			return count > 0, err
		})
		if err != nil {
			return err
		}
		spot.Slug = slug
	}

	return dbError(r.db.WithContext(ctx).Create(spot).Error, nil, "create-spot")
}

func (r *spotRepository) GetBySlug(ctx context.Context, slug string) (*entities.Spot, error) {
	var spot entities.Spot
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&spot).Error; err != nil {
		return nil, dbError(err, ErrSpotNotFound, "get-spot-by-slug")
	}
	return &spot, nil
}

func (r *spotRepository) ListActive(ctx context.Context) ([]entities.Spot, error) {
	var spots []entities.Spot
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&spots).Error
	return spots, dbError(err, nil, "list-active-spots")
}

func (r *spotRepository) SearchActive(ctx context.Context, query string) ([]entities.Spot, error) {
	q := r.db.WithContext(ctx).Where("is_active = ?", true)
	if query = strings.TrimSpace(query); query != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(query)+"%")
	}
	var spots []entities.Spot
	err := q.Order("name ASC").Find(&spots).Error
	return spots, dbError(err, nil, "search-active-spots")
}

func (r *spotRepository) MarkRefreshed(ctx context.Context, spotID uint, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&entities.Spot{}).
		Where("id = ?", spotID).
		Update("last_forecast_at", at.UTC())
	if result.Error != nil {
		return dbError(result.Error, nil, "mark-spot-refreshed")
	}
	if result.RowsAffected == 0 {
		return ErrSpotNotFound
	}
	return nil
}
