package datastore

import (
	"context"

	"gorm.io/gorm"

	"github.com/nabos/fishclub/internal/datastore/entities"
)

// SupporterRepository provides access to club supporters.
type SupporterRepository interface {
	// Create inserts a supporter.
	Create(ctx context.Context, s *entities.Supporter) error
	// ListActive returns active supporters ordered by (order, name). limit <= 0 means all.
	ListActive(ctx context.Context, limit int) ([]entities.Supporter, error)
	// Count returns the number of supporters.
	Count(ctx context.Context) (int64, error)
}

type supporterRepository struct {
	db *gorm.DB
}

// NewSupporterRepository creates a new SupporterRepository.
func NewSupporterRepository(db *gorm.DB) SupporterRepository {
	return &supporterRepository{db: db}
}

func (r *supporterRepository) Create(ctx context.Context, s *entities.Supporter) error {
	if s.Name == "" {
		return ErrInvalidInput
	}
	return dbError(r.db.WithContext(ctx).Create(s).Error, nil, "create-supporter")
}

func (r *supporterRepository) ListActive(ctx context.Context, limit int) ([]entities.Supporter, error) {
	var supporters []entities.Supporter
	q := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("sort_order ASC, name ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&supporters).Error
	return supporters, dbError(err, nil, "list-supporters")
}

func (r *supporterRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Supporter{}).Count(&count).Error
	return count, dbError(err, nil, "count-supporters")
}
