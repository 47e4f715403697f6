package datastore

import (
	"context"

	"gorm.io/gorm"

	"github.com/nabos/fishclub/internal/datastore/entities"
)

// CatchRepository provides access to recorded catches.
type CatchRepository interface {
	// Create records a catch. Member and species must exist.
	Create(ctx context.Context, c *entities.Catch) error

	// ListForScoring returns every catch with its species loaded.
	ListForScoring(ctx context.Context) ([]entities.Catch, error)

	// Recent returns the latest catches by caught time, with member and species loaded.
	Recent(ctx context.Context, limit int) ([]entities.Catch, error)

	// ListByMember returns a member's catches, newest first, with species loaded.
	ListByMember(ctx context.Context, memberID uint) ([]entities.Catch, error)

	// Count returns the total number of catches.
	Count(ctx context.Context) (int64, error)
}

type catchRepository struct {
	db *gorm.DB
}

// NewCatchRepository creates a new CatchRepository.
func NewCatchRepository(db *gorm.DB) CatchRepository {
	return &catchRepository{db: db}
}

func (r *catchRepository) Create(ctx context.Context, c *entities.Catch) error {
	if c.MemberID == 0 || c.SpeciesID == 0 || c.LengthCM <= 0 || c.CaughtAt.IsZero() {
		return ErrInvalidInput
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&entities.Member{}).Where("id = ?", c.MemberID).Count(&n).Error; err != nil {
			return dbError(err, nil, "check-catch-member")
		}
		if n == 0 {
			return ErrMemberNotFound
		}
		if err := tx.Model(&entities.Species{}).Where("id = ?", c.SpeciesID).Count(&n).Error; err != nil {
			return dbError(err, nil, "check-catch-species")
		}
		if n == 0 {
			return ErrSpeciesNotFound
		}
		return dbError(tx.Omit("Member", "Species").Create(c).Error, nil, "create-catch")
	})
}

func (r *catchRepository) ListForScoring(ctx context.Context) ([]entities.Catch, error) {
	var catches []entities.Catch
	err := r.db.WithContext(ctx).
		Preload("Species").
		Order("id ASC").
		Find(&catches).Error
	return catches, dbError(err, nil, "list-catches-for-scoring")
}

func (r *catchRepository) Recent(ctx context.Context, limit int) ([]entities.Catch, error) {
	var catches []entities.Catch
	err := r.db.WithContext(ctx).
		Preload("Member").
		Preload("Species").
		Order("caught_at DESC, id DESC").
		Limit(limit).
		Find(&catches).Error
	return catches, dbError(err, nil, "recent-catches")
}

func (r *catchRepository) ListByMember(ctx context.Context, memberID uint) ([]entities.Catch, error) {
	var catches []entities.Catch
	err := r.db.WithContext(ctx).
		Preload("Species").
		Where("member_id = ?", memberID).
		Order("caught_at DESC, id DESC").
		Find(&catches).Error
	return catches, dbError(err, nil, "list-member-catches")
}

func (r *catchRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Catch{}).Count(&count).Error
	return count, dbError(err, nil, "count-catches")
}
