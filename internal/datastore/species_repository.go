package datastore

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/nabos/fishclub/internal/datastore/entities"
	"github.com/nabos/fishclub/internal/errors"
)

// SpeciesRepository provides access to the species catalogue.
type SpeciesRepository interface {
	// Create inserts a species, deriving a unique slug from its name when Slug is empty.
	Create(ctx context.Context, species *entities.Species) error

	// Save updates all columns of an existing species. The slug is only assigned
	// when empty, ignoring the species' own row in the collision check.
	Save(ctx context.Context, species *entities.Species) error

	// GetByID retrieves a species by its ID.
	// Returns ErrSpeciesNotFound if not found.
	GetByID(ctx context.Context, id uint) (*entities.Species, error)

	// GetBySlug retrieves a species with its photos and bait ideas.
	// Returns ErrSpeciesNotFound if not found.
	GetBySlug(ctx context.Context, slug string) (*entities.Species, error)

	// GetByName retrieves a species by its exact name.
	// Returns ErrSpeciesNotFound if not found.
	GetByName(ctx context.Context, name string) (*entities.Species, error)

	// List returns species ordered by name. With missingTitle only species without a
	// Wikipedia title are returned. limit <= 0 means no limit.
	List(ctx context.Context, missingTitle bool, limit int) ([]entities.Species, error)

	// ListCompetition returns one page of competition species matching query on name,
	// ordered by name, plus the total number of matches.
	ListCompetition(ctx context.Context, query string, page, pageSize int) ([]entities.Species, int64, error)

	// AddPhoto attaches a gallery image to a species.
	AddPhoto(ctx context.Context, photo *entities.SpeciesPhoto) error

	// AddBaitIdea attaches a bait suggestion to a species.
	AddBaitIdea(ctx context.Context, idea *entities.SpeciesBaitIdea) error

	// Delete removes a species and its photos and bait ideas.
	// Returns ErrSpeciesInUse while catches reference it.
	Delete(ctx context.Context, id uint) error

	// Count returns the total number of species.
	Count(ctx context.Context) (int64, error)
}

type speciesRepository struct {
	db *gorm.DB
}

// NewSpeciesRepository creates a new SpeciesRepository.
func NewSpeciesRepository(db *gorm.DB) SpeciesRepository {
	return &speciesRepository{db: db}
}

func (r *speciesRepository) slugExists(ctx context.Context, ownID uint) func(string) (bool, error) {
	return func(slug string) (bool, error) {
		var count int64
		err := r.db.WithContext(ctx).Model(&entities.Species{}).
			Where("slug = ? AND id <> ?", slug, ownID).
			Count(&count).Error
		return count > 0, err
	}
}

func (r *speciesRepository) assignSlug(ctx context.Context, species *entities.Species) error {
	if species.Slug != "" {
		return nil
	}
	base := Slugify(species.Name)
	if base == "" {
		base = "species"
	}
	slug, err := UniqueSlug(base, r.slugExists(ctx, species.ID))
	if err != nil {
		return err
	}
	species.Slug = slug
	return nil
}

// Create inserts a species. A concurrent insert taking the same slug is retried once
// with a freshly probed slug.
func (r *speciesRepository) Create(ctx context.Context, species *entities.Species) error {
	if strings.TrimSpace(species.Name) == "" {
		return ErrInvalidInput
	}

	derived := species.Slug == ""
	for attempt := 0; ; attempt++ {
		if err := r.assignSlug(ctx, species); err != nil {
			return err
		}
		err := r.db.WithContext(ctx).Create(species).Error
		if err == nil {
			return nil
		}
		if !derived || attempt > 0 || !errors.Is(err, gorm.ErrDuplicatedKey) || r.nameTaken(ctx, species.Name) {
			return dbError(err, nil, "create-species")
		}
		species.Slug = ""
	}
}

func (r *speciesRepository) nameTaken(ctx context.Context, name string) bool {
	var count int64
	r.db.WithContext(ctx).Model(&entities.Species{}).Where("name = ?", name).Count(&count)
	return count > 0
}

func (r *speciesRepository) Save(ctx context.Context, species *entities.Species) error {
	if species.ID == 0 {
		return ErrInvalidInput
	}
	if err := r.assignSlug(ctx, species); err != nil {
		return err
	}
	err := r.db.WithContext(ctx).Omit("Photos", "BaitIdeas").Save(species).Error
	return dbError(err, nil, "save-species")
}

func (r *speciesRepository) GetByID(ctx context.Context, id uint) (*entities.Species, error) {
	var species entities.Species
	err := r.db.WithContext(ctx).First(&species, id).Error
	if err != nil {
		return nil, dbError(err, ErrSpeciesNotFound, "get-species")
	}
	return &species, nil
}

func (r *speciesRepository) GetBySlug(ctx context.Context, slug string) (*entities.Species, error) {
	var species entities.Species
	err := r.db.WithContext(ctx).
		Preload("Photos", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, id ASC")
		}).
		Preload("BaitIdeas", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, title ASC")
		}).
		Where("slug = ?", slug).
		First(&species).Error
	if err != nil {
		return nil, dbError(err, ErrSpeciesNotFound, "get-species-by-slug")
	}
	return &species, nil
}

func (r *speciesRepository) GetByName(ctx context.Context, name string) (*entities.Species, error) {
	var species entities.Species
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&species).Error
	if err != nil {
		return nil, dbError(err, ErrSpeciesNotFound, "get-species-by-name")
	}
	return &species, nil
}

func (r *speciesRepository) List(ctx context.Context, missingTitle bool, limit int) ([]entities.Species, error) {
	var list []entities.Species
	q := r.db.WithContext(ctx).Order("name ASC")
	if missingTitle {
		q = q.Where("wikipedia_title IS NULL OR wikipedia_title = ''")
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&list).Error
	return list, dbError(err, nil, "list-species")
}

func (r *speciesRepository) ListCompetition(ctx context.Context, query string, page, pageSize int) ([]entities.Species, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 24
	}

	q := r.db.WithContext(ctx).Model(&entities.Species{}).Where("is_competition_allowed = ?", true)
	if query = strings.TrimSpace(query); query != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(query)+"%")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, dbError(err, nil, "count-competition-species")
	}

	var list []entities.Species
	err := q.Order("name ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&list).Error
	if err != nil {
		return nil, 0, dbError(err, nil, "list-competition-species")
	}
	return list, total, nil
}

func (r *speciesRepository) AddPhoto(ctx context.Context, photo *entities.SpeciesPhoto) error {
	if photo.SpeciesID == 0 || photo.ImageURL == "" {
		return ErrInvalidInput
	}
	return dbError(r.db.WithContext(ctx).Create(photo).Error, nil, "add-species-photo")
}

func (r *speciesRepository) AddBaitIdea(ctx context.Context, idea *entities.SpeciesBaitIdea) error {
	if idea.SpeciesID == 0 || idea.Title == "" {
		return ErrInvalidInput
	}
	return dbError(r.db.WithContext(ctx).Create(idea).Error, nil, "add-species-bait-idea")
}

// Delete enforces the catch restriction itself so the behavior does not depend on
// foreign key support in the driver.
func (r *speciesRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var catches int64
		if err := tx.Model(&entities.Catch{}).Where("species_id = ?", id).Count(&catches).Error; err != nil {
			return dbError(err, nil, "count-species-catches")
		}
		if catches > 0 {
			return ErrSpeciesInUse
		}

		if err := tx.Where("species_id = ?", id).Delete(&entities.SpeciesPhoto{}).Error; err != nil {
			return dbError(err, nil, "delete-species-photos")
		}
		if err := tx.Where("species_id = ?", id).Delete(&entities.SpeciesBaitIdea{}).Error; err != nil {
			return dbError(err, nil, "delete-species-bait-ideas")
		}

		result := tx.Delete(&entities.Species{}, id)
		if result.Error != nil {
			return dbError(result.Error, nil, "delete-species")
		}
		if result.RowsAffected == 0 {
			return ErrSpeciesNotFound
		}
		return nil
	})
}

func (r *speciesRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Species{}).Count(&count).Error
	return count, dbError(err, nil, "count-species")
}
