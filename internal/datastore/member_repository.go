package datastore

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/nabos/fishclub/internal/datastore/entities"
	"github.com/nabos/fishclub/internal/errors"
)

// Age buckets accepted by MemberFilter.AgeBucket.
const (
	AgeUnder18 = "lt18"
	Age18To29  = "18_29"
	Age30To39  = "30_39"
	Age40To49  = "40_49"
	Age50Plus  = "50_mais"
)

// MemberFilter narrows the member directory. Zero values disable a filter and
// unknown gender or age values are ignored.
type MemberFilter struct {
	Query     string // case-insensitive match on name or nickname
	Gender    entities.Gender
	AgeBucket string
}

// MemberRow is a directory entry with the member's catch count.
type MemberRow struct {
	entities.Member
	CatchesCount int64 `json:"catches_count"`
}

// MemberRepository provides access to club members.
type MemberRepository interface {
	// GetOrCreate returns the member for userID, creating it from defaults when missing.
	// A concurrent creation of the same identity is resolved by re-reading.
	GetOrCreate(ctx context.Context, userID string, defaults entities.Member) (*entities.Member, bool, error)

	// GetByID retrieves a member by ID.
	// Returns ErrMemberNotFound if not found.
	GetByID(ctx context.Context, id uint) (*entities.Member, error)

	// GetByUserID retrieves a member by identity.
	// Returns ErrMemberNotFound if not found.
	GetByUserID(ctx context.Context, userID string) (*entities.Member, error)

	// ListAll returns every member ordered by ID.
	ListAll(ctx context.Context) ([]entities.Member, error)

	// Directory returns members matching filter, ordered by name, with catch counts.
	Directory(ctx context.Context, filter MemberFilter) ([]MemberRow, error)

	// Update saves profile fields of an existing member.
	Update(ctx context.Context, member *entities.Member) error

	// Delete removes a member and all of their catches.
	Delete(ctx context.Context, id uint) error

	// Count returns the total number of members.
	Count(ctx context.Context) (int64, error)
}

type memberRepository struct {
	db *gorm.DB
}

// NewMemberRepository creates a new MemberRepository.
func NewMemberRepository(db *gorm.DB) MemberRepository {
	return &memberRepository{db: db}
}

func (r *memberRepository) GetOrCreate(ctx context.Context, userID string, defaults entities.Member) (*entities.Member, bool, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, false, ErrInvalidInput
	}

	member, err := r.GetByUserID(ctx, userID)
	if err == nil {
		return member, false, nil
	}
	if !errors.Is(err, ErrMemberNotFound) {
		return nil, false, err
	}

	created := defaults
	created.ID = 0
	created.UserID = userID
	if created.Name == "" {
		created.Name = userID
	}
	if created.Gender == "" {
		created.Gender = entities.GenderOther
	}

	createErr := r.db.WithContext(ctx).Create(&created).Error
	if createErr != nil {
		// Handle race condition - another request may have created it.
		// Try to fetch the existing record; if that also fails, return the original create error.
		existing, findErr := r.GetByUserID(ctx, userID)
		if findErr != nil {
			return nil, false, dbError(createErr, nil, "create-member")
		}
		return existing, false, nil
	}

	return &created, true, nil
}

func (r *memberRepository) GetByID(ctx context.Context, id uint) (*entities.Member, error) {
	var member entities.Member
	if err := r.db.WithContext(ctx).First(&member, id).Error; err != nil {
		return nil, dbError(err, ErrMemberNotFound, "get-member")
	}
	return &member, nil
}

func (r *memberRepository) GetByUserID(ctx context.Context, userID string) (*entities.Member, error) {
	var member entities.Member
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&member).Error; err != nil {
		return nil, dbError(err, ErrMemberNotFound, "get-member-by-user")
	}
	return &member, nil
}

func (r *memberRepository) ListAll(ctx context.Context) ([]entities.Member, error) {
	var members []entities.Member
	err := r.db.WithContext(ctx).Order("id ASC").Find(&members).Error
	return members, dbError(err, nil, "list-members")
}

func (r *memberRepository) Directory(ctx context.Context, filter MemberFilter) ([]MemberRow, error) {
	q := r.db.WithContext(ctx).
		Model(&entities.Member{}).
		Select("members.*, (SELECT COUNT(*) FROM catches WHERE catches.member_id = members.id) AS catches_count")

	if query := strings.ToLower(strings.TrimSpace(filter.Query)); query != "" {
		pattern := "%" + query + "%"
		q = q.Where("LOWER(members.name) LIKE ? OR LOWER(members.nickname) LIKE ?", pattern, pattern)
	}

	switch filter.Gender {
	case entities.GenderFemale, entities.GenderMale, entities.GenderOther:
		q = q.Where("members.gender = ?", filter.Gender)
	}

	switch filter.AgeBucket {
	case AgeUnder18:
		q = q.Where("members.age < ?", 18)
	case Age18To29:
		q = q.Where("members.age BETWEEN ? AND ?", 18, 29)
	case Age30To39:
		q = q.Where("members.age BETWEEN ? AND ?", 30, 39)
	case Age40To49:
		q = q.Where("members.age BETWEEN ? AND ?", 40, 49)
	case Age50Plus:
		q = q.Where("members.age >= ?", 50)
	}

	var rows []MemberRow
	err := q.Order("members.name ASC").Scan(&rows).Error
	return rows, dbError(err, nil, "member-directory")
}

func (r *memberRepository) Update(ctx context.Context, member *entities.Member) error {
	if member.ID == 0 {
		return ErrInvalidInput
	}
	err := r.db.WithContext(ctx).Model(member).
		Select("Name", "Nickname", "Age", "Gender", "Bio", "PhotoURL").
		Updates(member).Error
	return dbError(err, nil, "update-member")
}

func (r *memberRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("member_id = ?", id).Delete(&entities.Catch{}).Error; err != nil {
			return dbError(err, nil, "delete-member-catches")
		}
		result := tx.Delete(&entities.Member{}, id)
		if result.Error != nil {
			return dbError(result.Error, nil, "delete-member")
		}
		if result.RowsAffected == 0 {
			return ErrMemberNotFound
		}
		return nil
	})
}

func (r *memberRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Member{}).Count(&count).Error
	return count, dbError(err, nil, "count-members")
}
