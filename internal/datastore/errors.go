package datastore

import (
	"gorm.io/gorm"

	"github.com/nabos/fishclub/internal/errors"
)

// Sentinel errors for repository operations.
var (
	// ErrSpeciesNotFound indicates the requested species does not exist.
	ErrSpeciesNotFound = errors.NewStd("species not found")

	// ErrMemberNotFound indicates the requested member does not exist.
	ErrMemberNotFound = errors.NewStd("member not found")

	// ErrSpotNotFound indicates the requested spot does not exist.
	ErrSpotNotFound = errors.NewStd("spot not found")

	// ErrForecastNotFound indicates no forecast hours exist for the spot.
	ErrForecastNotFound = errors.NewStd("forecast not found")

	// ErrSpeciesInUse indicates the species still has catches and cannot be deleted.
	ErrSpeciesInUse = errors.NewStd("species has catches")

	// ErrDuplicateKey indicates a unique constraint violation.
	ErrDuplicateKey = errors.NewStd("duplicate key")

	// ErrInvalidInput indicates invalid input parameters.
	ErrInvalidInput = errors.NewStd("invalid input")
)

// dbError wraps a GORM error with datastore context. Not-found and duplicate-key
// errors are mapped to the given sentinel and ErrDuplicateKey.
func dbError(err error, notFound error, operation string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound) && notFound != nil:
		return notFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return errors.New(errors.Join(ErrDuplicateKey, err)).
			Component("datastore").
			Category(errors.CategoryConflict).
			Context("operation", operation).
			Build()
	default:
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", operation).
			Build()
	}
}
