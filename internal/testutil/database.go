package testutil

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/nabos/fishclub/internal/datastore"
	"github.com/nabos/fishclub/internal/datastore/entities"
	"github.com/nabos/fishclub/internal/logger"
)

// NewTestManager returns an initialized SQLite manager backed by a file in t.TempDir().
// The connection is closed when the test ends.
func NewTestManager(t testing.TB) datastore.Manager {
	t.Helper()

	mgr, err := datastore.NewSQLiteManager(datastore.SQLiteConfig{
		Path:   filepath.Join(t.TempDir(), "test.db"),
		Logger: logger.NewSlogLogger(nil, logger.LogLevelWarn, time.UTC),
	})
	require.NoError(t, err)
	require.NoError(t, mgr.Initialize())
	t.Cleanup(func() { _ = mgr.Close() })

	return mgr
}

// NewTestDB is NewTestManager for callers that only need the GORM handle.
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()
	return NewTestManager(t).DB()
}

// CreateSpecies inserts a competition species with the given scoring rules.
func CreateSpecies(t testing.TB, db *gorm.DB, name string, minLength, pointsPerCM float64) *entities.Species {
	t.Helper()

	species := &entities.Species{
		Name:                 name,
		MinLengthCM:          minLength,
		PointsPerCM:          pointsPerCM,
		IsCompetitionAllowed: true,
	}
	require.NoError(t, datastore.NewSpeciesRepository(db).Create(t.Context(), species))
	return species
}

// CreateMember inserts a member whose identity is derived from name.
func CreateMember(t testing.TB, db *gorm.DB, name string) *entities.Member {
	t.Helper()

	member, _, err := datastore.NewMemberRepository(db).GetOrCreate(t.Context(), "user-"+name, entities.Member{Name: name})
	require.NoError(t, err)
	return member
}

// CreateCatch inserts a catch of the given length.
func CreateCatch(t testing.TB, db *gorm.DB, member *entities.Member, species *entities.Species, lengthCM float64, caughtAt time.Time) *entities.Catch {
	t.Helper()

	c := &entities.Catch{
		MemberID:  member.ID,
		SpeciesID: species.ID,
		LengthCM:  lengthCM,
		WeightKG:  1,
		Location:  "Lagoa",
		CaughtAt:  caughtAt,
	}
	require.NoError(t, datastore.NewCatchRepository(db).Create(t.Context(), c))
	return c
}

// CreateSpot inserts an active spot.
func CreateSpot(t testing.TB, db *gorm.DB, name string, lat, lng float64) *entities.Spot {
	t.Helper()

	spot := &entities.Spot{Name: name, Latitude: lat, Longitude: lng, IsActive: true}
	require.NoError(t, datastore.NewSpotRepository(db).Create(t.Context(), spot))
	return spot
}
