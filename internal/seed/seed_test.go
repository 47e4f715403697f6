package seed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nabos/fishclub/internal/datastore"
	"github.com/nabos/fishclub/internal/datastore/entities"
	"github.com/nabos/fishclub/internal/errors"
	"github.com/nabos/fishclub/internal/testutil"
)

func TestRules_Embedded(t *testing.T) {
	t.Parallel()

	rules, err := Rules()
	require.NoError(t, err)
	require.Len(t, rules, 17)

	perCategory := map[entities.SpeciesCategory]int{}
	for _, r := range rules {
		perCategory[r.Category]++
	}
	assert.Equal(t, 6, perCategory[entities.CategoryA])
	assert.Equal(t, 5, perCategory[entities.CategoryB])
	assert.Equal(t, 6, perCategory[entities.CategoryC])

	assert.Equal(t, Rule{Name: "ROBALO FLECHA", MinLengthCM: 50, PointsPerCM: 30, Category: entities.CategoryA}, rules[0])
}

func TestParseRules_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		doc      string
		category errors.ErrorCategory
	}{
		{"malformed", "rules: [", errors.CategoryFileParsing},
		{"missing name", "rules:\n  - category: A\n", errors.CategoryValidation},
		{"duplicate", "rules:\n  - {name: GALO, category: C}\n  - {name: GALO, category: C}\n", errors.CategoryValidation},
		{"unknown category", "rules:\n  - {name: GALO, category: Z}\n", errors.CategoryValidation},
		{"negative", "rules:\n  - {name: GALO, category: C, min_length_cm: -1}\n", errors.CategoryValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRules([]byte(tt.doc))
			require.Error(t, err)
			var ee *errors.EnhancedError
			require.ErrorAs(t, err, &ee)
			assert.Equal(t, tt.category, ee.Category)
		})
	}
}

func TestApply_Idempotent(t *testing.T) {
	t.Parallel()
	db := testutil.NewTestDB(t)
	repo := datastore.NewSpeciesRepository(db)

	rules, err := Rules()
	require.NoError(t, err)

	res, err := Apply(t.Context(), repo, rules)
	require.NoError(t, err)
	assert.Equal(t, Result{Created: 17}, res)

	res, err = Apply(t.Context(), repo, rules)
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)

	count, err := repo.Count(t.Context())
	require.NoError(t, err)
	assert.Equal(t, int64(17), count)

	species, err := repo.GetByName(t.Context(), "XARÉU BRANCO / GALO PENACHO")
	require.NoError(t, err)
	assert.Equal(t, "xareu-branco-galo-penacho", species.Slug)
	assert.True(t, species.IsCompetitionAllowed)
	require.NotNil(t, species.Category)
	assert.Equal(t, entities.CategoryB, *species.Category)
}

func TestApply_UpdatesExistingSpecies(t *testing.T) {
	t.Parallel()
	db := testutil.NewTestDB(t)
	repo := datastore.NewSpeciesRepository(db)

	existing := &entities.Species{Name: "SARGO", Slug: "sargo-de-dente", WikipediaTitle: "Archosargus probatocephalus"}
	require.NoError(t, repo.Create(t.Context(), existing))

	res, err := Apply(t.Context(), repo, []Rule{
		{Name: "SARGO", MinLengthCM: 35, PointsPerCM: 20, Category: entities.CategoryB},
		{Name: "GALO", MinLengthCM: 25, PointsPerCM: 10, Category: entities.CategoryC},
	})
	require.NoError(t, err)
	assert.Equal(t, Result{Created: 1, Updated: 1}, res)

	got, err := repo.GetByID(t.Context(), existing.ID)
	require.NoError(t, err)
	assert.Equal(t, "sargo-de-dente", got.Slug, "slug is never recomputed")
	assert.Equal(t, "Archosargus probatocephalus", got.WikipediaTitle)
	assert.InDelta(t, 35.0, got.MinLengthCM, 1e-9)
	assert.InDelta(t, 20.0, got.PointsPerCM, 1e-9)
	assert.False(t, got.IsCompetitionAllowed, "eligibility is only set on create")
}

func TestApply_KeepsExcludedSpeciesExcluded(t *testing.T) {
	t.Parallel()
	db := testutil.NewTestDB(t)
	repo := datastore.NewSpeciesRepository(db)
	rules := []Rule{{Name: "BAGRE", MinLengthCM: 30, PointsPerCM: 5, Category: entities.CategoryC}}

	_, err := Apply(t.Context(), repo, rules)
	require.NoError(t, err)

	bagre, err := repo.GetByName(t.Context(), "BAGRE")
	require.NoError(t, err)
	require.True(t, bagre.IsCompetitionAllowed)
	bagre.IsCompetitionAllowed = false
	require.NoError(t, repo.Save(t.Context(), bagre))

	res, err := Apply(t.Context(), repo, rules)
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)

	rules[0].PointsPerCM = 6
	res, err = Apply(t.Context(), repo, rules)
	require.NoError(t, err)
	assert.Equal(t, Result{Updated: 1}, res)

	got, err := repo.GetByName(t.Context(), "BAGRE")
	require.NoError(t, err)
	assert.False(t, got.IsCompetitionAllowed)
	assert.InDelta(t, 6.0, got.PointsPerCM, 1e-9)
}
