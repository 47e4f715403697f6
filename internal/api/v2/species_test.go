package api

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nabos/fishclub/internal/datastore"
	"github.com/nabos/fishclub/internal/datastore/entities"
	"github.com/nabos/fishclub/internal/testutil"
	"github.com/nabos/fishclub/internal/wikipedia"
)

type fakeEnricher struct {
	calls     atomic.Int32
	lastForce atomic.Bool
	err       error
}

func (f *fakeEnricher) Enrich(_ context.Context, species *entities.Species, force bool) (bool, error) {
	f.calls.Add(1)
	f.lastForce.Store(force)
	if f.err != nil {
		return false, f.err
	}
	if species.Summary == "Peixe costeiro." {
		return false, nil
	}
	species.Summary = "Peixe costeiro."
	return true, nil
}

func TestListSpecies(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)

	for i := 1; i <= 25; i++ {
		testutil.CreateSpecies(t, env.db, fmt.Sprintf("Especie %02d", i), 20, 1.5)
	}
	require.NoError(t, datastore.NewSpeciesRepository(env.db).Create(t.Context(),
		&entities.Species{Name: "Especie fora"}))

	tests := []struct {
		name      string
		query     string
		wantPage  int
		wantCount int
		wantTotal int64
		wantPages int
		wantFirst string
	}{
		{"first page", "", 1, SpeciesPageSize, 25, 2, "Especie 01"},
		{"second page", "?page=2", 2, 1, 25, 2, "Especie 25"},
		{"page past the end", "?page=9", 2, 1, 25, 2, "Especie 25"},
		{"invalid page", "?page=abc", 1, SpeciesPageSize, 25, 2, "Especie 01"},
		{"name filter", "?q=especie%202", 1, 6, 6, 1, "Especie 20"},
		{"no match", "?q=tubarao", 1, 0, 0, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, "/api/v2/species"+tt.query, "", nil)
			require.Equal(t, http.StatusOK, rec.Code)

			page := decode[SpeciesPage](t, rec)
			assert.Equal(t, tt.wantPage, page.Page)
			assert.Equal(t, SpeciesPageSize, page.PageSize)
			assert.Equal(t, tt.wantTotal, page.Total)
			assert.Equal(t, tt.wantPages, page.TotalPages)
			require.Len(t, page.Species, tt.wantCount)
			if tt.wantFirst != "" {
				assert.Equal(t, tt.wantFirst, page.Species[0].Name)
				assert.Equal(t, "20", page.Species[0].MinLengthDisplay)
				assert.Equal(t, "1,5", page.Species[0].PointsPerCMDisplay)
			}
		})
	}
}

func TestGetSpecies_EnrichesOnDemand(t *testing.T) {
	t.Parallel()
	enricher := &fakeEnricher{}
	env := newTestEnv(t, nil, WithEnricher(enricher))

	repo := datastore.NewSpeciesRepository(env.db)
	titled := &entities.Species{Name: "Robalo Flecha", WikipediaTitle: "Centropomus undecimalis"}
	require.NoError(t, repo.Create(t.Context(), titled))
	plain := &entities.Species{Name: "Sargo"}
	require.NoError(t, repo.Create(t.Context(), plain))

	rec := env.do(t, http.MethodGet, "/api/v2/species/"+titled.Slug, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	view := decode[SpeciesView](t, rec)
	assert.Equal(t, "robalo-flecha", view.Slug)
	assert.Equal(t, "Peixe costeiro.", view.Summary)
	assert.Equal(t, int32(1), enricher.calls.Load())
	assert.False(t, enricher.lastForce.Load())

	rec = env.do(t, http.MethodGet, "/api/v2/species/"+plain.Slug, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int32(1), enricher.calls.Load(), "species without a title is not enriched")

	rec = env.do(t, http.MethodGet, "/api/v2/species/nao-existe", "", nil)
	requireErrorResponse(t, rec, http.StatusNotFound)
}

func TestGetSpecies_EnrichesWhenImageMissing(t *testing.T) {
	t.Parallel()
	enricher := &fakeEnricher{}
	env := newTestEnv(t, nil, WithEnricher(enricher))

	repo := datastore.NewSpeciesRepository(env.db)
	noImage := &entities.Species{Name: "Corvina", WikipediaTitle: "Micropogonias furnieri", Summary: "Peixe costeiro."}
	require.NoError(t, repo.Create(t.Context(), noImage))
	complete := &entities.Species{
		Name:           "Pescada",
		WikipediaTitle: "Cynoscion",
		Summary:        "Peixe costeiro.",
		ImageURL:       "https://upload.wikimedia.org/pescada.jpg",
	}
	require.NoError(t, repo.Create(t.Context(), complete))

	rec := env.do(t, http.MethodGet, "/api/v2/species/"+noImage.Slug, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int32(1), enricher.calls.Load())

	rec = env.do(t, http.MethodGet, "/api/v2/species/"+complete.Slug, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int32(1), enricher.calls.Load(), "complete species is left alone")
}

func TestGetSpecies_AutoFillDisabled(t *testing.T) {
	t.Parallel()
	enricher := &fakeEnricher{}
	settings := testSettings()
	settings.Wikipedia.AutoFill = false
	env := newTestEnv(t, settings, WithEnricher(enricher))

	species := &entities.Species{Name: "Tainha", WikipediaTitle: "Mugil liza"}
	require.NoError(t, datastore.NewSpeciesRepository(env.db).Create(t.Context(), species))

	rec := env.do(t, http.MethodGet, "/api/v2/species/tainha", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[SpeciesView](t, rec).Summary)
	assert.Zero(t, enricher.calls.Load())
}

func TestGetSpecies_EnrichmentFailureStillShowsSpecies(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil, WithEnricher(&fakeEnricher{err: wikipedia.ErrNoData}))

	species := &entities.Species{Name: "Corvina", WikipediaTitle: "Micropogonias furnieri"}
	require.NoError(t, datastore.NewSpeciesRepository(env.db).Create(t.Context(), species))

	rec := env.do(t, http.MethodGet, "/api/v2/species/corvina", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[SpeciesView](t, rec).Summary)
}

func TestListMembers(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)

	species := testutil.CreateSpecies(t, env.db, "Pescada", 20, 1)
	ana := testutil.CreateMember(t, env.db, "Ana Souza")
	bruno := testutil.CreateMember(t, env.db, "Bruno")
	testutil.CreateMember(t, env.db, "Carla")
	require.NoError(t, env.db.Model(ana).Updates(map[string]any{"gender": "F", "age": 34}).Error)
	require.NoError(t, env.db.Model(bruno).Updates(map[string]any{"gender": "M", "age": 17}).Error)
	testutil.CreateCatch(t, env.db, ana, species, 30, testCatchTime)
	testutil.CreateCatch(t, env.db, ana, species, 31, testCatchTime)

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"all", "", []string{"Ana Souza", "Bruno", "Carla"}},
		{"name", "?q=SOUZA", []string{"Ana Souza"}},
		{"gender", "?gender=f", []string{"Ana Souza"}},
		{"age bucket", "?age=lt18", []string{"Bruno"}},
		{"unknown age bucket is ignored", "?age=old", []string{"Ana Souza", "Bruno", "Carla"}},
		{"combined", "?gender=M&age=30_39", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, "/api/v2/members"+tt.query, "", nil)
			require.Equal(t, http.StatusOK, rec.Code)

			dir := decode[MemberDirectory](t, rec)
			names := make([]string, 0, len(dir.Members))
			for _, row := range dir.Members {
				names = append(names, row.Name)
			}
			assert.Equal(t, tt.want, names)
		})
	}

	rec := env.do(t, http.MethodGet, "/api/v2/members?q=ana", "", nil)
	dir := decode[MemberDirectory](t, rec)
	require.Len(t, dir.Members, 1)
	assert.Equal(t, int64(2), dir.Members[0].CatchesCount)
	assert.Equal(t, "ana", dir.Filters.Query)
}

func TestGetMember(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)

	species := testutil.CreateSpecies(t, env.db, "Bagre", 20, 2)
	member := testutil.CreateMember(t, env.db, "Edu")
	testutil.CreateCatch(t, env.db, member, species, 25.5, testCatchTime)
	testutil.CreateCatch(t, env.db, member, species, 10, testCatchTime.Add(-time.Hour))

	rec := env.do(t, http.MethodGet, fmt.Sprintf("/api/v2/members/%d", member.ID), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	profile := decode[MemberProfile](t, rec)
	assert.Equal(t, "Edu", profile.Member.Name)
	assert.Equal(t, 51, profile.Points)
	assert.Equal(t, 1, profile.Rank)
	require.Len(t, profile.Catches, 2)
	assert.Equal(t, "25,5", profile.Catches[0].LengthDisplay)
	assert.Equal(t, 0, profile.Catches[1].Points, "catch below the minimum length scores nothing")

	requireErrorResponse(t, env.do(t, http.MethodGet, "/api/v2/members/abc", "", nil), http.StatusBadRequest)
	requireErrorResponse(t, env.do(t, http.MethodGet, "/api/v2/members/999", "", nil), http.StatusNotFound)
}
