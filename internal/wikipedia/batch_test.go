package wikipedia

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nabos/fishclub/internal/datastore"
	"github.com/nabos/fishclub/internal/datastore/entities"
	"github.com/nabos/fishclub/internal/testutil"
)

type fakeTitles struct {
	suggestions map[string]string
	existing    map[string]bool
	failOn      string
}

func (f *fakeTitles) SuggestTitle(_ context.Context, query string) (string, error) {
	if query == f.failOn {
		return "", fmt.Errorf("connection refused")
	}
	return f.suggestions[query], nil
}

func (f *fakeTitles) PageExists(_ context.Context, title string) (bool, error) {
	return f.existing[title], nil
}

func seedBatchSpecies(t *testing.T, repo datastore.SpeciesRepository) {
	t.Helper()
	for _, s := range []entities.Species{
		{Name: "Anchova"},
		{Name: "Baiacu"},
		{Name: "Corvina"},
		{Name: "Linguado", WikipediaTitle: "Linguado"},
		{Name: "Sargo"},
	} {
		sp := s
		require.NoError(t, repo.Create(t.Context(), &sp))
	}
}

func newFillBatch(t *testing.T) (*Batch, datastore.SpeciesRepository, *bytes.Buffer) {
	t.Helper()
	repo := datastore.NewSpeciesRepository(testutil.NewTestDB(t))
	seedBatchSpecies(t, repo)

	titles := &fakeTitles{
		suggestions: map[string]string{
			"Anchova":  "Anchova",
			"Baiacu":   "Baiacu-ara",
			"Linguado": "Linguado (peixe)",
		},
		existing: map[string]bool{"Anchova": true, "Linguado (peixe)": true},
		failOn:   "Corvina",
	}
	out := &bytes.Buffer{}
	b := NewBatch(titles, NewEnricher(&fakeFetcher{}, repo), repo, 0, out)
	return b, repo, out
}

func TestBatch_FillTitles(t *testing.T) {
	t.Parallel()
	b, repo, out := newFillBatch(t)

	report, err := b.FillTitles(t.Context(), FillOptions{})
	require.NoError(t, err)

	// Linguado already has a title and is not listed without force
	assert.Equal(t, Report{Total: 4, OK: 1, Failures: 1, Skips: 2}, report)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "[OK] Anchova -> Anchova", lines[0])
	assert.Equal(t, `[SKIP] Baiacu -> suggestion "Baiacu-ara" does not exist`, lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "[FAIL] Corvina -> "))
	assert.Equal(t, "[SKIP] Sargo -> no suggestion", lines[3])
	assert.Equal(t, "Total: 4 | OK: 1 | Failures: 1 | Skips: 2", lines[4])

	stored, err := repo.GetByName(t.Context(), "Anchova")
	require.NoError(t, err)
	assert.Equal(t, "Anchova", stored.WikipediaTitle)
}

func TestBatch_FillTitlesDryRunWithForceAndLimit(t *testing.T) {
	t.Parallel()
	b, repo, out := newFillBatch(t)

	report, err := b.FillTitles(t.Context(), FillOptions{Force: true, DryRun: true, Limit: 4})
	require.NoError(t, err)
	assert.Equal(t, Report{Total: 4, OK: 2, Failures: 1, Skips: 1}, report)
	assert.Contains(t, out.String(), `[DRY] Linguado -> wikipedia_title="Linguado (peixe)"`)

	// dry runs never persist
	stored, err := repo.GetByName(t.Context(), "Anchova")
	require.NoError(t, err)
	assert.Empty(t, stored.WikipediaTitle)
	linguado, err := repo.GetByName(t.Context(), "Linguado")
	require.NoError(t, err)
	assert.Equal(t, "Linguado", linguado.WikipediaTitle)
}

func TestBatch_Update(t *testing.T) {
	t.Parallel()
	repo := datastore.NewSpeciesRepository(testutil.NewTestDB(t))
	for _, s := range []entities.Species{
		{Name: "Anchova", WikipediaTitle: "Anchova"},
		{Name: "Baiacu"},
		{Name: "Robalo", WikipediaTitle: "Robalo-flecha"},
		{Name: "Sargo", WikipediaTitle: "Sargo (peixe)"},
	} {
		sp := s
		require.NoError(t, repo.Create(t.Context(), &sp))
	}

	fetcher := &fakeFetcher{summaries: map[string]*Summary{
		"Robalo-flecha": robalo,
		"Anchova":       {Extract: ""},
	}}
	out := &bytes.Buffer{}
	b := NewBatch(&fakeTitles{}, NewEnricher(fetcher, repo), repo, 0, out)

	report, err := b.Update(t.Context(), UpdateOptions{})
	require.NoError(t, err)
	// Anchova: nothing to fill, Baiacu: no title, Robalo: ok, Sargo: no data
	assert.Equal(t, Report{Total: 4, OK: 1, Failures: 1, Skips: 2}, report)
	assert.Contains(t, out.String(), "[OK] Robalo -> Robalo-flecha")
	assert.Contains(t, out.String(), "[FAIL] Sargo -> no data for Sargo (peixe)")
	assert.Contains(t, out.String(), "[SKIP] Baiacu -> no wikipedia title")

	// a second run finds everything already filled
	out.Reset()
	report, err = b.Update(t.Context(), UpdateOptions{Slug: "robalo"})
	require.NoError(t, err)
	assert.Equal(t, Report{Total: 1, Skips: 1}, report)

	report, err = b.Update(t.Context(), UpdateOptions{Slug: "does-not-exist"})
	require.NoError(t, err)
	assert.Equal(t, Report{}, report)
}
