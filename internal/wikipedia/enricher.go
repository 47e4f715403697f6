package wikipedia

import (
	"context"
	"strings"
	"time"

	"github.com/nabos/fishclub/internal/datastore"
	"github.com/nabos/fishclub/internal/datastore/entities"
	"github.com/nabos/fishclub/internal/errors"
	"github.com/nabos/fishclub/internal/logger"
	"github.com/nabos/fishclub/internal/observability/metrics"
)

var (
	// ErrMissingTitle is returned when a species has no Wikipedia title to look up.
	ErrMissingTitle = errors.NewStd("species has no wikipedia title")

	// ErrNoData is returned when the summary for a species' title could not be fetched.
	ErrNoData = errors.NewStd("no wikipedia data for title")
)

// SummaryFetcher is the part of Client the Enricher needs.
type SummaryFetcher interface {
	FetchSummary(ctx context.Context, title string) (*Summary, bool)
}

// Enricher fills species descriptions from Wikipedia summaries.
type Enricher struct {
	fetcher SummaryFetcher
	species datastore.SpeciesRepository
	log     logger.Logger
	rec     metrics.Recorder
}

// NewEnricher creates an Enricher persisting through the species repository.
func NewEnricher(fetcher SummaryFetcher, species datastore.SpeciesRepository) *Enricher {
	return &Enricher{
		fetcher: fetcher,
		species: species,
		log:     getLogger(),
		rec:     metrics.NopRecorder{},
	}
}

// SetRecorder attaches a metrics recorder.
func (e *Enricher) SetRecorder(rec metrics.Recorder) {
	if rec == nil {
		rec = metrics.NopRecorder{}
	}
	e.rec = rec
}

// NeedsEnrichment reports whether a species has a title but is missing its
// summary or image.
func NeedsEnrichment(species *entities.Species) bool {
	if strings.TrimSpace(species.WikipediaTitle) == "" {
		return false
	}
	return strings.TrimSpace(species.Summary) == "" || strings.TrimSpace(species.ImageURL) == ""
}

// Enrich fetches the summary for species.WikipediaTitle and fills empty
// fields. With force the summary and image are overwritten by any non-empty
// fetched value; the scientific name is only ever filled when empty.
// The species is saved only when a field actually changed.
func (e *Enricher) Enrich(ctx context.Context, species *entities.Species, force bool) (bool, error) {
	title := strings.TrimSpace(species.WikipediaTitle)
	if title == "" {
		return false, ErrMissingTitle
	}

	start := time.Now()
	defer func() {
		e.rec.RecordDuration(metrics.OpEnrich, time.Since(start).Seconds())
	}()

	summary, ok := e.fetcher.FetchSummary(ctx, title)
	if !ok {
		e.rec.RecordOperation(metrics.OpEnrich, metrics.StatusError)
		return false, ErrNoData
	}

	changed := false
	if summary.Extract != "" && (force || species.Summary == "") && species.Summary != summary.Extract {
		species.Summary = summary.Extract
		changed = true
	}
	if summary.ImageURL != "" && (force || species.ImageURL == "") && species.ImageURL != summary.ImageURL {
		species.ImageURL = summary.ImageURL
		changed = true
	}
	if species.ScientificName == "" {
		if name, found := scientificName(summary); found {
			species.ScientificName = name
			changed = true
		}
	}

	if !changed {
		e.rec.RecordOperation(metrics.OpEnrich, metrics.StatusSkipped)
		return false, nil
	}

	if err := e.species.Save(ctx, species); err != nil {
		e.rec.RecordOperation(metrics.OpEnrich, metrics.StatusError)
		return false, err
	}

	e.rec.RecordOperation(metrics.OpEnrich, metrics.StatusSuccess)
	e.log.Info("species enriched",
		logger.String("species", species.Name),
		logger.String("title", title),
		logger.Bool("force", force))
	return true, nil
}

func scientificName(summary *Summary) (string, bool) {
	if summary.Extract != "" {
		if name, ok := ExtractScientificName(summary.Extract); ok {
			return name, true
		}
	}
	return ScientificNameFromHTML(summary.ExtractHTML)
}
