package wikipedia

import (
	"context"
	"fmt"
	"io"
	"strings"

	"golang.org/x/time/rate"

	"github.com/nabos/fishclub/internal/datastore"
	"github.com/nabos/fishclub/internal/datastore/entities"
	"github.com/nabos/fishclub/internal/errors"
	"github.com/nabos/fishclub/internal/logger"
)

// Outcome labels the result of one item in a batch run.
type Outcome string

const (
	OutcomeOK   Outcome = "OK"
	OutcomeDry  Outcome = "DRY"
	OutcomeSkip Outcome = "SKIP"
	OutcomeFail Outcome = "FAIL"
)

// Report totals a batch run.
type Report struct {
	Total    int
	OK       int
	Failures int
	Skips    int
}

func (r Report) String() string {
	return fmt.Sprintf("Total: %d | OK: %d | Failures: %d | Skips: %d", r.Total, r.OK, r.Failures, r.Skips)
}

func (r *Report) add(o Outcome) {
	switch o {
	case OutcomeOK, OutcomeDry:
		r.OK++
	case OutcomeSkip:
		r.Skips++
	case OutcomeFail:
		r.Failures++
	}
}

// TitleSource is the part of Client used to guess page titles.
type TitleSource interface {
	SuggestTitle(ctx context.Context, query string) (string, error)
	PageExists(ctx context.Context, title string) (bool, error)
}

// Batch runs the species maintenance commands. Every species costs at least
// one limiter token so long runs stay polite towards Wikimedia.
type Batch struct {
	titles   TitleSource
	enricher *Enricher
	species  datastore.SpeciesRepository
	limiter  *rate.Limiter
	out      io.Writer
	log      logger.Logger
}

// NewBatch creates a Batch writing per-item lines to out.
// A rps <= 0 disables throttling.
func NewBatch(titles TitleSource, enricher *Enricher, species datastore.SpeciesRepository, rps float64, out io.Writer) *Batch {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
	if out == nil {
		out = io.Discard
	}
	return &Batch{
		titles:   titles,
		enricher: enricher,
		species:  species,
		limiter:  limiter,
		out:      out,
		log:      getLogger(),
	}
}

// FillOptions controls FillTitles.
type FillOptions struct {
	Force  bool // also revisit species that already have a title
	Limit  int  // 0 means all
	DryRun bool // report guesses without saving
}

// FillTitles guesses a Wikipedia title for species by name, validates that
// the page exists and stores it.
func (b *Batch) FillTitles(ctx context.Context, opts FillOptions) (Report, error) {
	list, err := b.species.List(ctx, !opts.Force, opts.Limit)
	if err != nil {
		return Report{}, err
	}

	report := Report{Total: len(list)}
	for i := range list {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		outcome, detail := b.fillTitle(ctx, &list[i], opts)
		report.add(outcome)
		b.line(outcome, list[i].Name, detail)
	}

	b.log.Info("wikipedia title fill finished",
		logger.Int("total", report.Total),
		logger.Int("ok", report.OK),
		logger.Int("failures", report.Failures),
		logger.Int("skips", report.Skips),
		logger.Bool("dry_run", opts.DryRun))
	fmt.Fprintln(b.out, report.String())
	return report, nil
}

func (b *Batch) fillTitle(ctx context.Context, species *entities.Species, opts FillOptions) (Outcome, string) {
	if species.WikipediaTitle != "" && !opts.Force {
		return OutcomeSkip, "already has a title"
	}
	if err := b.limiter.Wait(ctx); err != nil {
		return OutcomeFail, err.Error()
	}

	guess, err := b.titles.SuggestTitle(ctx, species.Name)
	if err != nil {
		return OutcomeFail, err.Error()
	}
	if guess == "" {
		return OutcomeSkip, "no suggestion"
	}

	exists, err := b.titles.PageExists(ctx, guess)
	if err != nil {
		return OutcomeFail, err.Error()
	}
	if !exists {
		return OutcomeSkip, fmt.Sprintf("suggestion %q does not exist", guess)
	}

	if opts.DryRun {
		return OutcomeDry, fmt.Sprintf("wikipedia_title=%q", guess)
	}

	species.WikipediaTitle = guess
	if err := b.species.Save(ctx, species); err != nil {
		return OutcomeFail, err.Error()
	}
	return OutcomeOK, guess
}

// UpdateOptions controls Update.
type UpdateOptions struct {
	Slug  string // only this species when set
	Force bool   // overwrite summary and image
}

// Update enriches species from their Wikipedia summaries. Species without a
// title are skipped, unreachable summaries count as failures and species that
// already had everything filled count as skips.
func (b *Batch) Update(ctx context.Context, opts UpdateOptions) (Report, error) {
	var list []entities.Species
	if slug := strings.TrimSpace(opts.Slug); slug != "" {
		species, err := b.species.GetBySlug(ctx, slug)
		switch {
		case errors.Is(err, datastore.ErrSpeciesNotFound):
			// reported as an empty run
		case err != nil:
			return Report{}, err
		default:
			list = append(list, *species)
		}
	} else {
		all, err := b.species.List(ctx, false, 0)
		if err != nil {
			return Report{}, err
		}
		list = all
	}

	report := Report{Total: len(list)}
	for i := range list {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		outcome, detail := b.updateOne(ctx, &list[i], opts.Force)
		report.add(outcome)
		b.line(outcome, list[i].Name, detail)
	}

	b.log.Info("wikipedia update finished",
		logger.Int("total", report.Total),
		logger.Int("ok", report.OK),
		logger.Int("failures", report.Failures),
		logger.Int("skips", report.Skips),
		logger.Bool("force", opts.Force))
	fmt.Fprintln(b.out, report.String())
	return report, nil
}

func (b *Batch) updateOne(ctx context.Context, species *entities.Species, force bool) (Outcome, string) {
	if strings.TrimSpace(species.WikipediaTitle) == "" {
		return OutcomeSkip, "no wikipedia title"
	}
	if err := b.limiter.Wait(ctx); err != nil {
		return OutcomeFail, err.Error()
	}

	changed, err := b.enricher.Enrich(ctx, species, force)
	switch {
	case errors.Is(err, ErrNoData):
		return OutcomeFail, "no data for " + species.WikipediaTitle
	case err != nil:
		return OutcomeFail, err.Error()
	case !changed:
		return OutcomeSkip, "already up to date"
	default:
		return OutcomeOK, species.WikipediaTitle
	}
}

func (b *Batch) line(o Outcome, name, detail string) {
	fmt.Fprintf(b.out, "[%s] %s -> %s\n", o, name, detail)
}
