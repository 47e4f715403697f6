// Package forecast refreshes the stored marine forecast of fishing spots.
//
// A refresh fetches today's UTC hours for one spot, upserts them by
// (spot, time) and appends an entry to the provider request log. The log is
// also the source of truth for the provider's small daily quota.
package forecast

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nabos/fishclub/internal/conf"
	"github.com/nabos/fishclub/internal/datastore"
	"github.com/nabos/fishclub/internal/datastore/entities"
	"github.com/nabos/fishclub/internal/errors"
	"github.com/nabos/fishclub/internal/logger"
	"github.com/nabos/fishclub/internal/observability/metrics"
	"github.com/nabos/fishclub/internal/stormglass"
)

const (
	// DefaultDailyQuota matches the free Stormglass plan.
	DefaultDailyQuota = 10

	// DefaultConcurrency bounds parallel refreshes in RefreshAll.
	DefaultConcurrency = 2

	// Source is stored on every hour written by this package.
	Source = "stormglass"

	successStatus = 200
)

// ErrQuotaExhausted is returned when today's request log already holds the daily quota.
var ErrQuotaExhausted = errors.NewStd("daily forecast quota exhausted")

// Fetcher retrieves a raw forecast for one point.
type Fetcher interface {
	Fetch(ctx context.Context, lat, lng float64, start, end time.Time) (*stormglass.Payload, error)
}

// Notifier is told about failed refreshes and an exhausted quota.
type Notifier interface {
	NotifyError(ctx context.Context, component, title string, err error) error
	NotifyWarning(ctx context.Context, component, title, message string) error
}

// Config configures a Service.
type Config struct {
	DailyQuota  int
	Concurrency int
}

// ConfigFromSettings maps the forecast and stormglass settings to a Config.
func ConfigFromSettings(settings *conf.Settings) Config {
	return Config{
		DailyQuota:  settings.Stormglass.DailyQuota,
		Concurrency: settings.Forecast.Concurrency,
	}
}

// Result is the outcome of refreshing one spot.
type Result struct {
	Spot    string
	Created int
	Err     error
}

// Service refreshes spot forecasts. Safe for concurrent use.
type Service struct {
	fetcher     Fetcher
	forecasts   datastore.ForecastRepository
	spots       datastore.SpotRepository
	quota       int
	concurrency int
	log         logger.Logger

	// quotaMu serializes the quota check with the request it guards
	quotaMu sync.Mutex

	mu       sync.RWMutex
	notifier Notifier
	metrics  *metrics.ForecastMetrics

	now func() time.Time
}

// NewService creates a Service. Zero Config fields take the package defaults.
func NewService(fetcher Fetcher, forecasts datastore.ForecastRepository, spots datastore.SpotRepository, cfg Config) *Service {
	if cfg.DailyQuota <= 0 {
		cfg.DailyQuota = DefaultDailyQuota
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	return &Service{
		fetcher:     fetcher,
		forecasts:   forecasts,
		spots:       spots,
		quota:       cfg.DailyQuota,
		concurrency: cfg.Concurrency,
		log:         logger.Global().Module("forecast"),
		now:         time.Now,
	}
}

// SetNotifier attaches a notifier for failed refreshes.
func (s *Service) SetNotifier(n Notifier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifier = n
}

// SetMetrics attaches forecast metrics. Fetch metrics are recorded by the client.
func (s *Service) SetMetrics(m *metrics.ForecastMetrics) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics = m
}

func (s *Service) observers() (Notifier, *metrics.ForecastMetrics) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.notifier, s.metrics
}

// DayWindow returns the UTC day containing t, from 00:00:00 to 23:59:59.
func DayWindow(t time.Time) (start, end time.Time) {
	t = t.UTC()
	start = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.Add(24*time.Hour - time.Second)
}

// Refresh fetches today's forecast for spot and upserts it, returning the number of
// newly created hours. Every provider call, failed or not, lands in the request log.
func (s *Service) Refresh(ctx context.Context, spot *entities.Spot) (int, error) {
	if spot == nil || spot.ID == 0 {
		return 0, errors.Newf("spot is required").
			Component("forecast").
			Category(errors.CategoryValidation).
			Build()
	}

	notifier, m := s.observers()
	began := time.Now()
	created, err := s.refresh(ctx, spot, m)
	if m != nil {
		m.RecordDuration(metrics.OpRefresh, time.Since(began).Seconds())
	}

	if err != nil {
		if m != nil {
			m.RecordOperation(metrics.OpRefresh, metrics.StatusError)
			m.RecordError(metrics.OpRefresh, refreshErrorType(err))
		}
		s.log.Warn("forecast refresh failed",
			logger.String("spot", spot.Slug),
			logger.Error(err))
		if notifier != nil {
			var nerr error
			if errors.Is(err, ErrQuotaExhausted) {
				nerr = notifier.NotifyWarning(ctx, "forecast", "Stormglass daily quota exhausted",
					fmt.Sprintf("%d requests already made today, %s was not refreshed", s.quota, spot.Name))
			} else {
				nerr = notifier.NotifyError(ctx, "forecast", "Forecast refresh failed for "+spot.Name, err)
			}
			if nerr != nil {
				s.log.Debug("notification not delivered", logger.Error(nerr))
			}
		}
		return 0, err
	}

	if m != nil {
		m.RecordOperation(metrics.OpRefresh, metrics.StatusSuccess)
		m.MarkRefreshed(spot.Slug)
	}
	return created, nil
}

func (s *Service) refresh(ctx context.Context, spot *entities.Spot, m *metrics.ForecastMetrics) (int, error) {
	now := s.now().UTC()
	start, end := DayWindow(now)

	payload, err := s.fetchWithinQuota(ctx, spot, start, end, m)
	if err != nil {
		return 0, err
	}

	hours := toEntities(spot.ID, payload)
	created, err := s.forecasts.UpsertHours(ctx, hours)
	if err != nil {
		// the call was made and paid for even though nothing was stored
		s.appendLog(ctx, spot.ID, successStatus, err)
		return 0, err
	}
	if m != nil {
		m.RecordUpsert(created, len(hours)-created)
	}

	s.appendLog(ctx, spot.ID, successStatus, nil)
	if err := s.spots.MarkRefreshed(ctx, spot.ID, now); err != nil {
		return created, err
	}
	spot.LastForecastAt = &now

	s.log.Info("forecast refreshed",
		logger.String("spot", spot.Slug),
		logger.Int("hours", len(hours)),
		logger.Int("created", created),
		logger.Int("updated", len(hours)-created))
	return created, nil
}

// fetchWithinQuota checks today's usage and logs the attempt under one lock so that
// concurrent refreshes cannot overspend the quota.
func (s *Service) fetchWithinQuota(ctx context.Context, spot *entities.Spot, start, end time.Time, m *metrics.ForecastMetrics) (*stormglass.Payload, error) {
	s.quotaMu.Lock()
	defer s.quotaMu.Unlock()

	used, err := s.forecasts.RequestsSince(ctx, start)
	if err != nil {
		return nil, err
	}
	if m != nil {
		m.SetQuotaUsed(used)
	}
	if used >= s.quota {
		return nil, errors.New(ErrQuotaExhausted).
			Component("forecast").
			Category(errors.CategoryLimit).
			Context("used", used).
			Context("quota", s.quota).
			Build()
	}

	payload, err := s.fetcher.Fetch(ctx, spot.Latitude, spot.Longitude, start, end)
	if err != nil {
		if stormglass.RequestSent(err) {
			s.appendLog(ctx, spot.ID, stormglass.StatusCode(err), err)
		}
		return nil, err
	}
	if m != nil {
		m.SetQuotaUsed(used + 1)
	}
	return payload, nil
}

func (s *Service) appendLog(ctx context.Context, spotID uint, status int, cause error) {
	entry := &entities.RequestLog{
		SpotID:       &spotID,
		StatusCode:   status,
		RequestCount: 1,
		DailyQuota:   s.quota,
	}
	if cause != nil {
		entry.ErrorMessage = cause.Error()
	}
	// logged even after the caller gave up, the quota is spent either way
	if err := s.forecasts.AppendRequestLog(context.WithoutCancel(ctx), entry); err != nil {
		s.log.Error("failed to append request log",
			logger.Int("status_code", status),
			logger.Error(err))
	}
}

func toEntities(spotID uint, payload *stormglass.Payload) []entities.ForecastHour {
	var hours []entities.ForecastHour
	for h := range stormglass.Normalize(payload) {
		hours = append(hours, entities.ForecastHour{
			SpotID:            spotID,
			Time:              h.Time,
			WindSpeedMS:       h.WindSpeedMS,
			WindDirectionDeg:  h.WindDirectionDeg,
			GustMS:            h.GustMS,
			WaveHeightM:       h.WaveHeightM,
			WavePeriodS:       h.WavePeriodS,
			WaveDirectionDeg:  h.WaveDirectionDeg,
			SwellHeightM:      h.SwellHeightM,
			SwellPeriodS:      h.SwellPeriodS,
			SwellDirectionDeg: h.SwellDirectionDeg,
			WaterTempC:        h.WaterTempC,
			AirTempC:          h.AirTempC,
			Source:            Source,
		})
	}
	return hours
}

func refreshErrorType(err error) string {
	switch {
	case errors.Is(err, ErrQuotaExhausted):
		return "quota"
	case errors.Is(err, stormglass.ErrCircuitOpen):
		return "circuit_open"
	case stormglass.StatusCode(err) != 0:
		return "http"
	case errors.IsCategory(err, errors.CategoryDatabase):
		return "database"
	default:
		return "fetch"
	}
}

// RefreshAll refreshes every active spot, at most Concurrency at a time.
// Per-spot failures are reported in the results, the error is only set when the
// spots could not be listed.
func (s *Service) RefreshAll(ctx context.Context) ([]Result, error) {
	spots, err := s.spots.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]Result, len(spots))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i := range spots {
		g.Go(func() error {
			created, err := s.Refresh(gctx, &spots[i])
			results[i] = Result{Spot: spots[i].Slug, Created: created, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results, nil
}

// QuotaUsedToday sums the request counts logged since UTC midnight.
func (s *Service) QuotaUsedToday(ctx context.Context) (int, error) {
	start, _ := DayWindow(s.now())
	return s.forecasts.RequestsSince(ctx, start)
}

// DailyQuota returns the configured provider quota.
func (s *Service) DailyQuota() int {
	return s.quota
}

// NearestHour returns the stored hour closest to at, or nil when the spot has none.
func (s *Service) NearestHour(ctx context.Context, spotID uint, at time.Time) (*entities.ForecastHour, error) {
	hour, err := s.forecasts.NearestHour(ctx, spotID, at)
	if errors.Is(err, datastore.ErrForecastNotFound) {
		return nil, nil
	}
	return hour, err
}
