package forecast

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"gorm.io/gorm"

	"github.com/nabos/fishclub/internal/datastore"
	"github.com/nabos/fishclub/internal/datastore/entities"
	"github.com/nabos/fishclub/internal/errors"
	"github.com/nabos/fishclub/internal/stormglass"
	"github.com/nabos/fishclub/internal/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("database/sql.(*DB).connectionOpener"),
	)
}

const twoHours = `{
  "hours": [
    {"time": "2026-03-01T09:00:00+00:00", "windSpeed": {"noaa": 3.2}, "gust": {"noaa": 5.1}, "waveDirection": {"sg": 180.4}},
    {"time": "2026-03-01T10:00:00+00:00", "windSpeed": {"noaa": 3.6}, "waterTemperature": {"meteo": 24.0}}
  ],
  "meta": {"dailyQuota": 10, "requestCount": 1}
}`

type fakeFetcher struct {
	calls atomic.Int32
	body  string
	err   error

	mu      sync.Mutex
	lastLat float64
}

func (f *fakeFetcher) Fetch(_ context.Context, lat, _ float64, start, end time.Time) (*stormglass.Payload, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.lastLat = lat
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if !start.Before(end) {
		return nil, fmt.Errorf("bad window %s..%s", start, end)
	}
	return stormglass.Decode([]byte(f.body))
}

type fakeNotifier struct {
	mu       sync.Mutex
	titles   []string
	warnings []string
}

func (n *fakeNotifier) NotifyWarning(_ context.Context, _, title, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.warnings = append(n.warnings, title)
	return nil
}

func (n *fakeNotifier) NotifyError(_ context.Context, _, title string, _ error) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.titles = append(n.titles, title)
	return nil
}

var fixedNow = time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)

func newTestService(t *testing.T, fetcher Fetcher, cfg Config) (*Service, *gorm.DB) {
	t.Helper()
	db := testutil.NewTestDB(t)
	svc := NewService(fetcher, datastore.NewForecastRepository(db), datastore.NewSpotRepository(db), cfg)
	svc.now = func() time.Time { return fixedNow }
	return svc, db
}

func requestLogs(t *testing.T, db *gorm.DB) []entities.RequestLog {
	t.Helper()
	logs, err := datastore.NewForecastRepository(db).RecentRequestLogs(t.Context(), 50)
	require.NoError(t, err)
	return logs
}

func TestDayWindow(t *testing.T) {
	t.Parallel()

	brt := time.FixedZone("BRT", -3*60*60)
	start, end := DayWindow(time.Date(2026, 3, 1, 22, 15, 0, 0, brt))

	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, 3, 2, 23, 59, 59, 0, time.UTC), end)
}

func TestRefresh_CreatesThenUpdates(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{body: twoHours}
	svc, db := newTestService(t, fetcher, Config{})
	spot := testutil.CreateSpot(t, db, "Praia do Tombo", -23.994, -46.256)

	created, err := svc.Refresh(t.Context(), spot)
	require.NoError(t, err)
	assert.Equal(t, 2, created)
	assert.InDelta(t, -23.994, fetcher.lastLat, 1e-9)
	require.NotNil(t, spot.LastForecastAt)

	fetcher.body = `{"hours": [{"time": "2026-03-01T09:00:00+00:00", "windSpeed": {"noaa": 7.5}, "gust": {"noaa": 9.9}}]}`
	created, err = svc.Refresh(t.Context(), spot)
	require.NoError(t, err)
	assert.Zero(t, created)

	hours, err := datastore.NewForecastRepository(db).ListHours(t.Context(), spot.ID,
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 3, 1, 23, 59, 59, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, hours, 2)
	assert.InDelta(t, 7.5, *hours[0].WindSpeedMS, 1e-9)
	assert.InDelta(t, 9.9, *hours[0].GustMS, 1e-9, "gust is updated too")
	assert.Equal(t, Source, hours[0].Source)
	assert.InDelta(t, 24.0, *hours[1].WaterTempC, 1e-9)

	logs := requestLogs(t, db)
	require.Len(t, logs, 2)
	for _, l := range logs {
		assert.Equal(t, 200, l.StatusCode)
		assert.Equal(t, 1, l.RequestCount)
		assert.Equal(t, DefaultDailyQuota, l.DailyQuota)
		assert.Empty(t, l.ErrorMessage)
		require.NotNil(t, l.SpotID)
		assert.Equal(t, spot.ID, *l.SpotID)
	}

	stored, err := datastore.NewSpotRepository(db).GetBySlug(t.Context(), spot.Slug)
	require.NoError(t, err)
	require.NotNil(t, stored.LastForecastAt)
	assert.True(t, stored.LastForecastAt.Equal(fixedNow))
}

func TestRefresh_FailuresAreLogged(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"provider rejected", &stormglass.StatusError{StatusCode: 402, URL: stormglass.DefaultBaseURL}, 402},
		{"transport failure", fmt.Errorf("dial tcp: connection refused"), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			notifier := &fakeNotifier{}
			svc, db := newTestService(t, &fakeFetcher{err: tt.err}, Config{})
			svc.SetNotifier(notifier)
			spot := testutil.CreateSpot(t, db, "Ilha Porchat", -23.97, -46.37)

			created, err := svc.Refresh(t.Context(), spot)
			require.Error(t, err)
			assert.Zero(t, created)
			assert.Nil(t, spot.LastForecastAt)

			logs := requestLogs(t, db)
			require.Len(t, logs, 1)
			assert.Equal(t, tt.wantStatus, logs[0].StatusCode)
			assert.Equal(t, 1, logs[0].RequestCount)
			assert.Equal(t, tt.err.Error(), logs[0].ErrorMessage)

			assert.Equal(t, []string{"Forecast refresh failed for Ilha Porchat"}, notifier.titles)
		})
	}
}

func TestRefresh_QuotaExhausted(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{body: twoHours}
	notifier := &fakeNotifier{}
	svc, db := newTestService(t, fetcher, Config{DailyQuota: 1})
	svc.SetNotifier(notifier)
	spot := testutil.CreateSpot(t, db, "Guaiuba", -24.0, -46.2)

	_, err := svc.Refresh(t.Context(), spot)
	require.NoError(t, err)

	_, err = svc.Refresh(t.Context(), spot)
	require.ErrorIs(t, err, ErrQuotaExhausted)
	assert.True(t, errors.IsCategory(err, errors.CategoryLimit))
	assert.Equal(t, int32(1), fetcher.calls.Load())
	assert.Len(t, requestLogs(t, db), 1, "refused refresh makes no request")
	assert.Empty(t, notifier.titles)
	assert.Equal(t, []string{"Stormglass daily quota exhausted"}, notifier.warnings)

	used, err := svc.QuotaUsedToday(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, used)
}

func TestRefresh_RejectedFetchesSpendNoQuota(t *testing.T) {
	t.Parallel()

	t.Run("circuit open", func(t *testing.T) {
		t.Parallel()

		transport := httpmock.NewMockTransport()
		transport.RegisterResponder(http.MethodGet, stormglass.DefaultBaseURL,
			httpmock.NewStringResponder(http.StatusInternalServerError, ""))
		client := stormglass.NewClient(stormglass.Config{APIKey: "k", Timeout: time.Second, Transport: transport})
		t.Cleanup(client.Close)

		svc, db := newTestService(t, client, Config{DailyQuota: 20})
		spot := testutil.CreateSpot(t, db, "Tombo", -24, -46)

		for range 12 {
			_, err := svc.Refresh(t.Context(), spot)
			require.Error(t, err)
			require.NotErrorIs(t, err, ErrQuotaExhausted)
		}

		calls := transport.GetTotalCallCount()
		assert.Equal(t, 6, calls, "breaker opens after six failures")
		used, err := svc.QuotaUsedToday(t.Context())
		require.NoError(t, err)
		assert.Equal(t, calls, used)
		for _, l := range requestLogs(t, db) {
			assert.Equal(t, http.StatusInternalServerError, l.StatusCode)
		}
	})

	t.Run("missing api key", func(t *testing.T) {
		t.Parallel()

		transport := httpmock.NewMockTransport()
		client := stormglass.NewClient(stormglass.Config{Transport: transport})
		t.Cleanup(client.Close)

		svc, db := newTestService(t, client, Config{DailyQuota: 1})
		spot := testutil.CreateSpot(t, db, "Tombo", -24, -46)

		for range 3 {
			_, err := svc.Refresh(t.Context(), spot)
			require.ErrorIs(t, err, stormglass.ErrMissingAPIKey)
		}
		assert.Zero(t, transport.GetTotalCallCount())
		assert.Empty(t, requestLogs(t, db))
	})
}

func TestRefresh_RequiresSpot(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{body: twoHours}
	svc, _ := newTestService(t, fetcher, Config{})

	_, err := svc.Refresh(t.Context(), nil)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
	assert.Zero(t, fetcher.calls.Load())
}

func TestRefreshAll(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{body: twoHours}
	svc, db := newTestService(t, fetcher, Config{Concurrency: 2})
	for _, name := range []string{"Tombo", "Pitangueiras", "Enseada"} {
		testutil.CreateSpot(t, db, name, -24, -46)
	}
	closed := &entities.Spot{Name: "Closed", Latitude: 1, Longitude: 1}
	require.NoError(t, datastore.NewSpotRepository(db).Create(t.Context(), closed))
	require.NoError(t, db.Model(closed).Update("is_active", false).Error)

	results, err := svc.RefreshAll(t.Context())
	require.NoError(t, err)
	require.Len(t, results, 3)
	for _, r := range results {
		require.NoError(t, r.Err, r.Spot)
		assert.Equal(t, 2, r.Created, r.Spot)
	}
	assert.Equal(t, int32(3), fetcher.calls.Load())

	used, err := svc.QuotaUsedToday(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 3, used)
}

func TestNearestHour(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t, &fakeFetcher{body: twoHours}, Config{})
	spot := testutil.CreateSpot(t, db, "Tombo", -24, -46)

	hour, err := svc.NearestHour(t.Context(), spot.ID, fixedNow)
	require.NoError(t, err)
	assert.Nil(t, hour)

	_, err = svc.Refresh(t.Context(), spot)
	require.NoError(t, err)

	hour, err = svc.NearestHour(t.Context(), spot.ID, fixedNow)
	require.NoError(t, err)
	require.NotNil(t, hour)
	assert.Equal(t, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC), hour.Time.UTC())
}

func TestScheduler_DisabledSchedulesNothing(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{body: twoHours}
	svc, db := newTestService(t, fetcher, Config{})
	testutil.CreateSpot(t, db, "Tombo", -24, -46)

	s := NewScheduler(svc, 0, time.Minute)
	require.NoError(t, s.Start())
	s.Stop()
	assert.Zero(t, fetcher.calls.Load())

	s.run()
	assert.Equal(t, int32(1), fetcher.calls.Load())
}
