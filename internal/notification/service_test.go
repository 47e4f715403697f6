package notification

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nabos/fishclub/internal/conf"
	"github.com/nabos/fishclub/internal/errors"
	"github.com/nabos/fishclub/internal/observability/metrics"
)

type fakeProvider struct {
	name    string
	enabled bool
	types   map[Type]bool
	err     error

	mu   sync.Mutex
	sent []*Notification
}

func (f *fakeProvider) GetName() string          { return f.name }
func (f *fakeProvider) ValidateConfig() error    { return nil }
func (f *fakeProvider) IsEnabled() bool          { return f.enabled }
func (f *fakeProvider) SupportsType(t Type) bool { return f.types == nil || f.types[t] }

func (f *fakeProvider) Send(_ context.Context, n *Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, n)
	return f.err
}

func (f *fakeProvider) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func TestService_NotifyDeliversToMatchingProviders(t *testing.T) {
	t.Parallel()

	all := &fakeProvider{name: "all", enabled: true}
	infoOnly := &fakeProvider{name: "info", enabled: true, types: map[Type]bool{TypeInfo: true}}
	disabled := &fakeProvider{name: "off", enabled: false}
	svc := NewService([]Provider{all, infoOnly, disabled}, time.Minute)

	n := NewNotification(TypeError, PriorityHigh, "Forecast refresh failed", "praia-grande: 402")
	require.NoError(t, svc.Notify(t.Context(), n))

	assert.Equal(t, 1, all.count())
	assert.Equal(t, 0, infoOnly.count())
	assert.Equal(t, 0, disabled.count())
}

func TestService_NotifySuppressesDuplicates(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m, err := metrics.NewNotificationMetrics(reg)
	require.NoError(t, err)

	p := &fakeProvider{name: "all", enabled: true}
	svc := NewService([]Provider{p}, time.Minute)
	svc.SetMetrics(m)

	for range 3 {
		n := NewNotification(TypeError, PriorityHigh, "same", "body").WithComponent("forecast")
		require.NoError(t, svc.Notify(t.Context(), n))
	}

	assert.Equal(t, 1, p.count())
	assert.InDelta(t, 2, testutil.ToFloat64(m.SuppressedTotal), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.DeliveriesTotal.WithLabelValues("all", "error", metrics.StatusSuccess)), 0)
}

func TestService_NotifyFailureAllowsRetry(t *testing.T) {
	t.Parallel()

	p := &fakeProvider{name: "flaky", enabled: true, err: stderrors.New("boom")}
	svc := NewService([]Provider{p}, time.Minute)

	err := svc.Notify(t.Context(), NewNotification(TypeError, PriorityHigh, "t", "m"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "flaky")

	// the failed alert was not remembered, so it is attempted again
	_ = svc.Notify(t.Context(), NewNotification(TypeError, PriorityHigh, "t", "m"))
	assert.Equal(t, 2, p.count())
}

func TestService_NotifyError(t *testing.T) {
	t.Parallel()

	p := &fakeProvider{name: "all", enabled: true}
	svc := NewService([]Provider{p}, time.Minute)

	cause := errors.Newf("quota exhausted").Component("forecast").Category(errors.CategoryLimit).Build()
	require.NoError(t, svc.NotifyError(t.Context(), "forecast", "Forecast refresh failed", cause))
	require.NoError(t, svc.NotifyError(t.Context(), "forecast", "ignored", nil))

	require.Equal(t, 1, p.count())
	got := p.sent[0]
	assert.Equal(t, TypeError, got.Type)
	assert.Equal(t, "forecast", got.Component)
	assert.Equal(t, "limit", got.Metadata["category"])
	assert.NotEmpty(t, got.ID)
}

func TestNewServiceFromSettings_Disabled(t *testing.T) {
	t.Parallel()

	settings := &conf.Settings{}
	svc, err := NewServiceFromSettings(settings)
	require.NoError(t, err)
	assert.False(t, svc.Enabled())
	require.NoError(t, svc.Notify(t.Context(), NewNotification(TypeInfo, PriorityLow, "t", "m")))
}

func TestService_NotifyWarningCarriesSource(t *testing.T) {
	t.Parallel()

	p := &fakeProvider{name: "all", enabled: true}
	svc := NewService([]Provider{p}, time.Minute)
	svc.SetSource("Clube Tombo")

	require.NoError(t, svc.NotifyWarning(t.Context(), "forecast", "Stormglass quota exhausted", "10/10 requests used"))

	require.Equal(t, 1, p.count())
	sent := p.sent[0]
	assert.Equal(t, TypeWarning, sent.Type)
	assert.Equal(t, PriorityMedium, sent.Priority)
	assert.Equal(t, "Clube Tombo: Stormglass quota exhausted", sent.DisplayTitle())
}
