package notification

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/nabos/fishclub/internal/conf"
	"github.com/nabos/fishclub/internal/errors"
	"github.com/nabos/fishclub/internal/logger"
	"github.com/nabos/fishclub/internal/observability/metrics"
)

// DefaultDedupWindow suppresses repeats of the same alert for this long.
const DefaultDedupWindow = 30 * time.Minute

// Service fans notifications out to the configured providers.
// A Service without providers accepts and drops everything.
type Service struct {
	providers []Provider
	recent    *cache.Cache
	log       logger.Logger
	source    string

	mu      sync.RWMutex
	metrics *metrics.NotificationMetrics
}

// NewService creates a service over already validated providers.
func NewService(providers []Provider, dedupWindow time.Duration) *Service {
	if dedupWindow <= 0 {
		dedupWindow = DefaultDedupWindow
	}
	return &Service{
		providers: providers,
		recent:    cache.New(dedupWindow, 2*dedupWindow),
		log:       getLogger(),
	}
}

// NewServiceFromSettings builds the shoutrrr provider from settings.
// Disabled notifications yield a Service without providers.
func NewServiceFromSettings(settings *conf.Settings) (*Service, error) {
	if !settings.Notification.Enabled {
		return NewService(nil, 0), nil
	}
	p := NewShoutrrrProvider("shoutrrr", true, settings.Notification.URLs, nil, settings.Notification.Timeout)
	if err := p.ValidateConfig(); err != nil {
		return nil, errors.New(err).
			Component("notification").
			Category(errors.CategoryConfiguration).
			Context("operation", "validate_shoutrrr").
			Build()
	}
	s := NewService([]Provider{p}, 0)
	s.SetSource(settings.Main.Name)
	return s, nil
}

// SetSource sets the club name prefixed to every title.
func (s *Service) SetSource(source string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.source = source
}

// SetMetrics attaches delivery metrics.
func (s *Service) SetMetrics(m *metrics.NotificationMetrics) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics = m
}

func (s *Service) getMetrics() *metrics.NotificationMetrics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.metrics
}

// Enabled reports whether at least one provider can deliver.
func (s *Service) Enabled() bool {
	for _, p := range s.providers {
		if p.IsEnabled() {
			return true
		}
	}
	return false
}

// Notify sends n to every enabled provider that supports its type.
// A notification equal to one sent inside the dedup window is dropped.
// Delivery failures of all providers are joined into the returned error.
func (s *Service) Notify(ctx context.Context, n *Notification) error {
	if n == nil || !s.Enabled() {
		return nil
	}

	m := s.getMetrics()
	if n.Source == "" {
		s.mu.RLock()
		n.Source = s.source
		s.mu.RUnlock()
	}
	if err := s.recent.Add(n.dedupKey(), n.ID, cache.DefaultExpiration); err != nil {
		s.log.Debug("duplicate notification suppressed",
			logger.String("title", n.Title),
			logger.String("component", n.Component))
		if m != nil {
			m.IncrementSuppressed()
		}
		return nil
	}

	var errs []error
	for _, p := range s.providers {
		if !p.IsEnabled() || !p.SupportsType(n.Type) {
			continue
		}
		start := time.Now()
		err := p.Send(ctx, n)
		status := metrics.StatusSuccess
		if err != nil {
			status = metrics.StatusError
			errs = append(errs, fmt.Errorf("%s: %w", p.GetName(), err))
			s.log.Warn("notification delivery failed",
				logger.String("provider", p.GetName()),
				logger.String("title", n.Title),
				logger.Error(err))
		}
		if m != nil {
			m.RecordDelivery(p.GetName(), string(n.Type), status, time.Since(start))
		}
	}

	if len(errs) > 0 {
		// let a later retry of the same alert through
		s.recent.Delete(n.dedupKey())
		return errors.Join(errs...)
	}
	return nil
}

// NotifyError sends a high priority error notification for a failed operation.
func (s *Service) NotifyError(ctx context.Context, component, title string, err error) error {
	if err == nil {
		return nil
	}
	n := NewNotification(TypeError, PriorityHigh, title, err.Error()).WithComponent(component)
	var ee *errors.EnhancedError
	if errors.As(err, &ee) {
		n.WithMetadata("category", ee.GetCategory())
	}
	return s.Notify(ctx, n)
}

// NotifyWarning sends a medium priority warning, e.g. an exhausted provider quota.
func (s *Service) NotifyWarning(ctx context.Context, component, title, message string) error {
	n := NewNotification(TypeWarning, PriorityMedium, title, message).WithComponent(component)
	return s.Notify(ctx, n)
}
