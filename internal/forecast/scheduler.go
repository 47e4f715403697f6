package forecast

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/nabos/fishclub/internal/logger"
)

// Scheduler runs RefreshAll on a fixed interval while the server is up.
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   *Service
	interval  time.Duration
	timeout   time.Duration
	log       logger.Logger
}

// NewScheduler creates a scheduler. Each run gets at most timeout to finish.
func NewScheduler(service *Service, interval, timeout time.Duration) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		service:   service,
		interval:  interval,
		timeout:   timeout,
		log:       logger.Global().Module("forecast"),
	}
}

// Start schedules the refresh job. A non-positive interval schedules nothing.
// The first run waits one full interval so restarts do not burn quota.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		s.log.Info("periodic forecast refresh disabled")
		return nil
	}

	_, err := s.scheduler.Every(s.interval).WaitForSchedule().Do(s.run)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.log.Info("periodic forecast refresh scheduled", logger.Duration("interval", s.interval))
	return nil
}

func (s *Scheduler) run() {
	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	results, err := s.service.RefreshAll(ctx)
	if err != nil {
		s.log.Error("scheduled forecast refresh failed", logger.Error(err))
		return
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	s.log.Info("scheduled forecast refresh completed",
		logger.Int("spots", len(results)),
		logger.Int("failed", failed))
}

// Stop stops the scheduler.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
