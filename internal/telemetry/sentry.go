// Package telemetry reports enhanced errors to Sentry when the operator opts in.
package telemetry

import (
	"fmt"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/nabos/fishclub/internal/conf"
	"github.com/nabos/fishclub/internal/errors"
	"github.com/nabos/fishclub/internal/logger"
)

// flushTimeout bounds the wait for queued events on shutdown.
const flushTimeout = 2 * time.Second

var (
	initMu      sync.Mutex
	initialized bool
)

func getLogger() logger.Logger {
	return logger.Global().Module("telemetry")
}

// Options carries what InitSentry needs besides the settings.
type Options struct {
	Release string

	// Transport replaces the HTTP transport, tests pass a capturing one
	Transport sentry.Transport
}

// InitSentry initializes the Sentry SDK and routes enhanced errors to it.
// Nothing happens unless telemetry is enabled in the settings.
func InitSentry(settings *conf.Settings, opts Options) error {
	if !settings.Sentry.Enabled {
		getLogger().Info("sentry telemetry is disabled")
		return nil
	}
	if settings.Sentry.DSN == "" {
		return errors.Newf("sentry enabled without a DSN").
			Component("telemetry").
			Category(errors.CategoryConfiguration).
			Build()
	}

	environment := settings.Sentry.Environment
	if environment == "" {
		environment = "production"
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              settings.Sentry.DSN,
		SampleRate:       1.0,
		AttachStacktrace: false,
		Environment:      environment,
		ServerName:       "",
		Release:          fmt.Sprintf("fishclub@%s", opts.Release),
		Transport:        opts.Transport,
		BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			return applyPrivacyFilters(event)
		},
	})
	if err != nil {
		return fmt.Errorf("sentry initialization failed: %w", err)
	}

	sentry.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTag("app", "fishclub")
		scope.SetTag("club", settings.Main.Name)
	})

	errors.SetTelemetryReporter(NewReporter(true))

	initMu.Lock()
	initialized = true
	initMu.Unlock()

	getLogger().Info("sentry telemetry initialized", logger.String("environment", environment))
	return nil
}

// Flush waits for queued events and detaches the reporter.
func Flush() {
	initMu.Lock()
	defer initMu.Unlock()
	if !initialized {
		return
	}
	errors.SetTelemetryReporter(nil)
	if !sentry.Flush(flushTimeout) {
		getLogger().Warn("sentry flush timed out", logger.Duration("timeout", flushTimeout))
	}
	initialized = false
}

// applyPrivacyFilters strips user, host and runtime details from an event.
func applyPrivacyFilters(event *sentry.Event) *sentry.Event {
	event.User = sentry.User{}
	event.ServerName = ""

	if event.Contexts != nil {
		delete(event.Contexts, "device")
		delete(event.Contexts, "os")
		delete(event.Contexts, "runtime")
	}
	if event.Tags != nil {
		delete(event.Tags, "server_name")
		delete(event.Tags, "hostname")
	}
	return event
}
