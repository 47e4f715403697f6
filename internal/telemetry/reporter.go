package telemetry

import (
	"github.com/nabos/fishclub/internal/errors"
)

// ignoredCategories are expected outcomes of user input or provider limits.
var ignoredCategories = map[errors.ErrorCategory]bool{
	errors.CategoryValidation: true,
	errors.CategoryNotFound:   true,
	errors.CategoryConflict:   true,
	errors.CategoryLimit:      true,
}

// Reporter forwards enhanced errors to Sentry, skipping categories that are not faults.
type Reporter struct {
	sentry *errors.SentryReporter
}

// NewReporter creates a Reporter.
func NewReporter(enabled bool) *Reporter {
	return &Reporter{sentry: errors.NewSentryReporter(enabled)}
}

// IsEnabled reports whether errors are forwarded.
func (r *Reporter) IsEnabled() bool {
	return r.sentry.IsEnabled()
}

// ReportError forwards ee unless its category is ignored.
func (r *Reporter) ReportError(ee *errors.EnhancedError) {
	if ee == nil || ignoredCategories[ee.Category] {
		return
	}
	r.sentry.ReportError(ee)
}
