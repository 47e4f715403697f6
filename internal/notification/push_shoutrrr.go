package notification

import (
	"context"
	"io"
	stdlog "log"
	"regexp"
	"slices"
	"strings"
	"time"

	shoutrrr "github.com/nicholas-fedor/shoutrrr"
	router "github.com/nicholas-fedor/shoutrrr/pkg/router"
	stypes "github.com/nicholas-fedor/shoutrrr/pkg/types"

	"github.com/nabos/fishclub/internal/errors"
)

// service URLs carry tokens, never let them reach logs or telemetry
var serviceURLPattern = regexp.MustCompile(`[a-zA-Z][a-zA-Z0-9+.-]*://\S+`)

// ShoutrrrProvider delivers through one shoutrrr router covering every configured URL.
type ShoutrrrProvider struct {
	name    string
	enabled bool
	urls    []string
	types   map[Type]bool
	sender  *router.ServiceRouter
	timeout time.Duration
}

// NewShoutrrrProvider creates a provider for the given service URLs.
// An empty supportedTypes list accepts every type.
func NewShoutrrrProvider(name string, enabled bool, urls []string, supportedTypes []Type, timeout time.Duration) *ShoutrrrProvider {
	sp := &ShoutrrrProvider{
		name:    strings.TrimSpace(name),
		enabled: enabled,
		urls:    slices.Clone(urls),
		types:   map[Type]bool{},
		timeout: timeout,
	}
	if sp.name == "" {
		sp.name = "shoutrrr"
	}
	if len(supportedTypes) == 0 {
		supportedTypes = []Type{TypeError, TypeWarning, TypeInfo}
	}
	for _, t := range supportedTypes {
		sp.types[t] = true
	}
	return sp
}

func (s *ShoutrrrProvider) GetName() string          { return s.name }
func (s *ShoutrrrProvider) IsEnabled() bool          { return s.enabled }
func (s *ShoutrrrProvider) SupportsType(t Type) bool { return s.types[t] }

// ValidateConfig parses the URLs and builds the sender.
func (s *ShoutrrrProvider) ValidateConfig() error {
	if !s.enabled {
		return nil
	}
	if len(s.urls) == 0 {
		return errors.Newf("notification.urls is empty").
			Component("notification").
			Category(errors.CategoryConfiguration).
			Build()
	}
	sender, err := shoutrrr.CreateSender(s.urls...)
	if err != nil {
		return sanitizeError(err)
	}
	s.sender = sender
	if s.timeout > 0 {
		s.sender.Timeout = s.timeout
	}
	s.sender.SetLogger(stdlog.New(io.Discard, "", 0))
	return nil
}

// Send delivers n to every configured URL and returns the first failure.
func (s *ShoutrrrProvider) Send(ctx context.Context, n *Notification) error {
	if s.sender == nil {
		return errors.Newf("shoutrrr sender not initialized, call ValidateConfig first").
			Component("notification").
			Category(errors.CategoryNotification).
			Build()
	}
	// router handles its own timeouts, only honour an already cancelled ctx
	if err := ctx.Err(); err != nil {
		return err
	}

	params := stypes.Params{}
	if title := n.DisplayTitle(); title != "" {
		params.SetTitle(title)
	}
	for _, e := range s.sender.Send(n.Message, &params) {
		if e != nil {
			return sanitizeError(e)
		}
	}
	return nil
}

func sanitizeError(err error) error {
	msg := serviceURLPattern.ReplaceAllString(err.Error(), "[redacted-url]")
	return errors.Newf("%s", msg).
		Component("notification").
		Category(errors.CategoryNotification).
		Build()
}
