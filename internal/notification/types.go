// Package notification pushes operator alerts, such as a spot whose forecast
// could not be refreshed or an exhausted Stormglass quota, to the services
// configured as shoutrrr URLs (Telegram, ntfy, Discord, e-mail ...).
package notification

import (
	"time"

	"github.com/google/uuid"
)

// Type is the kind of alert. Providers may accept only some types.
type Type string

const (
	TypeError   Type = "error"   // an operation failed
	TypeWarning Type = "warning" // degraded, e.g. quota exhausted
	TypeInfo    Type = "info"
)

type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// Notification is one alert. Source names the club instance that raised it
// and is filled in by the Service.
type Notification struct {
	ID        string         `json:"id"`
	Type      Type           `json:"type"`
	Priority  Priority       `json:"priority"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Component string         `json:"component,omitempty"`
	Source    string         `json:"source,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

func NewNotification(notifType Type, priority Priority, title, message string) *Notification {
	return &Notification{
		ID:        uuid.NewString(),
		Type:      notifType,
		Priority:  priority,
		Title:     title,
		Message:   message,
		Timestamp: time.Now(),
	}
}

func (n *Notification) WithComponent(component string) *Notification {
	n.Component = component
	return n
}

func (n *Notification) WithMetadata(key string, value any) *Notification {
	if n.Metadata == nil {
		n.Metadata = make(map[string]any)
	}
	n.Metadata[key] = value
	return n
}

// DisplayTitle is the title as shown by push services: "Clube Tombo: Forecast refresh failed".
func (n *Notification) DisplayTitle() string {
	if n.Source == "" {
		return n.Title
	}
	return n.Source + ": " + n.Title
}

// dedupKey identifies notifications that repeat the same problem.
func (n *Notification) dedupKey() string {
	return string(n.Type) + "|" + n.Component + "|" + n.Title
}
