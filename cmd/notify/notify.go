// Package notify implements the command that sends a test push notification.
package notify

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nabos/fishclub/internal/conf"
	"github.com/nabos/fishclub/internal/notification"
)

// Command returns a cobra command that sends a test notification through the configured shoutrrr URLs
func Command(settings *conf.Settings) *cobra.Command {
	var (
		typ       string
		prio      string
		title     string
		message   string
		component string
		metadata  []string
	)

	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Send a test notification to the configured push targets",
		Long: `Send a test notification through the notification service.

Examples:
  # Basic notification
  fishclub notify --type=info --priority=low --title="Test" --message="Hello"

  # Notification with metadata
  fishclub notify --type=warning --metadata="spot=ponta-da-praia" --metadata="quota=10"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ntype, err := parseType(typ)
			if err != nil {
				return err
			}
			nprio, err := parsePriority(prio)
			if err != nil {
				return err
			}
			meta, err := parseMetadata(metadata)
			if err != nil {
				return err
			}

			service, err := notification.NewServiceFromSettings(settings)
			if err != nil {
				return err
			}
			if !service.Enabled() {
				return fmt.Errorf("notifications are disabled, set notification.enabled and notification.urls")
			}

			n := notification.NewNotification(ntype, nprio, title, message).WithComponent(component)
			for k, v := range meta {
				n.WithMetadata(k, v)
			}
			if err := service.Notify(cmd.Context(), n); err != nil {
				return fmt.Errorf("failed to send notification: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Notification sent: id=%s type=%s priority=%s", n.ID, n.Type, n.Priority)
			if len(n.Metadata) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), " metadata=%d_keys", len(n.Metadata))
			}
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		},
	}

	cmd.Flags().StringVar(&typ, "type", "info", "Notification type: error|warning|info")
	cmd.Flags().StringVar(&prio, "priority", "low", "Notification priority: critical|high|medium|low")
	cmd.Flags().StringVar(&title, "title", "Test Notification", "Notification title")
	cmd.Flags().StringVar(&message, "message", "This is a test push notification", "Notification message")
	cmd.Flags().StringVar(&component, "component", "cli", "Notification component tag")
	cmd.Flags().StringSliceVar(&metadata, "metadata", nil, "Metadata key-value pairs in format key=value (supports numbers, booleans, and strings)")

	return cmd
}

func parseType(s string) (notification.Type, error) {
	switch s {
	case "error":
		return notification.TypeError, nil
	case "warning":
		return notification.TypeWarning, nil
	case "info":
		return notification.TypeInfo, nil
	default:
		return "", fmt.Errorf("invalid type: %s", s)
	}
}

func parsePriority(s string) (notification.Priority, error) {
	switch s {
	case "critical":
		return notification.PriorityCritical, nil
	case "high":
		return notification.PriorityHigh, nil
	case "medium":
		return notification.PriorityMedium, nil
	case "low":
		return notification.PriorityLow, nil
	default:
		return "", fmt.Errorf("invalid priority: %s", s)
	}
}

// parseMetadata turns key=value pairs into typed values: numbers, then booleans, otherwise strings.
func parseMetadata(pairs []string) (map[string]any, error) {
	out := make(map[string]any, len(pairs))
	for _, kv := range pairs {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, fmt.Errorf("invalid metadata format: %s (expected key=value)", kv)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		if f, err := strconv.ParseFloat(value, 64); err == nil {
			out[key] = f
		} else if b, err := strconv.ParseBool(value); err == nil {
			out[key] = b
		} else {
			out[key] = value
		}
	}
	return out, nil
}
