// conf/validate.go
package conf

import (
	"fmt"
	"time"
)

// Supported database backends
const (
	DatabaseSQLite = "sqlite"
	DatabaseMySQL  = "mysql"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// ValidateSettings validates the entire Settings struct
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	if settings.Main.TimeZone != "" && settings.Main.TimeZone != "Local" {
		if _, err := time.LoadLocation(settings.Main.TimeZone); err != nil {
			ve.Errors = append(ve.Errors, fmt.Sprintf("invalid main timezone %q", settings.Main.TimeZone))
		}
	}

	switch settings.Database.Type {
	case DatabaseSQLite:
		if settings.Database.SQLite.Path == "" {
			ve.Errors = append(ve.Errors, "sqlite path is required")
		}
	case DatabaseMySQL:
		if settings.Database.MySQL.Host == "" || settings.Database.MySQL.Database == "" {
			ve.Errors = append(ve.Errors, "mysql host and database are required")
		}
	default:
		ve.Errors = append(ve.Errors, fmt.Sprintf("unsupported database type %q", settings.Database.Type))
	}

	if settings.Ranking.CatchCap < 1 {
		ve.Errors = append(ve.Errors, "ranking catch cap must be at least 1")
	}
	if settings.Ranking.TopN < 1 {
		ve.Errors = append(ve.Errors, "ranking top n must be at least 1")
	}

	if settings.Stormglass.DailyQuota < 1 {
		ve.Errors = append(ve.Errors, "stormglass daily quota must be at least 1")
	}
	if settings.Forecast.Concurrency < 1 {
		ve.Errors = append(ve.Errors, "forecast concurrency must be at least 1")
	}
	if settings.Forecast.Interval < 0 {
		ve.Errors = append(ve.Errors, "forecast interval must not be negative")
	}

	if settings.Wikipedia.RateLimit <= 0 {
		ve.Errors = append(ve.Errors, "wikipedia rate limit must be positive")
	}

	if settings.WebServer.Admin.Enabled && settings.WebServer.Admin.PasswordHash == "" {
		ve.Errors = append(ve.Errors, "admin auth enabled without a password hash")
	}

	if settings.MQTT.Enabled && settings.MQTT.Broker == "" {
		ve.Errors = append(ve.Errors, "mqtt enabled without a broker")
	}

	if settings.Notification.Enabled && len(settings.Notification.URLs) == 0 {
		ve.Errors = append(ve.Errors, "notifications enabled without any urls")
	}

	if settings.Sentry.Enabled && settings.Sentry.DSN == "" {
		ve.Errors = append(ve.Errors, "sentry enabled without a dsn")
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}
