// env.go - Environment variable configuration and validation
package conf

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// envBinding holds metadata for environment variable bindings (internal use)
type envBinding struct {
	ConfigKey string             // Viper config key
	EnvVar    string             // Environment variable name
	Validate  func(string) error // Optional validation function
}

// getEnvBindings returns all environment variable bindings with validation
func getEnvBindings() []envBinding {
	return []envBinding{
		{"debug", "FISHCLUB_DEBUG", validateEnvBool},
		{"main.timezone", "FISHCLUB_TIMEZONE", nil},

		// Database
		{"database.type", "FISHCLUB_DATABASE_TYPE", validateEnvDatabaseType},
		{"database.sqlite.path", "FISHCLUB_SQLITE_PATH", nil},
		{"database.mysql.host", "FISHCLUB_MYSQL_HOST", nil},
		{"database.mysql.port", "FISHCLUB_MYSQL_PORT", validateEnvPort},
		{"database.mysql.username", "FISHCLUB_MYSQL_USERNAME", nil},
		{"database.mysql.password", "FISHCLUB_MYSQL_PASSWORD", nil},
		{"database.mysql.database", "FISHCLUB_MYSQL_DATABASE", nil},

		{"webserver.port", "FISHCLUB_PORT", validateEnvPort},
		{"webserver.admin.passwordhash", "FISHCLUB_ADMIN_PASSWORD_HASH", nil},

		// Integrations
		{"stormglass.apikey", "FISHCLUB_STORMGLASS_API_KEY", nil},
		{"stormglass.dailyquota", "FISHCLUB_STORMGLASS_DAILY_QUOTA", validateEnvPositiveInt},
		{"wikipedia.baseurl", "FISHCLUB_WIKIPEDIA_BASE_URL", validateEnvURL},
		{"mqtt.broker", "FISHCLUB_MQTT_BROKER", validateEnvURL},
		{"mqtt.password", "FISHCLUB_MQTT_PASSWORD", nil},
		{"sentry.dsn", "FISHCLUB_SENTRY_DSN", nil},
	}
}

// bindEnvVars sets up environment variable bindings with validation (internal)
func bindEnvVars(v *viper.Viper) error {
	var warnings []string

	for _, binding := range getEnvBindings() {
		if err := v.BindEnv(binding.ConfigKey, binding.EnvVar); err != nil {
			warnings = append(warnings, fmt.Sprintf("Failed to bind %s: %v", binding.EnvVar, err))
			continue
		}

		if binding.Validate != nil {
			if envValue := os.Getenv(binding.EnvVar); envValue != "" {
				if err := binding.Validate(envValue); err != nil {
					warnings = append(warnings, fmt.Sprintf("Invalid %s value '%s': %v", binding.EnvVar, envValue, err))
				}
			}
		}
	}

	if len(warnings) > 0 {
		return fmt.Errorf("environment variable issues:\n  - %s", strings.Join(warnings, "\n  - "))
	}

	return nil
}

func validateEnvBool(value string) error {
	if _, err := strconv.ParseBool(value); err != nil {
		return fmt.Errorf("must be true or false")
	}
	return nil
}

func validateEnvPort(value string) error {
	port, err := strconv.Atoi(value)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("must be a port number between 1 and 65535")
	}
	return nil
}

func validateEnvPositiveInt(value string) error {
	n, err := strconv.Atoi(value)
	if err != nil || n < 1 {
		return fmt.Errorf("must be a positive integer")
	}
	return nil
}

func validateEnvDatabaseType(value string) error {
	switch value {
	case DatabaseSQLite, DatabaseMySQL:
		return nil
	}
	return fmt.Errorf("must be %q or %q", DatabaseSQLite, DatabaseMySQL)
}

func validateEnvURL(value string) error {
	u, err := url.Parse(value)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("must be an absolute URL")
	}
	return nil
}
