// config.go: settings for the fishclub application and the functions to load and save them.
package conf

import (
	"embed"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/nabos/fishclub/internal/logger"
)

//go:embed config.yaml
var configFiles embed.FS

// MainSettings contains general application settings.
type MainSettings struct {
	Name     string // name shown in notifications and the health endpoint
	TimeZone string // IANA zone used for sun times and display, "Local" for system zone
}

// SQLiteSettings contains settings for the SQLite database.
type SQLiteSettings struct {
	Path string // path to the SQLite database file
}

// MySQLSettings contains settings for the MySQL database.
type MySQLSettings struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
}

// DatabaseSettings selects and configures the datastore backend.
type DatabaseSettings struct {
	Type          string        // "sqlite" or "mysql"
	SQLite        SQLiteSettings
	MySQL         MySQLSettings
	SlowThreshold time.Duration // queries slower than this are logged as warnings
}

// AdminSettings protects the admin API with HTTP basic auth.
type AdminSettings struct {
	Enabled      bool
	Username     string
	PasswordHash string // bcrypt hash of the admin password
}

// WebServerSettings contains settings for the HTTP API.
type WebServerSettings struct {
	Enabled        bool
	Host           string // empty binds all interfaces
	Port           string
	AllowedOrigins []string // CORS origins, "*" for any
	Debug          bool     // log every request
	Admin          AdminSettings
	Metrics        bool // expose /metrics
}

// RankingSettings contains the leaderboard rules.
type RankingSettings struct {
	CatchCap int // best catches counted per member
	TopN     int // default leaderboard length
}

// WikipediaSettings configures species enrichment.
type WikipediaSettings struct {
	BaseURL   string        // e.g. https://pt.wikipedia.org
	UserAgent string        // Wikimedia requires a descriptive User-Agent
	Timeout   time.Duration // per-request timeout
	CacheTTL  time.Duration // summary cache lifetime
	RateLimit float64       // requests per second for batch work
	AutoFill  bool          // enrich species on first view when summary is empty
}

// StormglassSettings configures the marine-weather provider.
type StormglassSettings struct {
	APIKey     string
	BaseURL    string
	Source     string        // optional provider source filter
	Timeout    time.Duration // per-request timeout
	DailyQuota int           // requests allowed per UTC day
}

// ForecastSettings configures forecast refreshes.
type ForecastSettings struct {
	Concurrency int           // spots refreshed in parallel by RefreshAll
	Interval    time.Duration // periodic refresh while serving, 0 disables
}

// NotificationSettings configures push notifications through shoutrrr URLs.
type NotificationSettings struct {
	Enabled bool
	URLs    []string
	Timeout time.Duration
}

// MQTTSettings configures publishing of catch events.
type MQTTSettings struct {
	Enabled  bool
	Broker   string // e.g. tcp://localhost:1883
	Username string
	Password string
	Topic    string // base topic, catch events go to <topic>/catches
	Retain   bool
}

// SentrySettings configures error telemetry.
type SentrySettings struct {
	Enabled     bool
	DSN         string
	Environment string
}

// Settings contains all configuration options for the application.
type Settings struct {
	Debug bool // true to enable debug mode

	Main         MainSettings
	Logging      logger.LoggingConfig
	Database     DatabaseSettings
	WebServer    WebServerSettings
	Ranking      RankingSettings
	Wikipedia    WikipediaSettings
	Stormglass   StormglassSettings
	Forecast     ForecastSettings
	Notification NotificationSettings
	MQTT         MQTTSettings
	Sentry       SentrySettings
}

var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables into a new Settings instance.
// A default config file is written when none exists.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	if err := initViper(viper.GetViper()); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	settings, err := unmarshalSettings(viper.GetViper())
	if err != nil {
		return nil, err
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// unmarshalSettings decodes and validates the settings held by v.
func unmarshalSettings(v *viper.Viper) (*Settings, error) {
	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	return settings, nil
}

// initViper initializes viper with default values and reads the configuration file.
func initViper(v *viper.Viper) error {
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if v.ConfigFileUsed() == "" {
		configPaths, err := GetDefaultConfigPaths()
		if err != nil {
			return fmt.Errorf("error getting default config paths: %w", err)
		}
		for _, path := range configPaths {
			v.AddConfigPath(path)
		}
	}

	setDefaultConfig(v)

	if err := bindEnvVars(v); err != nil {
		return err
	}

	err := v.ReadInConfig()
	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if stderrors.As(err, &configFileNotFoundError) {
			return createDefaultConfig(v)
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// SetConfigFile forces Load to read the given file instead of searching the default paths.
func SetConfigFile(path string) {
	viper.SetConfigFile(path)
}

// createDefaultConfig writes the embedded default config to the user config directory
func createDefaultConfig(v *viper.Viper) error {
	configDir, err := userConfigDir()
	if err != nil {
		return fmt.Errorf("error getting user config directory: %w", err)
	}
	configPath := filepath.Join(configDir, "config.yaml")

	defaultConfig, err := getDefaultConfig()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}

	if err := os.WriteFile(configPath, defaultConfig, 0o600); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}

	logger.Global().Module("conf").Info("created default config file", logger.String("path", configPath))
	v.SetConfigFile(configPath)
	return v.ReadInConfig()
}

// getDefaultConfig reads the default configuration from the embedded config.yaml file.
func getDefaultConfig() ([]byte, error) {
	data, err := fs.ReadFile(configFiles, "config.yaml")
	if err != nil {
		return nil, fmt.Errorf("error reading embedded config file: %w", err)
	}
	return data, nil
}

// GetSettings returns the current settings instance
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// SaveYAMLConfig writes the settings to configPath atomically.
// It overwrites the existing file, not preserving comments or structure.
func SaveYAMLConfig(configPath string, settings *Settings) error {
	yamlData, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("error marshaling settings to YAML: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(configPath), "config-*.yaml")
	if err != nil {
		return fmt.Errorf("error creating temporary file: %w", err)
	}
	tempFileName := tempFile.Name()
	defer os.Remove(tempFileName)

	if _, err := tempFile.Write(yamlData); err != nil {
		tempFile.Close()
		return fmt.Errorf("error writing to temporary file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("error closing temporary file: %w", err)
	}

	if err := os.Rename(tempFileName, configPath); err != nil {
		return fmt.Errorf("error replacing config file: %w", err)
	}

	return nil
}
