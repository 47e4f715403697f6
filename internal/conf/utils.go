// conf/utils.go
package conf

import (
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/nabos/fishclub/internal/errors"
)

// GetDefaultConfigPaths returns the configuration search paths for the current operating system.
func GetDefaultConfigPaths() ([]string, error) {
	userDir, err := userConfigDir()
	if err != nil {
		return nil, err
	}

	if runtime.GOOS == "windows" {
		return []string{".", userDir}, nil
	}
	return []string{".", userDir, "/etc/fishclub"}, nil
}

// userConfigDir is where a new default config file is created.
func userConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", errors.New(err).
			Category(errors.CategorySystem).
			Context("operation", "get-home-directory").
			Build()
	}

	if runtime.GOOS == "windows" {
		return filepath.Join(homeDir, "AppData", "Roaming", "fishclub"), nil
	}
	return filepath.Join(homeDir, ".config", "fishclub"), nil
}

// FindConfigFile returns the first config.yaml found in the default paths.
func FindConfigFile() (string, error) {
	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return "", err
	}

	for _, path := range configPaths {
		configFilePath := filepath.Join(path, "config.yaml")
		if _, err := os.Stat(configFilePath); err == nil {
			return configFilePath, nil
		}
	}

	return "", errors.Newf("config file not found in %v", configPaths).
		Category(errors.CategoryNotFound).
		Build()
}

// GetLocation returns the configured time zone, falling back to the local zone.
func (s *Settings) GetLocation() *time.Location {
	if s == nil || s.Main.TimeZone == "" || s.Main.TimeZone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(s.Main.TimeZone)
	if err != nil {
		return time.Local
	}
	return loc
}
