// Package api runs the fishclub HTTP server. Routes live in the v2 subpackage;
// this package owns the listener, the middleware chain and graceful shutdown.
package api

import (
	"fmt"
	"net"
	"time"

	"github.com/labstack/gommon/bytes"

	"github.com/nabos/fishclub/internal/conf"
	"github.com/nabos/fishclub/internal/errors"
	"github.com/nabos/fishclub/internal/logger"
)

// GetLogger returns the api package logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("api")
}

const (
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 30 * time.Second // admin refresh waits on Stormglass
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 10 * time.Second

	// catch submissions are small JSON documents
	defaultBodyLimit = "64K"
)

// Config is the listener configuration derived from WebServerSettings.
type Config struct {
	Host           string
	Port           string
	AllowedOrigins []string

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	BodyLimit string
	Debug     bool // log health checks and metric scrapes too
}

// DefaultConfig listens on :8080 and accepts any origin.
func DefaultConfig() *Config {
	return &Config{
		Port:            "8080",
		AllowedOrigins:  []string{"*"},
		ReadTimeout:     DefaultReadTimeout,
		WriteTimeout:    DefaultWriteTimeout,
		IdleTimeout:     DefaultIdleTimeout,
		ShutdownTimeout: DefaultShutdownTimeout,
		BodyLimit:       defaultBodyLimit,
	}
}

// ConfigFromSettings overlays the webserver settings on DefaultConfig.
func ConfigFromSettings(settings *conf.Settings) *Config {
	cfg := DefaultConfig()
	ws := settings.WebServer
	cfg.Host = ws.Host
	if ws.Port != "" {
		cfg.Port = ws.Port
	}
	if len(ws.AllowedOrigins) > 0 {
		cfg.AllowedOrigins = ws.AllowedOrigins
	}
	cfg.Debug = ws.Debug || settings.Debug
	return cfg
}

func (c *Config) Validate() error {
	switch {
	case c.Port == "":
		return errors.Newf("webserver port is required").
			Component("api").Category(errors.CategoryConfiguration).Build()
	case c.ReadTimeout <= 0, c.WriteTimeout <= 0:
		return errors.Newf("webserver timeouts must be positive").
			Component("api").Category(errors.CategoryConfiguration).
			Context("read_timeout", c.ReadTimeout.String()).
			Context("write_timeout", c.WriteTimeout.String()).
			Build()
	}
	if _, err := bytes.Parse(c.BodyLimit); err != nil {
		return errors.New(err).
			Component("api").Category(errors.CategoryConfiguration).
			Context("body_limit", c.BodyLimit).
			Build()
	}
	return nil
}

// Address is the host:port pair handed to the listener.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}

func (c *Config) String() string {
	return fmt.Sprintf("api address=%s origins=%v debug=%v", c.Address(), c.AllowedOrigins, c.Debug)
}
