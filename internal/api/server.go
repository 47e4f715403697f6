package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	mw "github.com/nabos/fishclub/internal/api/middleware"
	v2 "github.com/nabos/fishclub/internal/api/v2"
	"github.com/nabos/fishclub/internal/conf"
	"github.com/nabos/fishclub/internal/datastore"
	"github.com/nabos/fishclub/internal/logger"
	"github.com/nabos/fishclub/internal/observability"
)

// Server is the HTTP server for fishclub.
// It owns the Echo instance, the middleware stack and the v2 API controller.
type Server struct {
	echo     *echo.Echo
	config   *Config
	settings *conf.Settings
	log      logger.Logger

	// Dependencies
	dataStore datastore.Manager
	metrics   *observability.Metrics
	apiOpts   []v2.Option

	apiController *v2.Controller

	errCh chan error
}

// ServerOption is a functional option for configuring the Server.
type ServerOption func(*Server)

// WithLogger sets the logger for the server.
func WithLogger(l logger.Logger) ServerOption {
	return func(s *Server) {
		s.log = l
	}
}

// WithDataStore sets the datastore for the server.
func WithDataStore(ds datastore.Manager) ServerOption {
	return func(s *Server) {
		s.dataStore = ds
	}
}

// WithMetrics sets the observability metrics for the server.
func WithMetrics(m *observability.Metrics) ServerOption {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithAPIOptions passes options through to the v2 controller.
func WithAPIOptions(opts ...v2.Option) ServerOption {
	return func(s *Server) {
		s.apiOpts = append(s.apiOpts, opts...)
	}
}

// New creates a new HTTP server with the given settings and options.
func New(settings *conf.Settings, opts ...ServerOption) (*Server, error) {
	config := ConfigFromSettings(settings)
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid server configuration: %w", err)
	}

	s := &Server{
		config:   config,
		settings: settings,
		errCh:    make(chan error, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = GetLogger()
	}
	if s.dataStore == nil {
		return nil, fmt.Errorf("datastore is required")
	}

	s.echo = echo.New()
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Server.ReadTimeout = config.ReadTimeout
	s.echo.Server.WriteTimeout = config.WriteTimeout
	s.echo.Server.IdleTimeout = config.IdleTimeout

	s.setupMiddleware()

	apiOpts := append([]v2.Option{v2.WithLogger(s.log), v2.WithMetrics(s.metrics)}, s.apiOpts...)
	controller, err := v2.New(s.echo, s.dataStore, settings, apiOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize API v2: %w", err)
	}
	s.apiController = controller

	s.log.Info("HTTP server initialized",
		logger.String("address", config.Address()),
		logger.Bool("debug", config.Debug),
		logger.Bool("admin", settings.WebServer.Admin.Enabled),
		logger.Bool("metrics", settings.WebServer.Metrics))

	return s, nil
}

// setupMiddleware configures the Echo middleware stack.
func (s *Server) setupMiddleware() {
	s.echo.Use(echomw.Recover())
	s.echo.Use(mw.NewCorrelationID())
	s.echo.Use(mw.NewRequestLogger(s.log, s.quietRoutes))

	securityConfig := mw.DefaultSecurityConfig()
	securityConfig.AllowedOrigins = s.config.AllowedOrigins

	s.echo.Use(mw.NewCORS(securityConfig))
	s.echo.Use(mw.NewBodyLimit(s.config.BodyLimit))
	s.echo.Use(mw.NewSecureHeaders(securityConfig))

	if s.metrics != nil {
		s.echo.Use(mw.NewMetrics(s.metrics.HTTP))
	}
}

// quietRoutes keeps health probes and metric scrapes out of the log unless debugging.
func (s *Server) quietRoutes(c echo.Context) bool {
	if s.config.Debug {
		return false
	}
	path := c.Request().URL.Path
	return path == "/metrics" || strings.HasSuffix(path, "/health")
}

// Start begins serving HTTP requests in a background goroutine and returns immediately.
// Use Shutdown to stop the server.
func (s *Server) Start() {
	go func() {
		s.log.Info("HTTP server starting", logger.String("address", s.config.Address()))
		err := s.echo.Start(s.config.Address())
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("HTTP server error", logger.Error(err))
			s.errCh <- err
		}
		close(s.errCh)
	}()
}

// Run serves until ctx is done or the listener fails, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.Start()

	select {
	case err := <-s.errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		s.log.Info("shutdown signal received, initiating graceful shutdown")
	}
	return s.Shutdown()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	if err := s.echo.Shutdown(ctx); err != nil {
		s.log.Error("error during server shutdown", logger.Error(err))
		return fmt.Errorf("shutdown error: %w", err)
	}

	// handlers are drained, wait for their background publishes
	if s.apiController != nil {
		s.apiController.Shutdown()
	}

	s.log.Info("HTTP server shutdown complete")
	return nil
}

// APIController returns the v2 API controller.
func (s *Server) APIController() *v2.Controller {
	return s.apiController
}

// Echo returns the underlying Echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}
