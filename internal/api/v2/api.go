// internal/api/v2/api.go
package api

import (
	"context"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/bytes"
	"github.com/patrickmn/go-cache"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	mw "github.com/nabos/fishclub/internal/api/middleware"
	"github.com/nabos/fishclub/internal/conf"
	"github.com/nabos/fishclub/internal/datastore"
	"github.com/nabos/fishclub/internal/datastore/entities"
	"github.com/nabos/fishclub/internal/errors"
	"github.com/nabos/fishclub/internal/logger"
	"github.com/nabos/fishclub/internal/mqtt"
	"github.com/nabos/fishclub/internal/observability"
	"github.com/nabos/fishclub/internal/observability/metrics"
	"github.com/nabos/fishclub/internal/ranking"
	"github.com/nabos/fishclub/internal/suncalc"
)

const (
	// APIPrefix is the mount point of every JSON route.
	APIPrefix = "/api/v2"

	// SpeciesPageSize is the page size of the competition species list.
	SpeciesPageSize = 24

	// RecentCatchesLimit is the number of catches shown on the home summary.
	RecentCatchesLimit = 9

	supportersCacheKey = "supporters"
	supportersCacheTTL = 5 * time.Minute

	publishTimeout = 10 * time.Second
)

// SpeciesEnricher fills encyclopedic fields of a species.
type SpeciesEnricher interface {
	Enrich(ctx context.Context, species *entities.Species, force bool) (bool, error)
}

// Forecaster refreshes and reads the stored forecast of a spot.
type Forecaster interface {
	Refresh(ctx context.Context, spot *entities.Spot) (int, error)
	NearestHour(ctx context.Context, spotID uint, at time.Time) (*entities.ForecastHour, error)
	QuotaUsedToday(ctx context.Context) (int, error)
	DailyQuota() int
}

// CatchPublisher announces new catches.
type CatchPublisher interface {
	PublishCatch(ctx context.Context, event mqtt.CatchEventDTO) error
}

// Controller manages the API routes and handlers
type Controller struct {
	Echo     *echo.Echo
	Group    *echo.Group
	DB       datastore.Manager
	Settings *conf.Settings

	species    datastore.SpeciesRepository
	members    datastore.MemberRepository
	catches    datastore.CatchRepository
	spots      datastore.SpotRepository
	supporters datastore.SupporterRepository
	engine     *ranking.Engine
	ranking    *ranking.Service

	enricher  SpeciesEnricher
	forecast  Forecaster
	publisher CatchPublisher
	sunCalc   *suncalc.SunCalc
	metrics   *observability.Metrics

	validate  *validator.Validate
	respCache *cache.Cache
	log       logger.Logger
	startTime time.Time

	// background publishes, waited for on Shutdown
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option is a functional option for configuring the Controller.
type Option func(*Controller)

// WithEnricher enables on-demand species enrichment.
func WithEnricher(e SpeciesEnricher) Option {
	return func(c *Controller) {
		c.enricher = e
	}
}

// WithForecaster enables forecast display and the admin refresh route.
func WithForecaster(f Forecaster) Option {
	return func(c *Controller) {
		c.forecast = f
	}
}

// WithPublisher publishes every recorded catch.
func WithPublisher(p CatchPublisher) Option {
	return func(c *Controller) {
		c.publisher = p
	}
}

// WithSunCalc sets the sun calculator used by the spot detail.
func WithSunCalc(sc *suncalc.SunCalc) Option {
	return func(c *Controller) {
		c.sunCalc = sc
	}
}

// WithMetrics sets the shared metrics instance.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Controller) {
		c.metrics = m
	}
}

// WithLogger overrides the module logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Controller) {
		c.log = l
	}
}

// New creates a new API controller and registers its routes on e.
func New(e *echo.Echo, db datastore.Manager, settings *conf.Settings, opts ...Option) (*Controller, error) {
	if db == nil {
		return nil, errors.Newf("datastore is required").
			Component("api").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if settings == nil {
		settings = conf.GetSettings()
	}

	gdb := db.DB()
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		Echo:       e,
		DB:         db,
		Settings:   settings,
		species:    datastore.NewSpeciesRepository(gdb),
		members:    datastore.NewMemberRepository(gdb),
		catches:    datastore.NewCatchRepository(gdb),
		spots:      datastore.NewSpotRepository(gdb),
		supporters: datastore.NewSupporterRepository(gdb),
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		respCache:  cache.New(supportersCacheTTL, 10*time.Minute),
		log:        logger.Global().Module("api"),
		startTime:  time.Now(),
		ctx:        ctx,
		cancel:     cancel,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.engine = ranking.NewEngine(settings.Ranking.CatchCap)
	c.ranking = ranking.NewService(c.members, c.catches, c.engine)
	c.Group = e.Group(APIPrefix)
	c.initRoutes()

	return c, nil
}

func (c *Controller) initRoutes() {
	c.Group.GET("/health", c.HealthCheck)

	c.Group.GET("/home", c.GetHome)
	c.Group.GET("/ranking", c.GetRanking)

	c.Group.GET("/species", c.ListSpecies)
	c.Group.GET("/species/:slug", c.GetSpecies)

	c.Group.GET("/members", c.ListMembers)
	c.Group.GET("/members/:id", c.GetMember)
	c.Group.POST("/catches", c.CreateCatch)

	c.Group.GET("/spots", c.ListSpots)
	c.Group.GET("/spots/:slug", c.GetSpot)

	c.Group.GET("/supporters", c.ListSupporters)

	if c.Settings.WebServer.Admin.Enabled {
		admin := c.Group.Group("/admin", mw.NewAdminAuth(mw.AdminAuthConfig{
			Username:     c.Settings.WebServer.Admin.Username,
			PasswordHash: c.Settings.WebServer.Admin.PasswordHash,
			Logger:       c.log,
			Metrics:      c.httpMetrics(),
		}))
		admin.POST("/spots/:slug/refresh", c.RefreshSpot)
		admin.POST("/species/:slug/enrich", c.EnrichSpecies)
	}

	if c.Settings.WebServer.Metrics && c.metrics != nil {
		c.Echo.GET("/metrics", echo.WrapHandler(c.metrics.Handler()))
	}
}

// HealthCheck handles the API health check endpoint
func (c *Controller) HealthCheck(ctx echo.Context) error {
	uptime := time.Since(c.startTime)
	response := map[string]any{
		"status":         "healthy",
		"name":           c.Settings.Main.Name,
		"timestamp":      time.Now().Format(time.RFC3339),
		"uptime":         uptime.String(),
		"uptime_seconds": uptime.Seconds(),
		"go_version":     runtime.Version(),
	}

	pingCtx, cancel := context.WithTimeout(ctx.Request().Context(), 2*time.Second)
	defer cancel()
	if err := c.DB.Ping(pingCtx); err != nil {
		response["status"] = "degraded"
		response["database_status"] = "disconnected"
		response["database_error"] = err.Error()
	} else {
		response["database_status"] = "connected"
	}
	if free, ok, err := datastore.FreeSpace(c.DB); ok {
		if err != nil {
			c.log.Debug("database free space unavailable", logger.Error(err))
		} else {
			response["database_disk_free"] = bytes.Format(int64(free))
		}
	}

	system := map[string]any{}
	if info, err := host.Info(); err == nil {
		system["hostname"] = info.Hostname
		system["platform"] = info.Platform
		system["uptime_seconds"] = info.Uptime
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		system["memory"] = map[string]any{
			"total_mb":     vm.Total / 1024 / 1024,
			"used_mb":      vm.Used / 1024 / 1024,
			"used_percent": vm.UsedPercent,
		}
	}
	if du, err := disk.Usage("/"); err == nil {
		system["disk_space"] = map[string]any{
			"total_gb":     float64(du.Total) / (1 << 30),
			"free_gb":      float64(du.Free) / (1 << 30),
			"used_percent": du.UsedPercent,
		}
	}
	response["system"] = system

	return ctx.JSON(http.StatusOK, response)
}

// Shutdown waits for background publishes and releases cached responses.
func (c *Controller) Shutdown() {
	c.cancel()
	c.wg.Wait()
	c.respCache.Flush()
	c.log.Debug("API controller shut down")
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	Code          int    `json:"code"`
	CorrelationID string `json:"correlation_id"` // matches the server log entry
}

// NewErrorResponse builds an ErrorResponse. An empty correlationID gets a fresh one.
func NewErrorResponse(err error, message string, code int, correlationID string) *ErrorResponse {
	errorStr := message
	if err != nil {
		errorStr = err.Error()
	}
	if correlationID == "" {
		correlationID = uuid.NewString()[:8]
	}

	return &ErrorResponse{
		Error:         errorStr,
		Message:       message,
		Code:          code,
		CorrelationID: correlationID,
	}
}

// HandleError logs err and writes an ErrorResponse with the given status.
func (c *Controller) HandleError(ctx echo.Context, err error, message string, code int) error {
	resp := NewErrorResponse(err, message, code, logger.CorrelationIDFromContext(ctx.Request().Context()))

	fields := []logger.Field{
		logger.String("correlation_id", resp.CorrelationID),
		logger.String("message", message),
		logger.Int("code", code),
		logger.String("path", ctx.Request().URL.Path),
		logger.String("method", ctx.Request().Method),
		logger.String("ip", ctx.RealIP()),
	}
	if err != nil {
		fields = append(fields, logger.Error(err))
	}
	if code >= http.StatusInternalServerError {
		c.log.Error("API error", fields...)
	} else {
		c.log.Debug("API error", fields...)
	}

	return ctx.JSON(code, resp)
}

func (c *Controller) httpMetrics() *metrics.HTTPMetrics {
	if c.metrics == nil {
		return nil
	}
	return c.metrics.HTTP
}
