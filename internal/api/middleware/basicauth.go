package middleware

import (
	"crypto/subtle"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/crypto/bcrypt"

	"github.com/nabos/fishclub/internal/logger"
	"github.com/nabos/fishclub/internal/observability/metrics"
)

// AdminRealm is announced in the WWW-Authenticate header of admin routes.
const AdminRealm = "fishclub admin"

// AdminAuthConfig configures NewAdminAuth.
type AdminAuthConfig struct {
	Username     string
	PasswordHash string // bcrypt hash
	Logger       logger.Logger
	Metrics      *metrics.HTTPMetrics
}

// NewAdminAuth protects a route group with HTTP basic auth against a bcrypt hash.
// Without a configured hash every request is rejected.
func NewAdminAuth(cfg AdminAuthConfig) echo.MiddlewareFunc {
	return middleware.BasicAuthWithConfig(middleware.BasicAuthConfig{
		Realm: AdminRealm,
		Validator: func(username, password string, c echo.Context) (bool, error) {
			ok := cfg.PasswordHash != "" &&
				subtle.ConstantTimeCompare([]byte(username), []byte(cfg.Username)) == 1 &&
				bcrypt.CompareHashAndPassword([]byte(cfg.PasswordHash), []byte(password)) == nil

			status := metrics.StatusSuccess
			if !ok {
				status = metrics.StatusError
				if cfg.Logger != nil {
					cfg.Logger.Warn("admin authentication failed",
						logger.String("ip", c.RealIP()),
						logger.String("path", c.Path()))
				}
			}
			cfg.Metrics.RecordAuthOperation("basic", status)
			return ok, nil
		},
	})
}
