package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nabos/fishclub/internal/datastore"
	"github.com/nabos/fishclub/internal/errors"
	"github.com/nabos/fishclub/internal/forecast"
	"github.com/nabos/fishclub/internal/stormglass"
	"github.com/nabos/fishclub/internal/wikipedia"
)

// statusFor maps a service error to the HTTP status it is reported with.
func statusFor(err error) int {
	switch {
	case errors.Is(err, datastore.ErrSpeciesNotFound),
		errors.Is(err, datastore.ErrMemberNotFound),
		errors.Is(err, datastore.ErrSpotNotFound),
		errors.Is(err, wikipedia.ErrNoData):
		return http.StatusNotFound
	case errors.Is(err, datastore.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, wikipedia.ErrMissingTitle):
		return http.StatusUnprocessableEntity
	case errors.Is(err, forecast.ErrQuotaExhausted):
		return http.StatusTooManyRequests
	case errors.Is(err, stormglass.ErrCircuitOpen):
		return http.StatusServiceUnavailable
	case stormglass.StatusCode(err) != 0:
		return http.StatusBadGateway
	}

	switch {
	case errors.IsCategory(err, errors.CategoryValidation):
		return http.StatusBadRequest
	case errors.IsNotFound(err):
		return http.StatusNotFound
	case errors.IsCategory(err, errors.CategoryConflict):
		return http.StatusConflict
	case errors.IsCategory(err, errors.CategoryLimit):
		return http.StatusTooManyRequests
	case errors.IsCategory(err, errors.CategoryNetwork),
		errors.IsCategory(err, errors.CategoryForecast),
		errors.IsCategory(err, errors.CategoryEnrichment):
		return http.StatusBadGateway
	case errors.IsCategory(err, errors.CategoryConfiguration):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// handleServiceError reports err with the status derived from it.
func (c *Controller) handleServiceError(ctx echo.Context, err error, message string) error {
	return c.HandleError(ctx, err, message, statusFor(err))
}
