package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mjyuu/vocaloidshop/internal/database"
	"github.com/mjyuu/vocaloidshop/internal/store"
)

// respondError maps the store's typed failures to transport codes. Retryable
// store errors (deadlock, serialization, lock timeout) become 503 so clients
// know the request may be repeated as-is.
func (h *Handler) respondError(c echo.Context, err error) error {
	status := http.StatusInternalServerError

	var stockErr *store.InsufficientStockError
	var transitionErr *store.InvalidTransitionError

	switch {
	case errors.Is(err, database.ErrUserNotFound),
		errors.Is(err, database.ErrProductNotFound),
		errors.Is(err, database.ErrOrderNotFound),
		errors.Is(err, database.ErrAddressNotFound),
		errors.Is(err, database.ErrCartItemNotFound):
		status = http.StatusNotFound
	case errors.Is(err, database.ErrAddressForbidden):
		status = http.StatusForbidden
	case errors.Is(err, database.ErrCartEmpty),
		errors.As(err, &stockErr),
		errors.As(err, &transitionErr):
		status = http.StatusConflict
	case database.IsRetryable(err):
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		h.logger.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	}

	return c.JSON(status, map[string]string{"error": err.Error()})
}
