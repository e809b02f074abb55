package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"live-auction/internal/domain"
	"live-auction/internal/services"
)

// writeError maps domain failures to HTTP statuses. Contention errors get
// 409 so callers know a retry with the same amount may still win.
func writeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrAuctionNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrAuctionClosed),
		errors.Is(err, domain.ErrAuctionExpired),
		errors.Is(err, domain.ErrBidTooLow),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrBidderMissing),
		errors.Is(err, services.ErrInvalidAuctionWindow),
		errors.Is(err, services.ErrInvalidStartingPrice):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrLockTimeout), errors.Is(err, domain.ErrTxConflict):
		return c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}
}
