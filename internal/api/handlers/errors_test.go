package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"live-auction/internal/domain"
	"live-auction/internal/services"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"auction_not_found", domain.ErrAuctionNotFound, http.StatusNotFound},
		{"auction_closed", domain.ErrAuctionClosed, http.StatusBadRequest},
		{"auction_expired", domain.ErrAuctionExpired, http.StatusBadRequest},
		{"bid_too_low", domain.ErrBidTooLow, http.StatusBadRequest},
		{"invalid_amount", domain.ErrInvalidAmount, http.StatusBadRequest},
		{"bidder_missing", domain.ErrBidderMissing, http.StatusBadRequest},
		{"invalid_window", services.ErrInvalidAuctionWindow, http.StatusBadRequest},
		{"invalid_starting_price", services.ErrInvalidStartingPrice, http.StatusBadRequest},
		{"lock_timeout", domain.ErrLockTimeout, http.StatusConflict},
		{"tx_conflict", domain.ErrTxConflict, http.StatusConflict},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

			require.NoError(t, writeError(c, tc.err))
			require.Equal(t, tc.wantStatus, rec.Code)
		})
	}
}

func TestWriteErrorHidesInternalDetails(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	require.NoError(t, writeError(c, errors.New("dsn user:pass@tcp(db:3306)")))
	require.NotContains(t, rec.Body.String(), "pass")
}

func TestPagination(t *testing.T) {
	tests := []struct {
		name         string
		query        string
		wantPage     int
		wantPageSize int
	}{
		{"defaults", "", 1, 10},
		{"explicit", "page=3&pageSize=25", 3, 25},
		{"zero_page_falls_back", "page=0", 1, 10},
		{"negative_page_falls_back", "page=-2", 1, 10},
		{"oversized_page_size_falls_back", "pageSize=500", 1, 10},
		{"garbage_falls_back", "page=abc&pageSize=xyz", 1, 10},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/?"+tc.query, nil)
			c := e.NewContext(req, httptest.NewRecorder())

			page, pageSize := pagination(c)
			require.Equal(t, tc.wantPage, page)
			require.Equal(t, tc.wantPageSize, pageSize)
		})
	}
}
