package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"live-auction/internal/services"
	"live-auction/pkg/logger"
)

const (
	defaultPage     = 1
	defaultPageSize = 10
	maxPageSize     = 100
)

type AuctionHandler struct {
	auctions *services.AuctionService
	log      logger.Logger
}

type CreateAuctionRequest struct {
	ItemID        string    `json:"itemId"`
	StartTime     time.Time `json:"startTime"`
	EndTime       time.Time `json:"endTime"`
	StartingPrice float64   `json:"startingPrice"`
}

func NewAuctionHandler(auctions *services.AuctionService, log logger.Logger) *AuctionHandler {
	return &AuctionHandler{
		auctions: auctions,
		log:      log,
	}
}

func (h *AuctionHandler) Register(g *echo.Group) {
	g.POST("/auctions", h.CreateAuction)
	g.GET("/auctions", h.ListAuctions)
	g.GET("/auctions/active", h.ListActiveAuctions)
	g.GET("/auctions/ended", h.ListEndedAuctions)
	g.GET("/auctions/:id", h.GetAuction)
	g.GET("/auctions/:id/highest-bid", h.GetCurrentHighestBid)
}

func (h *AuctionHandler) CreateAuction(c echo.Context) error {
	var req CreateAuctionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	if req.ItemID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "itemId required"})
	}
	if req.EndTime.Before(time.Now()) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "End time must be in the future"})
	}

	auction, err := h.auctions.CreateAuction(c.Request().Context(),
		req.ItemID, req.StartTime, req.EndTime, req.StartingPrice)
	if err != nil {
		h.log.Error("Failed to create auction", "error", err)
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, auction)
}

func (h *AuctionHandler) GetAuction(c echo.Context) error {
	auction, err := h.auctions.GetAuction(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, auction)
}

func (h *AuctionHandler) GetCurrentHighestBid(c echo.Context) error {
	highest, err := h.auctions.GetCurrentHighestBid(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]float64{"currentHighestBid": highest})
}

func (h *AuctionHandler) ListAuctions(c echo.Context) error {
	page, pageSize := pagination(c)
	result, err := h.auctions.ListAuctions(c.Request().Context(), page, pageSize)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *AuctionHandler) ListActiveAuctions(c echo.Context) error {
	page, pageSize := pagination(c)
	result, err := h.auctions.ListActiveAuctions(c.Request().Context(), page, pageSize)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *AuctionHandler) ListEndedAuctions(c echo.Context) error {
	page, pageSize := pagination(c)
	result, err := h.auctions.ListEndedAuctions(c.Request().Context(), page, pageSize)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func pagination(c echo.Context) (page, pageSize int) {
	page = defaultPage
	pageSize = defaultPageSize

	if v, err := strconv.Atoi(c.QueryParam("page")); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.Atoi(c.QueryParam("pageSize")); err == nil && v > 0 && v <= maxPageSize {
		pageSize = v
	}
	return page, pageSize
}
