package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"live-auction/internal/services"
	"live-auction/pkg/logger"
)

type BidHandler struct {
	bids *services.BidService
	log  logger.Logger
}

type PlaceBidRequest struct {
	BidderID  string  `json:"bidderId"`
	AuctionID string  `json:"auctionId"`
	Amount    float64 `json:"amount"`
}

func NewBidHandler(bids *services.BidService, log logger.Logger) *BidHandler {
	return &BidHandler{
		bids: bids,
		log:  log,
	}
}

func (h *BidHandler) Register(g *echo.Group) {
	g.POST("/bids", h.PlaceBid)
	g.GET("/auctions/:id/bids", h.GetAuctionBids)
	g.GET("/auctions/:id/winning-bid", h.GetWinningBid)
	g.GET("/users/:id/bids", h.GetUserBids)
}

func (h *BidHandler) PlaceBid(c echo.Context) error {
	var req PlaceBidRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	bid, err := h.bids.PlaceBid(c.Request().Context(), req.BidderID, req.AuctionID, req.Amount)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, bid)
}

func (h *BidHandler) GetAuctionBids(c echo.Context) error {
	bids, err := h.bids.GetAuctionBids(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, bids)
}

// GetWinningBid returns the current leading bid, or null when the auction
// has no bids yet.
func (h *BidHandler) GetWinningBid(c echo.Context) error {
	bid, err := h.bids.GetWinningBid(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, bid)
}

func (h *BidHandler) GetUserBids(c echo.Context) error {
	bids, err := h.bids.GetUserBids(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, bids)
}
