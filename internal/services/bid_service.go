package services

import (
	"context"
	"math"

	"live-auction/internal/domain"
	"live-auction/pkg/logger"
)

// BidService runs the bid acceptance protocol: validate the request, commit
// it through the store's per-auction locked transaction, then fan the result
// out. Fanout happens strictly after commit and its failures never reach the
// bidder; the bid is already durable.
type BidService struct {
	store   domain.AuctionStore
	gateway *FanoutGateway
	log     logger.Logger
}

func NewBidService(store domain.AuctionStore, gateway *FanoutGateway, log logger.Logger) *BidService {
	return &BidService{
		store:   store,
		gateway: gateway,
		log:     log,
	}
}

func (s *BidService) PlaceBid(ctx context.Context, bidderID, auctionID string, amount float64) (*domain.Bid, error) {
	if bidderID == "" {
		return nil, domain.ErrBidderMissing
	}
	if auctionID == "" {
		return nil, domain.ErrAuctionNotFound
	}
	if amount <= 0 || math.IsInf(amount, 0) || math.IsNaN(amount) {
		return nil, domain.ErrInvalidAmount
	}

	bid, err := s.store.PlaceBid(ctx, bidderID, auctionID, amount)
	if err != nil {
		return nil, err
	}

	s.log.Info("Bid accepted",
		"bid_id", bid.ID, "auction_id", auctionID, "bidder_id", bidderID, "amount", amount)

	// Plain read after commit for the auctionUpdated snapshot. A failure
	// here only costs the fanout; the accepted bid is returned regardless.
	auction, err := s.store.GetAuction(ctx, auctionID)
	if err != nil {
		s.log.Error("Failed to load auction snapshot after bid commit",
			"auction_id", auctionID, "error", err)
		return bid, nil
	}

	s.gateway.BidPlaced(ctx, bid, auction)
	return bid, nil
}

func (s *BidService) GetWinningBid(ctx context.Context, auctionID string) (*domain.Bid, error) {
	return s.store.GetWinningBid(ctx, auctionID)
}

func (s *BidService) GetAuctionBids(ctx context.Context, auctionID string) ([]*domain.Bid, error) {
	return s.store.GetAuctionBids(ctx, auctionID)
}

func (s *BidService) GetUserBids(ctx context.Context, bidderID string) ([]*domain.Bid, error) {
	return s.store.GetUserBids(ctx, bidderID)
}
