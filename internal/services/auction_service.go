package services

import (
	"context"
	"errors"
	"time"

	"live-auction/internal/domain"
	"live-auction/pkg/logger"
	"live-auction/pkg/utils"
)

var (
	ErrInvalidAuctionWindow = errors.New("end time must be after start time")
	ErrInvalidStartingPrice = errors.New("starting price must not be negative")
)

// listingReader is the read-through cache in front of the active-auction
// listing.
type listingReader interface {
	listingInvalidator
	GetActiveListing(ctx context.Context, page, pageSize int,
		load func(context.Context) (*domain.AuctionPage, error)) (*domain.AuctionPage, error)
}

// AuctionService covers the auction CRUD edge the core needs: creation with
// the item's starting price snapshot, and listing reads. Item records
// themselves live outside this system and are referenced by ID only.
type AuctionService struct {
	store    domain.AuctionStore
	gateway  *FanoutGateway
	listings listingReader
	log      logger.Logger
}

func NewAuctionService(store domain.AuctionStore, gateway *FanoutGateway,
	listings listingReader, log logger.Logger) *AuctionService {
	return &AuctionService{
		store:    store,
		gateway:  gateway,
		listings: listings,
		log:      log,
	}
}

// CreateAuction opens a fixed-duration auction. startingPrice is the item's
// starting price snapshotted as the initial CurrentHighestBid; the auction
// record never reads the item again.
func (s *AuctionService) CreateAuction(ctx context.Context, itemID string,
	startTime, endTime time.Time, startingPrice float64) (*domain.Auction, error) {

	if !endTime.After(startTime) {
		return nil, ErrInvalidAuctionWindow
	}
	if startingPrice < 0 {
		return nil, ErrInvalidStartingPrice
	}

	now := time.Now()
	auction := &domain.Auction{
		ID:                utils.GenerateID("auction"),
		ItemID:            itemID,
		StartTime:         startTime,
		EndTime:           endTime,
		CurrentHighestBid: startingPrice,
		IsActive:          true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.store.CreateAuction(ctx, auction); err != nil {
		return nil, err
	}

	s.log.Info("Auction created", "auction_id", auction.ID, "item_id", itemID, "end_time", endTime)

	s.listings.Invalidate(ctx)
	s.gateway.AuctionCreated(ctx, auction)
	return auction, nil
}

func (s *AuctionService) GetAuction(ctx context.Context, auctionID string) (*domain.Auction, error) {
	return s.store.GetAuction(ctx, auctionID)
}

func (s *AuctionService) GetCurrentHighestBid(ctx context.Context, auctionID string) (float64, error) {
	auction, err := s.store.GetAuction(ctx, auctionID)
	if err != nil {
		return 0, err
	}
	return auction.CurrentHighestBid, nil
}

func (s *AuctionService) ListAuctions(ctx context.Context, page, pageSize int) (*domain.AuctionPage, error) {
	return s.store.ListAuctions(ctx, page, pageSize)
}

// ListActiveAuctions serves the dashboard's hot path through the listing
// cache; a cache outage degrades to a direct store read inside the cache.
func (s *AuctionService) ListActiveAuctions(ctx context.Context, page, pageSize int) (*domain.AuctionPage, error) {
	return s.listings.GetActiveListing(ctx, page, pageSize,
		func(ctx context.Context) (*domain.AuctionPage, error) {
			return s.store.ListActiveAuctions(ctx, time.Now(), page, pageSize)
		})
}

func (s *AuctionService) ListEndedAuctions(ctx context.Context, page, pageSize int) (*domain.AuctionPage, error) {
	return s.store.ListEndedAuctions(ctx, time.Now(), page, pageSize)
}
