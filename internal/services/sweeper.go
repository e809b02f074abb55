package services

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"live-auction/internal/domain"
	"live-auction/pkg/logger"
)

// listingInvalidator drops cached listings once auction churn makes them
// stale.
type listingInvalidator interface {
	Invalidate(ctx context.Context)
}

// Sweeper closes expired auctions on a fixed interval. It runs on every
// instance: the store's conditional update makes concurrent sweeps flip
// disjoint row sets, so no leader election or distributed lock is needed.
// Each auction actually flipped by this instance gets an auctionEnded event.
type Sweeper struct {
	store    domain.AuctionStore
	gateway  *FanoutGateway
	listings listingInvalidator
	interval time.Duration
	cron     *cron.Cron
	log      logger.Logger
}

func NewSweeper(store domain.AuctionStore, gateway *FanoutGateway,
	listings listingInvalidator, interval time.Duration, log logger.Logger) *Sweeper {
	return &Sweeper{
		store:    store,
		gateway:  gateway,
		listings: listings,
		interval: interval,
		cron:     cron.New(cron.WithSeconds()),
		log:      log,
	}
}

func (s *Sweeper) Start(ctx context.Context) error {
	s.log.Info("Starting auction sweeper", "interval", s.interval)

	_, err := s.cron.AddFunc("@every "+s.interval.String(), func() {
		if _, err := s.Sweep(ctx); err != nil {
			// Retried on the next tick, nothing else to do here.
			s.log.Error("Sweep failed", "error", err)
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

func (s *Sweeper) Stop() error {
	s.log.Info("Stopping auction sweeper")
	s.cron.Stop()
	return nil
}

// Sweep closes every active auction past its deadline and returns how many
// this call actually closed. Safe to run concurrently across instances.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	now := time.Now()

	closed, err := s.store.CloseExpired(ctx, now)
	if err != nil {
		return 0, err
	}
	if len(closed) == 0 {
		return 0, nil
	}

	s.log.Info("Closed expired auctions", "count", len(closed))
	s.listings.Invalidate(ctx)

	for _, auctionID := range closed {
		winningBid, err := s.store.GetWinningBid(ctx, auctionID)
		if err != nil {
			// Announce the closure anyway; viewers can re-query the winner.
			s.log.Error("Failed to load winning bid for closed auction",
				"auction_id", auctionID, "error", err)
			winningBid = nil
		}
		s.gateway.AuctionEnded(ctx, auctionID, winningBid)
	}

	return len(closed), nil
}
