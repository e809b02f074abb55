package mysql

import (
	"context"
	"database/sql"
	"errors"

	"live-auction/internal/domain"
)

const bidColumns = `id, bidder_id, auction_id, amount, is_winning, created_at`

// GetWinningBid returns the single bid currently marked winning for the
// auction, or nil when the auction has no bids.
func (s *AuctionStore) GetWinningBid(ctx context.Context, auctionID string) (*domain.Bid, error) {
	query := `SELECT ` + bidColumns + ` FROM bids WHERE auction_id = ? AND is_winning = TRUE`

	bid, err := scanBid(s.db.QueryRowContext(ctx, query, auctionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return bid, nil
}

func (s *AuctionStore) GetAuctionBids(ctx context.Context, auctionID string) ([]*domain.Bid, error) {
	query := `
        SELECT ` + bidColumns + ` FROM bids
        WHERE auction_id = ?
        ORDER BY created_at DESC
    `
	return s.listBids(ctx, query, auctionID)
}

func (s *AuctionStore) GetUserBids(ctx context.Context, bidderID string) ([]*domain.Bid, error) {
	query := `
        SELECT ` + bidColumns + ` FROM bids
        WHERE bidder_id = ?
        ORDER BY created_at DESC
    `
	return s.listBids(ctx, query, bidderID)
}

func (s *AuctionStore) listBids(ctx context.Context, query string, args ...interface{}) ([]*domain.Bid, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bids []*domain.Bid
	for rows.Next() {
		bid, err := scanBid(rows)
		if err != nil {
			return nil, err
		}
		bids = append(bids, bid)
	}
	return bids, rows.Err()
}

func scanBid(row rowScanner) (*domain.Bid, error) {
	var bid domain.Bid
	err := row.Scan(&bid.ID, &bid.BidderID, &bid.AuctionID, &bid.Amount, &bid.IsWinning, &bid.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &bid, nil
}
