package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"live-auction/internal/domain"
	"live-auction/pkg/utils"
)

const auctionColumns = `id, item_id, start_time, end_time, current_highest_bid, is_active, created_at, updated_at`

// AuctionStore is the MySQL implementation of domain.AuctionStore. Bid
// acceptance and the expiry sweep run as transactions holding a row lock on
// the target auction(s); the lock wait timeout is set per transaction so a
// contended bid fails fast instead of queueing for minutes.
type AuctionStore struct {
	db              *sql.DB
	lockWaitSeconds int
}

func NewAuctionStore(db *sql.DB, lockWaitSeconds int) *AuctionStore {
	return &AuctionStore{
		db:              db,
		lockWaitSeconds: lockWaitSeconds,
	}
}

func (s *AuctionStore) CreateAuction(ctx context.Context, auction *domain.Auction) error {
	query := `
        INSERT INTO auctions (` + auctionColumns + `)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err := s.db.ExecContext(ctx, query,
		auction.ID, auction.ItemID, auction.StartTime, auction.EndTime,
		auction.CurrentHighestBid, auction.IsActive, auction.CreatedAt, auction.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert auction: %w", err)
	}
	return nil
}

func (s *AuctionStore) GetAuction(ctx context.Context, auctionID string) (*domain.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions WHERE id = ?`

	auction, err := scanAuction(s.db.QueryRowContext(ctx, query, auctionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAuctionNotFound
		}
		return nil, err
	}
	return auction, nil
}

// PlaceBid validates and commits a single bid as one atomic unit. The
// SELECT ... FOR UPDATE serializes acceptance attempts per auction; attempts
// on different auctions never contend. Any failure between lock and commit
// rolls the whole transaction back.
func (s *AuctionStore) PlaceBid(ctx context.Context, bidderID, auctionID string, amount float64) (*domain.Bid, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SET innodb_lock_wait_timeout = ?`, s.lockWaitSeconds); err != nil {
		return nil, fmt.Errorf("failed to set lock wait timeout: %w", err)
	}

	lockQuery := `SELECT ` + auctionColumns + ` FROM auctions WHERE id = ? FOR UPDATE`
	auction, err := scanAuction(tx.QueryRowContext(ctx, lockQuery, auctionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAuctionNotFound
		}
		return nil, translateError(err)
	}

	if !auction.IsActive {
		return nil, domain.ErrAuctionClosed
	}
	// The clock is read under the row lock: a bid that queued on a contended
	// auction until past the deadline is rejected, and CreatedAt follows
	// commit order. The wall clock wins even if the sweeper has not flipped
	// the flag yet.
	now := time.Now()
	if auction.Expired(now) {
		return nil, domain.ErrAuctionExpired
	}
	if amount <= auction.CurrentHighestBid {
		return nil, domain.ErrBidTooLow
	}

	// No-op when the auction has no bids yet.
	_, err = tx.ExecContext(ctx,
		`UPDATE bids SET is_winning = FALSE WHERE auction_id = ? AND is_winning = TRUE`,
		auctionID)
	if err != nil {
		return nil, translateError(err)
	}

	bid := &domain.Bid{
		ID:        utils.GenerateID("bid"),
		BidderID:  bidderID,
		AuctionID: auctionID,
		Amount:    amount,
		IsWinning: true,
		CreatedAt: now,
	}
	_, err = tx.ExecContext(ctx, `
        INSERT INTO bids (id, bidder_id, auction_id, amount, is_winning, created_at)
        VALUES (?, ?, ?, ?, ?, ?)`,
		bid.ID, bid.BidderID, bid.AuctionID, bid.Amount, bid.IsWinning, bid.CreatedAt)
	if err != nil {
		return nil, translateError(err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE auctions SET current_highest_bid = ?, updated_at = ? WHERE id = ?`,
		amount, now, auctionID)
	if err != nil {
		return nil, translateError(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, translateError(err)
	}
	return bid, nil
}

// CloseExpired flips every still-active auction whose deadline has passed.
// The update targets exactly the rows the locking select returned, so the
// reported set equals the flipped set; a row that becomes expirable after
// the select is left for the next sweep. The is_active condition keeps a
// concurrent sweep on another replica from flipping the same rows twice.
func (s *AuctionStore) CloseExpired(ctx context.Context, now time.Time) ([]string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		`SELECT id FROM auctions WHERE is_active = TRUE AND end_time <= ? FOR UPDATE`, now)
	if err != nil {
		return nil, translateError(err)
	}

	var closed []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		closed = append(closed, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	if len(closed) == 0 {
		return nil, tx.Commit()
	}

	placeholders := strings.Repeat("?, ", len(closed)-1) + "?"
	args := make([]interface{}, 0, len(closed)+1)
	args = append(args, now)
	for _, id := range closed {
		args = append(args, id)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE auctions SET is_active = FALSE, updated_at = ? WHERE is_active = TRUE AND id IN (`+placeholders+`)`,
		args...)
	if err != nil {
		return nil, translateError(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, translateError(err)
	}
	return closed, nil
}

func (s *AuctionStore) ListAuctions(ctx context.Context, page, pageSize int) (*domain.AuctionPage, error) {
	query := `
        SELECT ` + auctionColumns + ` FROM auctions
        ORDER BY end_time ASC
        LIMIT ? OFFSET ?
    `
	return s.listPage(ctx, page, pageSize, query, pageSize+1, (page-1)*pageSize)
}

func (s *AuctionStore) ListActiveAuctions(ctx context.Context, now time.Time, page, pageSize int) (*domain.AuctionPage, error) {
	query := `
        SELECT ` + auctionColumns + ` FROM auctions
        WHERE is_active = TRUE AND end_time > ?
        ORDER BY end_time ASC
        LIMIT ? OFFSET ?
    `
	return s.listPage(ctx, page, pageSize, query, now, pageSize+1, (page-1)*pageSize)
}

func (s *AuctionStore) ListEndedAuctions(ctx context.Context, now time.Time, page, pageSize int) (*domain.AuctionPage, error) {
	query := `
        SELECT ` + auctionColumns + ` FROM auctions
        WHERE is_active = FALSE OR end_time <= ?
        ORDER BY end_time DESC
        LIMIT ? OFFSET ?
    `
	return s.listPage(ctx, page, pageSize, query, now, pageSize+1, (page-1)*pageSize)
}

// listPage reads one row past the page size so HasMore needs no second
// count query.
func (s *AuctionStore) listPage(ctx context.Context, page, pageSize int, query string, args ...interface{}) (*domain.AuctionPage, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var auctions []*domain.Auction
	for rows.Next() {
		auction, err := scanAuction(rows)
		if err != nil {
			return nil, err
		}
		auctions = append(auctions, auction)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	hasMore := len(auctions) > pageSize
	if hasMore {
		auctions = auctions[:pageSize]
	}

	return &domain.AuctionPage{
		Data:     auctions,
		Page:     page,
		PageSize: pageSize,
		HasMore:  hasMore,
	}, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAuction(row rowScanner) (*domain.Auction, error) {
	var auction domain.Auction
	err := row.Scan(
		&auction.ID, &auction.ItemID, &auction.StartTime, &auction.EndTime,
		&auction.CurrentHighestBid, &auction.IsActive, &auction.CreatedAt, &auction.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &auction, nil
}

// MySQL surfaces lock contention as server errors 1205 (lock wait timeout)
// and 1213 (deadlock victim). Both are retryable by the caller.
func translateError(err error) error {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case 1205:
			return domain.ErrLockTimeout
		case 1213:
			return domain.ErrTxConflict
		}
	}
	return err
}
