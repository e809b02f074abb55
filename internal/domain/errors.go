package domain

import "errors"

// Bid acceptance failures reported to the caller. None of these are retried
// automatically; a rejected bid needs a new amount, not a retry.
var (
	ErrAuctionNotFound = errors.New("auction not found")
	ErrAuctionClosed   = errors.New("auction has ended")
	ErrAuctionExpired  = errors.New("auction has expired")
	ErrBidTooLow       = errors.New("bid must be higher than current highest bid")
	ErrInvalidAmount   = errors.New("bid amount must be a positive finite number")
	ErrBidderMissing   = errors.New("bidder id required")
)

// Contention failures. The caller may retry these with the same amount.
var (
	ErrLockTimeout = errors.New("timed out waiting for auction lock")
	ErrTxConflict  = errors.New("transaction conflict, retry")
)

// ErrBusUnavailable is fatal at startup: an instance that cannot subscribe
// to the event bus must not present itself as healthy.
var ErrBusUnavailable = errors.New("event bus unavailable")
