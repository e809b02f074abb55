package domain

import (
	"time"
)

// Auction is the canonical record of a running or finished auction. The item
// it sells is an external entity referenced by ID only; its starting price is
// snapshotted into CurrentHighestBid at creation time.
type Auction struct {
	ID                string    `json:"id"`
	ItemID            string    `json:"itemId"`
	StartTime         time.Time `json:"startTime"`
	EndTime           time.Time `json:"endTime"`
	CurrentHighestBid float64   `json:"currentHighestBid"`
	IsActive          bool      `json:"isActive"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// Expired reports whether the auction's deadline has passed, regardless of
// the IsActive flag. The wall clock always wins over a stale flag.
func (a *Auction) Expired(now time.Time) bool {
	return now.After(a.EndTime)
}

// Bid is an accepted bid. At most one bid per auction carries IsWinning at
// any committed instant; its amount equals the auction's CurrentHighestBid.
type Bid struct {
	ID        string    `json:"id"`
	BidderID  string    `json:"bidderId"`
	AuctionID string    `json:"auctionId"`
	Amount    float64   `json:"amount"`
	IsWinning bool      `json:"isWinning"`
	CreatedAt time.Time `json:"createdAt"`
}

// AuctionPage is one page of an auction listing. HasMore is derived by
// reading one row past the page size.
type AuctionPage struct {
	Data     []*Auction `json:"data"`
	Page     int        `json:"page"`
	PageSize int        `json:"pageSize"`
	HasMore  bool       `json:"hasMore"`
}
