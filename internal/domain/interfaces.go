package domain

import (
	"context"
	"time"
)

// AuctionStore is the durable record of auctions and bids. PlaceBid and
// CloseExpired are the only operations that take row locks; everything else
// is a plain read or write.
type AuctionStore interface {
	CreateAuction(ctx context.Context, auction *Auction) error
	GetAuction(ctx context.Context, auctionID string) (*Auction, error)
	ListAuctions(ctx context.Context, page, pageSize int) (*AuctionPage, error)
	ListActiveAuctions(ctx context.Context, now time.Time, page, pageSize int) (*AuctionPage, error)
	ListEndedAuctions(ctx context.Context, now time.Time, page, pageSize int) (*AuctionPage, error)

	// PlaceBid validates and commits a bid as a single transaction under an
	// exclusive per-auction row lock. The commit timestamp is read under the
	// lock, so a bid that waited out the auction's deadline is rejected and
	// CreatedAt follows commit order.
	PlaceBid(ctx context.Context, bidderID, auctionID string, amount float64) (*Bid, error)

	// CloseExpired flips every still-active auction past its deadline and
	// returns the IDs it actually flipped. Concurrent calls flip disjoint
	// (usually empty) sets.
	CloseExpired(ctx context.Context, now time.Time) ([]string, error)

	GetWinningBid(ctx context.Context, auctionID string) (*Bid, error)
	GetAuctionBids(ctx context.Context, auctionID string) ([]*Bid, error)
	GetUserBids(ctx context.Context, bidderID string) ([]*Bid, error)
}

// BusHandler receives the raw JSON payload delivered on a channel. A handler
// error or panic is logged by the subscription loop and never stops it.
type BusHandler func(payload []byte) error

// EventPublisher publishes a JSON-encoded message on a bus channel. Publish
// failures after a committed bid are logged and dropped, never propagated.
type EventPublisher interface {
	Publish(ctx context.Context, channel string, message interface{}) error
}

// EventSubscriber owns the channel-to-handler mapping. All handlers are
// registered before Start; Start either subscribes to every channel or
// fails with ErrBusUnavailable.
type EventSubscriber interface {
	Handle(channel string, handler BusHandler) error
	Start(ctx context.Context) error
	Close() error
}

// Conn is one live client connection the fanout layer can push to.
type Conn interface {
	Send(event string, payload interface{}) error
	Close() error
	ClientID() string
}

// RoomBroadcaster manages named groups of connections and pushes events to
// them. Send failures are isolated per connection.
type RoomBroadcaster interface {
	Join(room string, conn Conn)
	Leave(room string, conn Conn)
	LeaveAll(conn Conn)
	Broadcast(room string, event string, payload interface{})
}
