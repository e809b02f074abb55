package domain

// Bus channels, one per event kind. Peer instances replicate room broadcasts
// through these.
const (
	ChannelBidPlaced      = "auction:bid:placed"
	ChannelAuctionUpdated = "auction:updated"
	ChannelAuctionEnded   = "auction:ended"
	ChannelAuctionCreated = "auction:created"
)

// Client-facing event names emitted into rooms.
const (
	EventBidPlaced      = "bidPlaced"
	EventAuctionUpdated = "auctionUpdated"
	EventAuctionEnded   = "auctionEnded"
	EventAuctionCreated = "auctionCreated"
	EventBidSuccess     = "bidSuccess"
	EventBidError       = "bidError"
)

// Room names.
const (
	DashboardRoom     = "dashboard"
	auctionRoomPrefix = "auction-"
)

// AuctionRoom names the room for viewers of a single auction.
func AuctionRoom(auctionID string) string {
	return auctionRoomPrefix + auctionID
}

// Bus message envelopes. InstanceID tags the originating replica so its own
// subscription can discard the echo.

type BidPlacedMessage struct {
	Bid           *Bid    `json:"bid"`
	AuctionID     string  `json:"auctionId"`
	NewHighestBid float64 `json:"newHighestBid"`
	InstanceID    string  `json:"instanceId"`
}

type AuctionUpdatedMessage struct {
	Auction    *Auction `json:"auction"`
	AuctionID  string   `json:"auctionId"`
	InstanceID string   `json:"instanceId"`
}

type AuctionEndedMessage struct {
	AuctionID  string `json:"auctionId"`
	WinningBid *Bid   `json:"winningBid"`
	InstanceID string `json:"instanceId"`
}

type AuctionCreatedMessage struct {
	Auction    *Auction `json:"auction"`
	InstanceID string   `json:"instanceId"`
}

// Room payloads delivered to clients.

type BidPlacedPayload struct {
	Bid           *Bid    `json:"bid"`
	AuctionID     string  `json:"auctionId"`
	NewHighestBid float64 `json:"newHighestBid"`
}

type AuctionEndedPayload struct {
	AuctionID  string `json:"auctionId"`
	WinningBid *Bid   `json:"winningBid"`
}
