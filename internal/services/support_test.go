package services

import (
	"context"
	"sync"
	"time"

	"live-auction/internal/domain"
	"live-auction/pkg/utils"
)

// nopLogger keeps test output quiet.
type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Fatal(string, ...interface{}) {}

// memoryStore is an in-memory domain.AuctionStore with the same acceptance
// semantics as the MySQL store: per-auction mutual exclusion, wall-clock
// expiry precedence, single winning bid.
type memoryStore struct {
	mu       sync.Mutex
	auctions map[string]*domain.Auction
	bids     map[string][]*domain.Bid

	placeBidErr   error
	getAuctionErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		auctions: make(map[string]*domain.Auction),
		bids:     make(map[string][]*domain.Bid),
	}
}

func (s *memoryStore) addAuction(a *domain.Auction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *a
	s.auctions[a.ID] = &copied
}

func (s *memoryStore) CreateAuction(_ context.Context, auction *domain.Auction) error {
	s.addAuction(auction)
	return nil
}

func (s *memoryStore) GetAuction(_ context.Context, auctionID string) (*domain.Auction, error) {
	if s.getAuctionErr != nil {
		return nil, s.getAuctionErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	auction, ok := s.auctions[auctionID]
	if !ok {
		return nil, domain.ErrAuctionNotFound
	}
	copied := *auction
	return &copied, nil
}

func (s *memoryStore) PlaceBid(_ context.Context, bidderID, auctionID string, amount float64) (*domain.Bid, error) {
	if s.placeBidErr != nil {
		return nil, s.placeBidErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	auction, ok := s.auctions[auctionID]
	if !ok {
		return nil, domain.ErrAuctionNotFound
	}
	if !auction.IsActive {
		return nil, domain.ErrAuctionClosed
	}
	// Clock read under the lock, as in the SQL store.
	now := time.Now()
	if auction.Expired(now) {
		return nil, domain.ErrAuctionExpired
	}
	if amount <= auction.CurrentHighestBid {
		return nil, domain.ErrBidTooLow
	}

	for _, bid := range s.bids[auctionID] {
		bid.IsWinning = false
	}

	bid := &domain.Bid{
		ID:        utils.GenerateID("bid"),
		BidderID:  bidderID,
		AuctionID: auctionID,
		Amount:    amount,
		IsWinning: true,
		CreatedAt: now,
	}
	s.bids[auctionID] = append(s.bids[auctionID], bid)
	auction.CurrentHighestBid = amount
	auction.UpdatedAt = now

	copied := *bid
	return &copied, nil
}

func (s *memoryStore) CloseExpired(_ context.Context, now time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var closed []string
	for id, auction := range s.auctions {
		if auction.IsActive && !auction.EndTime.After(now) {
			auction.IsActive = false
			auction.UpdatedAt = now
			closed = append(closed, id)
		}
	}
	return closed, nil
}

func (s *memoryStore) GetWinningBid(_ context.Context, auctionID string) (*domain.Bid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, bid := range s.bids[auctionID] {
		if bid.IsWinning {
			copied := *bid
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *memoryStore) GetAuctionBids(_ context.Context, auctionID string) ([]*domain.Bid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.Bid, 0, len(s.bids[auctionID]))
	for _, bid := range s.bids[auctionID] {
		copied := *bid
		out = append(out, &copied)
	}
	return out, nil
}

func (s *memoryStore) GetUserBids(_ context.Context, bidderID string) ([]*domain.Bid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Bid
	for _, bids := range s.bids {
		for _, bid := range bids {
			if bid.BidderID == bidderID {
				copied := *bid
				out = append(out, &copied)
			}
		}
	}
	return out, nil
}

func (s *memoryStore) winningCount(auctionID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, bid := range s.bids[auctionID] {
		if bid.IsWinning {
			count++
		}
	}
	return count
}

func (s *memoryStore) ListAuctions(context.Context, int, int) (*domain.AuctionPage, error) {
	return &domain.AuctionPage{}, nil
}

func (s *memoryStore) ListActiveAuctions(context.Context, time.Time, int, int) (*domain.AuctionPage, error) {
	return &domain.AuctionPage{}, nil
}

func (s *memoryStore) ListEndedAuctions(context.Context, time.Time, int, int) (*domain.AuctionPage, error) {
	return &domain.AuctionPage{}, nil
}

// broadcastCall records one room broadcast.
type broadcastCall struct {
	Room    string
	Event   string
	Payload interface{}
}

type recordingRooms struct {
	mu    sync.Mutex
	calls []broadcastCall
}

func (r *recordingRooms) Join(string, domain.Conn)  {}
func (r *recordingRooms) Leave(string, domain.Conn) {}
func (r *recordingRooms) LeaveAll(domain.Conn)      {}

func (r *recordingRooms) Broadcast(room string, event string, payload interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, broadcastCall{Room: room, Event: event, Payload: payload})
}

func (r *recordingRooms) broadcasts() []broadcastCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]broadcastCall(nil), r.calls...)
}

func (r *recordingRooms) events(room string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var events []string
	for _, call := range r.calls {
		if call.Room == room {
			events = append(events, call.Event)
		}
	}
	return events
}

// publishedMessage records one bus publish.
type publishedMessage struct {
	Channel string
	Message interface{}
}

type recordingPublisher struct {
	mu       sync.Mutex
	err      error
	messages []publishedMessage
}

func (p *recordingPublisher) Publish(_ context.Context, channel string, message interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, publishedMessage{Channel: channel, Message: message})
	return nil
}

func (p *recordingPublisher) published() []publishedMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]publishedMessage(nil), p.messages...)
}

type recordingListings struct {
	mu            sync.Mutex
	invalidations int
}

func (l *recordingListings) Invalidate(context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.invalidations++
}

func (l *recordingListings) GetActiveListing(ctx context.Context, page, pageSize int,
	load func(context.Context) (*domain.AuctionPage, error)) (*domain.AuctionPage, error) {
	return load(ctx)
}

func (l *recordingListings) invalidated() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.invalidations
}
