package services

import (
	"context"
	"encoding/json"
	"fmt"

	"live-auction/internal/domain"
	"live-auction/pkg/logger"
)

// FanoutGateway turns committed state changes into client-visible events.
// A locally committed change is broadcast to this instance's rooms first,
// then published on the bus tagged with this instance's identity; the bus
// subscription discards messages carrying its own tag so every client sees
// each commit exactly once even though the bus is at-least-once across N
// replicas.
type FanoutGateway struct {
	rooms      domain.RoomBroadcaster
	publisher  domain.EventPublisher
	instanceID string
	log        logger.Logger
}

func NewFanoutGateway(rooms domain.RoomBroadcaster, publisher domain.EventPublisher,
	instanceID string, log logger.Logger) *FanoutGateway {
	return &FanoutGateway{
		rooms:      rooms,
		publisher:  publisher,
		instanceID: instanceID,
		log:        log,
	}
}

// RegisterBusHandlers wires the bus channels this gateway replicates. Every
// channel is bound here, before the subscriber starts, so a missing binding
// fails startup instead of dropping events silently.
func (g *FanoutGateway) RegisterBusHandlers(subscriber domain.EventSubscriber) error {
	bindings := map[string]domain.BusHandler{
		domain.ChannelBidPlaced:      g.onBusBidPlaced,
		domain.ChannelAuctionUpdated: g.onBusAuctionUpdated,
		domain.ChannelAuctionEnded:   g.onBusAuctionEnded,
		domain.ChannelAuctionCreated: g.onBusAuctionCreated,
	}
	for channel, handler := range bindings {
		if err := subscriber.Handle(channel, handler); err != nil {
			return fmt.Errorf("failed to bind channel %s: %w", channel, err)
		}
	}
	return nil
}

// BidPlaced fans a freshly committed bid out: the auction room gets the bid
// and the updated auction, the dashboard gets the updated auction, and peer
// instances get both envelopes via the bus.
func (g *FanoutGateway) BidPlaced(ctx context.Context, bid *domain.Bid, auction *domain.Auction) {
	room := domain.AuctionRoom(bid.AuctionID)

	g.rooms.Broadcast(room, domain.EventBidPlaced, &domain.BidPlacedPayload{
		Bid:           bid,
		AuctionID:     bid.AuctionID,
		NewHighestBid: bid.Amount,
	})
	g.rooms.Broadcast(room, domain.EventAuctionUpdated, auction)
	g.rooms.Broadcast(domain.DashboardRoom, domain.EventAuctionUpdated, auction)

	g.publish(ctx, domain.ChannelBidPlaced, &domain.BidPlacedMessage{
		Bid:           bid,
		AuctionID:     bid.AuctionID,
		NewHighestBid: bid.Amount,
		InstanceID:    g.instanceID,
	})
	g.publish(ctx, domain.ChannelAuctionUpdated, &domain.AuctionUpdatedMessage{
		Auction:    auction,
		AuctionID:  auction.ID,
		InstanceID: g.instanceID,
	})
}

func (g *FanoutGateway) AuctionCreated(ctx context.Context, auction *domain.Auction) {
	g.rooms.Broadcast(domain.DashboardRoom, domain.EventAuctionCreated, auction)

	g.publish(ctx, domain.ChannelAuctionCreated, &domain.AuctionCreatedMessage{
		Auction:    auction,
		InstanceID: g.instanceID,
	})
}

// AuctionEnded announces a closed auction with its winning bid, which may be
// nil when the auction drew no bids.
func (g *FanoutGateway) AuctionEnded(ctx context.Context, auctionID string, winningBid *domain.Bid) {
	g.rooms.Broadcast(domain.AuctionRoom(auctionID), domain.EventAuctionEnded, &domain.AuctionEndedPayload{
		AuctionID:  auctionID,
		WinningBid: winningBid,
	})

	g.publish(ctx, domain.ChannelAuctionEnded, &domain.AuctionEndedMessage{
		AuctionID:  auctionID,
		WinningBid: winningBid,
		InstanceID: g.instanceID,
	})
}

// publish is fire-and-forget: the state change is already committed and the
// local rooms already notified, so a bus failure is logged and dropped.
func (g *FanoutGateway) publish(ctx context.Context, channel string, message interface{}) {
	if err := g.publisher.Publish(ctx, channel, message); err != nil {
		g.log.Error("Failed to publish bus event", "channel", channel, "error", err)
	}
}

// Bus-delivered events from peer instances. The origin check is the echo
// suppression that keeps delivery exactly-once per client: this instance's
// own clients were already served by the local broadcast above.

func (g *FanoutGateway) onBusBidPlaced(payload []byte) error {
	var msg domain.BidPlacedMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("bad %s payload: %w", domain.ChannelBidPlaced, err)
	}
	if msg.InstanceID == g.instanceID {
		return nil
	}

	g.rooms.Broadcast(domain.AuctionRoom(msg.AuctionID), domain.EventBidPlaced, &domain.BidPlacedPayload{
		Bid:           msg.Bid,
		AuctionID:     msg.AuctionID,
		NewHighestBid: msg.NewHighestBid,
	})
	return nil
}

func (g *FanoutGateway) onBusAuctionUpdated(payload []byte) error {
	var msg domain.AuctionUpdatedMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("bad %s payload: %w", domain.ChannelAuctionUpdated, err)
	}
	if msg.InstanceID == g.instanceID {
		return nil
	}

	g.rooms.Broadcast(domain.AuctionRoom(msg.AuctionID), domain.EventAuctionUpdated, msg.Auction)
	g.rooms.Broadcast(domain.DashboardRoom, domain.EventAuctionUpdated, msg.Auction)
	return nil
}

func (g *FanoutGateway) onBusAuctionEnded(payload []byte) error {
	var msg domain.AuctionEndedMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("bad %s payload: %w", domain.ChannelAuctionEnded, err)
	}
	if msg.InstanceID == g.instanceID {
		return nil
	}

	g.rooms.Broadcast(domain.AuctionRoom(msg.AuctionID), domain.EventAuctionEnded, &domain.AuctionEndedPayload{
		AuctionID:  msg.AuctionID,
		WinningBid: msg.WinningBid,
	})
	return nil
}

func (g *FanoutGateway) onBusAuctionCreated(payload []byte) error {
	var msg domain.AuctionCreatedMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("bad %s payload: %w", domain.ChannelAuctionCreated, err)
	}
	if msg.InstanceID == g.instanceID {
		return nil
	}

	g.rooms.Broadcast(domain.DashboardRoom, domain.EventAuctionCreated, msg.Auction)
	return nil
}
