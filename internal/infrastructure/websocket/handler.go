package websocket

import (
	"context"
	"fmt"
	"math"
	"net/http"

	"github.com/gorilla/websocket"

	"live-auction/internal/domain"
	"live-auction/pkg/logger"
	"live-auction/pkg/utils"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// bidPlacer is the slice of the bid service the realtime transport needs.
type bidPlacer interface {
	PlaceBid(ctx context.Context, bidderID, auctionID string, amount float64) (*domain.Bid, error)
}

// inboundMessage is a client frame. Fields beyond action are optional
// depending on the action.
type inboundMessage struct {
	Action    string  `json:"action"`
	AuctionID string  `json:"auctionId"`
	BidderID  string  `json:"bidderId"`
	Amount    float64 `json:"amount"`
}

type actionFunc func(ctx context.Context, conn *Connection, msg *inboundMessage)

// Handler upgrades client connections and routes their frames through a
// static action table built and validated at startup.
type Handler struct {
	bids    bidPlacer
	rooms   *RoomManager
	actions map[string]actionFunc
	log     logger.Logger
}

func NewHandler(bids bidPlacer, rooms *RoomManager, log logger.Logger) (*Handler, error) {
	h := &Handler{
		bids:  bids,
		rooms: rooms,
		log:   log,
	}

	h.actions = map[string]actionFunc{
		"joinAuction":    h.handleJoinAuction,
		"leaveAuction":   h.handleLeaveAuction,
		"joinDashboard":  h.handleJoinDashboard,
		"leaveDashboard": h.handleLeaveDashboard,
		"placeBid":       h.handlePlaceBid,
		"ping":           h.handlePing,
	}
	for action, fn := range h.actions {
		if fn == nil {
			return nil, fmt.Errorf("no handler bound for action %q", action)
		}
	}

	return h, nil
}

func (h *Handler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	clientID := r.URL.Query().Get("client_id")
	if clientID == "" {
		clientID = utils.GenerateID("client")
	}

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("Failed to upgrade connection", "error", err)
		return
	}

	conn := NewConnection(wsConn, clientID)
	h.log.Info("Client connected", "client_id", clientID)

	// The request context dies when this handler returns, so the connection
	// gets its own, cancelled when the read loop exits.
	ctx, cancel := context.WithCancel(context.Background())
	go h.readLoop(ctx, cancel, conn)
}

func (h *Handler) readLoop(ctx context.Context, cancel context.CancelFunc, conn *Connection) {
	defer func() {
		cancel()
		h.rooms.LeaveAll(conn)
		conn.Close()
		h.log.Info("Client disconnected", "client_id", conn.ClientID())
	}()

	for {
		var msg inboundMessage
		if err := conn.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Error("Failed to read client frame", "client_id", conn.ClientID(), "error", err)
			}
			return
		}

		action, ok := h.actions[msg.Action]
		if !ok {
			conn.Send(domain.EventBidError, map[string]string{
				"message": fmt.Sprintf("unknown action %q", msg.Action),
			})
			continue
		}
		action(ctx, conn, &msg)
	}
}

func (h *Handler) handleJoinAuction(_ context.Context, conn *Connection, msg *inboundMessage) {
	if msg.AuctionID == "" {
		conn.Send(domain.EventBidError, map[string]string{"message": "auctionId required"})
		return
	}
	h.rooms.Join(domain.AuctionRoom(msg.AuctionID), conn)
}

func (h *Handler) handleLeaveAuction(_ context.Context, conn *Connection, msg *inboundMessage) {
	if msg.AuctionID == "" {
		return
	}
	h.rooms.Leave(domain.AuctionRoom(msg.AuctionID), conn)
}

func (h *Handler) handleJoinDashboard(_ context.Context, conn *Connection, _ *inboundMessage) {
	h.rooms.Join(domain.DashboardRoom, conn)
}

func (h *Handler) handleLeaveDashboard(_ context.Context, conn *Connection, _ *inboundMessage) {
	h.rooms.Leave(domain.DashboardRoom, conn)
}

func (h *Handler) handlePing(_ context.Context, conn *Connection, _ *inboundMessage) {
	conn.Send("pong", nil)
}

// handlePlaceBid validates the frame, then runs the store call off the read
// loop: a bid queueing on a contended auction must not stall the connection,
// and the connection context cancels it if the client disconnects while it
// is in flight.
func (h *Handler) handlePlaceBid(ctx context.Context, conn *Connection, msg *inboundMessage) {
	if msg.Amount <= 0 || math.IsInf(msg.Amount, 0) || math.IsNaN(msg.Amount) {
		conn.Send(domain.EventBidError, map[string]interface{}{
			"message":   domain.ErrInvalidAmount.Error(),
			"auctionId": msg.AuctionID,
		})
		return
	}

	go func() {
		bid, err := h.bids.PlaceBid(ctx, msg.BidderID, msg.AuctionID, msg.Amount)
		if err != nil {
			conn.Send(domain.EventBidError, map[string]interface{}{
				"message":   err.Error(),
				"auctionId": msg.AuctionID,
			})
			return
		}

		conn.Send(domain.EventBidSuccess, map[string]interface{}{
			"message": "Bid placed successfully",
			"bid":     bid,
		})
	}()
}
