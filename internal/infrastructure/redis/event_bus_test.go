package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"

	"live-auction/internal/domain"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Fatal(string, ...interface{}) {}

func noopHandler([]byte) error { return nil }

// unreachableClient points at a port nothing listens on, with a short dial
// timeout so retry tests stay fast.
func unreachableClient() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
}

func TestEventSubscriber_HandleRegistration(t *testing.T) {
	sub := NewEventSubscriber(unreachableClient(), 1, time.Millisecond, nopLogger{})

	require.NoError(t, sub.Handle(domain.ChannelBidPlaced, noopHandler))
	require.Error(t, sub.Handle(domain.ChannelBidPlaced, noopHandler), "duplicate channel")
	require.Error(t, sub.Handle(domain.ChannelAuctionUpdated, nil), "nil handler")
}

func TestEventSubscriber_StartWithoutHandlersFails(t *testing.T) {
	sub := NewEventSubscriber(unreachableClient(), 1, time.Millisecond, nopLogger{})
	require.Error(t, sub.Start(context.Background()))
}

func TestEventSubscriber_StartExhaustsAttempts(t *testing.T) {
	sub := NewEventSubscriber(unreachableClient(), 3, time.Millisecond, nopLogger{})
	require.NoError(t, sub.Handle(domain.ChannelBidPlaced, noopHandler))

	err := sub.Start(context.Background())
	require.ErrorIs(t, err, domain.ErrBusUnavailable)
	require.Contains(t, err.Error(), "after 3 attempts")
}

func TestEventSubscriber_NoRegistrationAfterStart(t *testing.T) {
	sub := NewEventSubscriber(unreachableClient(), 1, time.Millisecond, nopLogger{})
	require.NoError(t, sub.Handle(domain.ChannelBidPlaced, noopHandler))

	require.Error(t, sub.Start(context.Background()))
	require.Error(t, sub.Handle(domain.ChannelAuctionEnded, noopHandler))
}

func TestEventSubscriber_StartHonorsContextCancellation(t *testing.T) {
	sub := NewEventSubscriber(unreachableClient(), 10, time.Minute, nopLogger{})
	require.NoError(t, sub.Handle(domain.ChannelBidPlaced, noopHandler))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := sub.Start(ctx)
	require.ErrorIs(t, err, context.Canceled)
	// Cancellation cuts the backoff short instead of waiting the full minute.
	require.Less(t, time.Since(start), 10*time.Second)
}

func TestEventBus_PublishReachesSubscriber(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	received := make(chan []byte, 1)
	sub := NewEventSubscriber(client, 1, time.Millisecond, nopLogger{})
	require.NoError(t, sub.Handle(domain.ChannelBidPlaced, func(payload []byte) error {
		received <- payload
		return nil
	}))
	require.NoError(t, sub.Start(ctx))
	t.Cleanup(func() { sub.Close() })

	pub := NewEventPublisher(client)
	require.NoError(t, pub.Publish(ctx, domain.ChannelBidPlaced,
		&domain.BidPlacedMessage{AuctionID: "auction-1", NewHighestBid: 60, InstanceID: "instance-a"}))

	select {
	case payload := <-received:
		require.Contains(t, string(payload), `"auction-1"`)
	case <-time.After(2 * time.Second):
		t.Fatal("published message never reached the handler")
	}
}

func TestEventSubscriber_DispatchRoutesByChannel(t *testing.T) {
	sub := NewEventSubscriber(unreachableClient(), 1, time.Millisecond, nopLogger{})

	var got []byte
	require.NoError(t, sub.Handle(domain.ChannelBidPlaced, func(payload []byte) error {
		got = payload
		return nil
	}))

	sub.dispatch(&redis.Message{Channel: domain.ChannelBidPlaced, Payload: `{"auctionId":"a1"}`})
	require.JSONEq(t, `{"auctionId":"a1"}`, string(got))

	// Unknown channels and handler errors are logged, not fatal.
	sub.dispatch(&redis.Message{Channel: "auction:unknown", Payload: "{}"})
}

func TestEventSubscriber_DispatchRecoversFromHandlerPanic(t *testing.T) {
	sub := NewEventSubscriber(unreachableClient(), 1, time.Millisecond, nopLogger{})
	require.NoError(t, sub.Handle(domain.ChannelBidPlaced, func([]byte) error {
		panic("handler bug")
	}))

	require.NotPanics(t, func() {
		sub.dispatch(&redis.Message{Channel: domain.ChannelBidPlaced, Payload: "{}"})
	})
}

func TestEventSubscriber_DispatchSurvivesHandlerError(t *testing.T) {
	sub := NewEventSubscriber(unreachableClient(), 1, time.Millisecond, nopLogger{})
	require.NoError(t, sub.Handle(domain.ChannelBidPlaced, func([]byte) error {
		return errors.New("bad payload")
	}))

	require.NotPanics(t, func() {
		sub.dispatch(&redis.Message{Channel: domain.ChannelBidPlaced, Payload: "{}"})
	})
}
