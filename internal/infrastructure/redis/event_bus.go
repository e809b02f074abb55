package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/go-redis/redis/v8"

	"live-auction/internal/domain"
	"live-auction/pkg/logger"
)

// EventPublisher publishes JSON-encoded envelopes on Redis pub/sub channels.
type EventPublisher struct {
	client *redis.Client
}

func NewEventPublisher(client *redis.Client) *EventPublisher {
	return &EventPublisher{client: client}
}

func (p *EventPublisher) Publish(ctx context.Context, channel string, message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to encode message for %s: %w", channel, err)
	}
	if err := p.client.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish on %s: %w", channel, err)
	}
	return nil
}

// EventSubscriber delivers bus messages to handlers registered per channel.
// Handlers must all be registered before Start. Each Start attempt subscribes
// to every channel with a single SUBSCRIBE command and tears the connection
// down on failure, so a failed attempt never leaves a subset of channels
// wired.
type EventSubscriber struct {
	client   *redis.Client
	handlers map[string]domain.BusHandler
	attempts int
	backoff  time.Duration
	pubsub   *redis.PubSub
	started  bool
	log      logger.Logger
}

func NewEventSubscriber(client *redis.Client, attempts int, backoff time.Duration, log logger.Logger) *EventSubscriber {
	return &EventSubscriber{
		client:   client,
		handlers: make(map[string]domain.BusHandler),
		attempts: attempts,
		backoff:  backoff,
		log:      log,
	}
}

func (s *EventSubscriber) Handle(channel string, handler domain.BusHandler) error {
	if s.started {
		return fmt.Errorf("cannot register handler for %s after Start", channel)
	}
	if handler == nil {
		return fmt.Errorf("nil handler for channel %s", channel)
	}
	if _, exists := s.handlers[channel]; exists {
		return fmt.Errorf("duplicate handler for channel %s", channel)
	}
	s.handlers[channel] = handler
	return nil
}

// Start subscribes to all registered channels, retrying with fixed backoff.
// Exhausting the attempts is a fatal startup condition: the caller must not
// report the instance healthy.
func (s *EventSubscriber) Start(ctx context.Context) error {
	if len(s.handlers) == 0 {
		return fmt.Errorf("no channel handlers registered")
	}
	s.started = true

	channels := make([]string, 0, len(s.handlers))
	for channel := range s.handlers {
		channels = append(channels, channel)
	}
	sort.Strings(channels)

	var lastErr error
	for attempt := 1; attempt <= s.attempts; attempt++ {
		pubsub := s.client.Subscribe(ctx, channels...)
		if _, err := pubsub.Receive(ctx); err != nil {
			pubsub.Close()
			lastErr = err
			s.log.Warn("Bus subscription attempt failed",
				"attempt", attempt, "max_attempts", s.attempts, "error", err)

			select {
			case <-time.After(s.backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}

		s.pubsub = pubsub
		s.log.Info("Subscribed to bus channels", "channels", channels)
		go s.deliver(ctx, pubsub)
		return nil
	}

	return fmt.Errorf("%w: subscription failed after %d attempts: %v",
		domain.ErrBusUnavailable, s.attempts, lastErr)
}

func (s *EventSubscriber) Close() error {
	if s.pubsub != nil {
		return s.pubsub.Close()
	}
	return nil
}

func (s *EventSubscriber) deliver(ctx context.Context, pubsub *redis.PubSub) {
	ch := pubsub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				s.log.Info("Bus subscription channel closed")
				return
			}
			s.dispatch(msg)
		case <-ctx.Done():
			s.log.Info("Bus subscriber stopped")
			return
		}
	}
}

// dispatch invokes the handler for one message. A misbehaving handler must
// not take the whole subscription loop down with it.
func (s *EventSubscriber) dispatch(msg *redis.Message) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("Bus handler panicked", "channel", msg.Channel, "panic", r)
		}
	}()

	handler, ok := s.handlers[msg.Channel]
	if !ok {
		s.log.Warn("No handler for bus channel", "channel", msg.Channel)
		return
	}

	if err := handler([]byte(msg.Payload)); err != nil {
		s.log.Error("Bus handler failed", "channel", msg.Channel, "error", err)
	}
}
