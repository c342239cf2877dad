package redis

import (
	"context"

	"github.com/orbit-hub/orbit-student-hub/internal/infrastructure/messaging"
)

// ══════════════════════════════════════════════════════════════════════════════
// EVENT BUS ADAPTER
// ══════════════════════════════════════════════════════════════════════════════

// BusAdapter exposes the Cache's pub/sub operations through the narrow
// client interface the distributed event bus consumes.
type BusAdapter struct {
	cache *Cache
}

// NewBusAdapter wraps a Cache for use by the event bus.
func NewBusAdapter(cache *Cache) *BusAdapter {
	return &BusAdapter{cache: cache}
}

// Publish publishes a message to a channel.
func (a *BusAdapter) Publish(ctx context.Context, channel string, message interface{}) error {
	return a.cache.Publish(ctx, channel, message)
}

// Subscribe subscribes to channels and pumps received messages into a
// channel of bus messages. The pump goroutine exits when the context is
// cancelled or the underlying subscription closes.
func (a *BusAdapter) Subscribe(ctx context.Context, channels ...string) (<-chan messaging.RedisMessage, error) {
	pubsub := a.cache.Subscribe(ctx, channels...)

	// Force the subscription to be established before returning, so
	// callers don't miss messages published right after Subscribe.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	out := make(chan messaging.RedisMessage)
	go func() {
		defer close(out)
		defer pubsub.Close()

		in := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-in:
				if !ok {
					return
				}
				select {
				case out <- messaging.RedisMessage{Channel: msg.Channel, Payload: msg.Payload}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// Close closes the underlying Redis connection.
func (a *BusAdapter) Close() error {
	return a.cache.Close()
}
