package messaging

import "context"

// Broker publishes token lifecycle events to downstream consumers
// (dashboard feeds, wallboards). Delivery is best-effort: the poll
// contract remains the source of truth for queue state.
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}
