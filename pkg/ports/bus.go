package ports

import "context"

// Message is a payload received on a topic.
type Message struct {
	Topic   string
	Payload []byte
}

// Handler consumes messages delivered by a Subscriber.
// Implementations must not block for long: adapters may call it from their receive loop.
type Handler func(ctx context.Context, msg Message)

// Unsubscribe stops delivery for a subscription.
type Unsubscribe func() error

// Publisher sends payloads to topics.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
}

// Subscriber registers handlers for topics.
type Subscriber interface {
	// Subscribe starts delivering messages for topic to h.
	// When Subscribe returns without error the subscription is active:
	// a message published afterwards is delivered.
	Subscribe(ctx context.Context, topic string, h Handler) (Unsubscribe, error)
}

// Pinger is implemented by transports that can report whether their broker is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Bus is a bidirectional message transport.
type Bus interface {
	Publisher
	Subscriber
	Close() error
}
