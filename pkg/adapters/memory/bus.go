package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/aretw0/grasp/pkg/ports"
)

// ErrClosed is returned by operations on a closed bus.
var ErrClosed = errors.New("memory bus closed")

type subscription struct {
	id      uint64
	handler ports.Handler
}

// Bus implements ports.Bus in process.
// Publish delivers synchronously, in subscription order, on the caller's goroutine,
// so a publisher observes every handler having run when Publish returns.
// Safe for concurrent use.
type Bus struct {
	mu     sync.RWMutex
	subs   map[string][]subscription
	nextID uint64
	closed bool
}

// NewBus creates an empty in-memory bus.
func NewBus() *Bus {
	return &Bus{
		subs: make(map[string][]subscription),
	}
}

// Publish delivers payload to every handler subscribed to topic.
// Handlers receive their own copy of the payload.
func (b *Bus) Publish(ctx context.Context, topic string, payload []byte) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrClosed
	}
	// Copy so handlers may subscribe or unsubscribe without deadlocking.
	subs := append([]subscription(nil), b.subs[topic]...)
	b.mu.RUnlock()

	for _, s := range subs {
		if err := ctx.Err(); err != nil {
			return err
		}
		data := append([]byte{}, payload...)
		s.handler(ctx, ports.Message{Topic: topic, Payload: data})
	}
	return nil
}

// Subscribe registers h for topic.
func (b *Bus) Subscribe(ctx context.Context, topic string, h ports.Handler) (ports.Unsubscribe, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}

	b.nextID++
	id := b.nextID
	b.subs[topic] = append(b.subs[topic], subscription{id: id, handler: h})

	return func() error {
		b.mu.Lock()
		defer b.mu.Unlock()

		subs := b.subs[topic]
		for i, s := range subs {
			if s.id == id {
				b.subs[topic] = append(subs[:i:i], subs[i+1:]...)
				break
			}
		}
		if len(b.subs[topic]) == 0 {
			delete(b.subs, topic)
		}
		return nil
	}, nil
}

// Close drops all subscriptions. Further Publish and Subscribe calls fail with ErrClosed.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.subs = make(map[string][]subscription)
	return nil
}
