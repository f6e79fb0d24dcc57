package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/grasp/internal/logging"
	"github.com/aretw0/grasp/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces every channel the bus touches.
const DefaultPrefix = "grasp:"

// ErrClosed is returned by operations on a closed bus.
var ErrClosed = errors.New("redis bus closed")

// Bus implements ports.Bus on top of Redis Pub/Sub.
// Topics are mapped to Redis channels as prefix+topic.
type Bus struct {
	client *backend.Client
	prefix string
	logger *slog.Logger
	owned  bool // client was created by New and is closed with the bus

	mu     sync.Mutex
	subs   map[*backend.PubSub]context.CancelFunc
	wg     sync.WaitGroup
	closed bool
}

var _ ports.Pinger = (*Bus)(nil)

type Option func(*Bus)

// WithPrefix sets the channel prefix.
func WithPrefix(prefix string) Option {
	return func(b *Bus) {
		b.prefix = prefix
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bus) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// New creates a new Redis bus with its own client.
func New(address, password string, db int, opts ...Option) *Bus {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})

	bus := NewFromClient(rdb, opts...)
	bus.owned = true
	return bus
}

// NewFromClient creates a new Redis bus from an existing client.
// The client is not closed by Close.
func NewFromClient(client *backend.Client, opts ...Option) *Bus {
	bus := &Bus{
		client: client,
		prefix: DefaultPrefix,
		logger: logging.NewNop(),
		subs:   make(map[*backend.PubSub]context.CancelFunc),
	}

	for _, opt := range opts {
		opt(bus)
	}

	return bus
}

func (b *Bus) channel(topic string) string {
	return b.prefix + topic
}

// Ping checks connectivity with the server.
func (b *Bus) Ping(ctx context.Context) error {
	if err := b.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Publish sends payload to the Redis channel of topic.
func (b *Bus) Publish(ctx context.Context, topic string, payload []byte) error {
	if b.isClosed() {
		return ErrClosed
	}
	if err := b.client.Publish(ctx, b.channel(topic), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish to redis: %w", err)
	}
	return nil
}

// Subscribe listens on the Redis channel of topic.
// It returns after the server has confirmed the subscription.
func (b *Bus) Subscribe(ctx context.Context, topic string, h ports.Handler) (ports.Unsubscribe, error) {
	if b.isClosed() {
		return nil, ErrClosed
	}

	ps := b.client.Subscribe(ctx, b.channel(topic))

	// 1. Wait for the subscription confirmation so early publishes are not lost
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}

	// 2. Register, so Close can stop it
	subCtx, cancel := context.WithCancel(context.Background())
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		cancel()
		_ = ps.Close()
		return nil, ErrClosed
	}
	b.subs[ps] = cancel
	b.mu.Unlock()

	// 3. Deliver in order on a dedicated goroutine
	messages := ps.Channel()
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				h(subCtx, ports.Message{Topic: topic, Payload: []byte(msg.Payload)})
			}
		}
	}()

	var once sync.Once
	return func() error {
		var err error
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ps)
			b.mu.Unlock()

			cancel()
			err = ps.Close()
		})
		return err
	}, nil
}

// Close stops every subscription and, if the bus created it, the client.
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	subs := b.subs
	b.subs = make(map[*backend.PubSub]context.CancelFunc)
	b.mu.Unlock()

	var errs []error
	for ps, cancel := range subs {
		cancel()
		if err := ps.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	b.wg.Wait()

	if b.owned {
		if err := b.client.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		b.logger.Warn("Errors while closing redis bus", "count", len(errs))
	}
	return errors.Join(errs...)
}

func (b *Bus) isClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}
