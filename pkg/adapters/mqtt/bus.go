package mqtt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/grasp/internal/logging"
	"github.com/aretw0/grasp/pkg/ports"
	MQTT "github.com/eclipse/paho.mqtt.golang"
)

// ErrClosed is returned by operations on a closed bus.
var ErrClosed = errors.New("mqtt bus closed")

// ErrNotConnected is returned when the broker connection is down.
var ErrNotConnected = errors.New("mqtt client not connected")

// Config describes the broker connection used by New.
type Config struct {
	Broker         string
	ClientID       string
	Username       string
	Password       string
	QoS            byte
	ConnectTimeout time.Duration
}

type subscription struct {
	id      uint64
	handler ports.Handler
}

// Bus implements ports.Bus over an MQTT broker.
// Topics are used verbatim as MQTT topic names; wildcards are not supported.
// Messages from the broker are handed to handlers on a single goroutine, in arrival order.
type Bus struct {
	client MQTT.Client
	qos    byte
	logger *slog.Logger
	owned  bool

	mu     sync.Mutex
	subs   map[string][]subscription
	nextID uint64
	closed bool

	deliveries chan ports.Message
	done       chan struct{}
	wg         sync.WaitGroup
}

var _ ports.Pinger = (*Bus)(nil)

type Option func(*Bus)

// WithQoS sets the quality of service for publishes and subscriptions.
func WithQoS(qos byte) Option {
	return func(b *Bus) {
		b.qos = qos
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

// New connects to the broker described by cfg.
// Subscriptions survive reconnects: they are re-issued on every successful connect.
func New(cfg Config, opts ...Option) (*Bus, error) {
	if cfg.Broker == "" {
		return nil, fmt.Errorf("mqtt broker URL is required")
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}

	bus := newBus(append([]Option{WithQoS(cfg.QoS)}, opts...)...)
	bus.owned = true

	clientOpts := MQTT.NewClientOptions()
	clientOpts.AddBroker(cfg.Broker)
	clientOpts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		clientOpts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		clientOpts.SetPassword(cfg.Password)
	}
	clientOpts.SetAutoReconnect(true)
	clientOpts.SetOrderMatters(true)
	clientOpts.SetOnConnectHandler(bus.onConnect)
	clientOpts.SetConnectionLostHandler(bus.onConnectionLost)

	bus.client = MQTT.NewClient(clientOpts)
	token := bus.client.Connect()
	if !token.WaitTimeout(cfg.ConnectTimeout) {
		bus.stop()
		return nil, fmt.Errorf("timed out connecting to %s", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		bus.stop()
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Broker, err)
	}

	return bus, nil
}

// NewFromClient wraps an already connected client. The client is not disconnected by Close.
func NewFromClient(client MQTT.Client, opts ...Option) *Bus {
	bus := newBus(opts...)
	bus.client = client
	return bus
}

func newBus(opts ...Option) *Bus {
	bus := &Bus{
		qos:        1,
		logger:     logging.NewNop(),
		subs:       make(map[string][]subscription),
		deliveries: make(chan ports.Message, 256),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(bus)
	}

	bus.wg.Add(1)
	go bus.deliver()
	return bus
}

// Ping reports whether the client currently holds a broker connection.
func (b *Bus) Ping(ctx context.Context) error {
	if b.isClosed() {
		return ErrClosed
	}
	if !b.client.IsConnected() {
		return ErrNotConnected
	}
	return nil
}

// Publish sends payload to topic and waits for the broker acknowledgement (QoS > 0).
func (b *Bus) Publish(ctx context.Context, topic string, payload []byte) error {
	if b.isClosed() {
		return ErrClosed
	}
	if !b.client.IsConnected() {
		return ErrNotConnected
	}
	if err := wait(ctx, b.client.Publish(topic, b.qos, false, payload)); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	return nil
}

// Subscribe registers h for topic. The broker subscription is shared by all
// handlers of the same topic and dropped with the last one.
func (b *Bus) Subscribe(ctx context.Context, topic string, h ports.Handler) (ports.Unsubscribe, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}

	if len(b.subs[topic]) == 0 {
		if err := wait(ctx, b.client.Subscribe(topic, b.qos, b.onMessage)); err != nil {
			return nil, fmt.Errorf("failed to subscribe to %s: %w", topic, err)
		}
	}

	b.nextID++
	id := b.nextID
	b.subs[topic] = append(b.subs[topic], subscription{id: id, handler: h})

	var once sync.Once
	return func() error {
		var err error
		once.Do(func() {
			err = b.unsubscribe(topic, id)
		})
		return err
	}, nil
}

func (b *Bus) unsubscribe(topic string, id uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[topic]
	for i, s := range subs {
		if s.id == id {
			b.subs[topic] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(b.subs[topic]) > 0 {
		return nil
	}
	delete(b.subs, topic)

	if b.closed || !b.client.IsConnected() {
		return nil
	}
	token := b.client.Unsubscribe(topic)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("timed out unsubscribing from %s", topic)
	}
	return token.Error()
}

// Close stops delivery and, if the bus created the client, disconnects it.
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.subs = make(map[string][]subscription)
	b.mu.Unlock()

	b.stop()

	if b.owned {
		b.client.Disconnect(250)
	}
	return nil
}

func (b *Bus) stop() {
	close(b.done)
	b.wg.Wait()
}

func (b *Bus) isClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// onMessage runs on the paho router goroutine; it only queues.
func (b *Bus) onMessage(_ MQTT.Client, m MQTT.Message) {
	msg := ports.Message{
		Topic:   m.Topic(),
		Payload: append([]byte{}, m.Payload()...),
	}
	select {
	case b.deliveries <- msg:
	case <-b.done:
	}
}

func (b *Bus) deliver() {
	defer b.wg.Done()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for {
		select {
		case <-b.done:
			return
		case msg := <-b.deliveries:
			b.mu.Lock()
			subs := append([]subscription(nil), b.subs[msg.Topic]...)
			b.mu.Unlock()

			for _, s := range subs {
				s.handler(ctx, msg)
			}
		}
	}
}

func (b *Bus) onConnect(c MQTT.Client) {
	reader := c.OptionsReader()
	b.logger.Info("Connected to MQTT broker", "client_id", reader.ClientID())

	b.mu.Lock()
	topics := make([]string, 0, len(b.subs))
	for topic := range b.subs {
		topics = append(topics, topic)
	}
	b.mu.Unlock()

	// Required to re-subscribe when the session is clean.
	for _, topic := range topics {
		token := c.Subscribe(topic, b.qos, b.onMessage)
		go func(topic string) {
			if token.WaitTimeout(10*time.Second) && token.Error() != nil {
				b.logger.Error("Failed to re-subscribe", "topic", topic, "err", token.Error())
			}
		}(topic)
	}
}

func (b *Bus) onConnectionLost(c MQTT.Client, err error) {
	reader := c.OptionsReader()
	b.logger.Warn("Connection to MQTT broker lost", "client_id", reader.ClientID(), "err", err)
}

// wait blocks until the token completes or ctx is done.
func wait(ctx context.Context, token MQTT.Token) error {
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}
