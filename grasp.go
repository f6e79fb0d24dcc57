package grasp

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/grasp/internal/logging"
	"github.com/aretw0/grasp/internal/runtime"
	"github.com/aretw0/grasp/pkg/adapters/memory"
	"github.com/aretw0/grasp/pkg/domain"
	"github.com/aretw0/grasp/pkg/ports"
	"github.com/aretw0/grasp/pkg/wire"
)

// Node is the high-level entry point of the library.
// It wires a bus to the dispatch loop and exposes a synchronous command API.
type Node struct {
	dispatcher *runtime.Dispatcher
	bus        ports.Bus
	topics     ports.Topics
	hooks      domain.LifecycleHooks
	logger     *slog.Logger
	inboxSize  int
	Name       string

	ready     chan struct{}
	readyOnce sync.Once
}

var _ ports.Commander = (*Node)(nil)

// Option defines a functional option for configuring the Node.
type Option func(*Node)

// WithBus sets the transport. The default is an in-memory bus.
func WithBus(bus ports.Bus) Option {
	return func(n *Node) {
		n.bus = bus
	}
}

// WithTopics overrides the topic layout. Empty fields keep their defaults.
func WithTopics(t ports.Topics) Option {
	return func(n *Node) {
		n.topics = t.WithDefaults()
	}
}

// WithLifecycleHooks registers observability hooks. It may be given more than once.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(n *Node) {
		n.hooks = n.hooks.Merge(hooks)
	}
}

// WithLogger sets a custom structured logger for the node.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Node) {
		n.logger = logger
	}
}

// WithName labels the node in logs.
func WithName(name string) Option {
	return func(n *Node) {
		n.Name = name
	}
}

// WithInboxSize sets how many commands may wait for the dispatch loop.
func WithInboxSize(size int) Option {
	return func(n *Node) {
		n.inboxSize = size
	}
}

// New initializes a manipulation node in the Empty state.
func New(opts ...Option) (*Node, error) {
	n := &Node{
		topics: ports.DefaultTopics(),
		ready:  make(chan struct{}),
	}

	for _, opt := range opts {
		opt(n)
	}

	if n.bus == nil {
		n.bus = memory.NewBus()
	}

	// Ensure logger is initialized (so we don't pass nil to runtime, which would overwrite its default)
	if n.logger == nil {
		n.logger = logging.NewNop()
	}
	if n.Name != "" {
		n.logger = n.logger.With("node", n.Name)
	}

	for _, topic := range []string{n.topics.Pick, n.topics.Handoff} {
		if _, clash := n.topics.ChannelOf(topic); clash {
			return nil, fmt.Errorf("topic %q is used for both commands and notifications", topic)
		}
	}

	n.dispatcher = runtime.NewDispatcher(n.bus,
		runtime.WithTopics(n.topics),
		runtime.WithLifecycleHooks(n.hooks),
		runtime.WithLogger(n.logger),
		runtime.WithInboxSize(n.inboxSize),
	)

	return n, nil
}

// Run subscribes to the command topics and serves until ctx is cancelled.
func (n *Node) Run(ctx context.Context) error {
	unsubPick, err := n.bus.Subscribe(ctx, n.topics.Pick, n.onPick)
	if err != nil {
		return fmt.Errorf("failed to subscribe to pick topic: %w", err)
	}
	defer n.unsubscribe(n.topics.Pick, unsubPick)

	unsubHandoff, err := n.bus.Subscribe(ctx, n.topics.Handoff, n.onHandoff)
	if err != nil {
		return fmt.Errorf("failed to subscribe to handoff topic: %w", err)
	}
	defer n.unsubscribe(n.topics.Handoff, unsubHandoff)

	n.logger.Info("Manipulation node initialised",
		"pick", n.topics.Pick,
		"handoff", n.topics.Handoff,
	)
	n.readyOnce.Do(func() { close(n.ready) })

	return n.dispatcher.Run(ctx)
}

// Ready is closed once Run has subscribed to the command topics.
func (n *Node) Ready() <-chan struct{} {
	return n.ready
}

// Submit applies cmd through the dispatch loop and returns its result.
// A handoff while empty returns the failure result with domain.ErrNotHolding.
func (n *Node) Submit(ctx context.Context, cmd domain.Command) (domain.Result, error) {
	return n.dispatcher.Submit(ctx, cmd)
}

// State returns a snapshot of the hold state.
func (n *Node) State() domain.HoldState {
	return n.dispatcher.State()
}

// Topics returns the topic layout.
func (n *Node) Topics() ports.Topics {
	return n.topics
}

// Bus returns the transport the node runs on.
func (n *Node) Bus() ports.Bus {
	return n.bus
}

func (n *Node) onPick(ctx context.Context, msg ports.Message) {
	pick, err := wire.DecodePick(msg.Payload)
	if err != nil {
		n.logger.Warn("Dropping malformed pick command", "topic", msg.Topic, "err", err)
		return
	}
	if err := n.dispatcher.Enqueue(ctx, pick); err != nil {
		n.logger.Error("Failed to enqueue pick", "label", pick.Label, "err", err)
	}
}

func (n *Node) onHandoff(ctx context.Context, msg ports.Message) {
	if err := n.dispatcher.Enqueue(ctx, domain.Handoff{}); err != nil {
		n.logger.Error("Failed to enqueue handoff", "err", err)
	}
}

func (n *Node) unsubscribe(topic string, unsubscribe ports.Unsubscribe) {
	if err := unsubscribe(); err != nil {
		n.logger.Warn("Failed to unsubscribe", "topic", topic, "err", err)
	}
}
