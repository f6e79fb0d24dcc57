package runtime

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/grasp/internal/logging"
	"github.com/aretw0/grasp/pkg/domain"
	"github.com/aretw0/grasp/pkg/ports"
	"github.com/aretw0/grasp/pkg/wire"
)

// DefaultInboxSize is the number of commands that may wait for the dispatch loop.
const DefaultInboxSize = 64

type outcome struct {
	result domain.Result
	err    error
}

type envelope struct {
	cmd   domain.Command
	reply chan outcome // nil for fire-and-forget
}

// Dispatcher owns the hold state and applies commands one at a time.
// Any goroutine may hand it commands; only the Run loop mutates state.
type Dispatcher struct {
	publisher ports.Publisher
	topics    ports.Topics
	hooks     domain.LifecycleHooks
	logger    *slog.Logger

	inbox   chan envelope
	stopped chan struct{} // closed when the loop stops taking commands
	done    chan struct{} // closed once the inbox has been drained
	once    sync.Once
	drained sync.Once

	mu    sync.RWMutex
	state domain.HoldState
}

// Option configures the Dispatcher.
type Option func(*Dispatcher)

// WithTopics sets the topic layout used for outbound notifications.
func WithTopics(t ports.Topics) Option {
	return func(d *Dispatcher) {
		d.topics = t.WithDefaults()
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(d *Dispatcher) {
		d.hooks = hooks
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithInboxSize sets how many commands may queue before senders block.
func WithInboxSize(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.inbox = make(chan envelope, n)
		}
	}
}

// NewDispatcher creates a dispatcher in the Empty state that publishes through p.
func NewDispatcher(p ports.Publisher, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		publisher: p,
		topics:    ports.DefaultTopics(),
		logger:    logging.NewNop(),
		inbox:     make(chan envelope, DefaultInboxSize),
		stopped:   make(chan struct{}),
		done:      make(chan struct{}),
		state:     domain.Empty(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run is the dispatch loop. It returns nil once ctx is cancelled.
// Commands still queued at that point are rejected with domain.ErrNodeStopped.
func (d *Dispatcher) Run(ctx context.Context) error {
	defer d.stop()

	for {
		select {
		case <-ctx.Done():
			d.stop()
			d.drain()
			d.drained.Do(func() { close(d.done) })
			return nil
		case env := <-d.inbox:
			d.handle(ctx, env)
		}
	}
}

// Submit applies cmd and waits for its result.
// A handoff while empty returns the failure result together with domain.ErrNotHolding.
func (d *Dispatcher) Submit(ctx context.Context, cmd domain.Command) (domain.Result, error) {
	if err := domain.Validate(cmd); err != nil {
		return domain.Result{}, err
	}

	env := envelope{cmd: cmd, reply: make(chan outcome, 1)}
	if err := d.send(ctx, env); err != nil {
		return domain.Result{}, err
	}
	return d.await(ctx, env)
}

// await waits for the reply to env. A sender racing the shutdown may land in
// the inbox after it was drained; done releases it.
func (d *Dispatcher) await(ctx context.Context, env envelope) (domain.Result, error) {
	select {
	case out := <-env.reply:
		return out.result, out.err
	case <-d.done:
		select {
		case out := <-env.reply:
			return out.result, out.err
		default:
			return domain.Result{}, domain.ErrNodeStopped
		}
	case <-ctx.Done():
		return domain.Result{}, ctx.Err()
	}
}

// Enqueue hands cmd to the loop without waiting for the result.
// It blocks while the inbox is full.
func (d *Dispatcher) Enqueue(ctx context.Context, cmd domain.Command) error {
	if err := domain.Validate(cmd); err != nil {
		return err
	}
	return d.send(ctx, envelope{cmd: cmd})
}

// State returns a snapshot of the hold state.
func (d *Dispatcher) State() domain.HoldState {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state
}

// Topics returns the topic layout the dispatcher publishes to.
func (d *Dispatcher) Topics() ports.Topics {
	return d.topics
}

func (d *Dispatcher) send(ctx context.Context, env envelope) error {
	select {
	case <-d.stopped:
		return domain.ErrNodeStopped
	default:
	}

	select {
	case d.inbox <- env:
		return nil
	case <-d.stopped:
		return domain.ErrNodeStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) stop() {
	d.once.Do(func() { close(d.stopped) })
}

func (d *Dispatcher) drain() {
	for {
		select {
		case env := <-d.inbox:
			if env.reply != nil {
				env.reply <- outcome{err: domain.ErrNodeStopped}
			}
		default:
			return
		}
	}
}

func (d *Dispatcher) handle(ctx context.Context, env envelope) {
	// The loop owns d.state; reads here need no lock.
	from := d.state

	switch c := env.cmd.(type) {
	case domain.Pick:
		d.logger.Info("Received pick", "label", c.Label)
		if from.Holding && from.Label != c.Label {
			d.logger.Warn("Pick replaces held object", "held", from.Label, "label", c.Label)
		}
	case domain.Handoff:
		d.logger.Info("Received handoff", "state", from.String())
	}

	next, notes, err := Apply(from, env.cmd)
	result := domain.Result{Command: env.cmd.Kind(), State: next, Notifications: notes}

	switch {
	case errors.Is(err, domain.ErrUnknownCommand):
		d.logger.Warn("Dropping command", "err", err)
		result.Command = ""
	case errors.Is(err, domain.ErrNotHolding):
		d.logger.Error("Handoff failed: not holding any object")
	}

	if next != from {
		d.mu.Lock()
		d.state = next
		d.mu.Unlock()

		if d.hooks.OnTransition != nil {
			d.hooks.OnTransition(ctx, &domain.TransitionEvent{
				EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventTransition},
				From:      from,
				To:        next,
			})
		}
	}

	for _, n := range notes {
		d.publish(ctx, n)
	}

	if d.hooks.OnCommand != nil {
		ev := &domain.CommandEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventCommand},
			Kind:      result.Command,
			Err:       err,
		}
		if p, ok := env.cmd.(domain.Pick); ok {
			ev.Label = p.Label
		}
		d.hooks.OnCommand(ctx, ev)
	}

	if env.reply != nil {
		env.reply <- outcome{result: result, err: err}
	}
}

// publish never fails the command: a transport error is logged and reported to hooks.
func (d *Dispatcher) publish(ctx context.Context, n domain.Notification) {
	topic := d.topics.For(n.Channel)
	text := wire.FormatStatus(n)

	err := d.publisher.Publish(ctx, topic, []byte(text))
	if err != nil {
		d.logger.Error("Failed to publish notification", "topic", topic, "err", err)
	} else {
		d.logger.Debug("Published", "topic", topic, "text", text)
	}

	if d.hooks.OnNotification != nil {
		d.hooks.OnNotification(ctx, &domain.NotificationEvent{
			EventBase:    domain.EventBase{Timestamp: time.Now(), Type: domain.EventNotification},
			Notification: n,
			Topic:        topic,
			Text:         text,
			Err:          err,
		})
	}
}
