package observability

import (
	"context"
	"log/slog"
	"sync"

	"github.com/aretw0/grasp/internal/logging"
	"github.com/aretw0/grasp/pkg/domain"
)

// Tap broadcasts published notifications to in-process subscribers.
// Slow subscribers lose events rather than stall the dispatcher.
type Tap struct {
	mu          sync.RWMutex
	subscribers map[chan domain.NotificationEvent]struct{}
	buffer      int
	logger      *slog.Logger
}

// NewTap creates a tap whose subscriber channels hold buffer events.
func NewTap(buffer int, logger *slog.Logger) *Tap {
	if buffer <= 0 {
		buffer = 16
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Tap{
		subscribers: make(map[chan domain.NotificationEvent]struct{}),
		buffer:      buffer,
		logger:      logger,
	}
}

// Subscribe returns a channel of events and a cancel function that closes it.
func (t *Tap) Subscribe() (<-chan domain.NotificationEvent, func()) {
	ch := make(chan domain.NotificationEvent, t.buffer)

	t.mu.Lock()
	t.subscribers[ch] = struct{}{}
	t.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			delete(t.subscribers, ch)
			close(ch)
		})
	}
}

// Broadcast delivers e to every subscriber without blocking.
func (t *Tap) Broadcast(e domain.NotificationEvent) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for ch := range t.subscribers {
		select {
		case ch <- e:
		default:
			t.logger.Warn("Tap: subscriber buffer full, dropping notification", "topic", e.Topic)
		}
	}
}

// Hooks returns lifecycle hooks that feed the tap. Failed publishes are not broadcast.
func (t *Tap) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNotification: func(_ context.Context, e *domain.NotificationEvent) {
			if e.Err == nil {
				t.Broadcast(*e)
			}
		},
	}
}
