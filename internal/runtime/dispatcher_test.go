package runtime_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/grasp/internal/logging"
	"github.com/aretw0/grasp/internal/runtime"
	"github.com/aretw0/grasp/pkg/domain"
	"github.com/aretw0/grasp/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	topic string
	text  string
}

// recorder is a ports.Publisher that remembers everything.
type recorder struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (r *recorder) Publish(_ context.Context, topic string, payload []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.msgs = append(r.msgs, published{topic: topic, text: string(payload)})
	return nil
}

func (r *recorder) all() []published {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]published(nil), r.msgs...)
}

func startDispatcher(t *testing.T, pub ports.Publisher, opts ...runtime.Option) *runtime.Dispatcher {
	t.Helper()
	d := runtime.NewDispatcher(pub, opts...)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Error("dispatcher did not stop")
		}
	})
	return d
}

func TestDispatcher_PickAndHandoff(t *testing.T) {
	rec := &recorder{}
	d := startDispatcher(t, rec)
	ctx := context.Background()

	res, err := d.Submit(ctx, domain.Pick{Label: "apple"})
	require.NoError(t, err)
	assert.Equal(t, domain.KindPick, res.Command)
	assert.Equal(t, domain.Holding("apple"), res.State)
	assert.Equal(t, domain.Holding("apple"), d.State())

	res, err = d.Submit(ctx, domain.Handoff{})
	require.NoError(t, err)
	assert.True(t, res.Succeeded())
	assert.True(t, d.State().IsEmpty())

	assert.Equal(t, []published{
		{"/manipulation/feedback", "success true; status_code 0; message: Successfully picked apple"},
		{"/manipulation/object_acquired", "success true; status_code 0; message: Object apple acquired"},
		{"/manipulation/feedback", "success true; status_code 0; message: Successfully handed off apple"},
		{"/manipulation/handoff_complete", "success true; status_code 0; message: Handoff of apple complete"},
	}, rec.all())
}

func TestDispatcher_HandoffOnFreshNode(t *testing.T) {
	rec := &recorder{}
	var logs bytes.Buffer
	d := startDispatcher(t, rec, runtime.WithLogger(logging.NewWithWriter(&logs, slog.LevelDebug, logging.FormatText)))

	res, err := d.Submit(context.Background(), domain.Handoff{})
	assert.ErrorIs(t, err, domain.ErrNotHolding)
	assert.False(t, res.Succeeded())
	assert.True(t, d.State().IsEmpty())

	assert.Equal(t, []published{
		{"/manipulation/feedback", "success false; status_code 1; message: No object to hand off"},
	}, rec.all())
	assert.Contains(t, logs.String(), "level=ERROR")
	assert.Contains(t, logs.String(), "topic=/manipulation/feedback")

	// The node keeps serving.
	_, err = d.Submit(context.Background(), domain.Pick{Label: "pear"})
	assert.NoError(t, err)
}

func TestDispatcher_CustomTopics(t *testing.T) {
	rec := &recorder{}
	d := startDispatcher(t, rec, runtime.WithTopics(ports.Topics{Feedback: "arm/status"}))

	_, err := d.Submit(context.Background(), domain.Pick{Label: "apple"})
	require.NoError(t, err)

	msgs := rec.all()
	require.Len(t, msgs, 2)
	assert.Equal(t, "arm/status", msgs[0].topic)
	assert.Equal(t, "/manipulation/object_acquired", msgs[1].topic)
}

func TestDispatcher_PublishFailureIsNotFatal(t *testing.T) {
	rec := &recorder{err: errors.New("broker down")}
	var failures int
	hooks := domain.LifecycleHooks{
		OnNotification: func(_ context.Context, e *domain.NotificationEvent) {
			if e.Err != nil {
				failures++
			}
		},
	}
	d := startDispatcher(t, rec, runtime.WithLifecycleHooks(hooks))

	res, err := d.Submit(context.Background(), domain.Pick{Label: "apple"})
	require.NoError(t, err)
	assert.Equal(t, domain.Holding("apple"), res.State)
	assert.Equal(t, 2, failures)
}

func TestDispatcher_Hooks(t *testing.T) {
	var events []domain.EventType
	hooks := domain.LifecycleHooks{
		OnCommand:      func(_ context.Context, e *domain.CommandEvent) { events = append(events, e.Type) },
		OnTransition:   func(_ context.Context, e *domain.TransitionEvent) { events = append(events, e.Type) },
		OnNotification: func(_ context.Context, e *domain.NotificationEvent) { events = append(events, e.Type) },
	}
	d := startDispatcher(t, &recorder{}, runtime.WithLifecycleHooks(hooks))

	_, err := d.Submit(context.Background(), domain.Pick{Label: "apple"})
	require.NoError(t, err)
	// Same label again: no transition.
	_, err = d.Submit(context.Background(), domain.Pick{Label: "apple"})
	require.NoError(t, err)

	assert.Equal(t, []domain.EventType{
		domain.EventTransition, domain.EventNotification, domain.EventNotification, domain.EventCommand,
		domain.EventNotification, domain.EventNotification, domain.EventCommand,
	}, events)
}

func TestDispatcher_RejectsEmptyLabel(t *testing.T) {
	rec := &recorder{}
	d := startDispatcher(t, rec)

	_, err := d.Submit(context.Background(), domain.Pick{})
	assert.ErrorIs(t, err, domain.ErrEmptyLabel)
	assert.ErrorIs(t, d.Enqueue(context.Background(), domain.Pick{}), domain.ErrEmptyLabel)
	assert.Empty(t, rec.all())

	_, err = d.Submit(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrUnknownCommand)
}

func TestDispatcher_Enqueue_IsSerialized(t *testing.T) {
	rec := &recorder{}
	d := startDispatcher(t, rec)
	ctx := context.Background()

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, d.Enqueue(ctx, domain.Pick{Label: "apple"}))
			assert.NoError(t, d.Enqueue(ctx, domain.Handoff{}))
		}()
	}
	wg.Wait()

	// Submit is ordered after every enqueued command.
	_, _ = d.Submit(ctx, domain.Pick{Label: "last"})
	assert.Equal(t, domain.Holding("last"), d.State())

	// Every command produced its notifications atomically: each pick emits
	// feedback immediately followed by object_acquired.
	msgs := rec.all()
	for i, m := range msgs {
		if m.topic == "/manipulation/object_acquired" {
			require.Greater(t, i, 0)
			assert.Contains(t, msgs[i-1].text, "Successfully picked")
		}
	}
}

func TestDispatcher_Stopped(t *testing.T) {
	d := runtime.NewDispatcher(&recorder{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, d.Run(ctx))

	_, err := d.Submit(context.Background(), domain.Handoff{})
	assert.ErrorIs(t, err, domain.ErrNodeStopped)
	assert.ErrorIs(t, d.Enqueue(context.Background(), domain.Handoff{}), domain.ErrNodeStopped)
}

func TestDispatcher_SubmitHonoursContext(t *testing.T) {
	// Never started: the inbox fills and Submit must give up with the context.
	d := runtime.NewDispatcher(&recorder{}, runtime.WithInboxSize(1))
	require.NoError(t, d.Enqueue(context.Background(), domain.Handoff{}))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := d.Submit(ctx, domain.Handoff{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
