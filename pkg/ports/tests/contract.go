package tests

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/grasp/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	deliveryTimeout = 2 * time.Second
	silenceWindow   = 200 * time.Millisecond
)

// RunBusContract is a reusable test suite that verifies if an adapter complies with ports.Bus.
// The bus must be connected and ready; the suite does not close it.
func RunBusContract(t *testing.T, bus ports.Bus) {
	t.Helper()
	ctx := context.Background()

	t.Run("Publish_Delivers", func(t *testing.T) {
		received, unsubscribe := collect(t, bus, "contract/deliver")
		defer func() { _ = unsubscribe() }()

		require.NoError(t, bus.Publish(ctx, "contract/deliver", []byte("hello")))

		msg := waitFor(t, received)
		assert.Equal(t, "contract/deliver", msg.Topic)
		assert.Equal(t, "hello", string(msg.Payload))
	})

	t.Run("Preserves_Order", func(t *testing.T) {
		received, unsubscribe := collect(t, bus, "contract/order")
		defer func() { _ = unsubscribe() }()

		for _, p := range []string{"1", "2", "3"} {
			require.NoError(t, bus.Publish(ctx, "contract/order", []byte(p)))
		}

		var got []string
		for range 3 {
			got = append(got, string(waitFor(t, received).Payload))
		}
		assert.Equal(t, []string{"1", "2", "3"}, got)
	})

	t.Run("Topic_Isolation", func(t *testing.T) {
		received, unsubscribe := collect(t, bus, "contract/a")
		defer func() { _ = unsubscribe() }()

		require.NoError(t, bus.Publish(ctx, "contract/b", []byte("other")))
		assertSilent(t, received)
	})

	t.Run("Empty_Payload", func(t *testing.T) {
		received, unsubscribe := collect(t, bus, "contract/empty")
		defer func() { _ = unsubscribe() }()

		require.NoError(t, bus.Publish(ctx, "contract/empty", []byte{}))
		msg := waitFor(t, received)
		assert.Empty(t, msg.Payload)
	})

	t.Run("Unsubscribe_Stops_Delivery", func(t *testing.T) {
		received, unsubscribe := collect(t, bus, "contract/unsub")
		require.NoError(t, unsubscribe())

		require.NoError(t, bus.Publish(ctx, "contract/unsub", []byte("late")))
		assertSilent(t, received)
	})
}

func collect(t *testing.T, bus ports.Bus, topic string) (<-chan ports.Message, ports.Unsubscribe) {
	t.Helper()
	ch := make(chan ports.Message, 16)
	unsubscribe, err := bus.Subscribe(context.Background(), topic, func(_ context.Context, msg ports.Message) {
		ch <- msg
	})
	require.NoError(t, err, "Subscribe should not return error")
	return ch, unsubscribe
}

func waitFor(t *testing.T, ch <-chan ports.Message) ports.Message {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(deliveryTimeout):
		t.Fatal("timed out waiting for message")
		return ports.Message{}
	}
}

func assertSilent(t *testing.T, ch <-chan ports.Message) {
	t.Helper()
	select {
	case msg := <-ch:
		t.Errorf("unexpected message on %s: %q", msg.Topic, msg.Payload)
	case <-time.After(silenceWindow):
	}
}
