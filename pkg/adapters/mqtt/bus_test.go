package mqtt_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/grasp/pkg/adapters/mqtt"
	"github.com/aretw0/grasp/pkg/ports"
	"github.com/aretw0/grasp/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMQTTBus_Contract(t *testing.T) {
	bus := mqtt.NewFromClient(newFakeClient())
	defer bus.Close()

	tests.RunBusContract(t, bus)
}

func TestMQTTBus_SharedBrokerSubscription(t *testing.T) {
	client := newFakeClient()
	bus := mqtt.NewFromClient(client)
	defer bus.Close()
	ctx := context.Background()

	noop := func(context.Context, ports.Message) {}
	unsubA, err := bus.Subscribe(ctx, "/manipulation/feedback", noop)
	require.NoError(t, err)
	unsubB, err := bus.Subscribe(ctx, "/manipulation/feedback", noop)
	require.NoError(t, err)

	assert.Equal(t, 1, client.subscribes, "second handler reuses the broker subscription")

	require.NoError(t, unsubA())
	assert.Empty(t, client.unsubscribes)

	require.NoError(t, unsubB())
	assert.Equal(t, []string{"/manipulation/feedback"}, client.unsubscribes)
}

func TestMQTTBus_PublishErrors(t *testing.T) {
	client := newFakeClient()
	bus := mqtt.NewFromClient(client)
	defer bus.Close()
	ctx := context.Background()

	client.publishErr = errors.New("broker rejected")
	err := bus.Publish(ctx, "t", []byte("x"))
	assert.ErrorContains(t, err, "broker rejected")

	client.publishErr = nil
	client.Disconnect(0)
	assert.ErrorIs(t, bus.Publish(ctx, "t", []byte("x")), mqtt.ErrNotConnected)
}

func TestMQTTBus_Ping(t *testing.T) {
	client := newFakeClient()
	bus := mqtt.NewFromClient(client)
	var _ ports.Pinger = bus

	assert.NoError(t, bus.Ping(context.Background()))

	client.Disconnect(0)
	assert.ErrorIs(t, bus.Ping(context.Background()), mqtt.ErrNotConnected)

	require.NoError(t, bus.Close())
	assert.ErrorIs(t, bus.Ping(context.Background()), mqtt.ErrClosed)
}

func TestMQTTBus_Close(t *testing.T) {
	client := newFakeClient()
	bus := mqtt.NewFromClient(client)

	require.NoError(t, bus.Close())
	require.NoError(t, bus.Close())

	assert.True(t, client.IsConnected(), "injected client is left connected")
	assert.ErrorIs(t, bus.Publish(context.Background(), "t", nil), mqtt.ErrClosed)
	_, err := bus.Subscribe(context.Background(), "t", func(context.Context, ports.Message) {})
	assert.ErrorIs(t, err, mqtt.ErrClosed)
}

func TestNew_RequiresBroker(t *testing.T) {
	_, err := mqtt.New(mqtt.Config{})
	assert.Error(t, err)
}
