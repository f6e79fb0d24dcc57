package observability_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/grasp/pkg/domain"
	"github.com/aretw0/grasp/pkg/observability"
	"github.com/stretchr/testify/assert"
)

func TestTap_Broadcast(t *testing.T) {
	tap := observability.NewTap(1, nil)
	events, cancel := tap.Subscribe()
	defer cancel()

	hooks := tap.Hooks()
	hooks.OnNotification(context.Background(), &domain.NotificationEvent{Topic: "/manipulation/feedback"})
	// Full buffer: dropped, not blocked.
	hooks.OnNotification(context.Background(), &domain.NotificationEvent{Topic: "/manipulation/feedback"})
	// Failed publishes are not broadcast.
	hooks.OnNotification(context.Background(), &domain.NotificationEvent{Topic: "x", Err: errors.New("down")})

	e := <-events
	assert.Equal(t, "/manipulation/feedback", e.Topic)
	assert.Empty(t, events)
}

func TestTap_CancelClosesChannel(t *testing.T) {
	tap := observability.NewTap(4, nil)
	events, cancel := tap.Subscribe()
	cancel()
	cancel()

	_, ok := <-events
	assert.False(t, ok)

	tap.Broadcast(domain.NotificationEvent{})
}
