package observability_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aretw0/grasp/pkg/domain"
	"github.com/aretw0/grasp/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := observability.NewMetrics(reg)
	require.NoError(t, err)

	hooks := m.Hooks()
	ctx := context.Background()

	hooks.OnCommand(ctx, &domain.CommandEvent{Kind: domain.KindPick})
	hooks.OnCommand(ctx, &domain.CommandEvent{Kind: domain.KindHandoff, Err: domain.ErrNotHolding})
	hooks.OnTransition(ctx, &domain.TransitionEvent{From: domain.Empty(), To: domain.Holding("apple")})
	hooks.OnNotification(ctx, &domain.NotificationEvent{
		Notification: domain.Succeeded(domain.ChannelFeedback, "Successfully picked apple"),
	})
	hooks.OnNotification(ctx, &domain.NotificationEvent{
		Notification: domain.Succeeded(domain.ChannelObjectAcquired, "Object apple acquired"),
		Err:          errors.New("broker down"),
	})

	count, err := testutil.GatherAndCount(reg, "grasp_commands_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HoldingGauge()))

	count, err = testutil.GatherAndCount(reg, "grasp_publish_errors_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = testutil.GatherAndCount(reg, "grasp_notifications_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count, "failed publishes are not counted as notifications")

	expected := `
# HELP grasp_commands_total Total number of commands applied, by kind and outcome
# TYPE grasp_commands_total counter
grasp_commands_total{command="handoff",outcome="rejected"} 1
grasp_commands_total{command="pick",outcome="ok"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "grasp_commands_total"))
}

func TestNewMetrics_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := observability.NewMetrics(reg)
	require.NoError(t, err)

	_, err = observability.NewMetrics(reg)
	assert.Error(t, err)
}
