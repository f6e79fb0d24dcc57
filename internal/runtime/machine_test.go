package runtime_test

import (
	"testing"

	"github.com/aretw0/grasp/internal/runtime"
	"github.com/aretw0/grasp/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type unknownCommand struct{ domain.Pick }

func (unknownCommand) Kind() domain.CommandKind { return "wave" }

func TestApply_Pick(t *testing.T) {
	next, notes, err := runtime.Apply(domain.Empty(), domain.Pick{Label: "apple"})
	require.NoError(t, err)

	assert.Equal(t, domain.Holding("apple"), next)
	assert.Equal(t, []domain.Notification{
		domain.Succeeded(domain.ChannelFeedback, "Successfully picked apple"),
		domain.Succeeded(domain.ChannelObjectAcquired, "Object apple acquired"),
	}, notes)
}

func TestApply_PickOverwrites(t *testing.T) {
	next, notes, err := runtime.Apply(domain.Holding("apple"), domain.Pick{Label: "pear"})
	require.NoError(t, err)

	assert.Equal(t, domain.Holding("pear"), next)
	for _, n := range notes {
		assert.NotContains(t, n.Message, "apple", "displacement is not reported")
	}
}

func TestApply_HandoffWhileHolding(t *testing.T) {
	next, notes, err := runtime.Apply(domain.Holding("apple"), domain.Handoff{})
	require.NoError(t, err)

	assert.True(t, next.IsEmpty())
	assert.Equal(t, []domain.Notification{
		domain.Succeeded(domain.ChannelFeedback, "Successfully handed off apple"),
		domain.Succeeded(domain.ChannelHandoffComplete, "Handoff of apple complete"),
	}, notes)
}

func TestApply_HandoffWhileEmpty(t *testing.T) {
	next, notes, err := runtime.Apply(domain.Empty(), domain.Handoff{})
	assert.ErrorIs(t, err, domain.ErrNotHolding)

	assert.Equal(t, domain.Empty(), next)
	require.Len(t, notes, 1)
	assert.Equal(t, domain.Failed(domain.ChannelFeedback, 1, "No object to hand off"), notes[0])
}

func TestApply_UnknownCommand(t *testing.T) {
	next, notes, err := runtime.Apply(domain.Holding("apple"), unknownCommand{})
	assert.ErrorIs(t, err, domain.ErrUnknownCommand)
	assert.Equal(t, domain.Holding("apple"), next)
	assert.Empty(t, notes)
}

func TestApply_PickThenHandoff_AnyLabel(t *testing.T) {
	labels := []string{"apple", "red cup", "bolt; M4", "ключ", " spaced "}

	for _, label := range labels {
		t.Run(label, func(t *testing.T) {
			state, _, err := runtime.Apply(domain.Empty(), domain.Pick{Label: label})
			require.NoError(t, err)

			state, notes, err := runtime.Apply(state, domain.Handoff{})
			require.NoError(t, err)
			assert.True(t, state.IsEmpty())

			var completes []domain.Notification
			for _, n := range notes {
				if n.Channel == domain.ChannelHandoffComplete {
					completes = append(completes, n)
				}
			}
			require.Len(t, completes, 1)
			assert.Contains(t, completes[0].Message, label)
		})
	}
}
