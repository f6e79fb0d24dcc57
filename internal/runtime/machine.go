package runtime

import (
	"fmt"

	"github.com/aretw0/grasp/pkg/domain"
)

// Apply computes the outcome of cmd in state. It is pure: the caller owns the
// state and decides what to do with the notifications.
//
//   - Pick always succeeds and replaces whatever was held.
//   - Handoff while empty leaves the state alone and returns domain.ErrNotHolding
//     together with the failure notification to publish.
func Apply(state domain.HoldState, cmd domain.Command) (domain.HoldState, []domain.Notification, error) {
	switch c := cmd.(type) {
	case domain.Pick:
		return domain.Holding(c.Label), []domain.Notification{
			domain.Succeeded(domain.ChannelFeedback, "Successfully picked "+c.Label),
			domain.Succeeded(domain.ChannelObjectAcquired, "Object "+c.Label+" acquired"),
		}, nil

	case domain.Handoff:
		if state.IsEmpty() {
			return state, []domain.Notification{
				domain.Failed(domain.ChannelFeedback, domain.CodeNotHolding, "No object to hand off"),
			}, domain.ErrNotHolding
		}
		label := state.Label
		return domain.Empty(), []domain.Notification{
			domain.Succeeded(domain.ChannelFeedback, "Successfully handed off "+label),
			domain.Succeeded(domain.ChannelHandoffComplete, "Handoff of "+label+" complete"),
		}, nil

	default:
		return state, nil, fmt.Errorf("%w: %T", domain.ErrUnknownCommand, cmd)
	}
}
