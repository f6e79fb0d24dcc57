package ports

import (
	"context"

	"github.com/aretw0/grasp/pkg/domain"
)

// Commander is the synchronous surface of a running node.
// Request/response adapters (HTTP, MCP) use it instead of the bus.
type Commander interface {
	// Submit applies cmd and returns once its notifications have been published.
	Submit(ctx context.Context, cmd domain.Command) (domain.Result, error)

	// State returns a snapshot of the hold state.
	State() domain.HoldState
}
