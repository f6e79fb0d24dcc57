package testutils

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/grasp"
	"github.com/stretchr/testify/require"
)

// StartNode builds a node with opts and runs it until the test ends.
// It returns once the node has subscribed to its command topics and fails
// the test immediately if that takes longer than two seconds.
func StartNode(t *testing.T, opts ...grasp.Option) *grasp.Node {
	t.Helper()

	node, err := grasp.New(opts...)
	require.NoError(t, err, "Failed to build node")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- node.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done, "Node stopped with an error")
	})

	select {
	case <-node.Ready():
	case err := <-done:
		t.Fatalf("Node exited before becoming ready: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("Node did not become ready")
	}
	return node
}
