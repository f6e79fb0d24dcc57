package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/grasp/internal/presentation/tui"
	"github.com/aretw0/grasp/pkg/ports"
)

// Watch prints every status line published on the outbound topics until ctx is done.
func Watch(ctx context.Context, bus ports.Subscriber, topics ports.Topics, printer *tui.Printer, logger *slog.Logger) error {
	for _, topic := range topics.Outbound() {
		unsubscribe, err := bus.Subscribe(ctx, topic, func(_ context.Context, msg ports.Message) {
			if err := printer.Status(msg.Topic, msg.Payload); err != nil {
				logger.Warn("Failed to print status", "topic", msg.Topic, "err", err)
			}
		})
		if err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", topic, err)
		}
		defer func(topic string) {
			if err := unsubscribe(); err != nil {
				logger.Warn("Failed to unsubscribe", "topic", topic, "err", err)
			}
		}(topic)
	}

	logger.Info("Watching", "topics", topics.Outbound())
	<-ctx.Done()
	return nil
}
