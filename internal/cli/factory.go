package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/grasp"
	"github.com/aretw0/grasp/internal/config"
	"github.com/aretw0/grasp/internal/logging"
	"github.com/aretw0/grasp/pkg/adapters/memory"
	"github.com/aretw0/grasp/pkg/adapters/mqtt"
	"github.com/aretw0/grasp/pkg/adapters/redis"
	"github.com/aretw0/grasp/pkg/domain"
	"github.com/aretw0/grasp/pkg/ports"
)

// NewLogger builds the process logger from the log section.
func NewLogger(cfg config.LogConfig) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	format, err := logging.ParseFormat(cfg.Format)
	if err != nil {
		return nil, err
	}
	return logging.New(level, format), nil
}

// NewBus connects the transport selected by cfg.Bus.Kind.
// Remote transports are checked for reachability before returning.
func NewBus(ctx context.Context, cfg config.Config, logger *slog.Logger) (ports.Bus, error) {
	switch cfg.Bus.Kind {
	case config.BusMemory, "":
		return memory.NewBus(), nil

	case config.BusRedis:
		bus := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			redis.WithPrefix(cfg.Redis.Prefix),
			redis.WithLogger(logger),
		)
		if err := bus.Ping(ctx); err != nil {
			_ = bus.Close()
			return nil, fmt.Errorf("redis unreachable at %s: %w", cfg.Redis.Addr, err)
		}
		return bus, nil

	case config.BusMQTT:
		bus, err := mqtt.New(mqtt.Config{
			Broker:         cfg.MQTT.Broker,
			ClientID:       cfg.MQTT.ClientID,
			Username:       cfg.MQTT.Username,
			Password:       cfg.MQTT.Password,
			QoS:            byte(cfg.MQTT.QoS),
			ConnectTimeout: cfg.MQTT.ConnectTimeout,
		}, mqtt.WithLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("mqtt unreachable at %s: %w", cfg.MQTT.Broker, err)
		}
		return bus, nil

	default:
		return nil, fmt.Errorf("unknown bus kind %q", cfg.Bus.Kind)
	}
}

// NewNode builds a node on bus with the configured name, topics and inbox.
func NewNode(cfg config.Config, bus ports.Bus, logger *slog.Logger, hooks ...domain.LifecycleHooks) (*grasp.Node, error) {
	opts := []grasp.Option{
		grasp.WithBus(bus),
		grasp.WithTopics(cfg.Topics),
		grasp.WithLogger(logger),
		grasp.WithName(cfg.Node.Name),
		grasp.WithInboxSize(cfg.Node.InboxSize),
	}
	for _, h := range hooks {
		opts = append(opts, grasp.WithLifecycleHooks(h))
	}

	node, err := grasp.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing node: %w", err)
	}
	return node, nil
}

func debugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(ctx context.Context, e *domain.TransitionEvent) {
			logger.Debug("Transition", "from", e.From.String(), "to", e.To.String())
		},
		OnCommand: func(ctx context.Context, e *domain.CommandEvent) {
			if e.Err != nil {
				logger.Debug("Command done (Error)", "command", e.Kind, "err", e.Err)
			} else {
				logger.Debug("Command done (Success)", "command", e.Kind)
			}
		},
	}
}
