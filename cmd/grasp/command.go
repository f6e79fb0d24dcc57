package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/grasp/internal/cli"
	"github.com/aretw0/grasp/internal/config"
	"github.com/aretw0/grasp/pkg/domain"
	"github.com/spf13/cobra"
)

var errMemoryBus = errors.New("the memory bus only exists inside 'grasp serve'; select --bus redis or --bus mqtt")

var pickCmd = &cobra.Command{
	Use:   "pick <label>",
	Short: "Ask the node to pick an object",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return publish(cmd, domain.Pick{Label: strings.Join(args, " ")})
	},
}

var handoffCmd = &cobra.Command{
	Use:   "handoff",
	Short: "Ask the node to hand off the held object",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return publish(cmd, domain.Handoff{})
	},
}

func publish(cmd *cobra.Command, c domain.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Bus.Kind == config.BusMemory {
		return errMemoryBus
	}

	logger, err := cli.NewLogger(cfg.Log)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	bus, err := cli.NewBus(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer bus.Close()

	if err := cli.Publish(ctx, bus, cfg.Topics, c); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Sent %s\n", c.Kind())
	return nil
}

func init() {
	rootCmd.AddCommand(pickCmd)
	rootCmd.AddCommand(handoffCmd)
}
