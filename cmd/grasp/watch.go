package main

import (
	"github.com/aretw0/grasp/internal/cli"
	"github.com/aretw0/grasp/internal/config"
	"github.com/aretw0/grasp/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print the node's status lines as they are published",
	RunE: func(cmd *cobra.Command, args []string) error {
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

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		bus, err := cli.NewBus(sigCtx, cfg, logger)
		if err != nil {
			return err
		}
		defer bus.Close()

		timestamps, _ := cmd.Flags().GetBool("timestamps")
		printer := tui.NewPrinter(cmd.OutOrStdout()).WithTimestamps(timestamps)

		err = cli.Watch(sigCtx, bus, cfg.Topics, printer, logger)
		if sig := sigCtx.Signal(); sig != nil {
			logger.Info("Stopping watcher (signal received)", "signal", sig)
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().BoolP("timestamps", "t", false, "Prefix each line with the time it arrived")
}
