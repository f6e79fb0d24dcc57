package main

import (
	"fmt"
	"os"

	"github.com/aretw0/grasp/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "grasp",
	Short: "Grasp is a simulated manipulation node",
	Long: `Grasp runs a pick/handoff node on a message bus and reports every result
as a status line on the feedback, object_acquired and handoff_complete topics.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to grasp.yaml (GRASP_* variables override it)")
	rootCmd.PersistentFlags().String("bus", "", "Bus kind: memory, redis or mqtt")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")
}

// loadConfig reads the config file and applies command line overrides.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}

	if cmd.Flags().Changed("bus") {
		cfg.Bus.Kind, _ = cmd.Flags().GetString("bus")
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level, _ = cmd.Flags().GetString("log-level")
	}
	return cfg, cfg.Validate()
}
