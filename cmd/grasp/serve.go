package main

import (
	"github.com/aretw0/grasp/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the manipulation node",
	Long: `Starts the node on the configured bus. The HTTP API (state, commands,
server-sent events, metrics) is enabled by default; --mcp-stdio also serves
the node as MCP tools on stdin/stdout.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		if cmd.Flags().Changed("http") {
			cfg.HTTP.Addr, _ = cmd.Flags().GetString("http")
			cfg.HTTP.Enabled = true
		}
		if noHTTP, _ := cmd.Flags().GetBool("no-http"); noHTTP {
			cfg.HTTP.Enabled = false
		}
		mcpStdio, _ := cmd.Flags().GetBool("mcp-stdio")

		logger, err := cli.NewLogger(cfg.Log)
		if err != nil {
			return err
		}

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		err = cli.Serve(sigCtx, cli.ServeOptions{
			Config:   cfg,
			MCPStdio: mcpStdio,
			Stdin:    cmd.InOrStdin(),
			Stdout:   cmd.OutOrStdout(),
			Stderr:   cmd.ErrOrStderr(),
			Logger:   logger,
		})
		if sig := sigCtx.Signal(); sig != nil {
			logger.Info("Node stopped (signal received)", "signal", sig)
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("http", ":8080", "Address of the HTTP API")
	serveCmd.Flags().Bool("no-http", false, "Disable the HTTP API")
	serveCmd.Flags().Bool("mcp-stdio", false, "Serve MCP tools on stdin/stdout")
}
