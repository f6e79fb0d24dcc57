package main

import (
	"fmt"

	"github.com/aretw0/grasp/internal/presentation/graph"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the hold state machine as a Mermaid diagram",
	Long: `Outputs a Mermaid state diagram (stateDiagram-v2) of the node's state machine.
A running node serves the same diagram, with its current state highlighted, at GET /graph.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(nil))
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
