package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/grasp"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of grasp",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "grasp version %s\n", strings.TrimSpace(grasp.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
