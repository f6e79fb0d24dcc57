package main

import (
	"strings"

	"github.com/aretw0/grasp/internal/cli"
	"github.com/spf13/cobra"
)

var parseCmd = &cobra.Command{
	Use:     "parse <line>",
	Short:   "Parse a status line and print it as JSON",
	Example: `  grasp parse "success false; status_code 1; message: No object to hand off"`,
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.PrintParsed(cmd.OutOrStdout(), strings.Join(args, " "))
	},
}

func init() {
	rootCmd.AddCommand(parseCmd)
}
