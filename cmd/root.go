// Package cmd implements the cinefeed command-line interface.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// version is set at build time via ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "cinefeed",
	Short: "Cinema catalog and Telegram channel feed worker",
	Long: `cinefeed watches a cinema catalog for repertoire changes and
republishes it, together with public Telegram channels, as RSS feeds
served from a static output directory.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("cinefeed version %s\n", version)
		},
	})

	rootCmd.AddCommand(workerCommand())
	rootCmd.AddCommand(syncCommand())
	rootCmd.AddCommand(channelsCommand())
}
