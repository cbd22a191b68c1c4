package cmd

import (
	"github.com/spf13/cobra"
)

func syncCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run one catalog-sync cycle and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := buildApp(modeSyncOnce)
			if err != nil {
				return err
			}
			defer app.close()

			app.sched.RunOnce(cmd.Context())
			return nil
		},
	}
}
