package cmd

import (
	"github.com/spf13/cobra"
)

func channelsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "channels",
		Short: "Run one channel-sync cycle and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := buildApp(modeChannelsOnce)
			if err != nil {
				return err
			}
			defer app.close()

			app.sched.RunOnce(cmd.Context())
			return nil
		},
	}
}
