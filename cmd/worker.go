package cmd

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func workerCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run the scheduler loop until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := buildApp(modeWorker)
			if err != nil {
				return err
			}
			defer app.close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			app.log.Info("worker started",
				"catalog_enabled", app.cfg.CatalogJobEnabled(),
				"telegram_enabled", app.cfg.TelegramJobEnabled(),
				"out_dir", app.cfg.OutDir,
			)

			if runErr := app.sched.Run(ctx); runErr != nil && !errors.Is(runErr, context.Canceled) {
				return runErr
			}
			app.log.Info("worker stopped")
			return nil
		},
	}
}
