package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"NewsDesk/internal/app"
	"NewsDesk/internal/config"
	"NewsDesk/internal/logging"
)

func newServeCommand(loadConfig func() config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg := loadConfig()
			logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

			application, err := app.New(ctx, cfg, logger)
			if err != nil {
				logger.Error("application init failed", "error", err)
				return err
			}

			if err := application.Run(ctx); err != nil {
				logger.Error("application stopped", "error", err)
				return err
			}
			logger.Info("application stopped")
			return nil
		},
	}
}
