package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rohankatakam/internhub/internal/app"
	"github.com/rohankatakam/internhub/internal/config"
	"github.com/rohankatakam/internhub/internal/httpapi"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and, when enabled, the nightly refresh",
	RunE: func(cmd *cobra.Command, args []string) error {
		if serveAddr != "" {
			cfg.Server.Addr = serveAddr
		}
		result := cfg.Validate(config.ValidationContextServe)
		for _, w := range result.Warnings {
			logger.Warn(w)
		}
		if err := cfg.Require(config.ValidationContextServe); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := app.New(ctx, cfg, logger, app.Options{})
		if err != nil {
			return err
		}
		defer a.Close()

		if cfg.Jobs.Enabled {
			scheduler, err := a.Scheduler()
			if err != nil {
				return err
			}
			scheduler.Start()
			defer scheduler.Stop(context.Background())
		}

		router := httpapi.NewRouter(a.Services(), cfg.Server.Debug, logger)
		return httpapi.NewServer(cfg.Server.Addr, router, cfg.Server.ShutdownTimeout, logger).Run(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from server.addr)")
}
