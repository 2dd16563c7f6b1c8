package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"evictioncrm/internal/config"
	"evictioncrm/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	var statePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log, err := logger.New(logger.Options{Production: cfg.Server.Production(), Level: cfg.Log.Level})
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := buildApp(ctx, cfg, log, statePath)
			if err != nil {
				return err
			}
			defer a.notices.Close()

			errCh := make(chan error, 1)
			go func() {
				log.Info("starting server", zap.String("addr", cfg.Server.Addr), zap.String("environment", cfg.Server.Env))
				errCh <- a.echo.Start(cfg.Server.Addr)
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return a.echo.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&statePath, "state", "", "start from a snapshot written by the seed command")
	return cmd
}
