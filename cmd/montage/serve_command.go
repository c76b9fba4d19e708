package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"montage/internal/api"
	"montage/internal/logging"
	"montage/internal/renderer"
)

const serveShutdownGrace = 5 * time.Second

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bindFlag string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the render queue service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			engine, err := ctx.newEngine(logger)
			if err != nil {
				return err
			}
			local := renderer.NewLocal(store, engine, logger)
			go local.Start(signalCtx)

			bind := bindFlag
			if bind == "" {
				bind = cfg.Paths.APIBind
			}
			server := &http.Server{
				Addr:    bind,
				Handler: api.NewServer(local, store, logger).Router(),
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("render queue service listening", logging.String("bind", bind))
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
					return
				}
				errCh <- nil
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("serve: %w", err)
				}
				return nil
			case <-signalCtx.Done():
			}

			logger.Info("render queue service shutting down")
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), serveShutdownGrace)
			defer shutdownCancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			return <-errCh
		},
	}

	cmd.Flags().StringVar(&bindFlag, "bind", "", "Listen address (default from config)")
	return cmd
}
