package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pauloqxm/voce-denuncia/server"
	"github.com/pauloqxm/voce-denuncia/services"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dashboard and JSON API",
	Long: `Loads the sheet once and serves the dashboard. The data is only
refreshed when someone presses the reload button or calls POST /api/v1/reload.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loader, closeSource, err := newLoader()
	if err != nil {
		return err
	}
	defer closeSource()

	store := services.NewStore(loader, logger)
	if _, err := store.LoadInitial(ctx); err != nil {
		if ctx.Err() != nil {
			logger.Info("[main] Interrupted during initial load")
			return nil
		}
		logger.Warn("[main] Initial load failed, serving without data: %v", err)
	}

	srv, err := server.New(cfg, store, logger)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("[main] Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	logger.Info("[main] Server stopped")
	return nil
}
