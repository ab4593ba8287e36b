package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/pauloqxm/voce-denuncia/models"
	"github.com/pauloqxm/voce-denuncia/server"
	"github.com/pauloqxm/voce-denuncia/services"
	"github.com/pauloqxm/voce-denuncia/snapshot"
)

var snapshotOpts struct {
	out       string
	selection models.Selection
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Save a PNG of the dashboard using headless Chrome",
	Long: `Loads the sheet, serves the dashboard on a loopback port and captures it.
Set CHROME_BIN when Chrome or Chromium is not on PATH.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := snapshotOpts.out
		if out == "" {
			out = cfg.SnapshotPath
		}
		return takeSnapshot(cmd.Context(), out, snapshotOpts.selection)
	},
}

func init() {
	snapshotCmd.Flags().StringVarP(&snapshotOpts.out, "out", "o", "", "PNG path (default SNAPSHOT_PATH)")
	snapshotCmd.Flags().StringVar(&snapshotOpts.selection.Type, "tipo", services.AllOption, "Complaint type filter")
	snapshotCmd.Flags().StringVar(&snapshotOpts.selection.Neighborhood, "bairro", services.AllOption, "Neighborhood filter")
}

func takeSnapshot(ctx context.Context, out string, sel models.Selection) error {
	loader, closeSource, err := newLoader()
	if err != nil {
		return err
	}
	defer closeSource()

	store := services.NewStore(loader, logger)
	if _, err := store.LoadInitial(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Warn("[snapshot] Load failed, capturing the error page: %v", err)
	}

	srv, err := server.New(cfg, store, logger)
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("snapshot: listen: %w", err)
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("[snapshot] Server: %v", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	q := url.Values{}
	q.Set("tipo", sel.Type)
	q.Set("bairro", sel.Neighborhood)
	pageURL := fmt.Sprintf("http://%s/?%s", ln.Addr(), q.Encode())

	return snapshot.New(cfg, logger).CaptureToFile(ctx, pageURL, out)
}
