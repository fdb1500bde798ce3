package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gbvolkov/shipment-data-maintenance-bot/pkg/handler"
	"github.com/gbvolkov/shipment-data-maintenance-bot/pkg/storage"
)

const shutdownTimeout = 10 * time.Second

func (f Factory) serveCommand(fl *flags) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the read-only shipment API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, logger, err := fl.load()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			if addr != "" {
				cfg.Server.Addr = addr
			}

			ledger, closeLedger, err := f.openLedger(ctx, cfg.Storage, logger)
			if err != nil {
				return err
			}
			defer closeLedger()

			reader, ok := ledger.(storage.Reader)
			if !ok {
				return errNotQueryable
			}
			h := handler.New(reader, func(o *handler.Options) {
				o.Logger = logger
				o.CacheTTL = cfg.Server.CacheTTL
			})
			return serve(ctx, cfg.Server.Addr, h.Routes(), logger)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides server.addr")
	return cmd
}

// serve runs an HTTP server on addr until ctx is done, then shuts it down.
func serve(ctx context.Context, addr string, routes http.Handler, logger *zap.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           routes,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	logger.Info("starting HTTP server", zap.String("addr", addr))

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}
	logger.Info("HTTP server stopped")
	return nil
}
