package cli

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gbvolkov/shipment-data-maintenance-bot/pkg/bot"
	"github.com/gbvolkov/shipment-data-maintenance-bot/pkg/dialog"
	"github.com/gbvolkov/shipment-data-maintenance-bot/pkg/handler"
	"github.com/gbvolkov/shipment-data-maintenance-bot/pkg/session"
	"github.com/gbvolkov/shipment-data-maintenance-bot/pkg/storage"
)

func (f Factory) botCommand(fl *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Run the Telegram bot, and the read API when server.enabled is set",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, logger, err := fl.load()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			api, err := f.NewTelegram(cfg.Telegram, logger)
			if err != nil {
				return err
			}
			extractor, err := f.NewExtractor(ctx, cfg.Extraction, logger)
			if err != nil {
				return err
			}
			transcriber, err := f.NewTranscriber(ctx, cfg.Transcription, logger)
			if err != nil {
				return err
			}
			ledger, closeLedger, err := f.openLedger(ctx, cfg.Storage, logger)
			if err != nil {
				return err
			}
			defer closeLedger()

			var readAPI *handler.Handler
			if cfg.Server.Enabled {
				reader, ok := ledger.(storage.Reader)
				if !ok {
					return errNotQueryable
				}
				readAPI = handler.New(reader, func(o *handler.Options) {
					o.Logger = logger
					o.CacheTTL = cfg.Server.CacheTTL
				})
				ledger = readAPI.Track(ledger)
			}

			controller := dialog.New(session.NewStore(logger), extractor, transcriber, ledger,
				dialog.WithDialogConfig(cfg.Dialog),
				dialog.WithLogger(logger),
			)
			// Events already accepted finish after shutdown starts.
			dispatcher := dialog.NewDispatcher(context.WithoutCancel(ctx), controller, cfg.Dialog.MailboxSize, logger)
			tg := bot.New(api, dispatcher, func(o *bot.Options) {
				o.Logger = logger
				o.UpdateTimeout = cfg.Telegram.UpdateTimeout
			})

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				defer dispatcher.Close()
				return tg.Run(gctx)
			})
			if readAPI != nil {
				g.Go(func() error {
					return serve(gctx, cfg.Server.Addr, readAPI.Routes(), logger)
				})
			}

			err = g.Wait()
			logger.Info("shutting down", zap.Error(err))
			return err
		},
	}
}
