// Package cli wires configuration, providers and storage into the shipbot
// commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gbvolkov/shipment-data-maintenance-bot/pkg/bot"
	"github.com/gbvolkov/shipment-data-maintenance-bot/pkg/config"
	"github.com/gbvolkov/shipment-data-maintenance-bot/pkg/extract"
	"github.com/gbvolkov/shipment-data-maintenance-bot/pkg/logging"
	"github.com/gbvolkov/shipment-data-maintenance-bot/pkg/storage"
	"github.com/gbvolkov/shipment-data-maintenance-bot/pkg/transcribe"
)

// Factory builds the external collaborators. Tests replace its fields.
type Factory struct {
	NewExtractor   func(ctx context.Context, cfg config.ExtractionConfig, logger *zap.Logger) (extract.Extractor, error)
	NewTranscriber func(ctx context.Context, cfg config.TranscriptionConfig, logger *zap.Logger) (transcribe.Transcriber, error)
	NewLedger      func(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (storage.Ledger, error)
	NewTelegram    func(cfg config.TelegramConfig, logger *zap.Logger) (bot.API, error)
}

var DefaultFactory = Factory{
	NewExtractor: func(ctx context.Context, cfg config.ExtractionConfig, logger *zap.Logger) (extract.Extractor, error) {
		return extract.New(ctx, cfg, func(o *extract.Options) { o.Logger = logger })
	},
	NewTranscriber: func(ctx context.Context, cfg config.TranscriptionConfig, logger *zap.Logger) (transcribe.Transcriber, error) {
		return transcribe.New(ctx, cfg, func(o *transcribe.Options) { o.Logger = logger })
	},
	NewLedger: storage.New,
	NewTelegram: func(cfg config.TelegramConfig, logger *zap.Logger) (bot.API, error) {
		api, err := bot.NewAPI(cfg, logger)
		if err != nil {
			return nil, err
		}
		return api, nil
	},
}

type flags struct {
	configPath string
	verbose    bool
}

// NewRootCommand returns the shipbot command tree.
func (f Factory) NewRootCommand() *cobra.Command {
	fl := &flags{}
	root := &cobra.Command{
		Use:   "shipbot",
		Short: "Telegram bot that records concrete shipments from free-form messages",
		Long: `shipbot turns operator messages, typed or spoken, into structured shipment
records, asks the operator to confirm or correct each one and stores the
confirmed records.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&fl.configPath, "config", "c", "", "path to config.yaml")
	root.PersistentFlags().BoolVarP(&fl.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		f.botCommand(fl),
		f.serveCommand(fl),
		f.extractCommand(fl),
		f.transcribeCommand(fl),
	)
	return root
}

// Execute runs the command tree until it finishes or the process is
// interrupted.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := DefaultFactory.NewRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func (fl *flags) load() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(fl.configPath)
	if err != nil {
		return nil, nil, err
	}
	if fl.verbose {
		cfg.Logging.Level = "debug"
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

var errNotQueryable = errors.New("storage backend does not support queries; use postgres or sqlite")

func (f Factory) openLedger(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (storage.Ledger, func(), error) {
	ledger, err := f.NewLedger(ctx, cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s storage: %w", cfg.Backend, err)
	}
	closeFn := func() {
		if c, ok := ledger.(storage.Closer); ok {
			if err := c.Close(); err != nil {
				logger.Warn("failed to close storage", zap.Error(err))
			}
		}
	}
	return ledger, closeFn, nil
}
