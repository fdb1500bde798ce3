package cli

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gbvolkov/shipment-data-maintenance-bot/pkg/transcribe"
)

func (f Factory) transcribeCommand(fl *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "transcribe <file>",
		Short: "Transcribe an audio file with the configured provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, logger, err := fl.load()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read audio file: %w", err)
			}
			name := filepath.Base(args[0])
			mimeType := mime.TypeByExtension(filepath.Ext(name))
			if mimeType == "" {
				mimeType = "audio/ogg"
			}

			transcriber, err := f.NewTranscriber(ctx, cfg.Transcription, logger)
			if err != nil {
				return err
			}
			text, err := transcriber.Transcribe(ctx, transcribe.Audio{Data: data, MIMEType: mimeType, Name: name})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
}
