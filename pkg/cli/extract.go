package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/gbvolkov/shipment-data-maintenance-bot/pkg/render"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	cardStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)
)

func (f Factory) extractCommand(fl *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "extract [text]",
		Short: "Extract shipments from text and print them as the bot would",
		Long: `Extract shipments from the given text, or from standard input when no
text is given, and print each one the way the bot asks for confirmation.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, logger, err := fl.load()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			text := strings.Join(args, " ")
			if text == "" {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("failed to read standard input: %w", err)
				}
				text = string(data)
			}
			if strings.TrimSpace(text) == "" {
				return fmt.Errorf("nothing to extract")
			}

			extractor, err := f.NewExtractor(ctx, cfg.Extraction, logger)
			if err != nil {
				return err
			}
			batch, err := extractor.Extract(ctx, text)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for i, s := range batch {
				fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("Отгрузка %d/%d", i+1, len(batch))))
				fmt.Fprintln(out, cardStyle.Render(strings.TrimRight(render.Confirmation(s), "\n")))
			}
			return nil
		},
	}
}
