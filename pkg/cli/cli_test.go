package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gbvolkov/shipment-data-maintenance-bot/pkg/bot"
	"github.com/gbvolkov/shipment-data-maintenance-bot/pkg/config"
	"github.com/gbvolkov/shipment-data-maintenance-bot/pkg/extract"
	"github.com/gbvolkov/shipment-data-maintenance-bot/pkg/shipment"
	"github.com/gbvolkov/shipment-data-maintenance-bot/pkg/transcribe"
)

type extractFunc func(ctx context.Context, text string) ([]shipment.Shipment, error)

func (f extractFunc) Extract(ctx context.Context, text string) ([]shipment.Shipment, error) {
	return f(ctx, text)
}

type transcribeFunc func(ctx context.Context, a transcribe.Audio) (string, error)

func (f transcribeFunc) Transcribe(ctx context.Context, a transcribe.Audio) (string, error) {
	return f(ctx, a)
}

// closedAPI delivers no updates, so the bot stops at once.
type closedAPI struct{}

func (closedAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	ch := make(chan tgbotapi.Update)
	close(ch)
	return ch
}

func (closedAPI) StopReceivingUpdates() {}

func (closedAPI) Send(tgbotapi.Chattable) (tgbotapi.Message, error) {
	return tgbotapi.Message{}, nil
}

func (closedAPI) GetFileDirectURL(string) (string, error) {
	return "", errors.New("no files")
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: error\n"+body), 0o600))
	return path
}

func testFactory(ex extract.Extractor, tr transcribe.Transcriber) Factory {
	f := DefaultFactory
	f.NewExtractor = func(context.Context, config.ExtractionConfig, *zap.Logger) (extract.Extractor, error) {
		return ex, nil
	}
	f.NewTranscriber = func(context.Context, config.TranscriptionConfig, *zap.Logger) (transcribe.Transcriber, error) {
		return tr, nil
	}
	f.NewTelegram = func(config.TelegramConfig, *zap.Logger) (bot.API, error) {
		return closedAPI{}, nil
	}
	return f
}

func run(ctx context.Context, f Factory, stdin string, args ...string) (string, error) {
	root := f.NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	return out.String(), err
}

func TestExtractCommandRendersEachShipment(t *testing.T) {
	var got string
	ex := extractFunc(func(_ context.Context, text string) ([]shipment.Shipment, error) {
		got = text
		return []shipment.Shipment{
			{CustomerName: "Мастер Строй", Good: "бетон М220"},
			{CustomerName: "Стройка", Good: "бетон М300"},
		}, nil
	})
	cfg := writeConfig(t, "")

	out, err := run(context.Background(), testFactory(ex, nil), "", "--config", cfg, "extract", "две", "отгрузки")

	require.NoError(t, err)
	assert.Equal(t, "две отгрузки", got)
	assert.Contains(t, out, "Отгрузка 1/2")
	assert.Contains(t, out, "Отгрузка 2/2")
	assert.Contains(t, out, "Наименование грузополучателя: Мастер Строй")
	assert.Contains(t, out, "Наименование товара: бетон М300")
	assert.Contains(t, out, "╭")
}

func TestExtractCommandReadsStdin(t *testing.T) {
	var got string
	ex := extractFunc(func(_ context.Context, text string) ([]shipment.Shipment, error) {
		got = text
		return []shipment.Shipment{{Good: "щебень"}}, nil
	})

	_, err := run(context.Background(), testFactory(ex, nil), "щебень 10 тонн\n", "--config", writeConfig(t, ""), "extract")

	require.NoError(t, err)
	assert.Equal(t, "щебень 10 тонн\n", got)
}

func TestExtractCommandFailures(t *testing.T) {
	cfg := writeConfig(t, "")
	ex := extractFunc(func(context.Context, string) ([]shipment.Shipment, error) {
		return nil, extract.ErrNoShipments
	})

	_, err := run(context.Background(), testFactory(ex, nil), "  ", "--config", cfg, "extract")
	assert.ErrorContains(t, err, "nothing to extract")

	_, err = run(context.Background(), testFactory(ex, nil), "", "--config", cfg, "extract", "привет")
	assert.ErrorIs(t, err, extract.ErrNoShipments)
}

func TestTranscribeCommand(t *testing.T) {
	audioPath := filepath.Join(t.TempDir(), "voice.ogg")
	require.NoError(t, os.WriteFile(audioPath, []byte("OggS"), 0o600))

	var got transcribe.Audio
	tr := transcribeFunc(func(_ context.Context, a transcribe.Audio) (string, error) {
		got = a
		return "бетон двадцать кубов", nil
	})

	out, err := run(context.Background(), testFactory(nil, tr), "", "--config", writeConfig(t, ""), "transcribe", audioPath)

	require.NoError(t, err)
	assert.Equal(t, "бетон двадцать кубов\n", out)
	assert.Equal(t, []byte("OggS"), got.Data)
	assert.Equal(t, "voice.ogg", got.Name)
	assert.NotEmpty(t, got.MIMEType)
}

func TestTranscribeCommandMissingFile(t *testing.T) {
	_, err := run(context.Background(), testFactory(nil, nil), "", "--config", writeConfig(t, ""), "transcribe", "/nonexistent/voice.ogg")
	assert.ErrorContains(t, err, "failed to read audio file")
}

func TestBotCommandStopsWhenUpdatesEnd(t *testing.T) {
	cfg := writeConfig(t, "storage:\n  backend: file\n  file_path: "+filepath.Join(t.TempDir(), "shipments.jsonl")+"\n")

	_, err := run(context.Background(), testFactory(nil, nil), "", "--config", cfg, "bot")

	assert.NoError(t, err)
}

func TestBotCommandReadAPINeedsQueryableStorage(t *testing.T) {
	cfg := writeConfig(t, "server:\n  enabled: true\nstorage:\n  backend: file\n  file_path: "+filepath.Join(t.TempDir(), "shipments.jsonl")+"\n")

	_, err := run(context.Background(), testFactory(nil, nil), "", "--config", cfg, "bot")

	assert.ErrorIs(t, err, errNotQueryable)
}

func TestBotCommandTelegramError(t *testing.T) {
	f := testFactory(nil, nil)
	f.NewTelegram = func(cfg config.TelegramConfig, logger *zap.Logger) (bot.API, error) {
		return nil, bot.ErrMissingToken
	}

	_, err := run(context.Background(), f, "", "--config", writeConfig(t, ""), "bot")

	assert.ErrorIs(t, err, bot.ErrMissingToken)
}

func TestServeCommandStopsOnCancel(t *testing.T) {
	cfg := writeConfig(t, "storage:\n  backend: sqlite\n  sqlite_path: "+filepath.Join(t.TempDir(), "shipments.db")+"\n")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	time.AfterFunc(100*time.Millisecond, cancel)

	_, err := run(ctx, testFactory(nil, nil), "", "--config", cfg, "serve", "--addr", "127.0.0.1:0")

	assert.NoError(t, err)
}

func TestUnknownConfigFile(t *testing.T) {
	_, err := run(context.Background(), testFactory(nil, nil), "", "--config", "/nonexistent/config.yaml", "extract", "x")
	assert.ErrorContains(t, err, "failed to read config file")
}
