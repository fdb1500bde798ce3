// Package bot connects the dialog controller to Telegram over long polling.
package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/gbvolkov/shipment-data-maintenance-bot/pkg/config"
	"github.com/gbvolkov/shipment-data-maintenance-bot/pkg/dialog"
	"github.com/gbvolkov/shipment-data-maintenance-bot/pkg/logging"
	"github.com/gbvolkov/shipment-data-maintenance-bot/pkg/transcribe"
)

// ErrMissingToken is returned when no bot token is configured.
var ErrMissingToken = errors.New("telegram bot token is not configured")

const (
	// maxVoiceBytes matches the Bot API download limit.
	maxVoiceBytes = 20 << 20

	msgBusy = "Предыдущие сообщения ещё обрабатываются. Пожалуйста, подождите."
)

// API is the part of tgbotapi.BotAPI the bot talks to.
type API interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetFileDirectURL(fileID string) (string, error)
}

// NewAPI authorizes against Telegram with cfg.Token.
func NewAPI(cfg config.TelegramConfig, logger *zap.Logger) (*tgbotapi.BotAPI, error) {
	if cfg.Token == "" {
		return nil, ErrMissingToken
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := tgbotapi.SetLogger(zap.NewStdLog(logger.Named("telegram"))); err != nil {
		return nil, fmt.Errorf("failed to set telegram logger: %w", err)
	}

	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}
	api.Debug = cfg.Debug
	logger.Info("authorized on telegram", zap.String("account", api.Self.UserName))
	return api, nil
}

type Options struct {
	Logger     *zap.Logger
	HTTPClient *http.Client
	// UpdateTimeout is the long polling timeout in seconds.
	UpdateTimeout int
}

// Bot turns Telegram updates into dialog events and sends the replies back.
type Bot struct {
	api        API
	dispatcher *dialog.Dispatcher
	opts       Options
	logger     *zap.Logger
}

func New(api API, dispatcher *dialog.Dispatcher, optFns ...func(*Options)) *Bot {
	opts := Options{UpdateTimeout: 60}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: time.Minute}
	}
	return &Bot{
		api:        api,
		dispatcher: dispatcher,
		opts:       opts,
		logger:     opts.Logger.Named("bot"),
	}
}

// Run polls for updates until ctx is cancelled or the update channel closes.
// Events already handed to the dispatcher keep running; the caller closes it.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.opts.UpdateTimeout
	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	b.logger.Info("listening for updates")
	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(update)
		}
	}
}

func (b *Bot) handleUpdate(update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.Chat == nil {
		return
	}
	chatID := msg.Chat.ID

	ev := b.toEvent(msg)
	ev.Notify = func(r dialog.Reply) { b.reply(chatID, r) }

	err := b.dispatcher.Submit(chatID, ev, func(replies []dialog.Reply) {
		for _, r := range replies {
			b.reply(chatID, r)
		}
	})
	switch {
	case errors.Is(err, dialog.ErrBusy):
		b.logger.Warn("dropping update from busy chat", logging.ChatID(chatID))
		b.reply(chatID, dialog.Reply{Text: msgBusy})
	case err != nil:
		b.logger.Warn("dropping update", logging.ChatID(chatID), zap.Error(err))
	}
}

// toEvent classifies msg. Anything that is neither a command nor a voice
// message is treated as text, so captions and stickers arrive as empty text.
func (b *Bot) toEvent(msg *tgbotapi.Message) dialog.Event {
	switch {
	case msg.IsCommand():
		return dialog.Command(msg.Command())
	case msg.Voice != nil:
		fileID, mime := msg.Voice.FileID, msg.Voice.MimeType
		return dialog.Voice(dialog.NewVoiceClip(func(ctx context.Context) (transcribe.Audio, error) {
			return b.download(ctx, fileID, mime)
		}))
	default:
		return dialog.Text(msg.Text)
	}
}

func (b *Bot) download(ctx context.Context, fileID, mime string) (transcribe.Audio, error) {
	url, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return transcribe.Audio{}, fmt.Errorf("failed to resolve voice file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return transcribe.Audio{}, fmt.Errorf("failed to build download request: %w", err)
	}
	resp, err := b.opts.HTTPClient.Do(req)
	if err != nil {
		return transcribe.Audio{}, fmt.Errorf("failed to download voice file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return transcribe.Audio{}, fmt.Errorf("failed to download voice file: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxVoiceBytes))
	if err != nil {
		return transcribe.Audio{}, fmt.Errorf("failed to read voice file: %w", err)
	}

	if mime == "" {
		mime = "audio/ogg"
	}
	return transcribe.Audio{Data: data, MIMEType: mime, Name: "voice.ogg"}, nil
}

func (b *Bot) reply(chatID int64, r dialog.Reply) {
	for _, msg := range messages(chatID, r) {
		if _, err := b.api.Send(msg); err != nil {
			b.logger.Error("failed to send message", logging.ChatID(chatID), zap.Error(err))
			return
		}
	}
}
