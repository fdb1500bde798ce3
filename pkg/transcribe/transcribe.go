// Package transcribe converts voice messages to text.
package transcribe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gbvolkov/shipment-data-maintenance-bot/internal/llm"
	"github.com/gbvolkov/shipment-data-maintenance-bot/pkg/config"
)

// Audio is an encoded voice clip.
type Audio struct {
	Data     []byte
	MIMEType string
	// Name is the file name reported to the service; only the extension matters.
	Name string
}

type Transcriber interface {
	Transcribe(ctx context.Context, audio Audio) (string, error)
}

// ErrNothingRecognized is returned when the service produced no text.
var ErrNothingRecognized = errors.New("no speech recognized")

type Options struct {
	Logger     *zap.Logger
	HTTPClient *http.Client
	// Backoff is the first delay between Whisper retries.
	Backoff time.Duration
	// Generator replaces the genai client of the Gemini provider.
	Generator llm.ContentGenerator
}

func (o *Options) defaults() {
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{Timeout: 2 * time.Minute}
	}
	if o.Backoff <= 0 {
		o.Backoff = time.Second
	}
}

func New(ctx context.Context, cfg config.TranscriptionConfig, optFns ...func(*Options)) (Transcriber, error) {
	switch cfg.Provider {
	case config.ProviderWhisper:
		return NewWhisper(cfg, optFns...)
	case config.ProviderGemini:
		return NewGemini(ctx, cfg, optFns...)
	default:
		return nil, fmt.Errorf("unknown transcription provider %q", cfg.Provider)
	}
}

func recognized(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrNothingRecognized
	}
	return text, nil
}
