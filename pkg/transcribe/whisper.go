package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/gbvolkov/shipment-data-maintenance-bot/internal/llm"
	"github.com/gbvolkov/shipment-data-maintenance-bot/pkg/config"
)

const (
	defaultWhisperBaseURL = "https://api.openai.com/v1"
	defaultWhisperModel   = "whisper-1"
)

// Whisper uploads clips to the OpenAI audio transcription endpoint.
type Whisper struct {
	apiKey     string
	baseURL    string
	model      string
	language   string
	retrier    *llm.Retrier
	logger     *zap.Logger
}

func NewWhisper(cfg config.TranscriptionConfig, optFns ...func(*Options)) (*Whisper, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("whisper: API key not configured")
	}
	var opts Options
	for _, fn := range optFns {
		fn(&opts)
	}
	opts.defaults()

	logger := opts.Logger.Named("transcribe.whisper")
	w := &Whisper{
		apiKey:   cfg.APIKey,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		model:    cfg.Model,
		language: cfg.Language,
		retrier: &llm.Retrier{
			Client:     opts.HTTPClient,
			MaxRetries: cfg.MaxRetries,
			Backoff:    opts.Backoff,
			Logger:     logger,
		},
		logger: logger,
	}
	if w.baseURL == "" {
		w.baseURL = defaultWhisperBaseURL
	}
	if w.model == "" {
		w.model = defaultWhisperModel
	}
	return w, nil
}

func (w *Whisper) Transcribe(ctx context.Context, audio Audio) (string, error) {
	body, contentType, err := w.form(audio)
	if err != nil {
		return "", err
	}

	respBody, err := w.retrier.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.baseURL+"/audio/transcriptions", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Authorization", "Bearer "+w.apiKey)
		return req, nil
	})
	if err != nil {
		return "", fmt.Errorf("whisper: %w", err)
	}

	var out struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", fmt.Errorf("whisper: failed to parse response: %w", err)
	}
	w.logger.Debug("transcription completed", zap.Int("bytes", len(audio.Data)), zap.Int("chars", len(out.Text)))
	return recognized(out.Text)
}

func (w *Whisper) form(audio Audio) ([]byte, string, error) {
	name := audio.Name
	if name == "" {
		name = "voice.ogg"
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := fw.Write(audio.Data); err != nil {
		return nil, "", fmt.Errorf("failed to write audio: %w", err)
	}
	fields := map[string]string{
		"model":           w.model,
		"language":        w.language,
		"response_format": "json",
	}
	for k, v := range fields {
		if v == "" {
			continue
		}
		if err := mw.WriteField(k, v); err != nil {
			return nil, "", fmt.Errorf("failed to write field %s: %w", k, err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close form: %w", err)
	}
	return buf.Bytes(), mw.FormDataContentType(), nil
}
