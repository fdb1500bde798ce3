package transcribe

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/gbvolkov/shipment-data-maintenance-bot/internal/llm"
	"github.com/gbvolkov/shipment-data-maintenance-bot/pkg/config"
)

const (
	defaultGeminiModel = "gemini-2.5-flash"
	instruction        = "Transcribe this voice message verbatim in its original language. Return only the transcript, or nothing if there is no speech."
)

// Gemini transcribes clips by sending them inline to a multimodal model.
type Gemini struct {
	models llm.ContentGenerator
	model  string
	logger *zap.Logger
}

func NewGemini(ctx context.Context, cfg config.TranscriptionConfig, optFns ...func(*Options)) (*Gemini, error) {
	var opts Options
	for _, fn := range optFns {
		fn(&opts)
	}
	opts.defaults()

	models := opts.Generator
	if models == nil {
		client, err := llm.NewGenAIClient(ctx, cfg.APIKey, cfg.BaseURL)
		if err != nil {
			return nil, err
		}
		models = client.Models
	}

	g := &Gemini{models: models, model: cfg.Model, logger: opts.Logger.Named("transcribe.gemini")}
	if g.model == "" {
		g.model = defaultGeminiModel
	}
	return g, nil
}

func (g *Gemini) Transcribe(ctx context.Context, audio Audio) (string, error) {
	mime := audio.MIMEType
	if mime == "" {
		mime = "audio/ogg"
	}
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(instruction),
			genai.NewPartFromBytes(audio.Data, mime),
		}, genai.RoleUser),
	}

	resp, err := g.models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0),
	})
	if err != nil {
		return "", fmt.Errorf("gemini transcription: %w", err)
	}
	text := resp.Text()
	g.logger.Debug("transcription completed", zap.Int("bytes", len(audio.Data)), zap.Int("chars", len(text)))
	return recognized(text)
}
