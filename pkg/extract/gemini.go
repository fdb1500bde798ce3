package extract

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/gbvolkov/shipment-data-maintenance-bot/internal/llm"
	"github.com/gbvolkov/shipment-data-maintenance-bot/pkg/config"
	"github.com/gbvolkov/shipment-data-maintenance-bot/pkg/shipment"
)

const defaultGeminiModel = "gemini-2.5-flash"

// Gemini extracts shipments with Gemini structured output.
type Gemini struct {
	models      llm.ContentGenerator
	model       string
	temperature float32
	timeout     time.Duration
	logger      *zap.Logger
}

func NewGemini(ctx context.Context, cfg config.ExtractionConfig, optFns ...func(*Options)) (*Gemini, error) {
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

	g := &Gemini{
		models:      models,
		model:       cfg.Model,
		temperature: float32(cfg.Temperature),
		timeout:     cfg.Timeout,
		logger:      opts.Logger.Named("extract.gemini"),
	}
	if g.model == "" {
		g.model = defaultGeminiModel
	}
	return g, nil
}

func (g *Gemini) Extract(ctx context.Context, text string) ([]shipment.Shipment, error) {
	ctx, cancel := withDefaultTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.models.GenerateContent(ctx, g.model,
		[]*genai.Content{genai.NewContentFromText(text, genai.RoleUser)},
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
			Temperature:       genai.Ptr(g.temperature),
			ResponseMIMEType:  "application/json",
			ResponseSchema:    genaiSchema(),
		},
	)
	if err != nil {
		return nil, &Error{Provider: config.ProviderGemini, Err: err}
	}

	answer := resp.Text()
	if answer == "" {
		return nil, &Error{Provider: config.ProviderGemini, Err: errors.New("empty response")}
	}

	out, err := parse([]byte(answer))
	if errors.Is(err, ErrNoShipments) {
		return nil, fmt.Errorf("%s: %w", config.ProviderGemini, err)
	}
	if err != nil {
		return nil, &Error{Provider: config.ProviderGemini, Err: err}
	}
	g.logger.Debug("extraction completed", zap.Int("shipments", len(out)))
	return out, nil
}
