package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gbvolkov/shipment-data-maintenance-bot/internal/llm"
	"github.com/gbvolkov/shipment-data-maintenance-bot/pkg/config"
	"github.com/gbvolkov/shipment-data-maintenance-bot/pkg/shipment"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultOpenAIModel   = "gpt-4o-mini"
)

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIJSONSchema struct {
	Name   string         `json:"name"`
	Strict bool           `json:"strict"`
	Schema map[string]any `json:"schema"`
}

type openAIResponseFormat struct {
	Type       string            `json:"type"`
	JSONSchema *openAIJSONSchema `json:"json_schema,omitempty"`
}

type openAIRequest struct {
	Model          string                `json:"model"`
	Messages       []openAIMessage       `json:"messages"`
	Temperature    float64               `json:"temperature"`
	ResponseFormat *openAIResponseFormat `json:"response_format,omitempty"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
			Refusal string `json:"refusal"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// OpenAI extracts shipments through the chat completions endpoint with a
// strict JSON schema response format.
type OpenAI struct {
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	timeout     time.Duration
	retrier     *llm.Retrier
	logger      *zap.Logger
}

func NewOpenAI(cfg config.ExtractionConfig, optFns ...func(*Options)) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai extraction: API key not configured")
	}
	var opts Options
	for _, fn := range optFns {
		fn(&opts)
	}
	opts.defaults()

	logger := opts.Logger.Named("extract.openai")
	c := &OpenAI{
		apiKey:      cfg.APIKey,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout,
		retrier: &llm.Retrier{
			Client:     opts.HTTPClient,
			MaxRetries: cfg.MaxRetries,
			Backoff:    opts.Backoff,
			Logger:     logger,
		},
		logger: logger,
	}
	if c.baseURL == "" {
		c.baseURL = defaultOpenAIBaseURL
	}
	if c.model == "" {
		c.model = defaultOpenAIModel
	}
	return c, nil
}

func (c *OpenAI) Extract(ctx context.Context, text string) ([]shipment.Shipment, error) {
	ctx, cancel := withDefaultTimeout(ctx, c.timeout)
	defer cancel()

	started := time.Now()
	content, err := c.complete(ctx, text)
	if err != nil {
		return nil, &Error{Provider: config.ProviderOpenAI, Err: err}
	}

	out, err := parse([]byte(content))
	if errors.Is(err, ErrNoShipments) {
		return nil, fmt.Errorf("%s: %w", config.ProviderOpenAI, err)
	}
	if err != nil {
		return nil, &Error{Provider: config.ProviderOpenAI, Err: err}
	}
	c.logger.Debug("extraction completed",
		zap.Int("shipments", len(out)),
		zap.Duration("elapsed", time.Since(started)),
	)
	return out, nil
}

func (c *OpenAI) complete(ctx context.Context, text string) (string, error) {
	body, err := json.Marshal(openAIRequest{
		Model: c.model,
		Messages: []openAIMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: text},
		},
		Temperature: c.temperature,
		ResponseFormat: &openAIResponseFormat{
			Type: "json_schema",
			JSONSchema: &openAIJSONSchema{
				Name:   schemaName,
				Strict: true,
				Schema: jsonSchema(),
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	respBody, err := c.retrier.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		return req, nil
	})
	if err != nil {
		return "", err
	}

	var resp openAIResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if resp.Error != nil {
		return "", fmt.Errorf("API error: %s", resp.Error.Message)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no completion returned")
	}
	msg := resp.Choices[0].Message
	if msg.Refusal != "" {
		return "", fmt.Errorf("model refused: %s", msg.Refusal)
	}
	return msg.Content, nil
}
