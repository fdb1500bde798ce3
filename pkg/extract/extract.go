// Package extract turns free-form shipment descriptions into shipment records
// with the help of a language model.
package extract

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/gbvolkov/shipment-data-maintenance-bot/internal/llm"
	"github.com/gbvolkov/shipment-data-maintenance-bot/pkg/config"
	"github.com/gbvolkov/shipment-data-maintenance-bot/pkg/shipment"
)

// Extractor returns the shipments described by text in the order they were
// mentioned. Implementations must be safe for concurrent use.
type Extractor interface {
	Extract(ctx context.Context, text string) ([]shipment.Shipment, error)
}

var (
	// ErrExtraction is matched by every provider failure.
	ErrExtraction = errors.New("extraction failed")
	// ErrNoShipments reports a well-formed answer that contained no records.
	ErrNoShipments = errors.New("no shipments found")
)

// Error is a failure reported by a specific provider.
type Error struct {
	Provider string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s extraction: %v", e.Provider, e.Err)
}

func (e *Error) Unwrap() []error {
	return []error{ErrExtraction, e.Err}
}

// Options tunes provider construction. Zero values pick defaults.
type Options struct {
	Logger     *zap.Logger
	HTTPClient *http.Client
	// Backoff is the first delay between retries; it doubles on every attempt.
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

// New builds the provider named by cfg.Provider.
func New(ctx context.Context, cfg config.ExtractionConfig, optFns ...func(*Options)) (Extractor, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return NewOpenAI(cfg, optFns...)
	case config.ProviderGemini:
		return NewGemini(ctx, cfg, optFns...)
	default:
		return nil, fmt.Errorf("unknown extraction provider %q", cfg.Provider)
	}
}

const systemPrompt = `You extract shipment records from operator notes written in Russian.
Return every shipment the note mentions, in the order mentioned.
Copy values as written, keeping units and currency words. Leave a field null when the note does not state it.
A procurement is a purchase from a supplier that feeds the shipment; attach each one to its shipment.`

// withDefaultTimeout bounds ctx by d unless the caller already set a deadline.
func withDefaultTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok || d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}
