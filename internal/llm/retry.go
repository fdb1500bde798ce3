// Package llm holds the plumbing shared by the model-backed extraction and
// transcription providers.
package llm

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Retrier sends HTTP requests to a model API and repeats the ones that fail
// with a rate limit, a server error or a transport error.
type Retrier struct {
	Client     *http.Client
	MaxRetries int
	// Backoff is the first delay between attempts; it doubles on every retry.
	Backoff time.Duration
	Logger  *zap.Logger
}

// Transient reports whether status is worth retrying.
func Transient(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

// Do sends the request built by newRequest until it receives a non-transient
// response and returns the body of a 200 answer. newRequest is called once per
// attempt, so the request body must be rebuilt each time.
func (r *Retrier) Do(ctx context.Context, newRequest func(ctx context.Context) (*http.Request, error)) ([]byte, error) {
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var lastErr error
	for attempt := 0; attempt <= r.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, r.Backoff<<(attempt-1)); err != nil {
				return nil, err
			}
		}

		req, err := newRequest(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		status, body, err := r.send(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			lastErr = err
			continue
		}
		if Transient(status) {
			lastErr = fmt.Errorf("API request failed with status %d", status)
			logger.Warn("retrying request",
				zap.String("path", req.URL.Path),
				zap.Int("status", status),
				zap.Int("attempt", attempt+1),
			)
			continue
		}
		if status != http.StatusOK {
			return nil, fmt.Errorf("API request failed with status %d: %s", status, strings.TrimSpace(string(body)))
		}
		return body, nil
	}
	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (r *Retrier) send(req *http.Request) (int, []byte, error) {
	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
