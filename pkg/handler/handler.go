// Package handler serves the read-only HTTP API over stored shipments.
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/gbvolkov/shipment-data-maintenance-bot/internal/clock"
	"github.com/gbvolkov/shipment-data-maintenance-bot/pkg/shipment"
	"github.com/gbvolkov/shipment-data-maintenance-bot/pkg/storage"
)

type MessageResponse struct {
	Message string `json:"message"`
}

type Options struct {
	Logger *zap.Logger
	Clock  clock.Clock
	// CacheTTL is how long list and summary responses are reused.
	CacheTTL time.Duration
}

// Handler answers API requests from a storage.Reader. Responses are cached
// until the TTL passes or a shipment is stored through Track.
type Handler struct {
	reader storage.Reader
	cache  *cache.Cache
	clock  clock.Clock
	logger *zap.Logger
}

func New(reader storage.Reader, optFns ...func(*Options)) *Handler {
	opts := Options{CacheTTL: 5 * time.Minute}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}
	return &Handler{
		reader: reader,
		cache:  cache.New(opts.CacheTTL, 2*opts.CacheTTL),
		clock:  opts.Clock,
		logger: opts.Logger.Named("http"),
	}
}

// Routes registers every endpoint on a new mux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.HealthCheck)
	mux.HandleFunc("/api/v1/shipments", h.Shipments)
	mux.HandleFunc("/api/v1/shipments/summary", h.Summary)
	return mux
}

// Track wraps ledger so that every stored shipment invalidates the cache.
// The returned ledger still answers queries through the handler's reader.
func (h *Handler) Track(ledger storage.Ledger) storage.Ledger {
	return &trackedLedger{Ledger: ledger, Reader: h.reader, cache: h.cache, logger: h.logger}
}

type trackedLedger struct {
	storage.Ledger
	storage.Reader
	cache  *cache.Cache
	logger *zap.Logger
}

func (t *trackedLedger) Append(ctx context.Context, s shipment.Shipment) error {
	if err := t.Ledger.Append(ctx, s); err != nil {
		return err
	}
	t.cache.Flush()
	t.logger.Debug("cache flushed after new shipment", zap.String("shipment_id", s.ID))
	return nil
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed to encode response", zap.String("path", r.URL.Path), zap.Error(err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	h.writeJSON(w, r, status, MessageResponse{Message: message})
}
