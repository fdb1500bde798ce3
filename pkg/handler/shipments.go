package handler

import (
	"net/http"
	"strconv"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/gbvolkov/shipment-data-maintenance-bot/pkg/storage"
)

const (
	defaultLimit = 10
	maxLimit     = 100
)

// ShipmentsPage is one page of the shipment listing.
type ShipmentsPage struct {
	Shipments   []storage.Record `json:"shipments"`
	CurrentPage int              `json:"currentPage"`
	PageSize    int              `json:"pageSize"`
	TotalItems  int              `json:"totalItems"`
	TotalPages  int              `json:"totalPages"`
}

type SummaryResponse struct {
	Customers []storage.CustomerTotal `json:"customers"`
}

// positiveParam reads name from the query. It returns def when the parameter
// is absent and false when it is not a positive integer.
func positiveParam(r *http.Request, name string, def int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return 0, false
	}
	return v, true
}

// Shipments lists stored shipments, newest first, filtered by customer and paginated.
func (h *Handler) Shipments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, r, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}

	cacheKey := r.URL.String()
	if cached, found := h.cache.Get(cacheKey); found {
		h.writeJSON(w, r, http.StatusOK, cached)
		h.logger.Debug("served from cache", zap.String("path", r.URL.Path))
		return
	}

	page, ok := positiveParam(r, "page", 1)
	if !ok {
		h.writeError(w, r, http.StatusBadRequest, "Invalid value for 'page' parameter. Must be a positive integer.")
		return
	}
	limit, ok := positiveParam(r, "limit", defaultLimit)
	if !ok {
		h.writeError(w, r, http.StatusBadRequest, "Invalid value for 'limit' parameter. Must be a positive integer.")
		return
	}
	limit = min(limit, maxLimit)

	filter := storage.Filter{Customer: r.URL.Query().Get("customer")}
	records, totalItems, err := h.reader.List(r.Context(), filter, page, limit)
	if err != nil {
		h.logger.Error("failed to list shipments", zap.Error(err))
		h.writeError(w, r, http.StatusInternalServerError, "Internal Server Error while fetching shipments.")
		return
	}
	if records == nil {
		records = []storage.Record{}
	}

	totalPages := 0
	if totalItems > 0 {
		totalPages = (totalItems + limit - 1) / limit
	}
	response := ShipmentsPage{
		Shipments:   records,
		CurrentPage: page,
		PageSize:    limit,
		TotalItems:  totalItems,
		TotalPages:  totalPages,
	}
	h.cache.Set(cacheKey, response, cache.DefaultExpiration)

	h.writeJSON(w, r, http.StatusOK, response)
	h.logger.Debug("served shipments",
		zap.Int("count", len(records)),
		zap.Int("page", page),
		zap.Int("limit", limit),
		zap.Int("total", totalItems),
	)
}

// Summary returns shipment counts and cost totals per customer.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, r, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}

	const cacheKey = "summary"
	if cached, found := h.cache.Get(cacheKey); found {
		h.writeJSON(w, r, http.StatusOK, cached)
		return
	}

	totals, err := h.reader.Summary(r.Context())
	if err != nil {
		h.logger.Error("failed to build summary", zap.Error(err))
		h.writeError(w, r, http.StatusInternalServerError, "Internal Server Error while building summary.")
		return
	}
	if totals == nil {
		totals = []storage.CustomerTotal{}
	}

	response := SummaryResponse{Customers: totals}
	h.cache.Set(cacheKey, response, cache.DefaultExpiration)
	h.writeJSON(w, r, http.StatusOK, response)
}
