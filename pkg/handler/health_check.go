package handler

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

type HealthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// HealthCheck responds with the server's status.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, r, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}

	h.writeJSON(w, r, http.StatusOK, HealthStatus{
		Status:    "OK",
		Timestamp: h.clock.Now(),
	})
	h.logger.Debug("served", zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.String("remote", r.RemoteAddr))
}
