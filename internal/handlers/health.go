package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/jwebster45206/mansion-engine/pkg/storage"
)

type HealthResponse struct {
	Status     string         `json:"status"`
	Timestamp  time.Time      `json:"timestamp"`
	Service    string         `json:"service"`
	Components map[string]any `json:"components"`
}

// SessionCounter reports how many sessions are live
type SessionCounter interface {
	Count() int
}

type HealthHandler struct {
	store    storage.Store
	sessions SessionCounter
	logger   *slog.Logger
}

func NewHealthHandler(store storage.Store, sessions SessionCounter, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		store:    store,
		sessions: sessions,
		logger:   logger,
	}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	h.logger.Debug("Health check requested",
		"method", r.Method,
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr)

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	components := make(map[string]any)
	overallStatus := "healthy"

	if err := h.store.Ping(ctx); err != nil {
		h.logger.Warn("Store health check failed", "error", err)
		components["store"] = "unhealthy"
		overallStatus = "degraded"
	} else {
		components["store"] = "healthy"
	}
	if h.sessions != nil {
		components["sessions"] = h.sessions.Count()
	}

	response := HealthResponse{
		Status:     overallStatus,
		Timestamp:  time.Now(),
		Service:    "mansion-engine",
		Components: components,
	}

	statusCode := http.StatusOK
	if overallStatus != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}

	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("Error encoding health response",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
}
