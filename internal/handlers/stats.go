package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jwebster45206/mansion-engine/internal/services"
)

type StatsHandler struct {
	sessions *services.SessionManager
	logger   *slog.Logger
}

func NewStatsHandler(sessions *services.SessionManager, logger *slog.Logger) *StatsHandler {
	return &StatsHandler{
		sessions: sessions,
		logger:   logger,
	}
}

// ServeHTTP handles GET /v1/profiles/{profile_id}/stats
func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		if err := json.NewEncoder(w).Encode(ErrorResponse{
			Error: "Method not allowed. Only GET is supported.",
		}); err != nil {
			h.logger.Error("Failed to encode error response", "error", err)
		}
		return
	}

	pathParts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(pathParts) != 4 || pathParts[0] != "v1" || pathParts[1] != "profiles" || pathParts[3] != "stats" || pathParts[2] == "" {
		w.WriteHeader(http.StatusBadRequest)
		if err := json.NewEncoder(w).Encode(ErrorResponse{
			Error: "Invalid path. Expected /v1/profiles/{profile_id}/stats",
		}); err != nil {
			h.logger.Error("Failed to encode error response", "error", err)
		}
		return
	}

	profileID := pathParts[2]
	stats, err := h.sessions.ProfileStats(r.Context(), profileID)
	if err != nil {
		h.logger.Error("Failed to load stats", "profile_id", profileID, "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		if err := json.NewEncoder(w).Encode(ErrorResponse{
			Error: "Failed to load stats",
		}); err != nil {
			h.logger.Error("Failed to encode error response", "error", err)
		}
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(stats); err != nil {
		h.logger.Error("Failed to encode stats response", "error", err)
	}
}
