package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/jwebster45206/mansion-engine/internal/services"
	"github.com/jwebster45206/mansion-engine/pkg/notify"
	"github.com/jwebster45206/mansion-engine/pkg/persistence"
	"github.com/jwebster45206/mansion-engine/pkg/player"
	"github.com/jwebster45206/mansion-engine/pkg/scene"
	"github.com/jwebster45206/mansion-engine/pkg/session"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type CreateSessionRequest struct {
	ProfileID string `json:"profile_id"`
}

type ChooseRequest struct {
	Transition scene.TransitionID `json:"transition"`
}

type UseItemRequest struct {
	Item string `json:"item"`
}

// PrefsRequest updates only the fields that are present
type PrefsRequest struct {
	Difficulty  *string `json:"difficulty,omitempty"`
	Language    *string `json:"language,omitempty"`
	MusicVolume *int    `json:"musicVolume,omitempty"`
}

type SessionResponse struct {
	ID            string                `json:"id"`
	ProfileID     string                `json:"profile_id"`
	Scene         scene.Scene           `json:"scene"`
	Player        session.PlayerSummary `json:"player"`
	Notifications []notify.Notification `json:"notifications"`
	Result        *session.UseResult    `json:"result,omitempty"`
}

type SessionsHandler struct {
	sessions *services.SessionManager
	events   http.Handler
	logger   *slog.Logger
}

// NewSessionsHandler serves the session routes. events may be nil, in
// which case the event stream route answers 404.
func NewSessionsHandler(sessions *services.SessionManager, events http.Handler, logger *slog.Logger) *SessionsHandler {
	return &SessionsHandler{
		sessions: sessions,
		events:   events,
		logger:   logger,
	}
}

// ServeHTTP routes:
// POST   /v1/sessions                  - Create or resume a session
// GET    /v1/sessions/{id}             - Current scene and player
// DELETE /v1/sessions/{id}             - Drop the in-memory session
// POST   /v1/sessions/{id}/choose      - Apply a transition
// POST   /v1/sessions/{id}/use         - Use an inventory item
// GET    /v1/sessions/{id}/achievements - Achievement board
// PUT    /v1/sessions/{id}/prefs       - Update preferences
// GET    /v1/sessions/{id}/events      - SSE notification stream
func (h *SessionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/sessions"), "/")
	if path == "" {
		if r.Method != http.MethodPost {
			h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed. Only POST is supported.")
			return
		}
		h.handleCreate(w, r)
		return
	}

	parts := strings.Split(path, "/")
	if len(parts) > 2 {
		h.writeError(w, http.StatusNotFound, "Unknown session route")
		return
	}

	sessionID, err := uuid.Parse(parts[0])
	if err != nil {
		h.logger.Warn("Invalid session ID", "id", parts[0], "error", err)
		h.writeError(w, http.StatusBadRequest, "Invalid session ID format")
		return
	}
	entry, err := h.sessions.Get(sessionID)
	if err != nil {
		h.writeError(w, http.StatusNotFound, "Session not found")
		return
	}

	action := ""
	if len(parts) == 2 {
		action = parts[1]
	}

	switch action {
	case "":
		switch r.Method {
		case http.MethodGet:
			h.writeSession(w, http.StatusOK, entry, nil)
		case http.MethodDelete:
			h.handleDelete(w, sessionID)
		default:
			h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: GET, DELETE")
		}
	case "choose":
		if !h.requireMethod(w, r, http.MethodPost) {
			return
		}
		h.handleChoose(w, r, entry)
	case "use":
		if !h.requireMethod(w, r, http.MethodPost) {
			return
		}
		h.handleUse(w, r, entry)
	case "achievements":
		if !h.requireMethod(w, r, http.MethodGet) {
			return
		}
		h.writeJSON(w, http.StatusOK, entry.Session.AchievementBoard())
	case "prefs":
		switch r.Method {
		case http.MethodGet:
			h.writeJSON(w, http.StatusOK, entry.Session.Prefs())
		case http.MethodPut:
			h.handlePrefs(w, r, entry)
		default:
			h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: GET, PUT")
		}
	case "events":
		if h.events == nil {
			h.writeError(w, http.StatusNotFound, "Event stream is not enabled")
			return
		}
		h.events.ServeHTTP(w, r)
	default:
		h.writeError(w, http.StatusNotFound, "Unknown session route")
	}
}

func (h *SessionsHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Warn("Invalid create session request", "error", err)
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	entry := h.sessions.Create(r.Context(), strings.TrimSpace(req.ProfileID))
	h.writeSession(w, http.StatusCreated, entry, nil)
}

func (h *SessionsHandler) handleChoose(w http.ResponseWriter, r *http.Request, entry *services.Entry) {
	var req ChooseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Transition == "" {
		h.writeError(w, http.StatusBadRequest, "transition is required")
		return
	}

	if err := entry.Session.Choose(r.Context(), req.Transition); err != nil {
		h.logger.Warn("Choice rejected",
			"session_id", entry.ID.String(),
			"transition", req.Transition,
			"error", err)
		switch {
		case errors.Is(err, session.ErrGameOver):
			h.writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, session.ErrInvalidTransition):
			h.writeError(w, http.StatusBadRequest, err.Error())
		default:
			h.writeError(w, http.StatusInternalServerError, "Failed to apply choice")
		}
		return
	}
	h.writeSession(w, http.StatusOK, entry, nil)
}

func (h *SessionsHandler) handleUse(w http.ResponseWriter, r *http.Request, entry *services.Entry) {
	var req UseItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	item, ok := player.ParseItem(req.Item)
	if !ok {
		h.writeError(w, http.StatusBadRequest, "Unknown item")
		return
	}

	res := entry.Session.UseItem(r.Context(), item)
	h.writeSession(w, http.StatusOK, entry, &res)
}

func (h *SessionsHandler) handlePrefs(w http.ResponseWriter, r *http.Request, entry *services.Entry) {
	var req PrefsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	prefs := entry.Session.Prefs()
	if req.Difficulty != nil {
		d, err := player.ParseDifficulty(*req.Difficulty)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		prefs.Difficulty = d
	}
	if req.Language != nil {
		prefs.Language = persistence.MatchLanguage(*req.Language)
	}
	if req.MusicVolume != nil {
		prefs.MusicVolume = *req.MusicVolume
	}

	h.writeJSON(w, http.StatusOK, entry.Session.UpdatePrefs(r.Context(), prefs))
}

func (h *SessionsHandler) handleDelete(w http.ResponseWriter, id uuid.UUID) {
	if err := h.sessions.Delete(id); err != nil {
		h.writeError(w, http.StatusNotFound, "Session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionsHandler) requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	h.logger.Warn("Method not allowed for session endpoint", "method", r.Method, "path", r.URL.Path)
	h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed. Only "+method+" is supported.")
	return false
}

func (h *SessionsHandler) writeSession(w http.ResponseWriter, status int, entry *services.Entry, res *session.UseResult) {
	h.writeJSON(w, status, SessionResponse{
		ID:            entry.ID.String(),
		ProfileID:     entry.Session.ProfileID(),
		Scene:         entry.Session.CurrentScene(),
		Player:        entry.Session.PlayerSummary(),
		Notifications: entry.Drain(),
		Result:        res,
	})
}

func (h *SessionsHandler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Failed to encode response", "error", err)
	}
}

func (h *SessionsHandler) writeError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: msg}); err != nil {
		h.logger.Error("Failed to encode error response", "error", err)
	}
}
