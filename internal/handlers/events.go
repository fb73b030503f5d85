package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/mansion-engine/internal/services"
	"github.com/jwebster45206/mansion-engine/internal/services/events"
)

// DefaultKeepalive is how often an idle stream gets a comment line
const DefaultKeepalive = 30 * time.Second

// EventsHandler handles Server-Sent Events (SSE) for session notifications
type EventsHandler struct {
	broadcaster *events.Broadcaster
	sessions    *services.SessionManager
	logger      *slog.Logger
	keepalive   time.Duration
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(broadcaster *events.Broadcaster, sessions *services.SessionManager, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{
		broadcaster: broadcaster,
		sessions:    sessions,
		logger:      logger,
		keepalive:   DefaultKeepalive,
	}
}

// ServeHTTP handles SSE requests for session events
// GET /v1/sessions/{sessionID}/events
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.logger.Warn("Method not allowed for events endpoint",
			"method", r.Method,
			"path", r.URL.Path)
		w.WriteHeader(http.StatusMethodNotAllowed)
		if err := json.NewEncoder(w).Encode(ErrorResponse{
			Error: "Method not allowed. Only GET is supported.",
		}); err != nil {
			h.logger.Error("Failed to encode error response", "error", err)
		}
		return
	}

	// Expected: /v1/sessions/{sessionID}/events
	pathParts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(pathParts) != 4 || pathParts[0] != "v1" || pathParts[1] != "sessions" || pathParts[3] != "events" {
		w.WriteHeader(http.StatusBadRequest)
		if err := json.NewEncoder(w).Encode(ErrorResponse{
			Error: "Invalid path. Expected /v1/sessions/{sessionID}/events",
		}); err != nil {
			h.logger.Error("Failed to encode error response", "error", err)
		}
		return
	}

	sessionID, err := uuid.Parse(pathParts[2])
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		if err := json.NewEncoder(w).Encode(ErrorResponse{
			Error: "Invalid session ID format.",
		}); err != nil {
			h.logger.Error("Failed to encode error response", "error", err)
		}
		return
	}
	if _, err := h.sessions.Get(sessionID); err != nil {
		w.WriteHeader(http.StatusNotFound)
		if err := json.NewEncoder(w).Encode(ErrorResponse{
			Error: "Session not found",
		}); err != nil {
			h.logger.Error("Failed to encode error response", "error", err)
		}
		return
	}

	h.logger.Info("SSE connection established",
		"session_id", sessionID.String(),
		"remote_addr", r.RemoteAddr)

	// Subscribe before the headers go out so no event raised after the
	// client sees "connected" is lost
	pubsub := h.broadcaster.Subscribe(r.Context(), sessionID.String())
	defer func() {
		if err := pubsub.Close(); err != nil {
			h.logger.Error("Failed to close pubsub", "error", err)
		}
	}()
	if _, err := pubsub.Receive(r.Context()); err != nil {
		h.logger.Error("Failed to subscribe to session events", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		if err := json.NewEncoder(w).Encode(ErrorResponse{
			Error: "Event stream unavailable",
		}); err != nil {
			h.logger.Error("Failed to encode error response", "error", err)
		}
		return
	}
	msgChan := pubsub.Channel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)

	keepaliveTicker := time.NewTicker(h.keepalive)
	defer keepaliveTicker.Stop()

	h.sendSSE(w, "connected", map[string]any{
		"session_id": sessionID.String(),
		"message":    "Connected to event stream",
	})

	for {
		select {
		case <-r.Context().Done():
			h.logger.Info("SSE client disconnected",
				"session_id", sessionID.String())
			return

		case msg, ok := <-msgChan:
			if !ok {
				return
			}
			var event events.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				h.logger.Error("Failed to unmarshal event", "error", err, "payload", msg.Payload)
				continue
			}
			h.sendSSE(w, string(event.Type), event)

		case <-keepaliveTicker.C:
			if _, err := fmt.Fprintf(w, ": keepalive\n\n"); err != nil {
				h.logger.Error("Failed to write keepalive", "error", err)
				return
			}
			if flusher, ok := w.(http.Flusher); ok {
				flusher.Flush()
			}
		}
	}
}

// sendSSE sends a Server-Sent Event to the client
func (h *EventsHandler) sendSSE(w http.ResponseWriter, eventType string, data any) {
	dataJSON, err := json.Marshal(data)
	if err != nil {
		h.logger.Error("Failed to marshal SSE data", "error", err)
		return
	}

	if _, err := fmt.Fprintf(w, "event: %s\n", eventType); err != nil {
		h.logger.Error("Failed to write event type", "error", err)
		return
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", string(dataJSON)); err != nil {
		h.logger.Error("Failed to write event data", "error", err)
		return
	}

	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
}
