package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/mansion-engine/internal/services"
	"github.com/jwebster45206/mansion-engine/internal/services/events"
	"github.com/jwebster45206/mansion-engine/pkg/notify"
	"github.com/jwebster45206/mansion-engine/pkg/scene"
	"github.com/jwebster45206/mansion-engine/pkg/storage"
)

func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return client
}

func newEventsAPI(t *testing.T) (*httptest.Server, *services.SessionManager) {
	t.Helper()
	logger := testLogger()
	broadcaster := events.NewBroadcaster(setupTestRedis(t), logger)
	sessions := services.NewSessionManager(services.SessionManagerOptions{
		Store:       storage.NewMemoryStore(),
		Broadcaster: broadcaster,
		Logger:      logger,
		Features:    scene.AllFeatures(),
	})

	eventsHandler := NewEventsHandler(broadcaster, sessions, logger)
	mux := http.NewServeMux()
	mux.Handle("/v1/sessions/", NewSessionsHandler(sessions, eventsHandler, logger))

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, sessions
}

// readEvent returns the next event name and data payload, skipping
// keepalive comments
func readEvent(t *testing.T, sc *bufio.Scanner) (string, string) {
	t.Helper()
	var name, data string
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		case line == "" && name != "":
			return name, data
		}
	}
	t.Fatalf("stream ended before an event arrived: %v", sc.Err())
	return "", ""
}

func TestEventsHandler_StreamsSessionNotifications(t *testing.T) {
	srv, sessions := newEventsAPI(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	entry := sessions.Create(ctx, "streamer")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/v1/sessions/"+entry.ID.String()+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	sc := bufio.NewScanner(resp.Body)
	name, _ := readEvent(t, sc)
	require.Equal(t, "connected", name)

	require.NoError(t, entry.Session.Choose(ctx, scene.SelectNormal))

	name, data := readEvent(t, sc)
	assert.Equal(t, string(notify.KindGameSaved), name)

	var ev events.Event
	require.NoError(t, json.Unmarshal([]byte(data), &ev))
	assert.Equal(t, entry.ID.String(), ev.SessionID)
	assert.Equal(t, "streamer", ev.ProfileID)
	assert.Equal(t, "Game Saved! 💾", ev.Message)
}

func TestEventsHandler_Errors(t *testing.T) {
	srv, sessions := newEventsAPI(t)
	entry := sessions.Create(context.Background(), "p")

	tests := []struct {
		name   string
		method string
		path   string
		status int
	}{
		{"post not allowed", http.MethodPost, "/v1/sessions/" + entry.ID.String() + "/events", http.StatusMethodNotAllowed},
		{"unknown session", http.MethodGet, "/v1/sessions/8a1e0c44-4a55-4a0e-9a53-2f1d2b7a0c11/events", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, srv.URL+tt.path, nil)
			require.NoError(t, err)
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestEventsHandler_BadPath(t *testing.T) {
	logger := testLogger()
	sessions := services.NewSessionManager(services.SessionManagerOptions{Logger: logger})
	h := NewEventsHandler(events.NewBroadcaster(setupTestRedis(t), logger), sessions, logger)

	for _, path := range []string{"/v1/events", "/v1/sessions/not-a-uuid/events"} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusBadRequest, rr.Code, path)
	}
}
