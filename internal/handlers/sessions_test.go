package handlers

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/mansion-engine/internal/services"
	"github.com/jwebster45206/mansion-engine/pkg/achievement"
	"github.com/jwebster45206/mansion-engine/pkg/notify"
	"github.com/jwebster45206/mansion-engine/pkg/persistence"
	"github.com/jwebster45206/mansion-engine/pkg/player"
	"github.com/jwebster45206/mansion-engine/pkg/scene"
	"github.com/jwebster45206/mansion-engine/pkg/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestAPI(t *testing.T) (*http.ServeMux, *services.SessionManager) {
	t.Helper()
	logger := testLogger()
	sessions := services.NewSessionManager(services.SessionManagerOptions{
		Store:    storage.NewMemoryStore(),
		Logger:   logger,
		Features: scene.AllFeatures(),
	})

	mux := http.NewServeMux()
	sessionsHandler := NewSessionsHandler(sessions, nil, logger)
	mux.Handle("/v1/sessions", sessionsHandler)
	mux.Handle("/v1/sessions/", sessionsHandler)
	mux.Handle("/v1/profiles/", NewStatsHandler(sessions, logger))
	return mux, sessions
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func createSession(t *testing.T, h http.Handler, profileID string) SessionResponse {
	t.Helper()
	rr := do(t, h, http.MethodPost, "/v1/sessions", CreateSessionRequest{ProfileID: profileID})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var resp SessionResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	return resp
}

func choose(t *testing.T, h http.Handler, id string, tr scene.TransitionID) *httptest.ResponseRecorder {
	t.Helper()
	return do(t, h, http.MethodPost, "/v1/sessions/"+id+"/choose", ChooseRequest{Transition: tr})
}

func decodeSession(t *testing.T, rr *httptest.ResponseRecorder) SessionResponse {
	t.Helper()
	var resp SessionResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	return resp
}

func TestSessionsHandler_Create(t *testing.T) {
	api, sessions := newTestAPI(t)

	resp := createSession(t, api, "alice")
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "alice", resp.ProfileID)
	assert.Equal(t, scene.DifficultySelect, resp.Scene.ID)
	assert.Equal(t, 100, resp.Player.Health)
	assert.NotNil(t, resp.Notifications)
	assert.Equal(t, 1, sessions.Count())
}

func TestSessionsHandler_CreateWithoutBody(t *testing.T) {
	api, _ := newTestAPI(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/sessions", nil)
	rr := httptest.NewRecorder()
	api.ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	resp := decodeSession(t, rr)
	assert.NotEmpty(t, resp.ProfileID, "a profile id is generated")
}

func TestSessionsHandler_Errors(t *testing.T) {
	api, _ := newTestAPI(t)
	id := createSession(t, api, "bob").ID

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"list not supported", http.MethodGet, "/v1/sessions", "", http.StatusMethodNotAllowed},
		{"malformed id", http.MethodGet, "/v1/sessions/not-a-uuid", "", http.StatusBadRequest},
		{"unknown id", http.MethodGet, "/v1/sessions/8a1e0c44-4a55-4a0e-9a53-2f1d2b7a0c11", "", http.StatusNotFound},
		{"unknown route", http.MethodGet, "/v1/sessions/" + id + "/dance", "", http.StatusNotFound},
		{"too deep", http.MethodGet, "/v1/sessions/" + id + "/choose/again", "", http.StatusNotFound},
		{"choose needs post", http.MethodGet, "/v1/sessions/" + id + "/choose", "", http.StatusMethodNotAllowed},
		{"choose bad json", http.MethodPost, "/v1/sessions/" + id + "/choose", "{", http.StatusBadRequest},
		{"choose empty transition", http.MethodPost, "/v1/sessions/" + id + "/choose", "{}", http.StatusBadRequest},
		{"choose not offered", http.MethodPost, "/v1/sessions/" + id + "/choose", `{"transition":"go_attic"}`, http.StatusBadRequest},
		{"use unknown item", http.MethodPost, "/v1/sessions/" + id + "/use", `{"item":"lantern"}`, http.StatusBadRequest},
		{"prefs bad difficulty", http.MethodPut, "/v1/sessions/" + id + "/prefs", `{"difficulty":"nightmare"}`, http.StatusBadRequest},
		{"events disabled", http.MethodGet, "/v1/sessions/" + id + "/events", "", http.StatusNotFound},
		{"patch session", http.MethodPatch, "/v1/sessions/" + id, "", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			api.ServeHTTP(rr, req)

			assert.Equal(t, tt.status, rr.Code)
			var resp ErrorResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestSessionsHandler_PlayToEnding(t *testing.T) {
	api, _ := newTestAPI(t)
	id := createSession(t, api, "carol").ID

	steps := []scene.TransitionID{
		scene.SelectNormal,
		scene.GoLibrary, scene.TakeBook, scene.GoLibrary, scene.GoEntrance,
		scene.GoKitchen, scene.SearchCabinet, scene.GoKitchen,
		scene.InvestigateSound, scene.UseHolyWater, scene.GoKitchen, scene.GoEntrance,
		scene.GoBedroom, scene.OpenRitualDoor,
	}
	var resp SessionResponse
	for _, step := range steps {
		rr := choose(t, api, id, step)
		require.Equal(t, http.StatusOK, rr.Code, "%s: %s", step, rr.Body.String())
		resp = decodeSession(t, rr)
	}
	assert.Equal(t, scene.RitualChamber, resp.Scene.ID)

	rr := choose(t, api, id, scene.PerformRitual)
	require.Equal(t, http.StatusOK, rr.Code)
	resp = decodeSession(t, rr)
	assert.Equal(t, scene.GoodEnding, resp.Scene.ID)
	assert.Equal(t, scene.EndingGood, resp.Scene.Ending)
	assert.True(t, resp.Player.GameOver)

	var kinds []notify.Kind
	for _, n := range resp.Notifications {
		kinds = append(kinds, n.Kind)
	}
	assert.Contains(t, kinds, notify.KindEndingReached)
	assert.Contains(t, kinds, notify.KindSaveDeleted)
	assert.Contains(t, resp.Player.Achievements, achievement.HeroOfTheTown)

	// a repeated ending request is ignored, other choices conflict
	rr = choose(t, api, id, scene.FreeSpirit)
	assert.Equal(t, http.StatusOK, rr.Code)
	rr = choose(t, api, id, scene.GoLibrary)
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = do(t, api, http.MethodGet, "/v1/profiles/carol/stats", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var stats persistence.StatsRecord
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&stats))
	assert.Equal(t, 1, stats.GamesPlayed)
	assert.Equal(t, 1, stats.GoodEndings)
	assert.Equal(t, 100, stats.BestHealthScore)
}

func TestSessionsHandler_UseItem(t *testing.T) {
	api, _ := newTestAPI(t)
	id := createSession(t, api, "dave").ID

	for _, step := range []scene.TransitionID{scene.SelectNormal, scene.GoBasement, scene.SearchCrate} {
		require.Equal(t, http.StatusOK, choose(t, api, id, step).Code)
	}

	rr := do(t, api, http.MethodPost, "/v1/sessions/"+id+"/use", UseItemRequest{Item: "Health Potion"})
	require.Equal(t, http.StatusOK, rr.Code)
	resp := decodeSession(t, rr)
	require.NotNil(t, resp.Result)
	assert.False(t, resp.Result.Success)
	assert.Equal(t, "Your health is already full!", resp.Result.Message)

	var held []player.Item
	for _, it := range resp.Player.Inventory {
		held = append(held, it.Item)
	}
	assert.Contains(t, held, player.HealthPotion, "a refused potion is kept")
}

func TestSessionsHandler_Achievements(t *testing.T) {
	api, _ := newTestAPI(t)
	id := createSession(t, api, "erin").ID

	rr := do(t, api, http.MethodGet, "/v1/sessions/"+id+"/achievements", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var board []achievement.BoardEntry
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&board))
	assert.Len(t, board, achievement.MustRegistry().Total())
	for _, e := range board {
		assert.False(t, e.Unlocked)
	}
}

func TestSessionsHandler_Prefs(t *testing.T) {
	api, _ := newTestAPI(t)
	id := createSession(t, api, "frank").ID

	rr := do(t, api, http.MethodPut, "/v1/sessions/"+id+"/prefs", map[string]any{
		"difficulty":  "hard",
		"language":    "ru-RU",
		"musicVolume": 80,
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var prefs persistence.Prefs
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&prefs))
	assert.Equal(t, persistence.Prefs{Difficulty: player.Hard, Language: "ru", MusicVolume: 80}, prefs)

	rr = do(t, api, http.MethodPut, "/v1/sessions/"+id+"/prefs", map[string]any{"musicVolume": 500})
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&prefs))
	assert.Equal(t, persistence.DefaultMusicVolume, prefs.MusicVolume, "out of range volume resets")
	assert.Equal(t, player.Hard, prefs.Difficulty, "absent fields are kept")

	rr = do(t, api, http.MethodGet, "/v1/sessions/"+id+"/prefs", nil)
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestSessionsHandler_Delete(t *testing.T) {
	api, sessions := newTestAPI(t)
	id := createSession(t, api, "gina").ID

	rr := do(t, api, http.MethodDelete, "/v1/sessions/"+id, nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, 0, sessions.Count())

	rr = do(t, api, http.MethodGet, "/v1/sessions/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestStatsHandler_Errors(t *testing.T) {
	api, _ := newTestAPI(t)

	rr := do(t, api, http.MethodPost, "/v1/profiles/x/stats", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)

	rr = do(t, api, http.MethodGet, "/v1/profiles/x", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, api, http.MethodGet, "/v1/profiles/nobody/stats", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var stats persistence.StatsRecord
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&stats))
	assert.Zero(t, stats.GamesPlayed)
}
