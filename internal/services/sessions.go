package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/jwebster45206/mansion-engine/internal/logger"
	"github.com/jwebster45206/mansion-engine/internal/services/events"
	"github.com/jwebster45206/mansion-engine/pkg/achievement"
	"github.com/jwebster45206/mansion-engine/pkg/notify"
	"github.com/jwebster45206/mansion-engine/pkg/persistence"
	"github.com/jwebster45206/mansion-engine/pkg/player"
	"github.com/jwebster45206/mansion-engine/pkg/scene"
	"github.com/jwebster45206/mansion-engine/pkg/session"
	"github.com/jwebster45206/mansion-engine/pkg/storage"
)

var ErrSessionNotFound = errors.New("session not found")

// SessionManagerOptions configures every session the manager creates
type SessionManagerOptions struct {
	Store       storage.Store
	Broadcaster *events.Broadcaster
	Logger      *slog.Logger
	Tracer      trace.Tracer
	Features    scene.Features
	Registry    *achievement.Registry

	DefaultDifficulty player.Difficulty
	DefeatDelay       time.Duration

	// IdleTTL evicts sessions not touched for this long. Zero disables it.
	IdleTTL time.Duration
}

// Entry is one live session with the toasts it has raised since they
// were last drained
type Entry struct {
	ID      uuid.UUID
	Session *session.Session
	toasts  *notify.Recorder

	lastSeen time.Time
}

// Drain returns and clears the pending notifications
func (e *Entry) Drain() []notify.Notification {
	out := e.toasts.Drain()
	if out == nil {
		out = []notify.Notification{}
	}
	return out
}

// SessionManager keeps the in-memory sessions served by the API.
// Records persist through the store; the sessions themselves do not.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Entry
	opts     SessionManagerOptions
	logger   *slog.Logger
	now      func() time.Time
}

func NewSessionManager(opts SessionManagerOptions) *SessionManager {
	if opts.Store == nil {
		opts.Store = storage.NewMemoryStore()
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Registry == nil {
		opts.Registry = achievement.MustRegistry()
	}
	return &SessionManager{
		sessions: make(map[uuid.UUID]*Entry),
		opts:     opts,
		logger:   opts.Logger,
		now:      time.Now,
	}
}

// Create starts a session for profileID, resuming its save if there is
// one. An empty profileID gets a fresh random profile.
func (m *SessionManager) Create(ctx context.Context, profileID string) *Entry {
	if profileID == "" {
		profileID = uuid.New().String()
	}
	id := uuid.New()
	log := logger.WithSession(m.logger, id.String())

	toasts := notify.NewRecorder()
	notifier := notify.Multi{toasts}
	if m.opts.Broadcaster != nil {
		notifier = append(notifier, m.opts.Broadcaster.ForSession(id.String(), profileID))
	}

	s := session.New(session.Options{
		Store:       m.opts.Store,
		ProfileID:   profileID,
		Notifier:    notifier,
		Scheduler:   session.TimerScheduler{},
		Logger:      log,
		Tracer:      m.opts.Tracer,
		Features:    m.opts.Features,
		Registry:    m.opts.Registry,

		DefaultDifficulty: m.opts.DefaultDifficulty,
		DefeatDelay:       m.opts.DefeatDelay,
	})
	s.Start(ctx)

	entry := &Entry{ID: id, Session: s, toasts: toasts}
	m.mu.Lock()
	entry.lastSeen = m.now()
	m.sessions[id] = entry
	m.mu.Unlock()

	log.Info("Session created", "profile_id", profileID, "scene", s.CurrentScene().ID)
	return entry
}

// Get looks up a live session and marks it as used
func (m *SessionManager) Get(id uuid.UUID) (*Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	e.lastSeen = m.now()
	return e, nil
}

// Delete forgets a session. Its persisted records stay.
func (m *SessionManager) Delete(id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(m.sessions, id)
	m.logger.Info("Session deleted", "session_id", id.String())
	return nil
}

// Sweep drops sessions idle for longer than IdleTTL as of now and
// returns how many went
func (m *SessionManager) Sweep(now time.Time) int {
	if m.opts.IdleTTL <= 0 {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, e := range m.sessions {
		if now.Sub(e.lastSeen) > m.opts.IdleTTL {
			delete(m.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		m.logger.Info("Evicted idle sessions", "count", removed, "remaining", len(m.sessions))
	}
	return removed
}

// RunSweeper calls Sweep every interval until ctx is cancelled
func (m *SessionManager) RunSweeper(ctx context.Context, interval time.Duration) {
	if m.opts.IdleTTL <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep(m.now())
		}
	}
}

func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// ProfileStats reads a profile's statistics straight from the store,
// whether or not a session for it is live
func (m *SessionManager) ProfileStats(ctx context.Context, profileID string) (persistence.StatsRecord, error) {
	return persistence.NewManager(m.opts.Store, profileID, m.logger).LoadStats(ctx)
}

// Store exposes the backing store for health checks
func (m *SessionManager) Store() storage.Store {
	return m.opts.Store
}
