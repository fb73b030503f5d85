// Package session runs one playthrough at a time: it applies choices to
// the player, evaluates achievements, persists checkpoints and endings,
// and exposes the current scene for rendering.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/jwebster45206/mansion-engine/pkg/achievement"
	"github.com/jwebster45206/mansion-engine/pkg/notify"
	"github.com/jwebster45206/mansion-engine/pkg/persistence"
	"github.com/jwebster45206/mansion-engine/pkg/player"
	"github.com/jwebster45206/mansion-engine/pkg/scene"
	"github.com/jwebster45206/mansion-engine/pkg/storage"
)

var (
	ErrInvalidTransition = errors.New("invalid transition")
	ErrGameOver          = errors.New("game is over")
)

// DefaultDefeatDelay is how long a lethal ghost attack stays on screen
// before the bad ending
const DefaultDefeatDelay = time.Second

// Options configures a Session. Only Store is required in practice; the
// zero value of everything else is usable.
type Options struct {
	Store     storage.Store
	ProfileID string
	Notifier  notify.Notifier
	Scheduler Scheduler
	Logger    *slog.Logger
	Tracer    trace.Tracer
	Features  scene.Features
	Registry  *achievement.Registry
	// DefaultDifficulty seeds profiles with no stored difficulty
	DefaultDifficulty player.Difficulty
	// DefeatDelay <= 0 means DefaultDefeatDelay
	DefeatDelay time.Duration
}

// Session is safe for concurrent use; calls are serialized.
type Session struct {
	mu sync.Mutex

	graph       *scene.Graph
	registry    *achievement.Registry
	persist     *persistence.Manager
	notifier    notify.Notifier
	scheduler   Scheduler
	logger      *slog.Logger
	tracer      trace.Tracer
	defeatDelay time.Duration
	handlers    map[scene.TransitionID]handler

	player   *player.PlayerState
	current  scene.ID
	payload  scene.Payload
	gameOver bool
	// generation changes on every new playthrough so stale deferred
	// callbacks can tell they no longer apply
	generation uint64
	// defeat holds the cause of death while a lethal hit awaits its
	// deferred bad ending
	defeat *string
	prefs  persistence.Prefs
	stats  persistence.StatsRecord
}

// New builds a session. Call Start before the first render.
func New(opts Options) *Session {
	if opts.Store == nil {
		opts.Store = storage.NewMemoryStore()
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.Nop{}
	}
	if opts.Scheduler == nil {
		opts.Scheduler = TimerScheduler{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Tracer == nil {
		opts.Tracer = noop.NewTracerProvider().Tracer("session")
	}
	if opts.Registry == nil {
		opts.Registry = achievement.MustRegistry()
	}
	if opts.DefeatDelay <= 0 {
		opts.DefeatDelay = DefaultDefeatDelay
	}

	s := &Session{
		graph:       scene.NewGraph(opts.Features),
		registry:    opts.Registry,
		persist:     persistence.NewManager(opts.Store, opts.ProfileID, opts.Logger),
		notifier:    opts.Notifier,
		scheduler:   opts.Scheduler,
		logger:      opts.Logger,
		tracer:      opts.Tracer,
		defeatDelay: opts.DefeatDelay,
		prefs:       persistence.DefaultPrefs(),
	}
	if opts.DefaultDifficulty.IsValid() {
		s.prefs.Difficulty = opts.DefaultDifficulty
		s.persist.SetDefaults(s.prefs)
	}
	s.handlers = s.transitionTable()
	s.resetPlayer(s.prefs.Difficulty)
	s.current = scene.DifficultySelect
	return s
}

// Start loads preferences and resumes the stored save if one exists.
// Without a save it shows the difficulty prompt, or enters the mansion
// directly when the prompt is disabled.
func (s *Session) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, span := s.tracer.Start(ctx, "session.start")
	defer span.End()

	prefs, err := s.persist.LoadPrefs(ctx)
	if err != nil {
		s.persistFailed("load_prefs", err)
	}
	s.prefs = prefs

	if stats, err := s.persist.LoadStats(ctx); err != nil {
		s.persistFailed("load_stats", err)
	} else {
		s.stats = stats
	}

	rec, err := s.persist.LoadGame(ctx)
	if err != nil {
		s.persistFailed("load_save", err)
	}
	if rec != nil {
		if p, err := rec.Player(); err != nil {
			s.logger.Warn("Ignoring save that cannot be restored", "error", err)
		} else {
			s.generation++
			s.adopt(p)
			s.current = rec.CurrentRoom
			s.payload = scene.Payload{}
			span.SetAttributes(attribute.Bool("resumed", true))
			s.logger.Info("Resumed saved game", "room", rec.CurrentRoom, "health", p.Health())
			return
		}
	}

	s.showStart(ctx)
	span.SetAttributes(attribute.Bool("resumed", false))
}

// CurrentScene renders the scene the player is looking at
func (s *Session) CurrentScene() scene.Scene {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.render()
}

// Choose applies one transition. The transition must be offered by the
// current scene.
func (s *Session) Choose(ctx context.Context, t scene.TransitionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, span := s.tracer.Start(ctx, "session.choose")
	defer span.End()
	span.SetAttributes(
		attribute.String("scene", string(s.current)),
		attribute.String("transition", string(t)),
	)

	err := s.choose(ctx, t)
	span.SetAttributes(attribute.Int("health", s.player.Health()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (s *Session) choose(ctx context.Context, t scene.TransitionID) error {
	offered := s.render().Offers(t)
	if s.defeat != nil && offered {
		// a deferred defeat is due; the offered choice lands on it
		s.logger.Debug("Resolving pending defeat early", "transition", t)
		s.resolveEnding(ctx, scene.EndingBad, *s.defeat)
		return nil
	}

	if !offered {
		if s.gameOver {
			if isEndingTransition(t) {
				s.logger.Debug("Ignoring duplicate ending request", "transition", t)
				return nil
			}
			return fmt.Errorf("%w: %s", ErrGameOver, t)
		}
		return fmt.Errorf("%w: %q from %s", ErrInvalidTransition, t, s.current)
	}

	h, ok := s.handlers[t]
	if !ok {
		return fmt.Errorf("%w: %q has no handler", ErrInvalidTransition, t)
	}
	h(ctx)
	s.logger.Debug("Transition applied", "transition", t, "scene", s.current, "health", s.player.Health())
	return nil
}

// Stats returns the stored statistics, or the last known copy when the
// store cannot be read
func (s *Session) Stats(ctx context.Context) persistence.StatsRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats, err := s.persist.LoadStats(ctx)
	if err != nil {
		s.logger.Warn("Serving cached stats", "error", err)
		return s.stats
	}
	s.stats = stats
	return stats
}

// Prefs returns the preferences loaded at start
func (s *Session) Prefs() persistence.Prefs {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefs
}

// UpdatePrefs stores new preferences. Failures are reported through the
// notifier and the in-memory copy still changes.
func (s *Session) UpdatePrefs(ctx context.Context, p persistence.Prefs) persistence.Prefs {
	s.mu.Lock()
	defer s.mu.Unlock()

	saved, err := s.persist.SavePrefs(ctx, p)
	if err != nil {
		s.persistFailed("save_prefs", err)
	}
	s.prefs = saved
	return saved
}

// AchievementBoard lists the whole catalog with locked entries hidden
func (s *Session) AchievementBoard() []achievement.BoardEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.Board(s.player)
}

// ProfileID identifies whose records this session reads and writes
func (s *Session) ProfileID() string {
	return s.persist.ProfileID()
}

// GameOver reports whether the current playthrough has ended
func (s *Session) GameOver() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gameOver
}

func (s *Session) render() scene.Scene {
	sc, err := s.graph.Render(s.current, s.player, s.payload)
	if err != nil {
		s.logger.Error("Failed to render scene", "scene", s.current, "error", err)
		sc, _ = s.graph.Render(scene.Entrance, s.player, scene.Payload{})
	}
	return sc
}

// resetPlayer starts a fresh playthrough
func (s *Session) resetPlayer(d player.Difficulty) {
	s.generation++
	s.adopt(player.New(d))
}

func (s *Session) adopt(p *player.PlayerState) {
	p.SetNotifier(s.notifier)
	s.player = p
	s.gameOver = false
	s.defeat = nil
}

// showStart puts a fresh player at the beginning of the game
func (s *Session) showStart(ctx context.Context) {
	if s.graph.Features().Difficulty {
		s.resetPlayer(s.prefs.Difficulty)
		s.current = scene.DifficultySelect
		s.payload = scene.Payload{}
		return
	}
	s.startGame(ctx, s.prefs.Difficulty)
}

func (s *Session) startGame(ctx context.Context, d player.Difficulty) {
	s.resetPlayer(d)
	s.logger.Info("New game started", "difficulty", d)
	s.enter(ctx, scene.Entrance, scene.Payload{})
}

// enter moves to id, marking rooms visited and writing checkpoints
func (s *Session) enter(ctx context.Context, id scene.ID, pl scene.Payload) {
	s.current = id
	s.payload = pl
	if id.IsRoom() {
		s.player.VisitRoom(string(id))
	}
	if id.IsCheckpoint() {
		s.save(ctx)
	}
}

func (s *Session) save(ctx context.Context) {
	rec := persistence.NewSaveRecord(s.player, s.current, s.gameOver)
	if err := s.persist.SaveGame(ctx, rec); err != nil {
		s.persistFailed("save", err)
		return
	}
	s.notifier.Notify(notify.Notification{
		Kind:    notify.KindGameSaved,
		Message: "Game Saved! 💾",
		Data:    map[string]any{"room": string(s.current)},
	})
}

// resolveEnding finishes the playthrough. It runs at most once per
// playthrough.
func (s *Session) resolveEnding(ctx context.Context, e scene.Ending, message string) {
	if s.gameOver {
		return
	}
	s.gameOver = true
	s.defeat = nil

	unlocked := s.registry.Apply(s.player, achievement.Event{
		Trigger: achievement.TriggerEndingReached,
		Ending:  e,
	})

	if stats, err := s.persist.RecordEnding(ctx, e, s.player); err != nil {
		s.persistFailed("record_ending", err)
		s.stats.RecordEnding(e, s.player)
	} else {
		s.stats = stats
	}

	if err := s.persist.DeleteSave(ctx); err != nil {
		s.persistFailed("delete_save", err)
	} else {
		s.notifier.Notify(notify.Notification{
			Kind:    notify.KindSaveDeleted,
			Message: "Save Deleted! 🗑️",
		})
	}

	s.notifier.Notify(notify.Notification{
		Kind:    notify.KindEndingReached,
		Message: string(e),
		Data: map[string]any{
			"ending":       string(e),
			"health":       s.player.Health(),
			"achievements": s.player.AchievementCount(),
		},
	})
	s.logger.Info("Ending reached",
		"ending", e,
		"health", s.player.Health(),
		"unlocked", unlocked,
	)

	s.enter(ctx, e.Scene(), scene.Payload{
		Message:           message,
		AchievementsTotal: s.registry.Total(),
		Stats:             s.stats.Panel(),
	})
}

// scheduleDefeat arms the deferred bad ending for the current playthrough
func (s *Session) scheduleDefeat(message string) {
	s.defeat = &message
	gen := s.generation
	s.scheduler.After(s.defeatDelay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.generation != gen || s.defeat == nil {
			return
		}
		s.resolveEnding(context.Background(), scene.EndingBad, message)
	})
}

func (s *Session) persistFailed(op string, err error) {
	s.logger.Error("Persistence failed", "op", op, "error", err)
	s.notifier.Notify(notify.Notification{
		Kind:    notify.KindSaveFailed,
		Message: "Progress could not be saved",
		Data:    map[string]any{"op": op, "error": err.Error()},
	})
}
