// Package persistence reads and writes saves, statistics and preferences
// through a key-value store. Keys are namespaced per profile.
package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/jwebster45206/mansion-engine/pkg/player"
	"github.com/jwebster45206/mansion-engine/pkg/scene"
	"github.com/jwebster45206/mansion-engine/pkg/storage"
)

// DefaultProfile is used when no profile id is supplied
const DefaultProfile = "default"

// Manager owns the persisted records of one profile
type Manager struct {
	store    storage.Store
	profile  string
	defaults Prefs
	logger   *slog.Logger
}

// NewManager creates a manager for profileID over store
func NewManager(store storage.Store, profileID string, logger *slog.Logger) *Manager {
	if profileID == "" {
		profileID = DefaultProfile
	}
	return &Manager{
		store:    store,
		profile:  profileID,
		defaults: DefaultPrefs(),
		logger:   logger.With("profile_id", profileID),
	}
}

// SetDefaults changes what LoadPrefs falls back to for missing values
func (m *Manager) SetDefaults(p Prefs) {
	m.defaults = p.Normalize()
}

func (m *Manager) ProfileID() string {
	return m.profile
}

func (m *Manager) saveKey() string {
	return "save:" + m.profile
}

func (m *Manager) statsKey() string {
	return "stats:" + m.profile
}

func (m *Manager) prefKey(name string) string {
	return "prefs:" + m.profile + ":" + name
}

// SaveGame writes the resumable snapshot
func (m *Manager) SaveGame(ctx context.Context, rec SaveRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal save: %w", err)
	}
	if err := m.store.Set(ctx, m.saveKey(), string(data)); err != nil {
		return fmt.Errorf("failed to write save: %w", err)
	}
	m.logger.Debug("Game saved", "room", rec.CurrentRoom, "health", rec.Health)
	return nil
}

// LoadGame returns the stored save, or nil when there is none. A save
// that cannot be decoded or resumed counts as none.
func (m *Manager) LoadGame(ctx context.Context) (*SaveRecord, error) {
	raw, err := m.store.Get(ctx, m.saveKey())
	if err != nil {
		return nil, fmt.Errorf("failed to read save: %w", err)
	}
	if raw == "" {
		return nil, nil
	}

	var rec SaveRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		m.logger.Warn("Ignoring malformed save", "error", err)
		return nil, nil
	}
	if err := rec.Validate(); err != nil {
		m.logger.Warn("Ignoring unusable save", "error", err)
		return nil, nil
	}
	if rec.GameOver {
		m.logger.Warn("Ignoring save of a finished game")
		return nil, nil
	}
	return &rec, nil
}

// DeleteSave removes the save. A missing save is not an error.
func (m *Manager) DeleteSave(ctx context.Context) error {
	if err := m.store.Delete(ctx, m.saveKey()); err != nil {
		return fmt.Errorf("failed to delete save: %w", err)
	}
	m.logger.Debug("Save deleted")
	return nil
}

// LoadStats returns the stored statistics. Missing or malformed data
// yields a zero record.
func (m *Manager) LoadStats(ctx context.Context) (StatsRecord, error) {
	raw, err := m.store.Get(ctx, m.statsKey())
	if err != nil {
		return StatsRecord{}, fmt.Errorf("failed to read stats: %w", err)
	}
	if raw == "" {
		return StatsRecord{}, nil
	}

	var stats StatsRecord
	if err := json.Unmarshal([]byte(raw), &stats); err != nil {
		m.logger.Warn("Ignoring malformed stats", "error", err)
		return StatsRecord{}, nil
	}
	return stats, nil
}

func (m *Manager) SaveStats(ctx context.Context, stats StatsRecord) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}
	if err := m.store.Set(ctx, m.statsKey(), string(data)); err != nil {
		return fmt.Errorf("failed to write stats: %w", err)
	}
	return nil
}

// RecordEnding folds a finished playthrough into the stored statistics
// and returns the updated record
func (m *Manager) RecordEnding(ctx context.Context, e scene.Ending, p *player.PlayerState) (StatsRecord, error) {
	stats, err := m.LoadStats(ctx)
	if err != nil {
		return stats, err
	}
	stats.RecordEnding(e, p)
	if err := m.SaveStats(ctx, stats); err != nil {
		return stats, err
	}
	m.logger.Info("Ending recorded", "ending", e, "games_played", stats.GamesPlayed)
	return stats, nil
}

// LoadPrefs reads each preference independently. Missing or invalid
// values fall back to their defaults.
func (m *Manager) LoadPrefs(ctx context.Context) (Prefs, error) {
	prefs := m.defaults

	d, err := m.store.Get(ctx, m.prefKey("difficulty"))
	if err != nil {
		return prefs, fmt.Errorf("failed to read difficulty preference: %w", err)
	}
	if d != "" {
		prefs.Difficulty = player.Difficulty(d)
	}

	lang, err := m.store.Get(ctx, m.prefKey("language"))
	if err != nil {
		return prefs, fmt.Errorf("failed to read language preference: %w", err)
	}
	if lang != "" {
		prefs.Language = lang
	}

	vol, err := m.store.Get(ctx, m.prefKey("musicVolume"))
	if err != nil {
		return prefs, fmt.Errorf("failed to read volume preference: %w", err)
	}
	if vol != "" {
		if v, err := strconv.Atoi(vol); err == nil {
			prefs.MusicVolume = v
		} else {
			m.logger.Warn("Ignoring malformed volume preference", "value", vol)
		}
	}

	return prefs.Normalize(), nil
}

// SavePrefs normalizes and writes every preference
func (m *Manager) SavePrefs(ctx context.Context, prefs Prefs) (Prefs, error) {
	prefs = prefs.Normalize()
	values := []struct{ name, value string }{
		{"difficulty", string(prefs.Difficulty)},
		{"language", prefs.Language},
		{"musicVolume", strconv.Itoa(prefs.MusicVolume)},
	}
	for _, v := range values {
		if err := m.store.Set(ctx, m.prefKey(v.name), v.value); err != nil {
			return prefs, fmt.Errorf("failed to write %s preference: %w", v.name, err)
		}
	}
	return prefs, nil
}
