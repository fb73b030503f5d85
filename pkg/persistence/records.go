package persistence

import (
	"fmt"

	"github.com/jwebster45206/mansion-engine/pkg/player"
	"github.com/jwebster45206/mansion-engine/pkg/scene"
)

// SaveRecord is the resumable snapshot of a playthrough
type SaveRecord struct {
	Health       int               `json:"health"`
	Inventory    []player.Item     `json:"inventory"`
	VisitedRooms []string          `json:"visitedRooms"`
	Achievements []string          `json:"achievements"`
	CurrentRoom  scene.ID          `json:"currentRoom"`
	GameOver     bool              `json:"gameOver"`
	Difficulty   player.Difficulty `json:"difficulty"`
}

// NewSaveRecord captures p standing in room
func NewSaveRecord(p *player.PlayerState, room scene.ID, gameOver bool) SaveRecord {
	snap := p.Snapshot()
	return SaveRecord{
		Health:       snap.Health,
		Inventory:    snap.Inventory,
		VisitedRooms: snap.VisitedRooms,
		Achievements: snap.Achievements,
		CurrentRoom:  room,
		GameOver:     gameOver,
		Difficulty:   snap.Difficulty,
	}
}

// Player rebuilds the saved player with its original difficulty
func (r SaveRecord) Player() (*player.PlayerState, error) {
	return player.FromSnapshot(player.Snapshot{
		Difficulty:   r.Difficulty,
		Health:       r.Health,
		Inventory:    r.Inventory,
		VisitedRooms: r.VisitedRooms,
		Achievements: r.Achievements,
	})
}

// Validate rejects records a session could not resume from
func (r SaveRecord) Validate() error {
	if !r.Difficulty.IsValid() {
		return fmt.Errorf("invalid difficulty %q", r.Difficulty)
	}
	if !r.CurrentRoom.IsCheckpoint() {
		return fmt.Errorf("invalid current room %q", r.CurrentRoom)
	}
	// checkpoint saves are only written for a living player
	if r.Health <= 0 || r.Health > r.Difficulty.MaxHealth() {
		return fmt.Errorf("health %d is outside 1..%d for %s", r.Health, r.Difficulty.MaxHealth(), r.Difficulty)
	}
	return nil
}

// StatsRecord accumulates across playthroughs and is never deleted
type StatsRecord struct {
	GamesPlayed       int `json:"gamesPlayed"`
	GoodEndings       int `json:"goodEndings"`
	EvilEndings       int `json:"evilEndings"`
	NeutralEndings    int `json:"neutralEndings"`
	BadEndings        int `json:"badEndings"`
	SecretEndings     int `json:"secretEndings"`
	SacrificeEndings  int `json:"sacrificeEndings"`
	CowardEndings     int `json:"cowardEndings"`
	TotalAchievements int `json:"totalAchievements"`
	BestHealthScore   int `json:"bestHealthScore"`
}

// RecordEnding counts one finished playthrough
func (s *StatsRecord) RecordEnding(e scene.Ending, p *player.PlayerState) {
	s.GamesPlayed++
	switch e {
	case scene.EndingGood:
		s.GoodEndings++
	case scene.EndingEvil:
		s.EvilEndings++
	case scene.EndingNeutral:
		s.NeutralEndings++
	case scene.EndingSecret:
		s.SecretEndings++
	case scene.EndingSacrifice:
		s.SacrificeEndings++
	case scene.EndingCoward:
		s.CowardEndings++
	default:
		s.BadEndings++
	}

	s.TotalAchievements = max(s.TotalAchievements, p.AchievementCount())
	if e.RecordsBestHealth() {
		s.BestHealthScore = max(s.BestHealthScore, p.Health())
	}
}

// Panel converts the record for display on an ending scene
func (s StatsRecord) Panel() *scene.Stats {
	return &scene.Stats{
		GamesPlayed:       s.GamesPlayed,
		GoodEndings:       s.GoodEndings,
		EvilEndings:       s.EvilEndings,
		NeutralEndings:    s.NeutralEndings,
		BadEndings:        s.BadEndings,
		SecretEndings:     s.SecretEndings,
		SacrificeEndings:  s.SacrificeEndings,
		CowardEndings:     s.CowardEndings,
		TotalAchievements: s.TotalAchievements,
		BestHealthScore:   s.BestHealthScore,
	}
}
