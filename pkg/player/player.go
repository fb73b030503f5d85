package player

import (
	"fmt"
	"math"
	"slices"

	"github.com/jwebster45206/mansion-engine/pkg/notify"
)

// PlayerState is the mutable state of a single playthrough.
// Health always stays within [0, MaxHealth].
type PlayerState struct {
	difficulty   Difficulty
	health       int
	maxHealth    int
	multiplier   float64
	inventory    []Item
	visitedRooms map[string]struct{}
	achievements map[string]struct{}

	notifier notify.Notifier
}

// Snapshot is the plain-data form of a PlayerState, used for saves.
// Sets are emitted in sorted order.
type Snapshot struct {
	Difficulty   Difficulty
	Health       int
	Inventory    []Item
	VisitedRooms []string
	Achievements []string
}

// New creates a fresh player at full health for the given difficulty
func New(d Difficulty) *PlayerState {
	if !d.IsValid() {
		d = DefaultDifficulty
	}
	return &PlayerState{
		difficulty:   d,
		health:       d.MaxHealth(),
		maxHealth:    d.MaxHealth(),
		multiplier:   d.DamageMultiplier(),
		inventory:    make([]Item, 0),
		visitedRooms: make(map[string]struct{}),
		achievements: make(map[string]struct{}),
		notifier:     notify.Nop{},
	}
}

// FromSnapshot rebuilds a player from persisted data. Health is clamped
// into range; the difficulty must be a known preset.
func FromSnapshot(s Snapshot) (*PlayerState, error) {
	if !s.Difficulty.IsValid() {
		return nil, fmt.Errorf("invalid difficulty %q", s.Difficulty)
	}
	p := New(s.Difficulty)
	p.health = min(max(s.Health, 0), p.maxHealth)
	p.inventory = append(p.inventory, s.Inventory...)
	for _, r := range s.VisitedRooms {
		p.visitedRooms[r] = struct{}{}
	}
	for _, a := range s.Achievements {
		p.achievements[a] = struct{}{}
	}
	return p, nil
}

// Snapshot copies the current state out
func (p *PlayerState) Snapshot() Snapshot {
	return Snapshot{
		Difficulty:   p.difficulty,
		Health:       p.health,
		Inventory:    p.Inventory(),
		VisitedRooms: p.VisitedRooms(),
		Achievements: p.Achievements(),
	}
}

// SetNotifier routes damage, heal and achievement toasts. nil disables them.
func (p *PlayerState) SetNotifier(n notify.Notifier) {
	if n == nil {
		n = notify.Nop{}
	}
	p.notifier = n
}

func (p *PlayerState) Difficulty() Difficulty { return p.difficulty }

func (p *PlayerState) Health() int { return p.health }

func (p *PlayerState) MaxHealth() int { return p.maxHealth }

func (p *PlayerState) DamageMultiplier() float64 { return p.multiplier }

func (p *PlayerState) IsAlive() bool { return p.health > 0 }

func (p *PlayerState) IsFullHealth() bool { return p.health >= p.maxHealth }

func (p *PlayerState) VisitedCount() int { return len(p.visitedRooms) }

func (p *PlayerState) AchievementCount() int { return len(p.achievements) }

func (p *PlayerState) HasVisited(room string) bool {
	_, ok := p.visitedRooms[room]
	return ok
}

// TakeDamage applies the difficulty multiplier to raw, rounding half up,
// and returns the damage actually dealt.
func (p *PlayerState) TakeDamage(raw int) int {
	if raw <= 0 {
		return 0
	}
	actual := int(math.Round(float64(raw) * p.multiplier))
	p.health -= actual
	if p.health < 0 {
		p.health = 0
	}

	p.notifier.Notify(notify.Notification{
		Kind:    notify.KindDamageTaken,
		Message: fmt.Sprintf("-%d HP", actual),
		Data:    map[string]any{"amount": actual, "health": p.health},
	})
	return actual
}

// Heal restores up to amount health and returns what was actually
// restored. Health never exceeds MaxHealth.
func (p *PlayerState) Heal(amount int) int {
	if amount <= 0 {
		return 0
	}
	actual := min(amount, p.maxHealth-p.health)
	p.health += actual
	if actual > 0 {
		p.notifier.Notify(notify.Notification{
			Kind:    notify.KindHealed,
			Message: fmt.Sprintf("+%d HP", actual),
			Data:    map[string]any{"amount": actual, "health": p.health},
		})
	}
	return actual
}

// AddItem appends to the inventory; duplicates are allowed
func (p *PlayerState) AddItem(item Item) {
	p.inventory = append(p.inventory, item)
}

// RemoveItem drops the first occurrence of item. Missing items are ignored.
func (p *PlayerState) RemoveItem(item Item) bool {
	idx := slices.Index(p.inventory, item)
	if idx < 0 {
		return false
	}
	p.inventory = slices.Delete(p.inventory, idx, idx+1)
	return true
}

func (p *PlayerState) HasItem(item Item) bool {
	return slices.Contains(p.inventory, item)
}

// HasAllItems reports whether every listed item is held at the same time
func (p *PlayerState) HasAllItems(items ...Item) bool {
	for _, it := range items {
		if !p.HasItem(it) {
			return false
		}
	}
	return true
}

// Inventory returns the items in pickup order
func (p *PlayerState) Inventory() []Item {
	return slices.Clone(p.inventory)
}

// VisitRoom marks a room as visited. Idempotent.
func (p *PlayerState) VisitRoom(room string) {
	p.visitedRooms[room] = struct{}{}
}

// VisitedRooms returns the visited set in sorted order
func (p *PlayerState) VisitedRooms() []string {
	return sortedKeys(p.visitedRooms)
}

// UnlockAchievement adds id to the unlocked set. It returns false, and
// notifies nobody, when id was already unlocked.
func (p *PlayerState) UnlockAchievement(id string) bool {
	if _, ok := p.achievements[id]; ok {
		return false
	}
	p.achievements[id] = struct{}{}
	p.notifier.Notify(notify.Notification{
		Kind:    notify.KindAchievementUnlocked,
		Message: "Achievement Unlocked!",
		Data:    map[string]any{"achievement": id},
	})
	return true
}

func (p *PlayerState) HasAchievement(id string) bool {
	_, ok := p.achievements[id]
	return ok
}

// Achievements returns the unlocked set in sorted order
func (p *PlayerState) Achievements() []string {
	return sortedKeys(p.achievements)
}

// HealthBand buckets health for display colouring
func (p *PlayerState) HealthBand() string {
	pct := float64(p.health) / float64(p.maxHealth) * 100
	switch {
	case pct > 60:
		return "healthy"
	case pct > 30:
		return "warning"
	default:
		return "critical"
	}
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
