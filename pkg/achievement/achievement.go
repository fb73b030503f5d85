// Package achievement holds the fixed catalog of unlockable achievements
// and the predicates that grant them.
package achievement

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/jwebster45206/mansion-engine/pkg/player"
	"github.com/jwebster45206/mansion-engine/pkg/scene"
)

// Catalog ids
const (
	ArmedAndReady   = "Armed and Ready"
	Explorer        = "Explorer"
	MasterExplorer  = "Master Explorer"
	Healer          = "Healer"
	HeroOfTheTown   = "Hero of the Town"
	FlawlessVictory = "Flawless Victory"
	Survivor        = "Survivor"
	TrueMaster      = "True Master"
	Martyr          = "Martyr"
)

// MasterExplorerRooms is the visited-room count needed at the ritual chamber
const MasterExplorerRooms = 5

//go:embed catalog.yaml
var catalogYAML []byte

// Trigger names the game event an achievement check runs on
type Trigger string

const (
	TriggerItemAdded     Trigger = "item_added"
	TriggerItemConsumed  Trigger = "item_consumed"
	TriggerRitualEntered Trigger = "ritual_entered"
	TriggerEndingReached Trigger = "ending_reached"
)

// Event is the payload of a single trigger point
type Event struct {
	Trigger Trigger
	Item    player.Item
	Ending  scene.Ending
}

// Predicate decides whether an event unlocks an achievement. It must not
// mutate the player.
type Predicate func(p *player.PlayerState, ev Event) bool

// Definition is a catalog entry
type Definition struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Icon        string `yaml:"icon" json:"icon"`
	Description string `yaml:"description" json:"description"`

	predicate Predicate
}

// Active reports whether any code path can grant the achievement
func (d Definition) Active() bool {
	return d.predicate != nil
}

// predicates binds catalog ids to their unlock rules. Survivor has no
// entry and stays inactive.
var predicates = map[string]Predicate{
	ArmedAndReady: itemAdded(player.RustySword),
	Explorer:      itemAdded(player.BasementKey),
	MasterExplorer: func(p *player.PlayerState, ev Event) bool {
		return ev.Trigger == TriggerRitualEntered && p.VisitedCount() >= MasterExplorerRooms
	},
	Healer: func(p *player.PlayerState, ev Event) bool {
		return ev.Trigger == TriggerItemConsumed && ev.Item == player.HealthPotion
	},
	HeroOfTheTown: endingIs(scene.EndingGood),
	FlawlessVictory: func(p *player.PlayerState, ev Event) bool {
		return ev.Trigger == TriggerEndingReached &&
			(ev.Ending == scene.EndingGood || ev.Ending == scene.EndingSecret) &&
			p.Health() == p.MaxHealth()
	},
	TrueMaster: endingIs(scene.EndingSecret),
	Martyr:     endingIs(scene.EndingSacrifice),
}

func itemAdded(item player.Item) Predicate {
	return func(_ *player.PlayerState, ev Event) bool {
		return ev.Trigger == TriggerItemAdded && ev.Item == item
	}
}

func endingIs(e scene.Ending) Predicate {
	return func(_ *player.PlayerState, ev Event) bool {
		return ev.Trigger == TriggerEndingReached && ev.Ending == e
	}
}

// Registry is the loaded catalog
type Registry struct {
	defs  []Definition
	index map[string]int
}

// NewRegistry parses the embedded catalog and binds predicates
func NewRegistry() (*Registry, error) {
	return parseRegistry(catalogYAML)
}

// MustRegistry panics if the embedded catalog is broken. The catalog is
// compiled in, so a failure is a build defect.
func MustRegistry() *Registry {
	r, err := NewRegistry()
	if err != nil {
		panic(err)
	}
	return r
}

func parseRegistry(data []byte) (*Registry, error) {
	var defs []Definition
	if err := yaml.Unmarshal(data, &defs); err != nil {
		return nil, fmt.Errorf("failed to parse achievement catalog: %w", err)
	}

	r := &Registry{index: make(map[string]int, len(defs))}
	for _, d := range defs {
		if d.ID == "" {
			return nil, fmt.Errorf("achievement catalog entry without id")
		}
		if _, dup := r.index[d.ID]; dup {
			return nil, fmt.Errorf("duplicate achievement id %q", d.ID)
		}
		if d.Name == "" {
			d.Name = d.ID
		}
		d.predicate = predicates[d.ID]
		r.index[d.ID] = len(r.defs)
		r.defs = append(r.defs, d)
	}
	return r, nil
}

// Definitions returns the catalog in display order
func (r *Registry) Definitions() []Definition {
	out := make([]Definition, len(r.defs))
	copy(out, r.defs)
	return out
}

func (r *Registry) Get(id string) (Definition, bool) {
	i, ok := r.index[id]
	if !ok {
		return Definition{}, false
	}
	return r.defs[i], true
}

// Total counts every catalog entry, inactive ones included
func (r *Registry) Total() int {
	return len(r.defs)
}

// Evaluate returns the ids whose predicate matches the event, in catalog
// order, regardless of whether the player already has them.
func (r *Registry) Evaluate(p *player.PlayerState, ev Event) []string {
	var matched []string
	for _, d := range r.defs {
		if d.predicate != nil && d.predicate(p, ev) {
			matched = append(matched, d.ID)
		}
	}
	return matched
}

// Apply evaluates the event and unlocks every match on the player,
// returning only the newly unlocked ids.
func (r *Registry) Apply(p *player.PlayerState, ev Event) []string {
	var unlocked []string
	for _, id := range r.Evaluate(p, ev) {
		if p.UnlockAchievement(id) {
			unlocked = append(unlocked, id)
		}
	}
	return unlocked
}

// BoardEntry is one row of the achievements panel
type BoardEntry struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
	Unlocked    bool   `json:"unlocked"`
}

// Board lists the catalog for display. Locked entries are masked.
func (r *Registry) Board(p *player.PlayerState) []BoardEntry {
	board := make([]BoardEntry, 0, len(r.defs))
	for _, d := range r.defs {
		if p.HasAchievement(d.ID) {
			board = append(board, BoardEntry{ID: d.ID, Name: d.Name, Icon: d.Icon, Description: d.Description, Unlocked: true})
			continue
		}
		board = append(board, BoardEntry{ID: "???", Name: "???", Icon: "🔒", Description: "Hidden achievement"})
	}
	return board
}
