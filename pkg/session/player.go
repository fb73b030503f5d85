package session

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/jwebster45206/mansion-engine/pkg/achievement"
	"github.com/jwebster45206/mansion-engine/pkg/player"
)

const MsgHealthFull = "Your health is already full!"

// UseResult reports the outcome of UseItem
type UseResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Healed  int    `json:"healed,omitempty"`
}

// InventoryEntry is one held item with its display data
type InventoryEntry struct {
	Item   player.Item `json:"item"`
	Name   string      `json:"name"`
	Icon   string      `json:"icon"`
	Usable bool        `json:"usable"`
}

// PlayerSummary is the status panel data
type PlayerSummary struct {
	Difficulty        player.Difficulty `json:"difficulty"`
	Health            int               `json:"health"`
	MaxHealth         int               `json:"max_health"`
	HealthBand        string            `json:"health_band"`
	Inventory         []InventoryEntry  `json:"inventory"`
	Achievements      []string          `json:"achievements"`
	AchievementsTotal int               `json:"achievements_total"`
	VisitedRooms      []string          `json:"visited_rooms"`
	GameOver          bool              `json:"game_over"`
}

// PlayerSummary returns the current player's status
func (s *Session) PlayerSummary() PlayerSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.player.Inventory()
	inv := make([]InventoryEntry, len(items))
	for i, it := range items {
		inv[i] = InventoryEntry{Item: it, Name: it.Name(), Icon: it.Icon(), Usable: it.Usable()}
	}
	return PlayerSummary{
		Difficulty:        s.player.Difficulty(),
		Health:            s.player.Health(),
		MaxHealth:         s.player.MaxHealth(),
		HealthBand:        s.player.HealthBand(),
		Inventory:         inv,
		Achievements:      s.player.Achievements(),
		AchievementsTotal: s.registry.Total(),
		VisitedRooms:      s.player.VisitedRooms(),
		GameOver:          s.gameOver,
	}
}

// UseItem consumes an item from the inventory. Only the health potion has
// an effect; every refusal leaves the state untouched.
func (s *Session) UseItem(ctx context.Context, item player.Item) UseResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, span := s.tracer.Start(ctx, "session.use_item")
	defer span.End()
	span.SetAttributes(
		attribute.String("scene", string(s.current)),
		attribute.String("item", string(item)),
	)

	res := s.useItem(item)
	span.SetAttributes(
		attribute.Int("health", s.player.Health()),
		attribute.Bool("success", res.Success),
	)
	return res
}

func (s *Session) useItem(item player.Item) UseResult {
	switch {
	case s.gameOver:
		return UseResult{Message: "The game is over."}
	case !s.player.IsAlive():
		return UseResult{Message: "It's too late for that..."}
	case !s.player.HasItem(item):
		return UseResult{Message: fmt.Sprintf("You don't have %s.", item.Name())}
	case !item.Usable():
		return UseResult{Message: fmt.Sprintf("You can't use %s right now.", item.Name())}
	case s.player.IsFullHealth():
		return UseResult{Message: MsgHealthFull}
	}

	s.player.RemoveItem(item)
	healed := s.player.Heal(player.PotionHealAmount)
	s.registry.Apply(s.player, achievement.Event{Trigger: achievement.TriggerItemConsumed, Item: item})
	s.logger.Debug("Item used", "item", item, "healed", healed)

	return UseResult{
		Success: true,
		Message: fmt.Sprintf("You used the %s and restored %d HP!", item.Name(), healed),
		Healed:  healed,
	}
}
