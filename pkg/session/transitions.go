package session

import (
	"context"

	"github.com/jwebster45206/mansion-engine/pkg/achievement"
	"github.com/jwebster45206/mansion-engine/pkg/player"
	"github.com/jwebster45206/mansion-engine/pkg/scene"
)

// Raw damage dealt by the kitchen ghost
const (
	GhostAmbushDamage = 25
	GhostFleeDamage   = 15
	GhostFightDamage  = 30
)

const (
	msgGhostAmbush = "You were defeated by the ghost..."
	msgGhostFlee   = "The ghost caught you as you fled..."
	msgGhostFight  = "You tried to fight the ghost with your bare hands. It was a fatal mistake..."
)

type handler func(ctx context.Context)

func (s *Session) transitionTable() map[scene.TransitionID]handler {
	return map[scene.TransitionID]handler{
		scene.SelectEasy:   s.selectDifficulty(player.Easy),
		scene.SelectNormal: s.selectDifficulty(player.Normal),
		scene.SelectHard:   s.selectDifficulty(player.Hard),

		scene.GoEntrance:  s.goTo(scene.Entrance),
		scene.GoLibrary:   s.goTo(scene.Library),
		scene.GoKitchen:   s.goTo(scene.Kitchen),
		scene.GoBedroom:   s.goTo(scene.Bedroom),
		scene.GoBasement:  s.goTo(scene.Basement),
		scene.GoAttic:     s.goTo(scene.Attic),
		scene.EscapeGhost: s.goTo(scene.Entrance),
		scene.ReadBook:    s.goTo(scene.LibraryReadBook),

		scene.TakeBook:        s.pickUp(player.AncientBook, scene.LibraryTakeBook),
		scene.SearchCabinet:   s.pickUp(player.HolyWater, scene.KitchenCabinet),
		scene.TakeSword:       s.pickUp(player.RustySword, scene.BasementSword),
		scene.SearchCrate:     s.pickUp(player.HealthPotion, scene.BasementCrate),
		scene.TakeBasementKey: s.pickUp(player.BasementKey, scene.AtticKey),

		scene.InvestigateSound: s.investigateSound,
		scene.UseHolyWater:     s.useHolyWater,
		scene.RunFromGhost:     s.ghostHit(GhostFleeDamage, scene.GhostFlee, msgGhostFlee),
		scene.FightGhost:       s.ghostHit(GhostFightDamage, scene.GhostFailedAttack, msgGhostFight),
		scene.OpenRitualDoor:   s.openRitualDoor,

		scene.PerformRitual:  s.ending(scene.EndingGood),
		scene.FreeSpirit:     s.ending(scene.EndingEvil),
		scene.EscapeRitual:   s.ending(scene.EndingNeutral),
		scene.SacrificeSelf:  s.ending(scene.EndingSacrifice),
		scene.CompleteRitual: s.ending(scene.EndingSecret),
		scene.FleeMansion:    s.ending(scene.EndingCoward),

		scene.PlayAgain: s.playAgain,
	}
}

func isEndingTransition(t scene.TransitionID) bool {
	switch t {
	case scene.PerformRitual, scene.FreeSpirit, scene.EscapeRitual,
		scene.SacrificeSelf, scene.CompleteRitual, scene.FleeMansion:
		return true
	}
	return false
}

func (s *Session) selectDifficulty(d player.Difficulty) handler {
	return func(ctx context.Context) {
		s.prefs.Difficulty = d
		saved, err := s.persist.SavePrefs(ctx, s.prefs)
		if err != nil {
			s.persistFailed("save_prefs", err)
		}
		s.prefs = saved
		s.startGame(ctx, d)
	}
}

func (s *Session) goTo(id scene.ID) handler {
	return func(ctx context.Context) {
		s.enter(ctx, id, scene.Payload{})
	}
}

func (s *Session) pickUp(item player.Item, next scene.ID) handler {
	return func(ctx context.Context) {
		s.player.AddItem(item)
		s.registry.Apply(s.player, achievement.Event{Trigger: achievement.TriggerItemAdded, Item: item})
		s.enter(ctx, next, scene.Payload{})
	}
}

func (s *Session) investigateSound(ctx context.Context) {
	if s.player.HasItem(player.HolyWater) {
		s.enter(ctx, scene.GhostEncounter, scene.Payload{})
		return
	}

	dmg := s.player.TakeDamage(GhostAmbushDamage)
	s.enter(ctx, scene.GhostEncounter, scene.Payload{Damage: dmg})
	if !s.player.IsAlive() {
		s.scheduleDefeat(msgGhostAmbush)
	}
}

func (s *Session) useHolyWater(ctx context.Context) {
	s.player.RemoveItem(player.HolyWater)
	s.player.AddItem(player.SilverKey)
	s.registry.Apply(s.player, achievement.Event{Trigger: achievement.TriggerItemAdded, Item: player.SilverKey})
	s.enter(ctx, scene.GhostBanished, scene.Payload{})
}

// ghostHit applies raw damage and either shows next or, when lethal,
// ends the game at once
func (s *Session) ghostHit(raw int, next scene.ID, deathMessage string) handler {
	return func(ctx context.Context) {
		dmg := s.player.TakeDamage(raw)
		if !s.player.IsAlive() {
			s.resolveEnding(ctx, scene.EndingBad, deathMessage)
			return
		}
		s.enter(ctx, next, scene.Payload{Damage: dmg})
	}
}

func (s *Session) openRitualDoor(ctx context.Context) {
	s.enter(ctx, scene.RitualChamber, scene.Payload{})
	s.registry.Apply(s.player, achievement.Event{Trigger: achievement.TriggerRitualEntered})
}

func (s *Session) ending(e scene.Ending) handler {
	return func(ctx context.Context) {
		s.resolveEnding(ctx, e, "")
	}
}

func (s *Session) playAgain(ctx context.Context) {
	s.logger.Info("Starting a new playthrough")
	s.showStart(ctx)
}
