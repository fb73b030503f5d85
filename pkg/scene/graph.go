package scene

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jwebster45206/mansion-engine/pkg/player"
)

var ErrUnknownScene = errors.New("unknown scene")

// DefaultBadEndingMessage is shown when no cause of death was recorded
const DefaultBadEndingMessage = "Your wounds were too severe..."

type renderFunc func(p *player.PlayerState, pl Payload) Scene

// Graph renders scenes from player state. It holds no playthrough state
// of its own and is safe to share.
type Graph struct {
	features Features
	scenes   map[ID]renderFunc
}

// NewGraph builds the mansion graph with the given optional content
func NewGraph(f Features) *Graph {
	g := &Graph{features: f}
	g.scenes = map[ID]renderFunc{
		DifficultySelect:  g.difficultySelect,
		Entrance:          g.entrance,
		Library:           g.library,
		LibraryTakeBook:   g.libraryTakeBook,
		LibraryReadBook:   g.libraryReadBook,
		Kitchen:           g.kitchen,
		KitchenCabinet:    g.kitchenCabinet,
		GhostEncounter:    g.ghostEncounter,
		GhostBanished:     g.ghostBanished,
		GhostFlee:         g.ghostFlee,
		GhostFailedAttack: g.ghostFailedAttack,
		Bedroom:           g.bedroom,
		Basement:          g.basement,
		BasementSword:     g.basementSword,
		BasementCrate:     g.basementCrate,
		Attic:             g.attic,
		AtticKey:          g.atticKey,
		RitualChamber:     g.ritualChamber,
		GoodEnding:        g.goodEnding,
		EvilEnding:        g.evilEnding,
		EscapeEnding:      g.escapeEnding,
		BadEnding:         g.badEnding,
		SecretEnding:      g.secretEnding,
		SacrificeEnding:   g.sacrificeEnding,
		CowardEnding:      g.cowardEnding,
	}
	return g
}

// Features returns the optional content switches the graph was built with
func (g *Graph) Features() Features {
	return g.features
}

// Has reports whether id is a scene in this graph
func (g *Graph) Has(id ID) bool {
	_, ok := g.scenes[id]
	return ok
}

// Render produces the scene for id. The result depends only on the
// arguments.
func (g *Graph) Render(id ID, p *player.PlayerState, pl Payload) (Scene, error) {
	fn, ok := g.scenes[id]
	if !ok {
		return Scene{}, fmt.Errorf("%w: %q", ErrUnknownScene, id)
	}
	s := fn(p, pl)
	s.ID = id
	if e, ok := id.Ending(); ok {
		s.Ending = e
	}
	return s, nil
}

// MissingRitualItems lists what the bedroom door still needs, key first
func MissingRitualItems(p *player.PlayerState) []player.Item {
	var missing []player.Item
	for _, it := range []player.Item{player.SilverKey, player.AncientBook} {
		if !p.HasItem(it) {
			missing = append(missing, it)
		}
	}
	return missing
}

func backToEntrance() Choice {
	return Choice{Label: "← Return to Entrance Hall", Transition: GoEntrance}
}

func (g *Graph) difficultySelect(_ *player.PlayerState, _ Payload) Scene {
	icons := map[player.Difficulty]string{player.Easy: "🟢", player.Normal: "🟡", player.Hard: "🔴"}
	styles := map[player.Difficulty]Style{player.Easy: StyleSuccess, player.Hard: StyleDanger}
	transitions := map[player.Difficulty]TransitionID{
		player.Easy:   SelectEasy,
		player.Normal: SelectNormal,
		player.Hard:   SelectHard,
	}

	choices := make([]Choice, 0, len(player.Difficulties))
	for _, d := range player.Difficulties {
		choices = append(choices, Choice{
			Label:      fmt.Sprintf("%s %s - %s", icons[d], displayDifficulty(d), d.Description()),
			Transition: transitions[d],
			Style:      styles[d],
		})
	}
	return Scene{
		Title: "⚙️ Select Difficulty",
		Body: []string{
			"Choose your preferred difficulty level. This will affect your starting health and damage taken.",
		},
		Choices: choices,
	}
}

func displayDifficulty(d player.Difficulty) string {
	s := string(d)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func (g *Graph) entrance(_ *player.PlayerState, _ Payload) Scene {
	choices := []Choice{
		{Label: "🚪 Go to the Library (left door)", Transition: GoLibrary},
		{Label: "🚪 Go to the Kitchen (right door)", Transition: GoKitchen},
		{Label: "🚪 Go upstairs to the Bedroom", Transition: GoBedroom},
		{Label: "🚪 Go down to the Basement", Transition: GoBasement},
		{Label: "🚪 Go upstairs to the Attic", Transition: GoAttic},
	}
	if g.features.CowardEnding {
		choices = append(choices, Choice{Label: "🏃 Flee the mansion", Transition: FleeMansion, Style: StyleDanger})
	}
	return Scene{
		Title: "🏚️ Entrance Hall",
		Body: []string{
			"You find yourself in a dusty entrance hall. Moonlight filters through broken windows.",
			"You see multiple doors and passages before you...",
			"Where will you go?",
		},
		Choices: choices,
	}
}

func (g *Graph) library(p *player.PlayerState, _ Payload) Scene {
	if p.HasItem(player.AncientBook) {
		return Scene{
			Title: "📚 Library",
			Body: []string{
				"The library is quiet now. You've already taken the ancient book.",
				"Nothing else here seems useful.",
			},
			Choices: []Choice{backToEntrance()},
		}
	}
	return Scene{
		Title: "📚 Library",
		Body: []string{
			"The library is filled with ancient books and scrolls covered in dust.",
			"You notice a peculiar book glowing faintly on the shelf. Strange symbols emanate from its cover...",
		},
		Choices: []Choice{
			{Label: "📖 Take the Ancient Book", Transition: TakeBook, Style: StyleSuccess},
			{Label: "👁️ Read the book here", Transition: ReadBook},
			backToEntrance(),
		},
	}
}

func (g *Graph) libraryTakeBook(_ *player.PlayerState, _ Payload) Scene {
	return Scene{
		Title: "📚 Library",
		Body: []string{
			"You take the Ancient Book. It feels warm to the touch, as if it's alive.",
			"Opening it reveals strange symbols and diagrams. This could be important...",
			"✓ Ancient Book added to inventory",
		},
		Choices: []Choice{{Label: "Continue exploring the Library", Transition: GoLibrary}},
	}
}

func (g *Graph) libraryReadBook(_ *player.PlayerState, _ Payload) Scene {
	return Scene{
		Title: "📚 Library",
		Body: []string{
			"You carefully read through the ancient pages...",
			"The book contains a ritual to banish evil spirits!",
			"According to the text, you'll need:",
			"✦ A Silver Key (to unlock the ritual chamber)",
			"✦ Holy Water (to purify the area)",
			"✦ This Ancient Book (for the incantation)",
		},
		Choices: []Choice{{Label: "Continue exploring the Library", Transition: GoLibrary}},
	}
}

func (g *Graph) kitchen(p *player.PlayerState, _ Payload) Scene {
	choices := make([]Choice, 0, 3)
	if !p.HasItem(player.HolyWater) {
		choices = append(choices, Choice{Label: "🗄️ Search the cabinet", Transition: SearchCabinet, Style: StyleSuccess})
	}
	choices = append(choices,
		Choice{Label: "🔍 Investigate the scratching sound", Transition: InvestigateSound, Style: StyleDanger},
		backToEntrance(),
	)
	return Scene{
		Title: "🍳 Kitchen",
		Body: []string{
			"The kitchen is dark and smells of decay. Rusty utensils hang from hooks on the walls.",
			"You see an old cabinet in the corner. You also hear strange scratching sounds coming from the shadows...",
		},
		Choices: choices,
	}
}

func (g *Graph) kitchenCabinet(_ *player.PlayerState, _ Payload) Scene {
	return Scene{
		Title: "🍳 Kitchen",
		Body: []string{
			"You open the dusty cabinet and find a bottle of Holy Water!",
			`The label reads: "Blessed by the Blackwood Church - Use against evil spirits"`,
			"✓ Holy Water added to inventory",
		},
		Choices: []Choice{{Label: "Continue exploring the Kitchen", Transition: GoKitchen}},
	}
}

func (g *Graph) ghostEncounter(p *player.PlayerState, pl Payload) Scene {
	if p.HasItem(player.HolyWater) {
		return Scene{
			Title: "👻 Ghost Encounter!",
			Body: []string{
				"A terrifying ghost materializes from the shadows!",
				"Its hollow eyes lock onto you. The temperature drops instantly. It lunges forward!",
				"You have Holy Water - you could use it, or try something else...",
			},
			Choices: []Choice{
				{Label: "💧 Use Holy Water", Transition: UseHolyWater, Style: StyleSuccess},
				{Label: "🏃 Run away!", Transition: RunFromGhost},
				{Label: "👊 Try to fight it", Transition: FightGhost, Style: StyleDanger},
			},
		}
	}
	return Scene{
		Title: "👻 Ghost Encounter!",
		Body: []string{
			"A terrifying ghost appears from the darkness!",
			"You have nothing to defend yourself with!",
			fmt.Sprintf("The ghost attacks you! -%d HP", pl.Damage),
		},
		Choices: []Choice{{Label: "Escape back to Entrance Hall", Transition: EscapeGhost}},
	}
}

func (g *Graph) ghostBanished(_ *player.PlayerState, _ Payload) Scene {
	return Scene{
		Title: "✨ Victory!",
		Body: []string{
			"You throw the Holy Water at the ghost!",
			"The ghost shrieks in agony and begins to dissolve!",
			"As it vanishes, something metallic clatters to the floor...",
			"✓ You found a Silver Key!",
		},
		Choices: []Choice{{Label: "Continue exploring the Kitchen", Transition: GoKitchen}},
	}
}

func (g *Graph) ghostFlee(_ *player.PlayerState, pl Payload) Scene {
	return Scene{
		Title: "🏃 Escape!",
		Body: []string{
			"You run as fast as you can!",
			fmt.Sprintf("The ghost scratches your back as you flee! -%d HP", pl.Damage),
			"You make it back to the entrance hall, breathing heavily...",
		},
		Choices: []Choice{{Label: "Catch your breath", Transition: GoEntrance}},
	}
}

func (g *Graph) ghostFailedAttack(_ *player.PlayerState, pl Payload) Scene {
	return Scene{
		Title: "💥 Failed Attack!",
		Body: []string{
			"Your fists pass harmlessly through the ghost's ethereal form!",
			fmt.Sprintf("The ghost counterattacks viciously! -%d HP", pl.Damage),
			"You barely escape with your life, stumbling back to the entrance hall...",
		},
		Choices: []Choice{{Label: "Recover in the Entrance Hall", Transition: GoEntrance}},
	}
}

func (g *Graph) bedroom(p *player.PlayerState, _ Payload) Scene {
	missing := MissingRitualItems(p)
	if len(missing) == 0 {
		return Scene{
			Title: "🛏️ Master Bedroom",
			Body: []string{
				"You enter a lavish but decayed bedroom. Dust covers everything.",
				"At the far end, there's a door that glows with an eerie, pulsing light.",
				"You have both the Silver Key and the Ancient Book!",
				"You can sense powerful magic beyond this door...",
			},
			Choices: []Choice{
				{Label: "🔑 Use the Silver Key on the glowing door", Transition: OpenRitualDoor, Style: StyleSuccess},
				backToEntrance(),
			},
		}
	}

	names := make([]string, len(missing))
	for i, it := range missing {
		names[i] = it.Name()
	}
	return Scene{
		Title: "🛏️ Master Bedroom",
		Body: []string{
			"You enter a lavish but decayed bedroom.",
			"There's a door at the far end that glows with an eerie light, but it's locked with a mystical seal.",
			"You're missing: " + strings.Join(names, ", "),
			"You need to explore more...",
		},
		Choices: []Choice{backToEntrance()},
	}
}

func (g *Graph) basement(p *player.PlayerState, _ Payload) Scene {
	switch {
	case !p.HasItem(player.RustySword):
		return Scene{
			Title: "🕯️ Basement",
			Body: []string{
				"You descend creaky wooden stairs into a damp, dark basement.",
				"The smell of mold fills your nostrils. Water drips from the ceiling.",
				"In the corner, you spot an old weapon rack with a rusty sword!",
				"There's also a dusty crate in the corner...",
			},
			Choices: []Choice{
				{Label: "⚔️ Take the Rusty Sword", Transition: TakeSword, Style: StyleSuccess},
				{Label: "📦 Search the crate", Transition: SearchCrate},
				backToEntrance(),
			},
		}
	case !p.HasItem(player.HealthPotion):
		return Scene{
			Title: "🕯️ Basement",
			Body: []string{
				"The dark basement feels less threatening now that you have a weapon.",
				"The crate in the corner still remains unopened...",
			},
			Choices: []Choice{
				{Label: "📦 Search the crate", Transition: SearchCrate},
				backToEntrance(),
			},
		}
	default:
		return Scene{
			Title: "🕯️ Basement",
			Body:  []string{"The basement is empty now. Nothing else of value remains."},
			Choices: []Choice{
				backToEntrance(),
			},
		}
	}
}

func (g *Graph) basementSword(_ *player.PlayerState, _ Payload) Scene {
	return Scene{
		Title: "🕯️ Basement",
		Body: []string{
			"You take the rusty sword. It's old but still sharp!",
			"✓ Rusty Sword added to inventory",
			"You feel more confident now that you have a weapon.",
		},
		Choices: []Choice{{Label: "Continue exploring the Basement", Transition: GoBasement}},
	}
}

func (g *Graph) basementCrate(_ *player.PlayerState, _ Payload) Scene {
	return Scene{
		Title: "🕯️ Basement",
		Body: []string{
			"You pry open the old crate. Inside, you find a glowing red potion!",
			"✓ Health Potion added to inventory",
			"This could restore your health when you need it most.",
		},
		Choices: []Choice{{Label: "Continue exploring the Basement", Transition: GoBasement}},
	}
}

func (g *Graph) attic(p *player.PlayerState, _ Payload) Scene {
	if p.HasItem(player.BasementKey) {
		return Scene{
			Title: "🏚️ Attic",
			Body: []string{
				"The attic is quiet. The journal sits on the desk, but you've already read it.",
				"Nothing else here seems useful.",
			},
			Choices: []Choice{backToEntrance()},
		}
	}
	return Scene{
		Title: "🏚️ Attic",
		Body: []string{
			"You climb up to the dusty attic. Cobwebs hang everywhere.",
			"Old furniture and forgotten memories fill this space.",
			"You find an old journal on a desk. Reading it reveals:",
			`"The darkness came from below... the basement holds secrets..."`,
			"You also notice a small key hanging on the wall.",
		},
		Choices: []Choice{
			{Label: "🗝️ Take the Basement Key", Transition: TakeBasementKey, Style: StyleSuccess},
			backToEntrance(),
		},
	}
}

func (g *Graph) atticKey(_ *player.PlayerState, _ Payload) Scene {
	return Scene{
		Title: "🏚️ Attic",
		Body: []string{
			"You take the basement key. It's old and covered in rust.",
			"✓ Basement Key added to inventory",
			"This might unlock something important...",
		},
		Choices: []Choice{{Label: "Continue exploring the Attic", Transition: GoAttic}},
	}
}

func (g *Graph) ritualChamber(p *player.PlayerState, _ Payload) Scene {
	choices := []Choice{
		{Label: "✨ Perform the banishment ritual (Destroy the spirit)", Transition: PerformRitual, Style: StyleSuccess},
		{Label: "🔓 Free the spirit (Accept its offer)", Transition: FreeSpirit, Style: StyleDanger},
		{Label: "🏃 Run away and escape the mansion", Transition: EscapeRitual},
	}
	if g.features.SacrificeEnding && p.HasItem(player.RustySword) {
		choices = append(choices, Choice{
			Label:      "🕯️ Turn the sword on yourself to seal the spirit forever",
			Transition: SacrificeSelf,
			Style:      StyleDanger,
		})
	}
	if g.features.SecretEnding && p.HasAllItems(player.KeyItems...) {
		choices = append(choices, Choice{
			Label:      "👑 Complete the true ritual",
			Transition: CompleteRitual,
			Style:      StyleSuccess,
		})
	}
	return Scene{
		Title: "⚡ The Ritual Chamber",
		Body: []string{
			"The Silver Key turns in the lock. The door swings open...",
			"Inside, you find a dark ritual chamber lit by ethereal blue flames.",
			"In the center, a powerful dark spirit is bound in chains of pure light.",
			`"Free me, mortal, and I shall grant you power beyond your wildest imagination..."`,
			"You remember the banishment ritual from the Ancient Book.",
			"This is it. Your choice will determine everything.",
		},
		Choices: choices,
	}
}

func (g *Graph) endingScene(title string, p *player.PlayerState, pl Payload, again string, body ...string) Scene {
	if pl.AchievementsTotal > 0 {
		body = append(body, fmt.Sprintf("Achievements: %d/%d", p.AchievementCount(), pl.AchievementsTotal))
	}
	if pl.Stats != nil {
		body = append(body, g.statsPanel(*pl.Stats, pl.AchievementsTotal)...)
	}
	return Scene{
		Title:   title,
		Body:    body,
		Choices: []Choice{{Label: again, Transition: PlayAgain}},
	}
}

func (g *Graph) goodEnding(p *player.PlayerState, pl Payload) Scene {
	return g.endingScene("✨ GOOD ENDING: Hero", p, pl, "🔄 Play Again",
		"You open the Ancient Book and begin reciting the sacred words...",
		"Brilliant light fills the chamber as the dark spirit screams in fury!",
		`"NO! You cannot do this! I am eternal!"`,
		"But the light grows stronger. The spirit dissolves into nothingness.",
		"The mansion begins to shake and crumble around you. You run!",
		"You burst through the front door just as the mansion collapses behind you.",
		"The storm has cleared. The sun is rising.",
		"The town is safe. The disappearances will stop. You are hailed as a hero!",
		"🏆 THE END - You saved the town!",
	)
}

func (g *Graph) evilEnding(p *player.PlayerState, pl Payload) Scene {
	return g.endingScene("⚫ DARK ENDING: Corrupted", p, pl, "🔄 Play Again",
		"You approach the spirit and break the chains binding it...",
		"Dark energy explodes outward, flowing into your body!",
		"Power! Unimaginable power courses through your veins!",
		"You look at your reflection in a nearby mirror.",
		"Your eyes... they're completely black. Empty. Like the spirit's.",
		"You feel no remorse. No fear. Only hunger for more power.",
		"You have become the new master of the Haunted Mansion. The disappearances will continue...",
		"😈 THE END - You joined the darkness",
	)
}

func (g *Graph) escapeEnding(p *player.PlayerState, pl Payload) Scene {
	return g.endingScene("🚪 NEUTRAL ENDING: Survivor", p, pl, "🔄 Play Again",
		"This is too much. This is beyond you.",
		"You back away from the ritual chamber and run.",
		"Down the stairs, through the entrance hall, and out the front door.",
		"You don't look back. Not even once.",
		"But as you drive away, you can see the mansion in your rearview mirror.",
		"It still stands. The mystery remains unsolved.",
		"Others may not be so lucky to escape...",
		"🏃 THE END - You escaped with your life",
	)
}

func (g *Graph) badEnding(p *player.PlayerState, pl Payload) Scene {
	msg := pl.Message
	if msg == "" {
		msg = DefaultBadEndingMessage
	}
	return g.endingScene("💀 BAD ENDING: Defeat", p, pl, "🔄 Try Again",
		msg,
		"Your vision fades to black...",
		"You have fallen in the Haunted Mansion.",
		"Your story ends here...",
		"Perhaps in another life, you will make different choices.",
		"💀 GAME OVER",
	)
}

func (g *Graph) secretEnding(p *player.PlayerState, pl Payload) Scene {
	return g.endingScene("👑 SECRET ENDING: True Master", p, pl, "🔄 Play Again",
		"You pour the Holy Water in a circle around the chains and lay the Rusty Sword across the Ancient Book.",
		"The Basement Key and the Silver Key glow as you speak the final verse.",
		"The spirit does not scream. It weeps, and then it is gone.",
		"The trapped souls of the missing townsfolk drift out of the walls, free at last.",
		"The mansion stands quiet and whole. Its master is you, and it answers only to the light.",
		"👑 THE END - You uncovered the true ritual",
	)
}

func (g *Graph) sacrificeEnding(p *player.PlayerState, pl Payload) Scene {
	return g.endingScene("🕯️ SACRIFICE ENDING: Martyr", p, pl, "🔄 Play Again",
		"The ritual needs more than words. It needs a life freely given.",
		"You grip the Rusty Sword and step into the circle of blue flame.",
		"The chains of light flare white as your blood touches them.",
		"The spirit howls as the seal closes over it for all time.",
		"The town will never know your name, but it will never lose another soul to this house.",
		"🕯️ THE END - You gave your life to seal the darkness",
	)
}

func (g *Graph) cowardEnding(p *player.PlayerState, pl Payload) Scene {
	return g.endingScene("🐔 COWARD ENDING: Fled", p, pl, "🔄 Play Again",
		"The front door groans as you shoulder it open and run into the storm.",
		"You never learn what waited in the dark rooms above and below.",
		"Back in town, the posters of the missing stare at you from every wall.",
		"🐔 THE END - You fled before the story began",
	)
}

// statsPanel lists the lifetime counters. Optional endings only appear
// when their content is switched on.
func (g *Graph) statsPanel(st Stats, total int) []string {
	lines := []string{
		"📊 Statistics",
		fmt.Sprintf("Games played: %d", st.GamesPlayed),
		fmt.Sprintf("Good endings: %d", st.GoodEndings),
		fmt.Sprintf("Evil endings: %d", st.EvilEndings),
		fmt.Sprintf("Neutral endings: %d", st.NeutralEndings),
		fmt.Sprintf("Bad endings: %d", st.BadEndings),
	}
	if g.features.SecretEnding {
		lines = append(lines, fmt.Sprintf("Secret endings: %d", st.SecretEndings))
	}
	if g.features.SacrificeEnding {
		lines = append(lines, fmt.Sprintf("Sacrifice endings: %d", st.SacrificeEndings))
	}
	if g.features.CowardEnding {
		lines = append(lines, fmt.Sprintf("Coward endings: %d", st.CowardEndings))
	}
	lines = append(lines, fmt.Sprintf("Best health: %d HP", st.BestHealthScore))
	if total > 0 {
		lines = append(lines, fmt.Sprintf("Total achievements: %d/%d", st.TotalAchievements, total))
	} else {
		lines = append(lines, fmt.Sprintf("Total achievements: %d", st.TotalAchievements))
	}
	return lines
}
