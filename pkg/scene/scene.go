// Package scene is the fixed scene graph of the Blackwood Mansion. Every
// scene is recomputed from the player state each time it is shown.
package scene

// ID names a scene: a room, a one-shot event result or an ending
type ID string

const (
	DifficultySelect ID = "difficulty_select"

	Entrance ID = "entrance"
	Library  ID = "library"
	Kitchen  ID = "kitchen"
	Bedroom  ID = "bedroom"
	Basement ID = "basement"
	Attic    ID = "attic"

	LibraryTakeBook   ID = "library_take_book"
	LibraryReadBook   ID = "library_read_book"
	KitchenCabinet    ID = "kitchen_cabinet"
	GhostEncounter    ID = "ghost_encounter"
	GhostBanished     ID = "ghost_banished"
	GhostFlee         ID = "ghost_flee"
	GhostFailedAttack ID = "ghost_failed_attack"
	BasementSword     ID = "basement_sword"
	BasementCrate     ID = "basement_crate"
	AtticKey          ID = "attic_key"
	RitualChamber     ID = "ritual_chamber"

	GoodEnding      ID = "good_ending"
	EvilEnding      ID = "evil_ending"
	EscapeEnding    ID = "escape_ending"
	BadEnding       ID = "bad_ending"
	SecretEnding    ID = "secret_ending"
	SacrificeEnding ID = "sacrifice_ending"
	CowardEnding    ID = "coward_ending"
)

// IsRoom reports whether entering the scene counts as visiting a room
func (id ID) IsRoom() bool {
	switch id {
	case Entrance, Library, Kitchen, Bedroom, Basement, Attic:
		return true
	}
	return false
}

// IsCheckpoint reports whether entering the scene writes a save
func (id ID) IsCheckpoint() bool {
	switch id {
	case Entrance, Basement, Attic:
		return true
	}
	return false
}

// Ending returns the ending shown by a terminal scene
func (id ID) Ending() (Ending, bool) {
	for _, e := range Endings {
		if e.Scene() == id {
			return e, true
		}
	}
	return "", false
}

// IsTerminal reports whether only a restart can leave the scene
func (id ID) IsTerminal() bool {
	_, ok := id.Ending()
	return ok
}

// TransitionID is the closed set of player choices
type TransitionID string

const (
	SelectEasy   TransitionID = "select_easy"
	SelectNormal TransitionID = "select_normal"
	SelectHard   TransitionID = "select_hard"

	GoEntrance  TransitionID = "go_entrance"
	GoLibrary   TransitionID = "go_library"
	GoKitchen   TransitionID = "go_kitchen"
	GoBedroom   TransitionID = "go_bedroom"
	GoBasement  TransitionID = "go_basement"
	GoAttic     TransitionID = "go_attic"
	FleeMansion TransitionID = "flee_mansion"

	TakeBook         TransitionID = "take_book"
	ReadBook         TransitionID = "read_book"
	SearchCabinet    TransitionID = "search_cabinet"
	InvestigateSound TransitionID = "investigate_sound"
	UseHolyWater     TransitionID = "use_holy_water"
	RunFromGhost     TransitionID = "run_from_ghost"
	FightGhost       TransitionID = "fight_ghost"
	EscapeGhost      TransitionID = "escape_ghost"
	TakeSword        TransitionID = "take_sword"
	SearchCrate      TransitionID = "search_crate"
	TakeBasementKey  TransitionID = "take_basement_key"
	OpenRitualDoor   TransitionID = "open_ritual_door"

	PerformRitual  TransitionID = "perform_ritual"
	FreeSpirit     TransitionID = "free_spirit"
	EscapeRitual   TransitionID = "escape_ritual"
	SacrificeSelf  TransitionID = "sacrifice_self"
	CompleteRitual TransitionID = "complete_true_ritual"

	PlayAgain TransitionID = "play_again"
)

// Style hints how a choice button should look
type Style string

const (
	StyleDefault Style = ""
	StyleSuccess Style = "success"
	StyleDanger  Style = "danger"
)

// Choice is one selectable transition
type Choice struct {
	Label      string       `json:"label"`
	Transition TransitionID `json:"transition_id"`
	Style      Style        `json:"style,omitempty"`
}

// Scene is the renderable output for the presentation layer
type Scene struct {
	ID      ID       `json:"id"`
	Title   string   `json:"title"`
	Body    []string `json:"body"`
	Choices []Choice `json:"choices"`
	Ending  Ending   `json:"ending,omitempty"`
}

// Offers reports whether the scene lists the transition
func (s Scene) Offers(t TransitionID) bool {
	for _, c := range s.Choices {
		if c.Transition == t {
			return true
		}
	}
	return false
}

// Payload carries one-shot outcome data into a render
type Payload struct {
	Message           string `json:"message,omitempty"`
	Damage            int    `json:"damage,omitempty"`
	AchievementsTotal int    `json:"achievements_total,omitempty"`
	Stats             *Stats `json:"stats,omitempty"`
}

// Stats is the lifetime statistics panel shown on ending scenes
type Stats struct {
	GamesPlayed       int `json:"games_played"`
	GoodEndings       int `json:"good_endings"`
	EvilEndings       int `json:"evil_endings"`
	NeutralEndings    int `json:"neutral_endings"`
	BadEndings        int `json:"bad_endings"`
	SecretEndings     int `json:"secret_endings"`
	SacrificeEndings  int `json:"sacrifice_endings"`
	CowardEndings     int `json:"coward_endings"`
	TotalAchievements int `json:"total_achievements"`
	BestHealthScore   int `json:"best_health_score"`
}

// Features switches optional content on or off
type Features struct {
	Difficulty      bool `json:"difficulty"`
	SecretEnding    bool `json:"secret_ending"`
	SacrificeEnding bool `json:"sacrifice_ending"`
	CowardEnding    bool `json:"coward_ending"`
}

// AllFeatures enables every optional piece of content
func AllFeatures() Features {
	return Features{
		Difficulty:      true,
		SecretEnding:    true,
		SacrificeEnding: true,
		CowardEnding:    true,
	}
}
