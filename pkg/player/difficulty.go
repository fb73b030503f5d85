package player

import (
	"fmt"
	"strings"
)

// Difficulty is chosen once per playthrough and fixes max health and the
// damage multiplier for its lifetime.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Normal Difficulty = "normal"
	Hard   Difficulty = "hard"
)

// DefaultDifficulty is used when no preference or save says otherwise
const DefaultDifficulty = Normal

// Difficulties lists the presets in menu order
var Difficulties = []Difficulty{Easy, Normal, Hard}

type difficultySettings struct {
	maxHealth        int
	damageMultiplier float64
}

var presets = map[Difficulty]difficultySettings{
	Easy:   {maxHealth: 150, damageMultiplier: 0.7},
	Normal: {maxHealth: 100, damageMultiplier: 1.0},
	Hard:   {maxHealth: 75, damageMultiplier: 1.5},
}

// ParseDifficulty accepts a preset name in any case
func ParseDifficulty(s string) (Difficulty, error) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := presets[d]; !ok {
		return "", fmt.Errorf("unknown difficulty %q", s)
	}
	return d, nil
}

func (d Difficulty) IsValid() bool {
	_, ok := presets[d]
	return ok
}

// MaxHealth returns the starting and maximum health for the preset.
// Unknown values fall back to the default preset.
func (d Difficulty) MaxHealth() int {
	return d.settings().maxHealth
}

// DamageMultiplier returns the factor applied to all incoming damage
func (d Difficulty) DamageMultiplier() float64 {
	return d.settings().damageMultiplier
}

// Description is the blurb shown on the difficulty menu
func (d Difficulty) Description() string {
	switch d {
	case Easy:
		return "More health, less damage - Perfect for beginners"
	case Hard:
		return "Less health, more damage - For experienced players"
	default:
		return "Balanced experience - Standard gameplay"
	}
}

func (d Difficulty) settings() difficultySettings {
	if s, ok := presets[d]; ok {
		return s
	}
	return presets[DefaultDifficulty]
}
