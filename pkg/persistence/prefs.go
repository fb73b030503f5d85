package persistence

import (
	"golang.org/x/text/language"

	"github.com/jwebster45206/mansion-engine/pkg/player"
)

const (
	DefaultLanguage    = "en"
	DefaultMusicVolume = 30
)

var supportedLanguages = []language.Tag{language.English, language.Russian}

var languageMatcher = language.NewMatcher(supportedLanguages)

// Prefs are per-profile settings that outlive any playthrough
type Prefs struct {
	Difficulty  player.Difficulty `json:"difficulty"`
	Language    string            `json:"language"`
	MusicVolume int               `json:"musicVolume"`
}

// DefaultPrefs is what a new profile starts with
func DefaultPrefs() Prefs {
	return Prefs{
		Difficulty:  player.DefaultDifficulty,
		Language:    DefaultLanguage,
		MusicVolume: DefaultMusicVolume,
	}
}

// MatchLanguage maps an Accept-Language style string onto a supported
// UI language. Unknown input yields the default.
func MatchLanguage(s string) string {
	if s == "" {
		return DefaultLanguage
	}
	tag, _ := language.MatchStrings(languageMatcher, s)
	base, _ := tag.Base()
	for _, t := range supportedLanguages {
		if b, _ := t.Base(); b == base {
			return b.String()
		}
	}
	return DefaultLanguage
}

// Normalize replaces out-of-range values with defaults
func (p Prefs) Normalize() Prefs {
	if !p.Difficulty.IsValid() {
		p.Difficulty = player.DefaultDifficulty
	}
	p.Language = MatchLanguage(p.Language)
	if p.MusicVolume < 0 || p.MusicVolume > 100 {
		p.MusicVolume = DefaultMusicVolume
	}
	return p
}
