package player

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Item is an opaque inventory token
type Item string

const (
	AncientBook  Item = "ancient_book"
	HolyWater    Item = "holy_water"
	SilverKey    Item = "silver_key"
	HealthPotion Item = "health_potion"
	RustySword   Item = "rusty_sword"
	BasementKey  Item = "basement_key"
)

// PotionHealAmount is the nominal heal of a Health Potion
const PotionHealAmount = 50

// KeyItems must all be held at once to reveal the secret ending
var KeyItems = []Item{AncientBook, HolyWater, SilverKey, RustySword, BasementKey}

var itemIcons = map[Item]string{
	AncientBook:  "📖",
	HolyWater:    "💧",
	SilverKey:    "🔑",
	HealthPotion: "🧪",
	RustySword:   "⚔️",
	BasementKey:  "🗝️",
}

// ParseItem accepts either the item id or its display name
func ParseItem(s string) (Item, bool) {
	id := Item(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "_"))
	if _, ok := itemIcons[id]; !ok {
		return "", false
	}
	return id, true
}

// Name returns the display name, e.g. "Ancient Book"
func (i Item) Name() string {
	// Casers are stateful, build one per call
	return cases.Title(language.English).String(strings.ReplaceAll(string(i), "_", " "))
}

// Icon returns the inventory glyph, or a crate for unknown items
func (i Item) Icon() string {
	if icon, ok := itemIcons[i]; ok {
		return icon
	}
	return "📦"
}

// Usable reports whether the item can be used from the inventory
func (i Item) Usable() bool {
	return i == HealthPotion
}
