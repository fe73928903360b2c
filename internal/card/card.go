package card

import (
	"github.com/mohae/deepcopy"
)

// Card types
const (
	TypeUnit      = "Unit"
	TypeSpell     = "Spell"
	TypeEquipment = "Equipment"
	TypeTerrain   = "Terrain"
)

// Rarities
const (
	RarityCommon    = "Common"
	RarityRare      = "Rare"
	RarityLegendary = "Legendary"
)

// Weapon types
const (
	WeaponMelee  = "Melee"
	WeaponRanged = "Ranged"
)

// Types lists every card type in display order.
var Types = []string{TypeUnit, TypeSpell, TypeEquipment, TypeTerrain}

// Factions lists every faction in display order.
var Factions = []string{"Red", "Green", "Black", "White", "Blue", "Colorless"}

// Rarities lists every rarity from most to least common.
var Rarities = []string{RarityCommon, RarityRare, RarityLegendary}

// Card represents a GridStrike card definition
type Card struct {
	ID         string   `json:"id,omitempty"`
	CardName   string   `json:"cardName" validate:"required"`
	CardType   string   `json:"cardType" validate:"oneof=Unit Spell Equipment Terrain"`
	Faction    string   `json:"faction" validate:"required,oneof=Red Blue Green White Black Colorless"`
	Rarity     string   `json:"rarity" validate:"oneof=Common Rare Legendary"`
	EnergyCost int      `json:"energyCost" validate:"gte=0"`
	Size       string   `json:"size"`
	Token      bool     `json:"token"`
	Keywords   []string `json:"keywords"`

	// Unit only
	HP   int    `json:"hp"`
	AC   int    `json:"ac"`
	Move int    `json:"move"`
	Type string `json:"type"`

	// Spell, Equipment and Terrain
	SpellType string `json:"spellType"`
	Range     string `json:"range"`
	Effect    string `json:"effect"`
	AuraType  string `json:"auraType"`

	Weapons   []Weapon  `json:"weapons" validate:"dive"`
	Abilities []Ability `json:"abilities" validate:"dive"`
}

// Weapon is owned by exactly one card and has no identity of its own
type Weapon struct {
	Name        string `json:"name"`
	Type        string `json:"type" validate:"omitempty,oneof=Melee Ranged"`
	AttackBonus int    `json:"attackBonus"`
	Damage      string `json:"damage"`
	Range       string `json:"range" validate:"required_if=Type Ranged"`
	Keywords    string `json:"keywords"`
}

// Ability is owned by exactly one card. Cost is denominated in action points.
type Ability struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Passive     bool   `json:"passive"`
	Cost        int    `json:"cost" validate:"gte=0,lte=2"`
}

// NewCard returns an empty card with the editor defaults.
func NewCard() Card {
	return Card{
		CardType:  TypeUnit,
		Rarity:    RarityCommon,
		Keywords:  []string{},
		Weapons:   []Weapon{},
		Abilities: []Ability{},
	}
}

// Clone returns a deep copy of the card. Slices of the copy never alias c.
func (c Card) Clone() Card {
	cp, ok := deepcopy.Copy(c).(Card)
	if !ok {
		return c
	}
	if cp.Keywords == nil {
		cp.Keywords = []string{}
	}
	if cp.Weapons == nil {
		cp.Weapons = []Weapon{}
	}
	if cp.Abilities == nil {
		cp.Abilities = []Ability{}
	}
	return cp
}

// IsUnit reports whether stats (hp, ac, move) apply to the card
func (c Card) IsUnit() bool {
	return c.CardType == TypeUnit
}

// RarityOrder ranks rarities for sorting; unknown rarities sort last.
func RarityOrder(rarity string) int {
	switch rarity {
	case RarityCommon:
		return 0
	case RarityRare:
		return 1
	case RarityLegendary:
		return 2
	default:
		return 3
	}
}
