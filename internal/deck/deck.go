// Package deck models a player's deck: a named list of card ids tied to one
// faction, plus the construction rules a legal deck follows.
package deck

import (
	"fmt"
	"slices"
	"strings"

	"github.com/arcanaland/gridsmith/internal/card"
)

// Size is the number of cards in a legal deck, the Commander included.
const Size = 40

// Deck represents a stored deck. CardIDs may repeat; each entry is one copy.
type Deck struct {
	ID          string   `json:"id,omitempty"`
	Name        string   `json:"name"`
	Faction     string   `json:"faction"`
	Description string   `json:"description"`
	UserID      string   `json:"userId,omitempty"`
	CardIDs     []string `json:"cardIds"`
}

// Clone returns a copy that shares no slices with d.
func (d Deck) Clone() Deck {
	cp := d
	cp.CardIDs = slices.Clone(d.CardIDs)
	if cp.CardIDs == nil {
		cp.CardIDs = []string{}
	}
	return cp
}

// Filters narrows a deck listing. Empty fields match everything.
type Filters struct {
	// Name matches case-insensitively anywhere in the deck name.
	Name    string
	Faction string
	UserID  string
}

func (f Filters) Matches(d Deck) bool {
	if f.Faction != "" && d.Faction != f.Faction {
		return false
	}
	if f.UserID != "" && d.UserID != f.UserID {
		return false
	}
	if f.Name != "" && !strings.Contains(strings.ToLower(d.Name), strings.ToLower(f.Name)) {
		return false
	}
	return true
}

// Filter keeps the decks f matches, in order.
func Filter(decks []Deck, f Filters) []Deck {
	out := []Deck{}
	for _, d := range decks {
		if f.Matches(d) {
			out = append(out, d)
		}
	}
	return out
}

// CopyLimit is how many copies of a card of the given rarity a deck may hold.
func CopyLimit(rarity string) int {
	switch rarity {
	case card.RarityLegendary:
		return 1
	case card.RarityRare:
		return 2
	default:
		return 3
	}
}

// Problems lists the construction rules d breaks. cards resolves the ids in
// d; ids it does not contain are reported as unknown.
func Problems(d Deck, cards map[string]card.Card) []string {
	var out []string
	if strings.TrimSpace(d.Name) == "" {
		out = append(out, "name is required")
	}
	if !slices.Contains(card.Factions, d.Faction) {
		out = append(out, fmt.Sprintf("faction must be one of %s", strings.Join(card.Factions, ", ")))
	}
	if len(d.CardIDs) != Size {
		out = append(out, fmt.Sprintf("deck holds %d cards, need %d", len(d.CardIDs), Size))
	}

	copies := map[string]int{}
	var order []string
	for _, id := range d.CardIDs {
		if copies[id] == 0 {
			order = append(order, id)
		}
		copies[id]++
	}
	for _, id := range order {
		c, ok := cards[id]
		if !ok {
			out = append(out, fmt.Sprintf("card %s is not in the library", id))
			continue
		}
		if limit := CopyLimit(c.Rarity); copies[id] > limit {
			out = append(out, fmt.Sprintf("%s: %d copies, %s cards allow %d", c.CardName, copies[id], c.Rarity, limit))
		}
		if c.Faction != d.Faction && c.Faction != "Colorless" {
			out = append(out, fmt.Sprintf("%s is %s, outside a %s deck", c.CardName, c.Faction, d.Faction))
		}
	}
	return out
}
