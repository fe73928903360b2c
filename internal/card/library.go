package card

import (
	"sort"
	"strings"
)

// Sort orders
const (
	SortByName       = "Name"
	SortByType       = "Type"
	SortByEnergyCost = "EnergyCost"
)

// FilterOptions narrows a card list. Empty fields match everything.
type FilterOptions struct {
	Factions []string
	Types    []string
	Search   string // case-insensitive substring of the card name
}

func containsExact(hay []string, needle string) bool {
	for _, h := range hay {
		if strings.EqualFold(h, needle) {
			return true
		}
	}
	return false
}

// Filter returns the cards matching opt, preserving input order.
func Filter(cards []Card, opt FilterOptions) []Card {
	search := strings.ToLower(strings.TrimSpace(opt.Search))

	out := []Card{}
	for _, c := range cards {
		if len(opt.Factions) > 0 && !containsExact(opt.Factions, c.Faction) {
			continue
		}
		if len(opt.Types) > 0 && !containsExact(opt.Types, c.CardType) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(c.CardName), search) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Sort orders cards in place. Ties fall through to energy cost and then rarity.
// Unknown orders sort by name.
func Sort(cards []Card, by string) {
	byCostThenRarity := func(a, b Card) bool {
		if a.EnergyCost != b.EnergyCost {
			return a.EnergyCost < b.EnergyCost
		}
		return RarityOrder(a.Rarity) < RarityOrder(b.Rarity)
	}

	sort.SliceStable(cards, func(i, j int) bool {
		a, b := cards[i], cards[j]
		switch by {
		case SortByType:
			if a.CardType != b.CardType {
				return a.CardType < b.CardType
			}
			return byCostThenRarity(a, b)
		case SortByEnergyCost:
			return byCostThenRarity(a, b)
		default:
			if a.CardName != b.CardName {
				return a.CardName < b.CardName
			}
			return byCostThenRarity(a, b)
		}
	})
}
