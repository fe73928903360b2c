package generator

import (
	"context"

	"github.com/arcanaland/gridsmith/internal/card"
)

// tokensPerExample is a rough prompt cost of one summarized card.
const tokensPerExample = 50

// Example is the summary of a library card sent to the model for balance
// reference.
type Example struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Faction string `json:"faction"`
	Cost    int    `json:"cost"`
	Rarity  string `json:"rarity"`
	HP      *int   `json:"hp,omitempty"`
	AC      *int   `json:"ac,omitempty"`
	Move    *int   `json:"move,omitempty"`
}

func summarize(c card.Card) Example {
	ex := Example{
		Name:    c.CardName,
		Type:    c.CardType,
		Faction: c.Faction,
		Cost:    c.EnergyCost,
		Rarity:  c.Rarity,
	}
	if c.IsUnit() {
		hp, ac, move := c.HP, c.AC, c.Move
		ex.HP, ex.AC, ex.Move = &hp, &ac, &move
	}
	return ex
}

// SelectExamples picks at most limit cards: cards of cardType first, leaving
// room for at least two of other types, then others to fill.
func SelectExamples(cards []card.Card, cardType string, limit int) []Example {
	if limit <= 0 {
		return []Example{}
	}
	var same, other []card.Card
	for _, c := range cards {
		if c.CardType == cardType {
			same = append(same, c)
		} else {
			other = append(other, c)
		}
	}

	picked := make([]card.Card, 0, limit)
	picked = append(picked, same[:min(max(limit-2, 0), len(same))]...)
	picked = append(picked, other[:min(max(2, limit-len(same)), len(other))]...)
	if len(picked) > limit {
		picked = picked[:limit]
	}

	out := make([]Example, 0, len(picked))
	for _, c := range picked {
		out = append(out, summarize(c))
	}
	return out
}

// examples loads the library and selects from it. A library failure only
// costs the prompt its examples.
func (g *Generator) examples(ctx context.Context, cardType string, limit int) []Example {
	cfg := g.ContextConfig()
	if !cfg.UseContext || g.cards == nil {
		return []Example{}
	}
	cards, err := g.cards.GetAll(ctx)
	if err != nil {
		g.log.Warn("could not load card library for context", "error", err)
		return []Example{}
	}
	return SelectExamples(cards, cardType, limit)
}
