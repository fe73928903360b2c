package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arcanaland/gridsmith/internal/card"
	"github.com/arcanaland/gridsmith/internal/deck"
)

func TestDeckLines(t *testing.T) {
	imp := card.NewCard()
	imp.ID = "imp"
	imp.CardName = "Cinder Imp"
	imp.Faction = "Red"

	lord := card.NewCard()
	lord.ID = "lord"
	lord.CardName = "Pyre Lord"
	lord.Faction = "Red"
	lord.Rarity = card.RarityLegendary

	library := map[string]card.Card{"imp": imp, "lord": lord}

	t.Run("Should group copies in first-seen order", func(t *testing.T) {
		d := deck.Deck{CardIDs: []string{"lord", "imp", "imp", "imp"}}
		assert.Equal(t, []string{
			"1x ★ Pyre Lord Unit",
			"3x ● Cinder Imp Unit",
		}, deckLines(d, library))
	})
	t.Run("Should flag ids missing from the library", func(t *testing.T) {
		d := deck.Deck{CardIDs: []string{"ghost", "ghost"}}
		assert.Equal(t, []string{"2x (unknown card ghost)"}, deckLines(d, library))
	})
	t.Run("Should render an empty deck as no lines", func(t *testing.T) {
		assert.Empty(t, deckLines(deck.Deck{}, library))
	})
}
