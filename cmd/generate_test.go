package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcanaland/gridsmith/internal/card"
)

func TestSetField(t *testing.T) {
	base := func() card.Card {
		c := card.NewCard()
		c.ID = "abc"
		c.CardName = "Imp"
		c.Faction = "Red"
		return c
	}

	t.Run("Should set a text field", func(t *testing.T) {
		c := base()
		require.NoError(t, setField(&c, "cardName", "Cinder Imp"))
		assert.Equal(t, "Cinder Imp", c.CardName)
		assert.Equal(t, "abc", c.ID)
	})
	t.Run("Should coerce numeric suggestions", func(t *testing.T) {
		c := base()
		require.NoError(t, setField(&c, "hp", "5"))
		assert.Equal(t, 5, c.HP)
	})
	t.Run("Should split keyword lists", func(t *testing.T) {
		c := base()
		require.NoError(t, setField(&c, "keywords", "Flying, Haste"))
		assert.Equal(t, []string{"Flying", "Haste"}, c.Keywords)
		require.NoError(t, setField(&c, "keywords", `["Reach"]`))
		assert.Equal(t, []string{"Reach"}, c.Keywords)
	})
	t.Run("Should reject unknown fields", func(t *testing.T) {
		c := base()
		require.Error(t, setField(&c, "mana", "3"))
		assert.Equal(t, "Imp", c.CardName)
	})
	t.Run("Should reject values that do not decode", func(t *testing.T) {
		c := base()
		require.Error(t, setField(&c, "energyCost", "lots"))
	})
}

func TestMask(t *testing.T) {
	assert.Equal(t, "", mask(""))
	assert.Equal(t, "********", mask("short"))
	assert.Equal(t, "sk-…cdef", mask("sk-1234567890abcdef"))
}
