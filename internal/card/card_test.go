package card

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleCard() Card {
	c := NewCard()
	c.CardName = "Ember Hound"
	c.Faction = "Red"
	c.EnergyCost = 2
	c.Keywords = []string{"Haste"}
	c.Weapons = []Weapon{{Name: "Bite", Type: WeaponMelee, AttackBonus: 2, Damage: "1d6"}}
	c.Abilities = []Ability{{Title: "Kindle", Passive: true}}
	return c
}

func TestNewCard(t *testing.T) {
	c := NewCard()
	assert.Equal(t, TypeUnit, c.CardType)
	assert.Equal(t, RarityCommon, c.Rarity)
	assert.Empty(t, c.Faction)
	assert.NotNil(t, c.Keywords)
	assert.NotNil(t, c.Weapons)
	assert.NotNil(t, c.Abilities)
}

func TestClone(t *testing.T) {
	t.Run("Should not alias slices", func(t *testing.T) {
		orig := sampleCard()
		cp := orig.Clone()
		require.Equal(t, orig, cp)

		cp.Keywords[0] = "Slow"
		cp.Weapons[0].Damage = "2d6"
		cp.Abilities = append(cp.Abilities, Ability{Title: "Extra"})

		assert.Equal(t, "Haste", orig.Keywords[0])
		assert.Equal(t, "1d6", orig.Weapons[0].Damage)
		assert.Len(t, orig.Abilities, 1)
	})
	t.Run("Should replace nil collections with empty ones", func(t *testing.T) {
		cp := Card{CardName: "Bare"}.Clone()
		assert.NotNil(t, cp.Keywords)
		assert.NotNil(t, cp.Weapons)
		assert.NotNil(t, cp.Abilities)
	})
}

func TestDraft(t *testing.T) {
	t.Run("Should hand out independent snapshots", func(t *testing.T) {
		c := sampleCard()
		d := NewDraft(&c)
		snap := d.Snapshot()
		snap.Weapons[0].Name = "Changed"
		assert.Equal(t, "Bite", d.Snapshot().Weapons[0].Name)
	})
	t.Run("Should keep prior state when apply fails", func(t *testing.T) {
		c := sampleCard()
		d := NewDraft(&c)
		err := d.Apply(func(c *Card) error {
			c.CardName = "Broken"
			return errors.New("generation failed")
		})
		require.Error(t, err)
		assert.Equal(t, "Ember Hound", d.Snapshot().CardName)
	})
	t.Run("Should manage weapons and abilities by index", func(t *testing.T) {
		d := NewDraft(nil)
		wi := d.AddWeapon()
		require.NoError(t, d.SetWeapon(wi, Weapon{Name: "Zap", Damage: "1d4"}))
		ai := d.AddAbility()
		assert.True(t, d.Snapshot().Abilities[ai].Passive)
		require.NoError(t, d.SetAbility(ai, Ability{Title: "Surge", Cost: 1}))

		snap := d.Snapshot()
		assert.Equal(t, "Zap", snap.Weapons[0].Name)
		assert.Equal(t, "Surge", snap.Abilities[0].Title)

		assert.Error(t, d.SetWeapon(5, Weapon{}))
		require.NoError(t, d.RemoveWeapon(0))
		require.NoError(t, d.RemoveAbility(0))
		assert.Empty(t, d.Snapshot().Weapons)
		assert.Empty(t, d.Snapshot().Abilities)
		assert.Error(t, d.RemoveAbility(0))
	})
	t.Run("Should let the last writer win under concurrent applies", func(t *testing.T) {
		d := NewDraft(nil)
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = d.Apply(func(c *Card) error {
					c.EnergyCost++
					return nil
				})
			}()
		}
		wg.Wait()
		assert.Equal(t, 20, d.Snapshot().EnergyCost)
	})
}

func TestFilterAndSort(t *testing.T) {
	cards := []Card{
		{CardName: "Zephyr", CardType: TypeSpell, Faction: "Blue", EnergyCost: 3, Rarity: RarityRare},
		{CardName: "Anvil", CardType: TypeEquipment, Faction: "White", EnergyCost: 1, Rarity: RarityCommon},
		{CardName: "Blaze", CardType: TypeUnit, Faction: "Red", EnergyCost: 3, Rarity: RarityCommon},
		{CardName: "Moss Wall", CardType: TypeTerrain, Faction: "Green", EnergyCost: 2, Rarity: RarityLegendary},
	}

	t.Run("Should filter by faction type and search", func(t *testing.T) {
		out := Filter(cards, FilterOptions{Factions: []string{"red", "Blue"}})
		assert.Len(t, out, 2)
		out = Filter(cards, FilterOptions{Types: []string{TypeTerrain}})
		require.Len(t, out, 1)
		assert.Equal(t, "Moss Wall", out[0].CardName)
		out = Filter(cards, FilterOptions{Search: "AZ"})
		require.Len(t, out, 1)
		assert.Equal(t, "Blaze", out[0].CardName)
	})
	t.Run("Should sort by energy cost then rarity", func(t *testing.T) {
		cp := append([]Card(nil), cards...)
		Sort(cp, SortByEnergyCost)
		names := []string{}
		for _, c := range cp {
			names = append(names, c.CardName)
		}
		assert.Equal(t, []string{"Anvil", "Moss Wall", "Blaze", "Zephyr"}, names)
	})
	t.Run("Should sort by name by default", func(t *testing.T) {
		cp := append([]Card(nil), cards...)
		Sort(cp, "")
		assert.Equal(t, "Anvil", cp[0].CardName)
		assert.Equal(t, "Zephyr", cp[3].CardName)
	})
	t.Run("Should sort by type", func(t *testing.T) {
		cp := append([]Card(nil), cards...)
		Sort(cp, SortByType)
		assert.Equal(t, TypeEquipment, cp[0].CardType)
		assert.Equal(t, TypeUnit, cp[3].CardType)
	})
}
