package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcanaland/gridsmith/internal/card"
)

func validUnit() card.Card {
	c := card.NewCard()
	c.CardName = "Ember Hound"
	c.Faction = "Red"
	c.EnergyCost = 2
	c.HP = 6
	c.AC = 12
	c.Move = 4
	c.Weapons = []card.Weapon{{Name: "Bite", Type: card.WeaponMelee, AttackBonus: 2, Damage: "1d6"}}
	c.Abilities = []card.Ability{
		{Title: "Kindle", Passive: true, Cost: 0},
		{Title: "Pounce", Passive: false, Cost: 1},
	}
	return c
}

func assertInvariant(t *testing.T, a card.Ability) {
	t.Helper()
	assert.GreaterOrEqual(t, a.Cost, 0)
	assert.LessOrEqual(t, a.Cost, ActionPoints)
	assert.Equal(t, a.Cost == 0, a.Passive, "passive must hold exactly when cost is 0: %+v", a)
}

func TestAbilityCorrections(t *testing.T) {
	t.Run("Should force passive on zero cost", func(t *testing.T) {
		a := ApplyAbilityCost(card.Ability{Passive: false, Cost: 2}, 0)
		assert.True(t, a.Passive)
		assert.Equal(t, 0, a.Cost)
	})
	t.Run("Should clamp cost into the action point budget", func(t *testing.T) {
		assert.Equal(t, 2, ApplyAbilityCost(card.Ability{}, 5).Cost)
		a := ApplyAbilityCost(card.Ability{Passive: true}, -3)
		assert.Equal(t, 0, a.Cost)
		assert.True(t, a.Passive)
	})
	t.Run("Should make a paid ability active", func(t *testing.T) {
		a := ApplyAbilityCost(card.Ability{Passive: true}, 1)
		assert.False(t, a.Passive)
		assert.Equal(t, 1, a.Cost)
	})
	t.Run("Should zero the cost when set passive", func(t *testing.T) {
		a := ApplyAbilityPassive(card.Ability{Cost: 2}, true)
		assert.True(t, a.Passive)
		assert.Equal(t, 0, a.Cost)
	})
	t.Run("Should bump cost to one when leaving passive at zero", func(t *testing.T) {
		a := ApplyAbilityPassive(card.Ability{Passive: true, Cost: 0}, false)
		assert.False(t, a.Passive)
		assert.Equal(t, 1, a.Cost)
	})
	t.Run("Should keep a paid cost when set active", func(t *testing.T) {
		a := ApplyAbilityPassive(card.Ability{Cost: 2}, false)
		assert.Equal(t, 2, a.Cost)
		assert.Equal(t, 2, ApplyAbilityPassive(card.Ability{Cost: 9}, false).Cost)
	})
	t.Run("Should correct untrusted abilities", func(t *testing.T) {
		assert.Equal(t, card.Ability{Passive: true, Cost: 0}, CorrectAbility(card.Ability{Passive: true, Cost: 1}))
		assert.Equal(t, card.Ability{Passive: true, Cost: 0}, CorrectAbility(card.Ability{Passive: false, Cost: 0}))
		assert.Equal(t, card.Ability{Passive: false, Cost: 2}, CorrectAbility(card.Ability{Passive: false, Cost: 3}))
	})
	t.Run("Should hold the invariant after any mutation sequence", func(t *testing.T) {
		costs := []int{-1, 0, 1, 2, 3, 10}
		for _, start := range []card.Ability{{}, {Passive: true}, {Cost: 2}, {Passive: true, Cost: 2}, {Cost: 7}} {
			for _, cost := range costs {
				a := ApplyAbilityCost(start, cost)
				assertInvariant(t, a)
				assertInvariant(t, ApplyAbilityPassive(a, true))
				assertInvariant(t, ApplyAbilityPassive(a, false))
				assertInvariant(t, ApplyAbilityCost(ApplyAbilityPassive(a, false), cost))
			}
			assertInvariant(t, CorrectAbility(start))
			assertInvariant(t, ApplyAbilityPassive(start, false))
		}
	})
}

func TestWeaponRules(t *testing.T) {
	assert.True(t, IsDice("1d6"))
	assert.True(t, IsDice("2d8+2"))
	assert.True(t, IsDice("1d4-1"))
	assert.False(t, IsDice("3"))
	assert.False(t, IsDice("d6"))
	assert.False(t, IsDice("1d6 fire"))

	require.NoError(t, CheckWeapon(card.Weapon{Damage: "1d6"}))

	err := CheckWeapon(card.Weapon{Name: "Zap", Type: card.WeaponRanged, Damage: "3"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBalanceViolation)
	var verr *ViolationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Violations, 2)
	assert.Equal(t, "weapon.damage", verr.Violations[0].Field)
}

func TestClampEnergyCost(t *testing.T) {
	assert.Equal(t, 1, ClampEnergyCost(0, 10))
	assert.Equal(t, 10, ClampEnergyCost(42, 10))
	assert.Equal(t, 4, ClampEnergyCost(4, 10))
	assert.Equal(t, 1, ClampEnergyCost(4, 0))
}

func TestCorrectCard(t *testing.T) {
	c := validUnit()
	c.Abilities = append(c.Abilities, card.Ability{Title: "Overload", Cost: 3})
	c.Weapons = append(c.Weapons, card.Weapon{Name: "Spit", Damage: "two"})

	out, violations := CorrectCard(c)
	for _, a := range out.Abilities {
		assertInvariant(t, a)
	}
	require.Len(t, violations, 1)
	assert.Equal(t, "weapons[1].damage", violations[0].Field)
	assert.Equal(t, 3, c.Abilities[2].Cost, "input must not be modified")
}

func TestValidator(t *testing.T) {
	v := NewValidator()

	t.Run("Should accept a valid unit", func(t *testing.T) {
		results := v.Validate(validUnit())
		assert.True(t, results.Valid(), results.Errors)
		assert.Empty(t, results.Warnings)
		assert.NoError(t, v.Check(validUnit()))
	})
	t.Run("Should require name and faction", func(t *testing.T) {
		c := validUnit()
		c.CardName = ""
		c.Faction = ""
		results := v.Validate(c)
		assert.Contains(t, results.Errors, "cardName is required")
		assert.Contains(t, results.Errors, "faction is required")
	})
	t.Run("Should reject unknown enums", func(t *testing.T) {
		c := validUnit()
		c.CardType = "Artifact"
		c.Rarity = "Mythic"
		results := v.Validate(c)
		require.Len(t, results.Errors, 2)
		assert.Contains(t, results.Errors[0], "cardType must be one of")
	})
	t.Run("Should report ability and weapon rule breaks", func(t *testing.T) {
		c := validUnit()
		c.Abilities[0].Cost = 3
		c.Weapons[0].Damage = "5"
		c.Weapons = append(c.Weapons, card.Weapon{Name: "Bow", Type: card.WeaponRanged, Damage: "1d8"})
		results := v.Validate(c)
		assert.Contains(t, results.Errors, "abilities[0].cost must be at most 2")
		assert.Contains(t, results.Errors, "weapons[1].range is required for ranged weapons")
		assert.Contains(t, results.Errors, `weapons[0] "Bite": damage "5" is not dice notation`)
	})
	t.Run("Should treat missing damage as an error", func(t *testing.T) {
		c := validUnit()
		c.Weapons[0].Damage = ""
		results := v.Validate(c)
		assert.False(t, results.Valid())
		assert.Contains(t, results.Errors, `weapons[0] "Bite": damage "" is not dice notation`)
	})
	t.Run("Should warn without failing", func(t *testing.T) {
		c := validUnit()
		c.CardType = card.TypeSpell
		c.Weapons = []card.Weapon{}
		c.EnergyCost = 9
		results := v.Validate(c)
		assert.True(t, results.Valid(), results.Errors)
		assert.NotEmpty(t, results.Warnings)
	})
	t.Run("Should name the card in the error", func(t *testing.T) {
		c := validUnit()
		c.Faction = "Purple"
		err := v.Check(c)
		require.Error(t, err)
		var verr *ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Contains(t, err.Error(), "Ember Hound is invalid")
	})
}
