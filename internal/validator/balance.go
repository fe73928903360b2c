package validator

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/arcanaland/gridsmith/internal/card"
)

// ActionPoints is the per-activation budget an ability cost is paid from.
const ActionPoints = 2

// ErrBalanceViolation marks a value that breaks a game rule and has no safe
// automatic correction.
var ErrBalanceViolation = errors.New("balance violation")

var diceNotation = regexp.MustCompile(`^\d+d\d+([+-]\d+)?$`)

// Violation describes one rule a value broke.
type Violation struct {
	Field  string
	Value  string
	Reason string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s %q: %s", v.Field, v.Value, v.Reason)
}

// ViolationError wraps ErrBalanceViolation with the offending values.
type ViolationError struct {
	Violations []Violation
}

func (e *ViolationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.String())
	}
	return fmt.Sprintf("%v: %s", ErrBalanceViolation, strings.Join(parts, "; "))
}

func (e *ViolationError) Unwrap() error {
	return ErrBalanceViolation
}

func clampCost(cost int) int {
	return max(0, min(ActionPoints, cost))
}

// ApplyAbilityCost sets the cost of a, keeping passive in step with it.
// A zero cost makes the ability passive; any paid cost makes it active.
func ApplyAbilityCost(a card.Ability, newCost int) card.Ability {
	a.Cost = clampCost(newCost)
	a.Passive = a.Cost == 0
	return a
}

// ApplyAbilityPassive toggles passive on a. Passive abilities cost nothing;
// an ability leaving passive at zero cost is bumped to one action point.
func ApplyAbilityPassive(a card.Ability, passive bool) card.Ability {
	if passive {
		a.Passive = true
		a.Cost = 0
		return a
	}
	prior := clampCost(a.Cost)
	a.Passive = false
	if prior == 0 {
		prior = 1
	}
	a.Cost = prior
	return a
}

// CorrectAbility enforces passive <=> cost == 0 on an ability whose fields
// came from somewhere untrusted. Precedence: clamp, zero cost forces passive,
// passive forces zero cost.
func CorrectAbility(a card.Ability) card.Ability {
	a.Cost = clampCost(a.Cost)
	switch {
	case a.Cost == 0:
		a.Passive = true
	case a.Passive:
		a.Cost = 0
	}
	return a
}

// IsDice reports whether s is dice notation such as 1d6 or 2d4+1.
func IsDice(s string) bool {
	return diceNotation.MatchString(s)
}

// WeaponViolations lists the rules w breaks. prefix names the weapon in the
// result, for example "weapons[1]".
func WeaponViolations(prefix string, w card.Weapon) []Violation {
	var out []Violation
	if !IsDice(w.Damage) {
		out = append(out, Violation{
			Field:  prefix + ".damage",
			Value:  w.Damage,
			Reason: "damage must use dice notation like 1d6 or 1d8+2",
		})
	}
	if w.Type == card.WeaponRanged && strings.TrimSpace(w.Range) == "" {
		out = append(out, Violation{
			Field:  prefix + ".range",
			Value:  w.Range,
			Reason: "ranged weapons need a range",
		})
	}
	return out
}

// CheckWeapon returns a *ViolationError when w breaks a weapon rule.
func CheckWeapon(w card.Weapon) error {
	if vs := WeaponViolations("weapon", w); len(vs) > 0 {
		return &ViolationError{Violations: vs}
	}
	return nil
}

// ClampEnergyCost bounds n to [1, upper].
func ClampEnergyCost(n, upper int) int {
	if upper < 1 {
		upper = 1
	}
	return max(1, min(upper, n))
}

// CorrectCard returns a copy of c with every ability corrected, along with
// the weapon violations that could not be corrected.
func CorrectCard(c card.Card) (card.Card, []Violation) {
	out := c.Clone()
	for i, a := range out.Abilities {
		out.Abilities[i] = CorrectAbility(a)
	}
	var violations []Violation
	for i, w := range out.Weapons {
		violations = append(violations, WeaponViolations(fmt.Sprintf("weapons[%d]", i), w)...)
	}
	return out, violations
}
