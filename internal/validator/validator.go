package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	playground "github.com/go-playground/validator/v10"

	"github.com/arcanaland/gridsmith/internal/card"
)

type ValidationResults struct {
	Errors   []string
	Warnings []string
}

// Valid reports whether no errors were recorded. Warnings do not count.
func (r ValidationResults) Valid() bool {
	return len(r.Errors) == 0
}

// ValidationError is returned by Check for a card with errors.
type ValidationError struct {
	Card    string
	Results ValidationResults
}

func (e *ValidationError) Error() string {
	name := e.Card
	if name == "" {
		name = "card"
	}
	return fmt.Sprintf("%s is invalid: %s", name, strings.Join(e.Results.Errors, "; "))
}

type Validator struct {
	validate *playground.Validate
}

func NewValidator() *Validator {
	v := playground.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{validate: v}
}

// typicalEnergy is the usual cost window per rarity, from the game rules.
var typicalEnergy = map[string][2]int{
	card.RarityCommon:    {1, 4},
	card.RarityRare:      {3, 6},
	card.RarityLegendary: {5, 99},
}

// Validate runs the schema and balance rules against c.
func (v *Validator) Validate(c card.Card) ValidationResults {
	var results ValidationResults

	v.validateSchema(c, &results)
	v.validateAbilities(c, &results)
	v.validateWeapons(c, &results)
	v.validateTypeFields(c, &results)
	v.validateEnergy(c, &results)

	return results
}

// Check is Validate reduced to an error.
func (v *Validator) Check(c card.Card) error {
	results := v.Validate(c)
	if results.Valid() {
		return nil
	}
	return &ValidationError{Card: c.CardName, Results: results}
}

func (v *Validator) validateSchema(c card.Card, results *ValidationResults) {
	err := v.validate.Struct(c)
	if err == nil {
		return
	}
	var fieldErrs playground.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		results.Errors = append(results.Errors, err.Error())
		return
	}
	for _, fe := range fieldErrs {
		results.Errors = append(results.Errors, describe(fe))
	}
}

func describe(fe playground.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Card.")
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "required_if":
		return fmt.Sprintf("%s is required for ranged weapons", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", field, fe.Param(), fmt.Sprint(fe.Value()))
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}

// validateAbilities checks passive <=> cost == 0. Costs above the action
// point budget are already caught by the schema rules.
func (v *Validator) validateAbilities(c card.Card, results *ValidationResults) {
	for i, a := range c.Abilities {
		if a.Passive != (a.Cost == 0) {
			results.Errors = append(results.Errors,
				fmt.Sprintf("abilities[%d] %q: passive must be set exactly when cost is 0 (passive=%t, cost=%d)",
					i, a.Title, a.Passive, a.Cost))
		}
		if strings.TrimSpace(a.Title) == "" {
			results.Warnings = append(results.Warnings, fmt.Sprintf("abilities[%d] has no title", i))
		}
	}
}

func (v *Validator) validateWeapons(c card.Card, results *ValidationResults) {
	for i, w := range c.Weapons {
		if !IsDice(w.Damage) {
			results.Errors = append(results.Errors,
				fmt.Sprintf("weapons[%d] %q: damage %q is not dice notation", i, w.Name, w.Damage))
		}
	}
	if len(c.Weapons) > 0 && c.CardType != card.TypeUnit && c.CardType != card.TypeEquipment {
		results.Warnings = append(results.Warnings,
			fmt.Sprintf("%s cards do not usually carry weapons", c.CardType))
	}
}

// validateTypeFields warns about fields that the card type ignores.
func (v *Validator) validateTypeFields(c card.Card, results *ValidationResults) {
	if !c.IsUnit() && (c.HP != 0 || c.AC != 0 || c.Move != 0) {
		results.Warnings = append(results.Warnings,
			fmt.Sprintf("hp/ac/move are only used by Unit cards, this is a %s", c.CardType))
	}
	if c.CardType != card.TypeSpell && c.SpellType != "" {
		results.Warnings = append(results.Warnings, "spellType is only used by Spell cards")
	}
	if c.CardType != card.TypeTerrain && c.AuraType != "" {
		results.Warnings = append(results.Warnings, "auraType is only used by Terrain cards")
	}
	if c.IsUnit() && c.HP <= 0 {
		results.Warnings = append(results.Warnings, "unit has no hp")
	}
}

func (v *Validator) validateEnergy(c card.Card, results *ValidationResults) {
	window, ok := typicalEnergy[c.Rarity]
	if !ok || c.EnergyCost < 0 {
		return
	}
	if c.EnergyCost < window[0] || c.EnergyCost > window[1] {
		results.Warnings = append(results.Warnings,
			fmt.Sprintf("energy cost %d is outside the typical %d-%d range for %s cards",
				c.EnergyCost, window[0], window[1], c.Rarity))
	}
}
