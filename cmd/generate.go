package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	colorize "github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/arcanaland/gridsmith/internal/card"
	"github.com/arcanaland/gridsmith/internal/normalize"
	"github.com/arcanaland/gridsmith/internal/validator"
)

var (
	generateType  string
	generateSave  bool
	generateApply bool
)

// generateCmd represents the generate command group
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Draft cards or card fields with the language model",
	Long: `Generate asks the configured language model for a whole card, a single
field, a weapon, an ability or an energy cost. Suggestions are printed; use
--save or --apply to store them.`,
}

var generateCardCmd = &cobra.Command{
	Use:   "card [prompt]",
	Short: "Generate a whole card from a free-form prompt",
	Example: `  gridsmith generate card "a forest spirit that heals allies"
  gridsmith generate card --type Spell --save "a lightning bolt"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := loadApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()
		gen, err := a.generator()
		if err != nil {
			return err
		}

		draft := card.NewDraft(nil)
		generated, err := gen.GenerateFull(ctx, strings.Join(args, " "), generateType)
		var verr *validator.ViolationError
		switch {
		case errors.As(err, &verr):
			draft.Replace(generated)
			printCard(draft.Snapshot())
			printViolations(verr.Violations)
			if generateSave {
				return fmt.Errorf("not saved: %w", err)
			}
			return nil
		case err != nil:
			return err
		}
		draft.Replace(generated)
		printCard(draft.Snapshot())

		if !generateSave {
			return nil
		}
		if err := validator.NewValidator().Check(draft.Snapshot()); err != nil {
			return fmt.Errorf("not saved: %w", err)
		}
		created, err := a.store.Create(ctx, draft.Snapshot())
		if err != nil {
			return err
		}
		fmt.Printf("Saved as %s\n", colorize.HiWhiteString(created.ID))
		return nil
	},
}

var generateFieldCmd = &cobra.Command{
	Use:   "field [card_id] [field]",
	Short: "Suggest a new value for one field of a stored card",
	Example: `  gridsmith generate field 6f1c... cardName
  gridsmith generate field --apply 6f1c... effect`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := loadApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()
		gen, err := a.generator()
		if err != nil {
			return err
		}
		current, err := a.store.Get(ctx, args[0])
		if err != nil {
			return err
		}

		field := args[1]
		value, err := gen.GenerateField(ctx, field, current)
		if err != nil {
			return err
		}
		fmt.Println(colorize.CyanString(field+": ") + colorize.HiWhiteString("%s", value))
		if !generateApply {
			return nil
		}

		draft := card.NewDraft(&current)
		if err := draft.Apply(func(c *card.Card) error { return setField(c, field, value) }); err != nil {
			return err
		}
		return saveDraft(cmd, a, current.ID, draft)
	},
}

var generateWeaponCmd = &cobra.Command{
	Use:   "weapon [card_id]",
	Short: "Generate a weapon for a stored card",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := loadApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()
		gen, err := a.generator()
		if err != nil {
			return err
		}
		current, err := a.store.Get(ctx, args[0])
		if err != nil {
			return err
		}

		weapon, err := gen.GenerateWeapon(ctx, current)
		var verr *validator.ViolationError
		if errors.As(err, &verr) {
			printWeapons([]card.Weapon{*weapon})
			printViolations(verr.Violations)
			return nil
		}
		if err != nil {
			return err
		}
		if weapon == nil {
			fmt.Println(colorize.YellowString("The model did not suggest a weapon."))
			return nil
		}
		printWeapons([]card.Weapon{*weapon})
		if !generateApply {
			return nil
		}

		draft := card.NewDraft(&current)
		if err := draft.SetWeapon(draft.AddWeapon(), *weapon); err != nil {
			return err
		}
		return saveDraft(cmd, a, current.ID, draft)
	},
}

var generateAbilityCmd = &cobra.Command{
	Use:   "ability [card_id]",
	Short: "Generate an ability for a stored card",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := loadApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()
		gen, err := a.generator()
		if err != nil {
			return err
		}
		current, err := a.store.Get(ctx, args[0])
		if err != nil {
			return err
		}

		ability, err := gen.GenerateAbility(ctx, current)
		if err != nil {
			return err
		}
		if ability == nil {
			fmt.Println(colorize.YellowString("The model did not suggest an ability."))
			return nil
		}
		printAbilities([]card.Ability{*ability}, 80)
		if !generateApply {
			return nil
		}

		draft := card.NewDraft(&current)
		if err := draft.SetAbility(draft.AddAbility(), *ability); err != nil {
			return err
		}
		return saveDraft(cmd, a, current.ID, draft)
	},
}

var generateCostCmd = &cobra.Command{
	Use:   "cost [card_id]",
	Short: "Suggest a balanced energy cost for a stored card",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := loadApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()
		gen, err := a.generator()
		if err != nil {
			return err
		}
		current, err := a.store.Get(ctx, args[0])
		if err != nil {
			return err
		}

		cost, err := gen.EnergyCostOrDefault(ctx, current)
		if err != nil {
			return err
		}
		fmt.Println(colorize.CyanString("Energy cost: ") + colorize.HiWhiteString("%d", cost))
		if !generateApply {
			return nil
		}

		draft := card.NewDraft(&current)
		_ = draft.Apply(func(c *card.Card) error {
			c.EnergyCost = cost
			return nil
		})
		return saveDraft(cmd, a, current.ID, draft)
	},
}

func init() {
	generateCmd.AddCommand(generateCardCmd)
	generateCmd.AddCommand(generateFieldCmd)
	generateCmd.AddCommand(generateWeaponCmd)
	generateCmd.AddCommand(generateAbilityCmd)
	generateCmd.AddCommand(generateCostCmd)

	generateCardCmd.Flags().StringVarP(&generateType, "type", "t", card.TypeUnit, "card type: Unit, Spell, Equipment or Terrain")
	generateCardCmd.Flags().BoolVar(&generateSave, "save", false, "store the generated card")
	for _, c := range []*cobra.Command{generateFieldCmd, generateWeaponCmd, generateAbilityCmd, generateCostCmd} {
		c.Flags().BoolVar(&generateApply, "apply", false, "write the suggestion back to the stored card")
	}
}

// setField assigns a suggested value to a top-level field by name, going
// through the same decode an import uses so numeric fields accept "5".
func setField(c *card.Card, field, value string) error {
	doc, err := normalize.FromCard(*c)
	if err != nil {
		return err
	}
	if _, ok := doc[field]; !ok {
		return fmt.Errorf("unknown card field %q", field)
	}
	// list fields take a JSON array; keywords also accept "a, b"
	var list []any
	if _, isList := doc[field].([]any); isList && json.Unmarshal([]byte(value), &list) == nil {
		doc[field] = list
	} else {
		doc[field] = value
	}
	updated, err := normalize.Decode(normalize.Normalize(doc), normalize.DecodeOptions{Coerce: true})
	if err != nil {
		return fmt.Errorf("apply %s: %w", field, err)
	}
	updated.ID = c.ID
	*c = updated
	return nil
}

func saveDraft(cmd *cobra.Command, a *app, id string, draft *card.Draft) error {
	next, found := validator.CorrectCard(draft.Snapshot())
	if len(found) > 0 {
		printViolations(found)
		return fmt.Errorf("not saved: %w", &validator.ViolationError{Violations: found})
	}
	if _, err := a.store.Update(cmd.Context(), id, next); err != nil {
		return err
	}
	fmt.Println(colorize.GreenString("✅ Saved"))
	return nil
}
