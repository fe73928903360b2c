package cmd

import (
	"fmt"
	"os"
	"strings"

	colorize "github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/arcanaland/gridsmith/internal/card"
	"github.com/arcanaland/gridsmith/internal/validator"
)

var showCmd = &cobra.Command{
	Use:   "show [card_id]",
	Short: "Display a stored card",
	Long: `Show prints a stored card with its stats, weapons and abilities.
Use 'gridsmith list' to find card ids.

Examples:
  gridsmith show 6f1c2a9e-4d2b-4c55-9a7e-0b3c1d2e3f40`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		c, err := a.store.Get(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("error getting card: %w", err)
		}
		printCard(c)
		return nil
	},
}

// terminalWidth returns the stdout width, or 80 when it is not a terminal.
func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}

var factionColors = map[string]*colorize.Color{
	"Red":       colorize.New(colorize.FgHiRed, colorize.Bold),
	"Blue":      colorize.New(colorize.FgHiBlue, colorize.Bold),
	"Green":     colorize.New(colorize.FgHiGreen, colorize.Bold),
	"White":     colorize.New(colorize.FgHiWhite, colorize.Bold),
	"Black":     colorize.New(colorize.FgHiBlack, colorize.Bold),
	"Colorless": colorize.New(colorize.FgWhite),
}

func factionString(faction string) string {
	if faction == "" {
		return colorize.YellowString("(none)")
	}
	if c, ok := factionColors[faction]; ok {
		return c.Sprint(faction)
	}
	return faction
}

func raritySymbol(rarity string) string {
	switch rarity {
	case card.RarityRare:
		return "◆"
	case card.RarityLegendary:
		return "★"
	default:
		return "●"
	}
}

// wrapText wraps text to a specified width
func wrapText(text string, width int) []string {
	if width < 10 {
		width = 40
	}

	var result []string
	var currentLine string
	words := strings.Fields(text)

	if len(words) == 0 {
		return []string{""}
	}

	for _, word := range words {
		if len(currentLine) == 0 {
			currentLine = word
		} else if len(currentLine)+1+len(word) <= width {
			currentLine += " " + word
		} else {
			result = append(result, currentLine)
			currentLine = word
		}
	}

	if currentLine != "" {
		result = append(result, currentLine)
	}

	return result
}

func label(name string) string {
	return colorize.CyanString("%-8s", name+":")
}

// printCard displays the card information
func printCard(c card.Card) {
	width := terminalWidth() - 4

	fmt.Println()
	fmt.Printf("  %s %s\n", raritySymbol(c.Rarity), colorize.New(colorize.FgHiWhite, colorize.Bold).Sprint(c.CardName))
	if c.ID != "" {
		fmt.Printf("  %s %s\n", label("ID"), colorize.HiWhiteString(c.ID))
	}
	fmt.Printf("  %s %s · %s · %s\n", label("Type"), c.CardType, factionString(c.Faction), c.Rarity)
	fmt.Printf("  %s %s\n", label("Energy"), colorize.HiYellowString("%d", c.EnergyCost))

	if c.IsUnit() {
		fmt.Printf("  %s HP %d  AC %d  Move %d", label("Stats"), c.HP, c.AC, c.Move)
		if c.Size != "" {
			fmt.Printf("  Size %s", c.Size)
		}
		fmt.Println()
		if c.Type != "" {
			fmt.Printf("  %s %s\n", label("Kind"), c.Type)
		}
	}
	if c.SpellType != "" {
		fmt.Printf("  %s %s\n", label("Spell"), c.SpellType)
	}
	if c.AuraType != "" {
		fmt.Printf("  %s %s\n", label("Aura"), c.AuraType)
	}
	if c.Range != "" {
		fmt.Printf("  %s %s\n", label("Range"), c.Range)
	}
	if c.Token {
		fmt.Printf("  %s yes\n", label("Token"))
	}
	if len(c.Keywords) > 0 {
		fmt.Printf("  %s %s\n", label("Keywords"), strings.Join(c.Keywords, ", "))
	}
	if c.Effect != "" {
		fmt.Println()
		fmt.Println("  " + colorize.CyanString("Effect:"))
		for _, line := range wrapText(c.Effect, width-2) {
			fmt.Println("    " + line)
		}
	}

	if len(c.Weapons) > 0 {
		fmt.Println()
		fmt.Println("  " + colorize.CyanString("Weapons:"))
		printWeapons(c.Weapons)
	}
	if len(c.Abilities) > 0 {
		fmt.Println()
		fmt.Println("  " + colorize.CyanString("Abilities:"))
		printAbilities(c.Abilities, width)
	}
	fmt.Println()
}

func printWeapons(weapons []card.Weapon) {
	for _, w := range weapons {
		line := fmt.Sprintf("    %s  %s %+d  %s", colorize.HiWhiteString(w.Name), w.Type, w.AttackBonus, colorize.HiRedString(w.Damage))
		if w.Range != "" {
			line += "  range " + w.Range
		}
		if w.Keywords != "" {
			line += "  (" + w.Keywords + ")"
		}
		fmt.Println(line)
	}
}

func printAbilities(abilities []card.Ability, width int) {
	for _, a := range abilities {
		cost := colorize.GreenString("passive")
		if !a.Passive {
			cost = colorize.HiYellowString("%d AP", a.Cost)
		}
		fmt.Printf("    %s  %s\n", colorize.HiWhiteString(a.Title), cost)
		for _, line := range wrapText(a.Description, width-6) {
			if line != "" {
				fmt.Println("      " + line)
			}
		}
	}
}

func printViolations(violations []validator.Violation) {
	fmt.Println(colorize.YellowString("⚠ %d balance violation(s):", len(violations)))
	for i, v := range violations {
		fmt.Printf("%d. %s\n", i+1, v)
	}
}
