package cmd

import (
	"fmt"
	"os"
	"strings"

	colorize "github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/arcanaland/gridsmith/internal/card"
	"github.com/arcanaland/gridsmith/internal/importer"
	"github.com/arcanaland/gridsmith/internal/validator"
)

var (
	importStrict bool

	listFactions []string
	listTypes    []string
	listSearch   string
	listSort     string
)

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import cards from a JSON file into the library",
	Long: `Import reads a JSON array of cards, or an object with a "cards" array, and
stores every card that passes validation. Keys may be PascalCase or
camelCase. Each card succeeds or fails on its own.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := loadApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		im := importer.New(a.store, validator.NewValidator(), importer.Options{Coerce: !importStrict}, a.log)
		res, err := im.ImportFile(ctx, args[0])
		if err != nil {
			return err
		}

		fmt.Printf("%s %d imported, %s %d failed\n",
			colorize.GreenString("✅"), res.Success, colorize.RedString("❌"), res.Failed)
		for i, e := range res.Errors {
			fmt.Printf("%d. %s: %s\n", i+1, colorize.HiWhiteString(e.Identifier), e.Reason)
		}
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Export the library as JSON",
	Long:  `Export writes every stored card as an indented JSON array, to a file or to stdout.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := loadApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		cards, err := a.store.GetAll(ctx)
		if err != nil {
			return err
		}
		if len(args) == 0 {
			return importer.Export(os.Stdout, cards)
		}
		if err := importer.ExportFile(args[0], cards); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Exported %d cards to %s\n", len(cards), args[0])
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List cards in the library",
	Example: `  gridsmith list --faction Red --faction Blue
  gridsmith list --type Spell --sort EnergyCost
  gridsmith list --search imp`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := loadApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		all, err := a.store.GetAll(ctx)
		if err != nil {
			return err
		}
		cards := card.Filter(all, card.FilterOptions{
			Factions: listFactions,
			Types:    listTypes,
			Search:   listSearch,
		})
		card.Sort(cards, listSort)

		if len(cards) == 0 {
			fmt.Println("No cards found.")
			return nil
		}

		showIDs := terminalWidth() >= 80
		fmt.Printf("Cards (%d of %d):\n", len(cards), len(all))
		for _, c := range cards {
			line := fmt.Sprintf("%s %-24s %-9s %s%s %2d",
				raritySymbol(c.Rarity),
				truncate(c.CardName, 24),
				c.CardType,
				factionString(c.Faction),
				strings.Repeat(" ", max(0, 9-len(c.Faction))),
				c.EnergyCost,
			)
			if showIDs {
				line += "  " + colorize.HiBlackString(c.ID)
			}
			fmt.Println(line)
		}
		return nil
	},
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}

func init() {
	importCmd.Flags().BoolVar(&importStrict, "strict", false, "reject numeric strings such as \"2\" instead of converting them")

	listCmd.Flags().StringSliceVar(&listFactions, "faction", nil, "only show these factions ("+strings.Join(card.Factions, ", ")+")")
	listCmd.Flags().StringSliceVar(&listTypes, "type", nil, "only show these card types ("+strings.Join(card.Types, ", ")+")")
	listCmd.Flags().StringVar(&listSearch, "search", "", "case-insensitive name search")
	listCmd.Flags().StringVar(&listSort, "sort", card.SortByName, "sort by Name, Type or EnergyCost")
}
