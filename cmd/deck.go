package cmd

import (
	"fmt"
	"slices"
	"strings"

	colorize "github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/arcanaland/gridsmith/internal/card"
	"github.com/arcanaland/gridsmith/internal/deck"
)

var (
	deckFaction     string
	deckDescription string
	deckUser        string
	deckCards       []string
	deckSearch      string
	deckCopies      int
)

// deckCmd represents the deck command group
var deckCmd = &cobra.Command{
	Use:   "deck",
	Short: "Manage decks built from your card library",
	Long:  `Commands for building and checking GridStrike decks from the cards in your library.`,
}

// deckListCmd represents the deck list command
var deckListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List stored decks",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := loadApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		decks, err := a.decks.FindDecks(ctx, deck.Filters{Name: deckSearch, Faction: deckFaction, UserID: deckUser})
		if err != nil {
			return fmt.Errorf("error listing decks: %w", err)
		}
		if len(decks) == 0 {
			fmt.Println("No decks found.")
			fmt.Println("Run 'gridsmith deck create' to build one.")
			return nil
		}
		for _, d := range decks {
			fmt.Printf("  %-24s %s%s %2d/%d  %s\n",
				truncate(d.Name, 24),
				factionString(d.Faction),
				strings.Repeat(" ", max(0, 9-len(d.Faction))),
				len(d.CardIDs), deck.Size,
				colorize.HiBlackString(d.ID),
			)
		}
		return nil
	},
}

// deckCreateCmd represents the deck create command
var deckCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a deck",
	Example: `  gridsmith deck create "Ember Rush" --faction Red
  gridsmith deck create "Ember Rush" --faction Red --card 6f1c2a9e --card 0b3c1d2e`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if strings.TrimSpace(args[0]) == "" {
			return fmt.Errorf("deck name is required")
		}
		if !slices.Contains(card.Factions, deckFaction) {
			return fmt.Errorf("faction must be one of %s", strings.Join(card.Factions, ", "))
		}
		ctx := cmd.Context()
		a, err := loadApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		for _, id := range deckCards {
			if _, err := a.store.Get(ctx, id); err != nil {
				return fmt.Errorf("error adding card: %w", err)
			}
		}
		d, err := a.decks.CreateDeck(ctx, deck.Deck{
			Name:        args[0],
			Faction:     deckFaction,
			Description: deckDescription,
			UserID:      deckUser,
			CardIDs:     deckCards,
		})
		if err != nil {
			return fmt.Errorf("error creating deck: %w", err)
		}
		fmt.Printf("Created deck %s (%s)\n", colorize.HiWhiteString(d.Name), d.ID)
		return nil
	},
}

// deckAddCmd represents the deck add command
var deckAddCmd = &cobra.Command{
	Use:   "add [deck_id] [card_id]",
	Short: "Add copies of a card to a deck",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if deckCopies < 1 {
			return fmt.Errorf("--copies must be at least 1")
		}
		ctx := cmd.Context()
		a, err := loadApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		d, err := a.decks.GetDeck(ctx, args[0])
		if err != nil {
			return fmt.Errorf("error getting deck: %w", err)
		}
		c, err := a.store.Get(ctx, args[1])
		if err != nil {
			return fmt.Errorf("error getting card: %w", err)
		}
		for range deckCopies {
			d.CardIDs = append(d.CardIDs, c.ID)
		}
		if _, err := a.decks.UpdateDeck(ctx, d.ID, d); err != nil {
			return fmt.Errorf("error updating deck: %w", err)
		}
		fmt.Printf("Added %dx %s to %s (%d/%d)\n", deckCopies, c.CardName, d.Name, len(d.CardIDs), deck.Size)
		return nil
	},
}

// deckShowCmd represents the deck show command
var deckShowCmd = &cobra.Command{
	Use:   "show [deck_id]",
	Short: "Display a deck and check it against the construction rules",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := loadApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		d, err := a.decks.GetDeck(ctx, args[0])
		if err != nil {
			return fmt.Errorf("error getting deck: %w", err)
		}
		all, err := a.store.GetAll(ctx)
		if err != nil {
			return err
		}
		library := make(map[string]card.Card, len(all))
		for _, c := range all {
			library[c.ID] = c
		}

		fmt.Printf("%s  %s  %d/%d cards\n", colorize.HiWhiteString(d.Name), factionString(d.Faction), len(d.CardIDs), deck.Size)
		if d.Description != "" {
			for _, line := range wrapText(d.Description, terminalWidth()-2) {
				fmt.Println(line)
			}
		}
		fmt.Println()
		for _, line := range deckLines(d, library) {
			fmt.Println("  " + line)
		}

		problems := deck.Problems(d, library)
		fmt.Println()
		if len(problems) == 0 {
			fmt.Printf("%s Deck is legal\n", colorize.GreenString("✅"))
			return nil
		}
		fmt.Printf("%s Deck breaks %d rules:\n", colorize.RedString("❌"), len(problems))
		for i, p := range problems {
			fmt.Printf("%d. %s\n", i+1, p)
		}
		return nil
	},
}

// deckDeleteCmd represents the deck delete command
var deckDeleteCmd = &cobra.Command{
	Use:   "delete [deck_id]",
	Short: "Delete a deck",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := loadApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		deleted, err := a.decks.DeleteDeck(ctx, args[0])
		if err != nil {
			return fmt.Errorf("error deleting deck: %w", err)
		}
		if !deleted {
			return fmt.Errorf("deck %s not found", args[0])
		}
		fmt.Println("Deleted deck", args[0])
		return nil
	},
}

// deckLines renders one line per distinct card in first-seen order, with
// its copy count. Ids missing from library are shown as unknown.
func deckLines(d deck.Deck, library map[string]card.Card) []string {
	copies := map[string]int{}
	var order []string
	for _, id := range d.CardIDs {
		if copies[id] == 0 {
			order = append(order, id)
		}
		copies[id]++
	}
	lines := make([]string, 0, len(order))
	for _, id := range order {
		c, ok := library[id]
		if !ok {
			lines = append(lines, fmt.Sprintf("%dx (unknown card %s)", copies[id], id))
			continue
		}
		lines = append(lines, fmt.Sprintf("%dx %s %s %s", copies[id], raritySymbol(c.Rarity), c.CardName, c.CardType))
	}
	return lines
}

func init() {
	deckCmd.AddCommand(deckListCmd)
	deckCmd.AddCommand(deckCreateCmd)
	deckCmd.AddCommand(deckAddCmd)
	deckCmd.AddCommand(deckShowCmd)
	deckCmd.AddCommand(deckDeleteCmd)

	deckListCmd.Flags().StringVar(&deckSearch, "search", "", "case-insensitive name search")
	deckListCmd.Flags().StringVar(&deckFaction, "faction", "", "only show decks of this faction")
	deckListCmd.Flags().StringVar(&deckUser, "user", "", "only show decks owned by this user")

	deckCreateCmd.Flags().StringVar(&deckFaction, "faction", "", "deck faction ("+strings.Join(card.Factions, ", ")+")")
	deckCreateCmd.Flags().StringVar(&deckDescription, "description", "", "deck description")
	deckCreateCmd.Flags().StringVar(&deckUser, "user", "", "owner of the deck")
	deckCreateCmd.Flags().StringSliceVar(&deckCards, "card", nil, "card id to include; repeat for more copies")
	_ = deckCreateCmd.MarkFlagRequired("faction")

	deckAddCmd.Flags().IntVarP(&deckCopies, "copies", "n", 1, "number of copies to add")
}
