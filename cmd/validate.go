package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/arcanaland/gridsmith/internal/importer"
	"github.com/arcanaland/gridsmith/internal/normalize"
	"github.com/arcanaland/gridsmith/internal/validator"
)

var validateStrict bool

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate [path]",
	Short: "Validate a card file without importing it",
	Long: `Validate reads an import file (a JSON array of cards or {"cards": [...]})
and checks every card against the schema and the balance rules. Nothing is
stored. Abilities are corrected to the action point rules before checking,
as an import would.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("card file not found: %s", path)
		}
		records, err := importer.ParseDocument(data)
		if err != nil {
			return fmt.Errorf("validation error: %w", err)
		}

		v := validator.NewValidator()
		failed := 0

		fmt.Println("Validation Results:")
		fmt.Println("-------------------")

		for i, raw := range records {
			id := normalize.Identifier(raw, i)
			c, err := normalize.Decode(normalize.Normalize(raw), normalize.DecodeOptions{Coerce: !validateStrict})
			if err != nil {
				failed++
				fmt.Printf("❌ %s: %v\n", id, err)
				continue
			}
			c, found := validator.CorrectCard(c)
			results := v.Validate(c)
			for _, vi := range found {
				results.Errors = append(results.Errors, vi.String())
			}

			if results.Valid() {
				fmt.Printf("✅ %s\n", id)
			} else {
				failed++
				fmt.Printf("❌ %s has %d validation errors:\n", id, len(results.Errors))
				for j, e := range results.Errors {
					fmt.Printf("   %d. %s\n", j+1, e)
				}
			}
			for _, warn := range results.Warnings {
				fmt.Printf("   ⚠ %s\n", warn)
			}
		}

		fmt.Printf("\n%d cards, %d valid, %d invalid\n", len(records), len(records)-failed, failed)
		if failed > 0 {
			return fmt.Errorf("validation failed")
		}
		return nil
	},
}

func init() {
	validateCmd.Flags().BoolVar(&validateStrict, "strict", false, "reject numeric strings such as \"2\" instead of converting them")
}
