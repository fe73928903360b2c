package cmd

import (
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
	logJSON    bool
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "gridsmith",
	Short: "AI assisted card designer for GridStrike",
	Long: `Gridsmith drafts, balances and manages cards for the GridStrike card game.
It generates whole cards or single fields with a language model, keeps
abilities within the action point rules, and imports or exports card
libraries in bulk.`,
	SilenceUsage: true,
}

func init() {
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default is $XDG_CONFIG_HOME/gridsmith/config.toml)")
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")
	RootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "write logs as JSON")

	RootCmd.AddCommand(generateCmd)
	RootCmd.AddCommand(importCmd)
	RootCmd.AddCommand(exportCmd)
	RootCmd.AddCommand(listCmd)
	RootCmd.AddCommand(showCmd)
	RootCmd.AddCommand(validateCmd)
	RootCmd.AddCommand(deckCmd)
	RootCmd.AddCommand(configCmd)
	RootCmd.AddCommand(serveCmd)
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return RootCmd.Execute()
}
