package cmd

import (
	"github.com/spf13/cobra"

	"github.com/carebridge/carebridge/internal/tui/console"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Open the dual-language conversation console",
	Long: `Opens the terminal console for a dual-language conversation.

Type to translate as you go, press ctrl+r for push-to-talk speech
capture or ctrl+g for continuous listening, and ctrl+s to read the
latest translation aloud. The console talks to a running relay
gateway (see 'carebridge serve').`,
	RunE: runConsole,
}

func init() {
	rootCmd.AddCommand(consoleCmd)
}

func runConsole(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		printError("loading configuration", err)
		return err
	}

	if err := console.Run(cfg); err != nil {
		printError("console", err)
		return err
	}
	return nil
}
