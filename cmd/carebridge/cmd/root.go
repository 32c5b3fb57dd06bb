package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/carebridge/carebridge/pkg/core/config"
	"github.com/carebridge/carebridge/pkg/core/logging"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "carebridge",
	Short: "CareBridge - speech translation for clinical conversations",
	Long: `CareBridge translates spoken and typed conversations between
patients and clinicians in real time.

Commands:
  serve      - run the relay gateway in front of the AI provider
  console    - open the dual-language conversation console
  languages  - list supported languages
  devices    - list audio input devices`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./configs/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig loads configuration honoring the --config flag
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadOrDefault(cfgFile)
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.General.LogLevel = "debug"
	}
	logging.SetDefaultLevel(logging.ParseLevel(cfg.General.LogLevel))
	logging.SetDefaultFormat(logging.ParseFormat(cfg.General.LogFormat))
	return cfg, nil
}

func printError(msg string, err error) {
	fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
}
