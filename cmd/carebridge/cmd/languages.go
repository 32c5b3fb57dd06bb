package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/carebridge/carebridge/internal/langs"
)

var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "List supported languages",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Input languages (speech and text):")
		for _, tag := range langs.List() {
			fmt.Printf("  %-6s %s\n", tag.Code, tag.Name)
		}
		fmt.Println("\nTranslation targets:")
		for _, tag := range langs.ListTargets() {
			fmt.Printf("  %-6s %s\n", tag.Code, tag.Name)
		}
	},
}

func init() {
	rootCmd.AddCommand(languagesCmd)
}
