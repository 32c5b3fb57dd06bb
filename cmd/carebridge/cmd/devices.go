package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/carebridge/carebridge/internal/audio"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List audio input devices",
	RunE: func(cmd *cobra.Command, args []string) error {
		devices, err := audio.ListInputDevices()
		if err != nil {
			printError("listing input devices", err)
			return err
		}
		if len(devices) == 0 {
			fmt.Println("No input devices found")
			return nil
		}
		for _, dev := range devices {
			marker := " "
			if dev.IsDefault {
				marker = "*"
			}
			fmt.Printf("%s %s (%d ch, %.0f Hz)\n",
				marker, dev.Name, dev.MaxInputChannels, dev.DefaultSampleRate)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}
