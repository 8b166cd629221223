//go:build liveinput

// Device enumeration via gordonklaus/portaudio.
package cli

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
	"github.com/spf13/cobra"
)

// NewListDevicesCommand builds the `zelfm list-devices` subcommand.
func NewListDevicesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list-devices",
		Short: "List available audio input/output devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			portaudio.Initialize()
			defer portaudio.Terminate()

			devices, err := portaudio.Devices()
			if err != nil {
				return err
			}
			for _, d := range devices {
				fmt.Printf("%-32s in=%d out=%d default_rate=%.0f\n",
					d.Name, d.MaxInputChannels, d.MaxOutputChannels, d.DefaultSampleRate)
			}
			return nil
		},
	}
}
