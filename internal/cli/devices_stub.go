//go:build !liveinput

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewListDevicesCommand builds the `zelfm list-devices` subcommand. Device
// enumeration needs portaudio, which this build was compiled without; the
// command explains how to get it rather than silently doing nothing.
func NewListDevicesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list-devices",
		Short: "List available audio input/output devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			return fmt.Errorf("list-devices: this build was compiled without the 'liveinput' tag; rebuild with -tags liveinput")
		},
	}
}
