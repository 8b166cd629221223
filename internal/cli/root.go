package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCommand builds the zelfm root command: structured JSON logging is
// configured once here, before any subcommand runs.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "zelfm",
		Short:         "zelfm is a peer-to-peer internet radio broadcaster and listener",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			}))
			slog.SetDefault(logger)
		},
	}

	root.AddCommand(NewBroadcastCommand())
	root.AddCommand(NewListenCommand())
	root.AddCommand(NewListDevicesCommand())
	return root
}
