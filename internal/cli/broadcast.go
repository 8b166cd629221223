// Package cli implements the zelfm binary's subcommands (broadcast, listen,
// list-devices) with structured logging, config loading, and signal-driven
// graceful shutdown, built on spf13/cobra.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/arung-agamani/zelfm/config"
	"github.com/arung-agamani/zelfm/internal/adminhttp"
	"github.com/arung-agamani/zelfm/internal/auth"
	"github.com/arung-agamani/zelfm/internal/broadcaster"
	"github.com/arung-agamani/zelfm/internal/station"
)

// NewBroadcastCommand builds the `zelfm broadcast` subcommand.
func NewBroadcastCommand() *cobra.Command {
	var (
		name, desc, file string
	)

	cmd := &cobra.Command{
		Use:   "broadcast",
		Short: "Run a zelfm broadcaster, looping a single audio file to listeners",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if name != "" {
				cfg.StationName = name
			}
			if desc != "" {
				cfg.StationDesc = desc
			}
			if file != "" {
				cfg.MusicFile = file
			}
			if cfg.MusicFile == "" && cfg.InputDevice == "" {
				return fmt.Errorf("broadcast: one of --file, MUSIC_FILE or INPUT_DEVICE must be set")
			}
			return runBroadcast(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "station name (overrides STATION_NAME)")
	cmd.Flags().StringVar(&desc, "description", "", "station description (overrides STATION_DESC)")
	cmd.Flags().StringVar(&file, "file", "", "audio file to loop (overrides MUSIC_FILE)")
	return cmd
}

func runBroadcast(ctx context.Context, cfg *config.Config) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh
		slog.Info("shutdown signal received")
		cancel()
	}()

	st, err := broadcaster.New(broadcaster.Config{
		Station: station.Info{
			Name:        cfg.StationName,
			Description: cfg.StationDesc,
			Bitrate:     atoiOrZero(cfg.Bitrate),
			SampleRate:  cfg.SampleRate,
			Channels:    cfg.Channels,
		},
		SourceFile:  cfg.MusicFile,
		InputDevice: cfg.InputDevice,
		QUICAddr:    cfg.QUICAddr,
		BusCapacity: cfg.BusCapacity,
		StallAfter:  time.Duration(cfg.StallAfter) * time.Second,
	})
	if err != nil {
		return err
	}

	fmt.Printf("broadcasting as %s@%s\n", st.NodeID(), cfg.QUICAddr)

	errCh := make(chan error, 2)
	go func() { errCh <- st.Run(ctx) }()

	if cfg.AdminAddr != "" {
		a := auth.New(auth.Config{
			Username:  cfg.AdminUsername,
			Password:  cfg.AdminPassword,
			JWTSecret: cfg.JWTSecret,
			TokenTTL:  24 * time.Hour,
		})
		admin := adminhttp.New(cfg.AdminAddr, st, cfg.MusicFile, a)
		go func() { errCh <- admin.Start(ctx) }()
	}

	select {
	case err := <-errCh:
		if ctx.Err() != nil {
			return nil
		}
		return err
	case <-ctx.Done():
		return nil
	}
}

func atoiOrZero(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}
