//go:build !liveinput

package source

import (
	"context"
	"fmt"

	"github.com/arung-agamani/zelfm/internal/bus"
	"github.com/arung-agamani/zelfm/internal/pcm"
)

// RunLive is unavailable in builds without the liveinput tag; see live.go.
func RunLive(ctx context.Context, deviceName string, sampleRate, channels int, out *bus.Bus[pcm.Block]) error {
	return fmt.Errorf("source: live capture requires a build with -tags liveinput")
}
