// Package source runs C1, the source decoder: it loops a single file
// through ffmpeg and publishes decoded PCM blocks onto the bus, retrying
// after a transient failure rather than exiting the broadcaster.
package source

import (
	"context"
	"encoding/binary"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/arung-agamani/zelfm/internal/bus"
	"github.com/arung-agamani/zelfm/internal/ffmpeg"
	"github.com/arung-agamani/zelfm/internal/pcm"
)

// retryDelay is how long Run waits before re-opening the source file after
// a fatal decode error.
const retryDelay = time.Second

// blockFrames is the target frame count per published pcm.Block: large
// enough to amortize fan-out overhead, small enough to keep listener jitter
// low. 4096 frames at 44100Hz is under 100ms.
const blockFrames = 4096

// Run decodes file in a loop, publishing pcm.Block values to out, until ctx
// is canceled. A decode failure logs and retries after retryDelay rather
// than returning early, so one bad file never brings the broadcaster down.
func Run(ctx context.Context, file string, sampleRate, channels int, out *bus.Bus[pcm.Block]) {
	dec := ffmpeg.NewDecoder(sampleRate, channels)
	for {
		if ctx.Err() != nil {
			return
		}
		if err := decodeOnce(ctx, dec, file, channels, out); err != nil {
			slog.Error("source decode failed, retrying", "file", file, "error", err)
			select {
			case <-time.After(retryDelay):
			case <-ctx.Done():
				return
			}
		}
	}
}

func decodeOnce(ctx context.Context, dec *ffmpeg.Decoder, file string, channels int, out *bus.Bus[pcm.Block]) error {
	proc, err := dec.Start(ctx, file)
	if err != nil {
		return err
	}

	frameBytes := 4 // float32
	chunk := make([]byte, blockFrames*channels*frameBytes)
	for {
		n, readErr := io.ReadFull(proc, chunk)
		if n > 0 {
			interleaved := bytesToFloat32(chunk[:n])
			block := pcm.FromInterleaved(dec.SampleRate, channels, interleaved)
			if block.NumFrames() > 0 {
				out.Publish(block)
			}
		}
		if readErr == io.ErrUnexpectedEOF {
			// A short final chunk still carries real audio; keep it.
			continue
		}
		if readErr != nil {
			break
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return proc.Wait(ctx)
}

// bytesToFloat32 decodes little-endian f32le samples, the layout ffmpeg's
// "-f f32le" pipe output uses.
func bytesToFloat32(b []byte) []float32 {
	out := make([]float32, len(b)/4)
	for i := range out {
		bits := binary.LittleEndian.Uint32(b[i*4:])
		out[i] = math.Float32frombits(bits)
	}
	return out
}
