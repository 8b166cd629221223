// Package encoder runs C3, one per listener: it pulls pcm.Block values off
// the listener's bus subscription, reshapes them to the target channel
// layout, and runs them through ffmpeg to produce an OGG/Vorbis byte stream
// for C4 to write to the network.
package encoder

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/arung-agamani/zelfm/internal/bus"
	"github.com/arung-agamani/zelfm/internal/ffmpeg"
	"github.com/arung-agamani/zelfm/internal/metrics"
	"github.com/arung-agamani/zelfm/internal/pcm"
)

// flushThreshold is the minimum encoded byte count buffered before C4 is
// handed a chunk.
const flushThreshold = 8 * 1024

// defaultQuality is libvorbis's -qscale:a value, passed straight through
// unchanged.
const defaultQuality = 0.5

// Worker drives one listener's encode: read PCM from sub, write OGG/Vorbis
// chunks to the writer passed to Run. Run tears the ffmpeg process down
// from either side.
type Worker struct {
	InRate, InChannels   int
	OutRate, OutChannels int
	Quality              float64

	proc *ffmpeg.EncodeProcess
}

func NewWorker(inRate, inChannels, outRate, outChannels int) *Worker {
	return &Worker{
		InRate: inRate, InChannels: inChannels,
		OutRate: outRate, OutChannels: outChannels,
		Quality: defaultQuality,
	}
}

// Run feeds PCM pulled from sub into ffmpeg and writes resulting OGG/Vorbis
// bytes to out, in chunks of at least flushThreshold bytes (the residue left
// when ffmpeg's output ends goes out as one shorter final chunk), until ctx is
// canceled, sub is closed, or a write to out fails (the listener stalled —
// C4 owns that decision, Run just propagates the error so the caller can
// tear the whole pipeline down).
func (w *Worker) Run(ctx context.Context, pcmBus *bus.Bus[pcm.Block], sub *bus.Subscription[pcm.Block], out io.Writer) error {
	enc := &ffmpeg.VorbisEncoder{
		InRate: w.InRate, InChannels: w.InChannels,
		OutRate: w.OutRate, OutChannels: w.OutChannels,
		Quality: w.Quality,
	}
	proc, err := enc.Start(ctx)
	if err != nil {
		return fmt.Errorf("encoder: start ffmpeg: %w", err)
	}
	w.proc = proc

	feedErr := make(chan error, 1)
	go func() {
		feedErr <- w.feed(ctx, pcmBus, sub, proc)
	}()

	drainErr := make(chan error, 1)
	go func() {
		drainErr <- w.drain(proc, out)
	}()

	select {
	case err := <-feedErr:
		proc.Close()
		<-drainErr
		return err
	case err := <-drainErr:
		proc.Kill()
		<-feedErr
		return err
	case <-ctx.Done():
		proc.Kill()
		<-feedErr
		<-drainErr
		return ctx.Err()
	}
}

func (w *Worker) feed(ctx context.Context, pcmBus *bus.Bus[pcm.Block], sub *bus.Subscription[pcm.Block], proc *ffmpeg.EncodeProcess) error {
	for {
		block, lagged, ok := pcmBus.Recv(ctx, sub)
		if !ok {
			return proc.Close()
		}
		if lagged > 0 {
			metrics.SubscriberLagTotal.Add(float64(lagged))
			slog.Warn("listener lagged, dropped blocks", "dropped", lagged)
			continue
		}
		reshaped := pcm.Reshape(block, w.InChannels)
		if _, err := proc.Write(floatBytes(pcm.ToInterleaved(reshaped))); err != nil {
			return fmt.Errorf("encoder: write pcm to ffmpeg: %w", err)
		}
	}
}

func (w *Worker) drain(proc *ffmpeg.EncodeProcess, out io.Writer) error {
	chunk := make([]byte, flushThreshold)
	pending := make([]byte, 0, 2*flushThreshold)
	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		if _, werr := out.Write(pending); werr != nil {
			return fmt.Errorf("encoder: write to listener: %w", werr)
		}
		pending = pending[:0]
		return nil
	}
	for {
		n, err := proc.Read(chunk)
		pending = append(pending, chunk[:n]...)
		if len(pending) >= flushThreshold {
			if ferr := flush(); ferr != nil {
				return ferr
			}
		}
		if err != nil {
			if err == io.EOF {
				return flush()
			}
			return fmt.Errorf("encoder: read from ffmpeg: %w", err)
		}
	}
}

func floatBytes(samples []float32) []byte {
	b := make([]byte, len(samples)*4)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(s))
	}
	return b
}
