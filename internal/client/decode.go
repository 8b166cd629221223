package client

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jfreymuth/oggvorbis"
)

// Sink receives decoded PCM frames from Decode. A build without portaudio
// always uses CountingSink; the liveinput build plays through PlaybackSink
// unless playback is disabled (see NewOutputSink).
type Sink interface {
	Write(samples []float32, channels int) error
	Close() error
}

// Decode reads OGG/Vorbis from r (normally a *StreamBridge) and hands
// decoded interleaved f32 frames to sink until EOF, ctx cancellation, or
// durationCap elapses (0 disables the cap).
func Decode(ctx context.Context, r io.Reader, sink Sink, durationCap time.Duration) error {
	dec, err := oggvorbis.NewReader(r)
	if err != nil {
		return fmt.Errorf("client: open vorbis stream: %w", err)
	}

	var deadline <-chan time.Time
	if durationCap > 0 {
		timer := time.NewTimer(durationCap)
		defer timer.Stop()
		deadline = timer.C
	}

	buf := make([]float32, 4096*dec.Channels())
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline:
			return nil
		default:
		}

		n, err := dec.Read(buf)
		if n > 0 {
			if werr := sink.Write(buf[:n], dec.Channels()); werr != nil {
				return fmt.Errorf("client: sink write: %w", werr)
			}
		}
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("client: decode vorbis: %w", err)
		}
	}
}
