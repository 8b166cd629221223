// Package pcm defines the planar audio block that flows from the source
// decoder (C1) through the fan-out bus (C2) to every listener's encoder (C3).
package pcm

import "fmt"

// Block is a non-empty planar audio block: Channels[c][i] is sample i of
// channel c, all channels sharing the same length. Samples are 32-bit float
// in [-1.0, 1.0]. Rate is the sample rate the block was produced at; it is
// carried on the block itself (rather than tracked out-of-band) so a
// fan-out subscriber that joins mid-stream can detect a rate change without
// consulting shared state.
type Block struct {
	Rate     int
	Channels [][]float32
}

// NumChannels returns the channel count.
func (b Block) NumChannels() int {
	return len(b.Channels)
}

// NumFrames returns the per-channel sample count, or 0 for an empty block.
func (b Block) NumFrames() int {
	if len(b.Channels) == 0 {
		return 0
	}
	return len(b.Channels[0])
}

// Validate checks a block's invariants: non-empty, every channel the same
// length, sample rate positive.
func (b Block) Validate() error {
	if len(b.Channels) == 0 {
		return fmt.Errorf("pcm: block has no channels")
	}
	if b.Rate <= 0 {
		return fmt.Errorf("pcm: block has non-positive rate %d", b.Rate)
	}
	n := len(b.Channels[0])
	if n == 0 {
		return fmt.Errorf("pcm: block has zero frames")
	}
	for i, ch := range b.Channels {
		if len(ch) != n {
			return fmt.Errorf("pcm: channel %d has %d frames, want %d", i, len(ch), n)
		}
	}
	return nil
}

// FromInterleaved converts an interleaved f32 buffer (as ffmpeg's f32le
// pipe output gives us) into a planar Block with the given channel count.
// Trailing samples that don't complete a full frame are dropped.
func FromInterleaved(rate, channels int, interleaved []float32) Block {
	frames := len(interleaved) / channels
	planar := make([][]float32, channels)
	for c := range planar {
		planar[c] = make([]float32, frames)
	}
	for i := 0; i < frames; i++ {
		base := i * channels
		for c := 0; c < channels; c++ {
			planar[c][i] = interleaved[base+c]
		}
	}
	return Block{Rate: rate, Channels: planar}
}

// ToInterleaved flattens a planar Block back to interleaved samples, the
// form most codec/container libraries (and ffmpeg's stdin) expect.
func ToInterleaved(b Block) []float32 {
	frames := b.NumFrames()
	channels := b.NumChannels()
	out := make([]float32, frames*channels)
	for i := 0; i < frames; i++ {
		base := i * channels
		for c := 0; c < channels; c++ {
			out[base+c] = b.Channels[c][i]
		}
	}
	return out
}

// Reshape clamps/pads b to exactly targetChannels planes: surplus source
// channels are dropped, missing target channels are padded with silence.
// The source block is never mutated.
func Reshape(b Block, targetChannels int) Block {
	out := Block{Rate: b.Rate, Channels: make([][]float32, targetChannels)}
	frames := b.NumFrames()
	keep := b.NumChannels()
	if keep > targetChannels {
		keep = targetChannels
	}
	for c := 0; c < targetChannels; c++ {
		if c < keep {
			out.Channels[c] = b.Channels[c]
			continue
		}
		out.Channels[c] = make([]float32, frames)
	}
	return out
}

// DuplicateMono returns a 2-channel block built from a 1-channel source by
// copying channel 0 into channel 1.
func DuplicateMono(b Block) Block {
	if b.NumChannels() != 1 {
		return b
	}
	return Block{Rate: b.Rate, Channels: [][]float32{b.Channels[0], b.Channels[0]}}
}
