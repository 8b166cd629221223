package client

import "sync/atomic"

// CountingSink discards audio and just counts frames decoded, used when the
// binary is built without portaudio and playback isn't available.
type CountingSink struct {
	frames atomic.Int64
}

func NewCountingSink() *CountingSink { return &CountingSink{} }

func (s *CountingSink) Write(samples []float32, channels int) error {
	if channels <= 0 {
		channels = 1
	}
	s.frames.Add(int64(len(samples) / channels))
	return nil
}

func (s *CountingSink) Close() error { return nil }

// Frames returns the total frame count decoded so far.
func (s *CountingSink) Frames() int64 { return s.frames.Load() }
