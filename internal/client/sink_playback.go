//go:build liveinput

// Playback via gordonklaus/portaudio, symmetric with internal/source's live
// capture path and gated behind the same build tag.
package client

import "github.com/gordonklaus/portaudio"

// PlaybackSink writes decoded frames to the system's default output device.
type PlaybackSink struct {
	stream *portaudio.Stream
	out    []float32
}

// NewPlaybackSink opens the default output device at sampleRate/channels.
func NewPlaybackSink(sampleRate, channels int) (*PlaybackSink, error) {
	portaudio.Initialize()

	out := make([]float32, 4096*channels)
	stream, err := portaudio.OpenDefaultStream(0, channels, float64(sampleRate), len(out)/channels, &out)
	if err != nil {
		portaudio.Terminate()
		return nil, err
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, err
	}
	return &PlaybackSink{stream: stream, out: out}, nil
}

func (s *PlaybackSink) Write(samples []float32, channels int) error {
	copy(s.out, samples)
	for i := len(samples); i < len(s.out); i++ {
		s.out[i] = 0
	}
	return s.stream.Write()
}

func (s *PlaybackSink) Close() error {
	defer portaudio.Terminate()
	s.stream.Stop()
	return s.stream.Close()
}
