//go:build liveinput

package client

// NewOutputSink opens a playback sink at sampleRate/channels, unless
// noPlayback is set, in which case it falls back to counting frames without
// opening an output device.
func NewOutputSink(sampleRate, channels int, noPlayback bool) (Sink, error) {
	if noPlayback {
		return NewCountingSink(), nil
	}
	return NewPlaybackSink(sampleRate, channels)
}
