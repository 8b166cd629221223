//go:build liveinput

// Live capture via gordonklaus/portaudio, gated behind the liveinput build
// tag since it links against the system PortAudio library.
package source

import (
	"context"
	"log/slog"

	"github.com/gordonklaus/portaudio"

	"github.com/arung-agamani/zelfm/internal/bus"
	"github.com/arung-agamani/zelfm/internal/pcm"
)

// RunLive captures from deviceName (or the system default input if empty)
// and publishes pcm.Block values to out until ctx is canceled.
func RunLive(ctx context.Context, deviceName string, sampleRate, channels int, out *bus.Bus[pcm.Block]) error {
	portaudio.Initialize()
	defer portaudio.Terminate()

	dev, err := resolveInputDevice(deviceName)
	if err != nil {
		return err
	}

	buf := make([]float32, blockFrames*channels)
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   dev,
			Channels: channels,
			Latency:  dev.DefaultLowInputLatency,
		},
		SampleRate:      float64(sampleRate),
		FramesPerBuffer: blockFrames,
	}

	stream, err := portaudio.OpenStream(params, buf)
	if err != nil {
		return err
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return err
	}
	defer stream.Stop()

	for ctx.Err() == nil {
		if err := stream.Read(); err != nil {
			slog.Warn("live capture read error", "error", err)
			continue
		}
		block := pcm.FromInterleaved(sampleRate, channels, buf)
		if channels == 1 {
			block = pcm.DuplicateMono(block)
		}
		out.Publish(block)
	}
	return ctx.Err()
}

func resolveInputDevice(name string) (*portaudio.DeviceInfo, error) {
	if name == "" {
		return portaudio.DefaultInputDevice()
	}
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	for _, d := range devices {
		if d.Name == name && d.MaxInputChannels > 0 {
			return d, nil
		}
	}
	return portaudio.DefaultInputDevice()
}
