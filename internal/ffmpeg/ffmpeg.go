// Package ffmpeg wraps the ffmpeg binary via os/exec to decode arbitrary
// source files to raw PCM and encode PCM to OGG/Vorbis. Both the source
// decoder (C1) and the per-listener Vorbis encoder (C3) are thin process
// wrappers built on the same stdout/stderr-pipe shape.
package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
)

// drainStderr logs ffmpeg's stderr at debug level in the background, one log
// record per read of up to 1 KiB.
func drainStderr(stderr io.ReadCloser, tag string) {
	buf := make([]byte, 1024)
	for {
		n, err := stderr.Read(buf)
		if n > 0 {
			slog.Debug("ffmpeg", "proc", tag, "output", string(buf[:n]))
		}
		if err != nil {
			return
		}
	}
}

// Decoder shells out to ffmpeg to turn an arbitrary input file into raw
// interleaved f32le PCM, satisfying C1's decode step.
type Decoder struct {
	SampleRate int
	Channels   int
}

func NewDecoder(sampleRate, channels int) *Decoder {
	return &Decoder{SampleRate: sampleRate, Channels: channels}
}

// DecodeProcess is a running decode of one source file. Read drains decoded
// f32le PCM from ffmpeg's stdout; Wait reports the process's exit status
// once the caller is done reading.
type DecodeProcess struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
}

func (p *DecodeProcess) Read(buf []byte) (int, error) { return p.stdout.Read(buf) }

// Wait blocks until ffmpeg exits. A non-zero exit (and ctx.Err() == nil)
// means the source file itself could not be decoded — a fatal, not a
// recoverable, error for that file.
func (p *DecodeProcess) Wait(ctx context.Context) error {
	err := p.cmd.Wait()
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("ffmpeg decode exited: %w", err)
	}
	return nil
}

// Start begins decoding inputFile to raw f32le PCM at the Decoder's
// configured rate/channel count. The caller must read DecodeProcess until
// EOF and then call Wait to observe the exit status.
func (d *Decoder) Start(ctx context.Context, inputFile string) (*DecodeProcess, error) {
	args := []string{
		"-i", inputFile,
		"-f", "f32le",
		"-ar", fmt.Sprintf("%d", d.SampleRate),
		"-ac", fmt.Sprintf("%d", d.Channels),
		"-vn",
		"pipe:1",
	}
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg decode stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg decode stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("ffmpeg decode start: %w", err)
	}
	go drainStderr(stderr, "decode:"+inputFile)

	return &DecodeProcess{cmd: cmd, stdout: stdout}, nil
}

// VorbisEncoder shells out to ffmpeg to turn raw interleaved f32le PCM into
// an OGG/Vorbis byte stream, satisfying C3's per-listener encode step.
type VorbisEncoder struct {
	InRate, InChannels   int
	OutRate, OutChannels int
	Quality              float64 // libvorbis -qscale:a, default 0.5
}

// EncodeProcess is a running per-listener encode. Write feeds interleaved
// f32le PCM in; Read drains OGG/Vorbis bytes out. Close must be called once
// no more PCM will be written, to let ffmpeg flush and exit.
type EncodeProcess struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
}

func (p *EncodeProcess) Write(b []byte) (int, error) { return p.stdin.Write(b) }
func (p *EncodeProcess) Read(b []byte) (int, error)  { return p.stdout.Read(b) }

// Close closes ffmpeg's stdin, signaling end of input, and waits for the
// process to flush its remaining output and exit.
func (p *EncodeProcess) Close() error {
	if err := p.stdin.Close(); err != nil {
		return fmt.Errorf("ffmpeg encode stdin close: %w", err)
	}
	return p.cmd.Wait()
}

// Kill terminates the encode process immediately, used when a listener's
// network writer has stalled and the encode is being torn down.
func (p *EncodeProcess) Kill() error {
	if p.cmd.Process == nil {
		return nil
	}
	return p.cmd.Process.Kill()
}

func (e *VorbisEncoder) Start(ctx context.Context) (*EncodeProcess, error) {
	args := []string{
		"-f", "f32le",
		"-ar", fmt.Sprintf("%d", e.InRate),
		"-ac", fmt.Sprintf("%d", e.InChannels),
		"-i", "pipe:0",
		"-c:a", "libvorbis",
		"-qscale:a", fmt.Sprintf("%g", e.Quality),
		"-ar", fmt.Sprintf("%d", e.OutRate),
		"-ac", fmt.Sprintf("%d", e.OutChannels),
		"-f", "ogg",
		"pipe:1",
	}
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg encode stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg encode stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg encode stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("ffmpeg encode start: %w", err)
	}
	go drainStderr(stderr, "encode")

	return &EncodeProcess{cmd: cmd, stdin: stdin, stdout: stdout}, nil
}

// ReadTags does a best-effort ffprobe-free metadata read by asking ffmpeg to
// dump container metadata to stdout, used as a fallback when dhowden/tag
// cannot parse a container (C9). Kept intentionally minimal: dhowden/tag is
// the primary path, this only covers formats it does not recognize.
func ReadTags(ctx context.Context, inputFile string) (map[string]string, error) {
	cmd := exec.CommandContext(ctx, "ffmpeg", "-i", inputFile, "-f", "ffmetadata", "-")
	var out bytes.Buffer
	cmd.Stdout = &out
	_ = cmd.Run() // ffmpeg exits non-zero with no output file; metadata is still in stdout

	tags := make(map[string]string)
	for _, line := range bytes.Split(out.Bytes(), []byte("\n")) {
		idx := bytes.IndexByte(line, '=')
		if idx <= 0 {
			continue
		}
		tags[string(bytes.TrimSpace(line[:idx]))] = string(bytes.TrimSpace(line[idx+1:]))
	}
	return tags, nil
}
