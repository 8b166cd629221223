// Package rpc implements zelfm's wire framing: a 4-byte big-endian length
// prefix followed by a JSON body, carrying method-tagged request/response
// frames over a QUIC stream.
package rpc

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
)

// MaxFrameSize bounds a single frame, protecting against a malformed or
// hostile length prefix.
const MaxFrameSize = 16 * 1024 * 1024

// Method names for each RPC the broadcaster dispatches.
const (
	MethodInfo       = "info"
	MethodSendChat   = "send_chat"
	MethodChatStream = "chat_stream"
	MethodListen     = "listen"
)

// Frame is one logical RPC message: a method tag plus an arbitrary JSON
// payload, used for both requests and responses.
type Frame struct {
	Method  string          `json:"method,omitempty"`
	Error   string          `json:"error,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// WriteFrame marshals v into Frame.Payload and writes the length-prefixed
// frame to w.
func WriteFrame(w io.Writer, method string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("rpc: marshal payload: %w", err)
	}
	return writeRaw(w, Frame{Method: method, Payload: payload})
}

// WriteError writes an error frame, the wire shape returned for any RPC
// that fails (e.g. ListenerInfoMissing).
func WriteError(w io.Writer, msg string) error {
	return writeRaw(w, Frame{Error: msg})
}

func writeRaw(w io.Writer, f Frame) error {
	body, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("rpc: marshal frame: %w", err)
	}
	if len(body) > MaxFrameSize {
		return fmt.Errorf("rpc: frame of %d bytes exceeds max %d", len(body), MaxFrameSize)
	}
	var length [4]byte
	binary.BigEndian.PutUint32(length[:], uint32(len(body)))
	if _, err := w.Write(length[:]); err != nil {
		return fmt.Errorf("rpc: write length prefix: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("rpc: write frame body: %w", err)
	}
	return nil
}

// ReadFrame reads one length-prefixed frame from r.
func ReadFrame(r io.Reader) (Frame, error) {
	var length [4]byte
	if _, err := io.ReadFull(r, length[:]); err != nil {
		return Frame{}, err
	}
	n := binary.BigEndian.Uint32(length[:])
	if n > MaxFrameSize {
		return Frame{}, fmt.Errorf("rpc: frame of %d bytes exceeds max %d", n, MaxFrameSize)
	}
	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		return Frame{}, fmt.Errorf("rpc: read frame body: %w", err)
	}
	var f Frame
	if err := json.Unmarshal(body, &f); err != nil {
		return Frame{}, fmt.Errorf("rpc: unmarshal frame: %w", err)
	}
	return f, nil
}

// Decode unmarshals a Frame's Payload into v, or returns the frame's Error
// string as an error if the frame represents a failed call.
func Decode(f Frame, v any) error {
	if f.Error != "" {
		return fmt.Errorf("%s", f.Error)
	}
	if v == nil || len(f.Payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(f.Payload, v); err != nil {
		return fmt.Errorf("rpc: unmarshal payload: %w", err)
	}
	return nil
}
