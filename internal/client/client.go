package client

import (
	"context"
	"fmt"
	"time"

	"github.com/quic-go/quic-go"

	"github.com/arung-agamani/zelfm/internal/rpc"
	"github.com/arung-agamani/zelfm/internal/transport"
)

// Client holds one QUIC connection to a broadcaster, dialed and fingerprint-
// pinned against an Address.
type Client struct {
	conn *quic.Conn
}

// Dial connects to addr and pins the peer's certificate to addr.NodeID.
func Dial(ctx context.Context, addr transport.Address) (*Client, error) {
	conn, err := transport.Dial(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("client: dial: %w", err)
	}
	return &Client{conn: conn}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.CloseWithError(0, "client closing")
}

// StationInfo is the unary info RPC's response.
type StationInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Bitrate     int    `json:"bitrate"`
	SampleRate  int    `json:"sampleRate"`
	Channels    int    `json:"channels"`
	Listeners   int    `json:"listeners"`
}

// Info calls the info RPC.
func (c *Client) Info(ctx context.Context) (StationInfo, error) {
	stream, err := c.conn.OpenStreamSync(ctx)
	if err != nil {
		return StationInfo{}, fmt.Errorf("client: open stream: %w", err)
	}
	defer stream.Close()

	if err := rpc.WriteFrame(stream, rpc.MethodInfo, struct{}{}); err != nil {
		return StationInfo{}, err
	}
	frame, err := rpc.ReadFrame(stream)
	if err != nil {
		return StationInfo{}, fmt.Errorf("client: read info response: %w", err)
	}
	var info StationInfo
	if err := rpc.Decode(frame, &info); err != nil {
		return StationInfo{}, err
	}
	return info, nil
}

// SendChat calls send_chat with text.
func (c *Client) SendChat(ctx context.Context, text string) error {
	stream, err := c.conn.OpenStreamSync(ctx)
	if err != nil {
		return fmt.Errorf("client: open stream: %w", err)
	}
	defer stream.Close()

	if err := rpc.WriteFrame(stream, rpc.MethodSendChat, struct {
		Text string `json:"text"`
	}{Text: text}); err != nil {
		return err
	}
	frame, err := rpc.ReadFrame(stream)
	if err != nil {
		return fmt.Errorf("client: read send_chat response: %w", err)
	}
	return rpc.Decode(frame, nil)
}

// ChatMessage mirrors internal/chat.Message for client-side decoding
// without importing the broadcaster-side package.
type ChatMessage struct {
	ListenerID uint64    `json:"listenerId"`
	Nickname   string    `json:"nickname"`
	Text       string    `json:"text"`
	SentAt     time.Time `json:"sentAt"`
}

// ChatStream opens the chat_stream RPC and forwards every message to fn
// until ctx is canceled or the stream ends.
func (c *Client) ChatStream(ctx context.Context, fn func(ChatMessage)) error {
	stream, err := c.conn.OpenStreamSync(ctx)
	if err != nil {
		return fmt.Errorf("client: open stream: %w", err)
	}
	defer stream.Close()

	if err := rpc.WriteFrame(stream, rpc.MethodChatStream, struct{}{}); err != nil {
		return err
	}
	for {
		frame, err := rpc.ReadFrame(stream)
		if err != nil {
			return nil
		}
		var msg ChatMessage
		if decErr := rpc.Decode(frame, &msg); decErr != nil {
			continue
		}
		fn(msg)
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// Listen opens the listen RPC and returns a StreamBridge over the raw
// OGG/Vorbis bytes that follow; there is no further framing on this stream
// beyond the audio itself.
func (c *Client) Listen(ctx context.Context) (*StreamBridge, error) {
	stream, err := c.conn.OpenStreamSync(ctx)
	if err != nil {
		return nil, fmt.Errorf("client: open stream: %w", err)
	}
	if err := rpc.WriteFrame(stream, rpc.MethodListen, struct{}{}); err != nil {
		stream.Close()
		return nil, err
	}
	return NewStreamBridge(ctx, stream), nil
}
