// Package broadcaster implements C5, the Station Service: it owns the PCM
// and chat buses, the listener registry, and the QUIC accept loop that
// drives each connection through info/send_chat/chat_stream/listen.
package broadcaster

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/quic-go/quic-go"

	"github.com/arung-agamani/zelfm/internal/bus"
	"github.com/arung-agamani/zelfm/internal/chat"
	"github.com/arung-agamani/zelfm/internal/encoder"
	"github.com/arung-agamani/zelfm/internal/metrics"
	"github.com/arung-agamani/zelfm/internal/netwriter"
	"github.com/arung-agamani/zelfm/internal/pcm"
	"github.com/arung-agamani/zelfm/internal/rpc"
	"github.com/arung-agamani/zelfm/internal/source"
	"github.com/arung-agamani/zelfm/internal/station"
	"github.com/arung-agamani/zelfm/internal/transport"
)

// Config configures one Station instance.
type Config struct {
	Station station.Info

	SourceFile  string
	InputDevice string // used only when built with the liveinput tag

	QUICAddr    string
	BusCapacity int
	StallAfter  time.Duration
}

// Station is C5: the running broadcaster.
type Station struct {
	cfg Config

	pcmBus  *bus.Bus[pcm.Block]
	chatBus *bus.Bus[chat.Message]
	reg     *registry
	counter *station.Counter

	identity *transport.Identity
	listener *quic.Listener
}

// New constructs a Station and generates its node identity, but does not
// yet start decoding or accepting connections.
func New(cfg Config) (*Station, error) {
	id, err := transport.NewIdentity()
	if err != nil {
		return nil, fmt.Errorf("broadcaster: node identity: %w", err)
	}
	if cfg.BusCapacity <= 0 {
		cfg.BusCapacity = 100
	}
	return &Station{
		cfg:      cfg,
		pcmBus:   bus.New[pcm.Block](cfg.BusCapacity),
		chatBus:  bus.New[chat.Message](cfg.BusCapacity),
		reg:      newRegistry(),
		counter:  &station.Counter{},
		identity: id,
	}, nil
}

// NodeID returns the station's node-id (hex certificate fingerprint), the
// part before the '@' in the address operators share with listeners.
func (s *Station) NodeID() string { return s.identity.NodeID }

// Run starts C1's decode loop and the QUIC accept loop, blocking until ctx
// is canceled.
func (s *Station) Run(ctx context.Context) error {
	listener, err := transport.Listen(s.cfg.QUICAddr, s.identity)
	if err != nil {
		return fmt.Errorf("broadcaster: listen: %w", err)
	}
	s.listener = listener
	defer listener.Close()

	slog.Info("broadcaster started",
		"node_id", s.identity.NodeID,
		"addr", fmt.Sprintf("%s@%s", s.identity.NodeID, s.cfg.QUICAddr),
	)

	if s.cfg.SourceFile != "" {
		go source.Run(ctx, s.cfg.SourceFile, s.cfg.Station.SampleRate, s.cfg.Station.Channels, s.pcmBus)
	} else {
		go func() {
			if err := source.RunLive(ctx, s.cfg.InputDevice, s.cfg.Station.SampleRate, s.cfg.Station.Channels, s.pcmBus); err != nil && ctx.Err() == nil {
				slog.Error("live source failed", "error", err)
			}
		}()
	}

	for {
		conn, err := listener.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			slog.Warn("broadcaster: accept failed", "error", err)
			continue
		}
		go s.handleConn(ctx, conn)
	}
}

// Status is the snapshot C8's /api/status exposes.
type Status struct {
	Station   station.Info
	Listeners []ListenerInfo
}

// Snapshot returns the current station/listener state for the admin surface.
func (s *Station) Snapshot() Status {
	return Status{Station: s.cfg.Station, Listeners: s.reg.snapshot()}
}

// ChatBus exposes the chat bus for C8's SSE tail.
func (s *Station) ChatBus() *bus.Bus[chat.Message] { return s.chatBus }

// ListenerCount returns the live listener count for metrics/status.
func (s *Station) ListenerCount() int { return int(s.counter.Load()) }

func (s *Station) handleConn(ctx context.Context, conn *quic.Conn) {
	remote := conn.RemoteAddr().String()
	for {
		stream, err := conn.AcceptStream(ctx)
		if err != nil {
			return
		}
		go s.handleStream(ctx, conn, stream, remote)
	}
}

func (s *Station) handleStream(ctx context.Context, conn *quic.Conn, stream *quic.Stream, remoteAddr string) {
	defer stream.Close()

	req, err := rpc.ReadFrame(stream)
	if err != nil {
		return
	}

	switch req.Method {
	case rpc.MethodInfo:
		s.handleInfo(stream)
	case rpc.MethodSendChat:
		s.handleSendChat(stream, conn, req)
	case rpc.MethodChatStream:
		s.handleChatStream(ctx, stream)
	case rpc.MethodListen:
		s.handleListen(ctx, stream, conn, remoteAddr)
	default:
		_ = rpc.WriteError(stream, "UnknownMethod")
	}
}

type infoResponse struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Bitrate     int    `json:"bitrate"`
	SampleRate  int    `json:"sampleRate"`
	Channels    int    `json:"channels"`
	Listeners   int    `json:"listeners"`
}

func (s *Station) handleInfo(stream *quic.Stream) {
	i := s.cfg.Station
	_ = rpc.WriteFrame(stream, rpc.MethodInfo, infoResponse{
		Name:        i.Name,
		Description: i.Description,
		Bitrate:     i.Bitrate,
		SampleRate:  i.SampleRate,
		Channels:    i.Channels,
		Listeners:   int(s.counter.Load()),
	})
}

type sendChatRequest struct {
	Text string `json:"text"`
}

func (s *Station) handleSendChat(stream *quic.Stream, conn *quic.Conn, req rpc.Frame) {
	var body sendChatRequest
	if err := rpc.Decode(req, &body); err != nil {
		_ = rpc.WriteError(stream, "BadRequest")
		return
	}

	info := s.reg.lookup(conn)
	if info == nil {
		_ = rpc.WriteError(stream, "ListenerInfoMissing")
		return
	}

	s.chatBus.Publish(chat.Message{
		ListenerID: info.ID,
		Nickname:   info.Nickname,
		Text:       body.Text,
		SentAt:     time.Now(),
	})
	_ = rpc.WriteFrame(stream, rpc.MethodSendChat, struct{}{})
}

func (s *Station) handleChatStream(ctx context.Context, stream *quic.Stream) {
	sub := s.chatBus.Subscribe()
	defer s.chatBus.Unsubscribe(sub)

	for {
		msg, lagged, ok := s.chatBus.Recv(ctx, sub)
		if !ok {
			return
		}
		if lagged > 0 {
			metrics.SubscriberLagTotal.Add(float64(lagged))
			continue
		}
		if err := rpc.WriteFrame(stream, rpc.MethodChatStream, msg); err != nil {
			return
		}
	}
}

func (s *Station) handleListen(ctx context.Context, stream *quic.Stream, conn *quic.Conn, remoteAddr string) {
	info := s.reg.accept(conn, "", remoteAddr)
	defer s.reg.remove(conn)

	slog.Info("listener connected", "listener_id", info.ID, "remote", remoteAddr)
	defer slog.Info("listener disconnected", "listener_id", info.ID, "remote", remoteAddr)

	// The encoder gets its own context, scoped to this session rather than
	// the server's: when netwriter returns (stall, disconnect, or server
	// shutdown) we cancel it and close its output pipe explicitly, so the
	// feed/drain goroutines and the ffmpeg process behind them are torn
	// down on every exit path instead of outliving the session.
	sessionCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sub := s.pcmBus.Subscribe()
	defer s.pcmBus.Unsubscribe(sub)

	// C1 already decodes to the station's target rate/channels (source.Run
	// configures ffmpeg's -ar/-ac on the decode side too), so in and out are
	// always equal here; pcm.Reshape is a no-op on this path and the
	// clamp/pad step it does for a real channel-count mismatch is exercised by the
	// live-capture path and internal/pcm's own tests instead.
	w := encoder.NewWorker(
		s.cfg.Station.SampleRate, s.cfg.Station.Channels,
		s.cfg.Station.SampleRate, s.cfg.Station.Channels,
	)

	encOut, encIn := io.Pipe()
	workerDone := make(chan struct{})
	go func() {
		_ = w.Run(sessionCtx, s.pcmBus, sub, encIn)
		encIn.Close()
		close(workerDone)
	}()

	_ = netwriter.Run(sessionCtx, stream, encOut, s.cfg.StallAfter, s.counter)

	// netwriter stopped reading; cancel the encoder and close its output
	// pipe too, so a drain loop blocked on a write with no reader left
	// unblocks instead of leaking.
	cancel()
	encOut.Close()
	<-workerDone
}
