package cli

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/arung-agamani/zelfm/internal/client"
	"github.com/arung-agamani/zelfm/internal/transport"
)

// NewListenCommand builds the `zelfm listen` subcommand: connects to a
// broadcaster, plays (or counts) its audio, and runs a chat REPL
// concurrently.
func NewListenCommand() *cobra.Command {
	var (
		nodeAddr   string
		duration   time.Duration
		noPlayback bool
	)

	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Connect to a zelfm broadcaster and play its stream",
		RunE: func(cmd *cobra.Command, args []string) error {
			if nodeAddr == "" {
				return fmt.Errorf("listen: --node-id is required")
			}
			addr, err := transport.ParseAddress(nodeAddr)
			if err != nil {
				return err
			}
			return runListen(cmd.Context(), addr, duration, noPlayback)
		},
	}

	cmd.Flags().StringVar(&nodeAddr, "node-id", "", "broadcaster address as <node-id-hex>@host:port")
	cmd.Flags().DurationVar(&duration, "duration", 0, "stop listening after this long (0 = no cap)")
	cmd.Flags().BoolVar(&noPlayback, "no-playback", false, "count decoded frames instead of playing audio")
	return cmd
}

func runListen(ctx context.Context, addr transport.Address, duration time.Duration, noPlayback bool) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c, err := client.Dial(ctx, addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	defer c.Close()

	info, err := c.Info(ctx)
	if err != nil {
		return fmt.Errorf("listen: info: %w", err)
	}
	fmt.Printf("connected to %q (%s) — %d listener(s)\n", info.Name, info.Description, info.Listeners)

	go runChatREPL(ctx, c)

	bridge, err := c.Listen(ctx)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	sink, err := client.NewOutputSink(info.SampleRate, info.Channels, noPlayback)
	if err != nil {
		return fmt.Errorf("listen: open output sink: %w", err)
	}
	defer sink.Close()

	if err := client.Decode(ctx, bridge, sink, duration); err != nil {
		return fmt.Errorf("listen: decode: %w", err)
	}
	if cs, ok := sink.(*client.CountingSink); ok {
		fmt.Printf("stream ended after %d frames\n", cs.Frames())
	} else {
		fmt.Println("stream ended")
	}
	return nil
}

// runChatREPL prints incoming chat_stream messages and classifies stdin
// lines as info/chat <text>/quit/empty, dispatching accordingly.
func runChatREPL(ctx context.Context, c *client.Client) {
	go func() {
		if err := c.ChatStream(ctx, func(msg client.ChatMessage) {
			fmt.Printf("[%s] %s\n", msg.Nickname, msg.Text)
		}); err != nil && ctx.Err() == nil {
			slog.Warn("chat stream ended", "error", err)
		}
	}()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "quit":
			return
		case line == "info":
			info, err := c.Info(ctx)
			if err != nil {
				fmt.Println("info error:", err)
				continue
			}
			fmt.Printf("%s — %d listener(s)\n", info.Name, info.Listeners)
		case strings.HasPrefix(line, "chat "):
			text := strings.TrimPrefix(line, "chat ")
			if err := c.SendChat(ctx, text); err != nil {
				fmt.Println("chat error:", err)
			}
		default:
			fmt.Println("commands: info | chat <text> | quit")
		}
	}
}
