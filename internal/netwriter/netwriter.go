// Package netwriter runs C4: it pulls encoded bytes from C3's output and
// writes them to a listener's network stream, enforcing a stall deadline
// and running the teardown sequence on disconnect.
package netwriter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/arung-agamani/zelfm/internal/metrics"
	"github.com/arung-agamani/zelfm/internal/station"
)

// DefaultStallAfter is how long a listener may go without write progress
// before being dropped as stalled, used when Run is given no positive value.
const DefaultStallAfter = 30 * time.Second

// Deadline is the subset of net.Conn/quic.Stream this package depends on:
// a writer whose deadline can be pushed forward on every successful write.
type Deadline interface {
	io.Writer
	SetWriteDeadline(t time.Time) error
}

// Run copies from src to dst, setting dst's write deadline to now+stallAfter
// before every write. It increments counter on entry and decrements it on
// every return path. If a write fails — including from a deadline expiring
// mid-write — Run returns that error so the caller can run the rest of its
// teardown sequence (stop feeding the encoder).
func Run(ctx context.Context, dst Deadline, src io.Reader, stallAfter time.Duration, counter *station.Counter) error {
	if stallAfter <= 0 {
		stallAfter = DefaultStallAfter
	}
	counter.Inc()
	metrics.Listeners.Inc()
	defer func() {
		counter.Dec()
		metrics.Listeners.Dec()
	}()

	buf := make([]byte, 32*1024)
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		n, readErr := src.Read(buf)
		if n > 0 {
			if err := dst.SetWriteDeadline(time.Now().Add(stallAfter)); err != nil {
				return fmt.Errorf("netwriter: set deadline: %w", err)
			}
			if _, err := dst.Write(buf[:n]); err != nil {
				var netErr net.Error
				if errors.As(err, &netErr) && netErr.Timeout() {
					metrics.ListenerStallsTotal.Inc()
					slog.Warn("listener stalled", "error", err)
				}
				return fmt.Errorf("netwriter: listener stalled or disconnected: %w", err)
			}
		}
		if readErr != nil {
			if readErr == io.EOF {
				return nil
			}
			return fmt.Errorf("netwriter: read encoded audio: %w", readErr)
		}
	}
}
