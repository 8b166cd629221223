package netwriter

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/arung-agamani/zelfm/internal/station"
)

type fakeConn struct {
	bytes.Buffer
	deadlineCalls int
	failWrite     bool
}

func (f *fakeConn) SetWriteDeadline(t time.Time) error {
	f.deadlineCalls++
	return nil
}

func (f *fakeConn) Write(p []byte) (int, error) {
	if f.failWrite {
		return 0, errors.New("connection reset")
	}
	return f.Buffer.Write(p)
}

func TestRunCopiesUntilEOF(t *testing.T) {
	src := bytes.NewBufferString("hello ogg stream")
	dst := &fakeConn{}
	counter := &station.Counter{}

	err := Run(context.Background(), dst, src, time.Second, counter)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if dst.String() != "hello ogg stream" {
		t.Fatalf("got %q", dst.String())
	}
	if dst.deadlineCalls == 0 {
		t.Fatalf("expected at least one write-deadline push")
	}
	if counter.Load() != 0 {
		t.Fatalf("expected counter to be decremented after Run returns, got %d", counter.Load())
	}
}

func TestRunReturnsErrorOnFailedWrite(t *testing.T) {
	src := bytes.NewBufferString("data")
	dst := &fakeConn{failWrite: true}
	counter := &station.Counter{}

	err := Run(context.Background(), dst, src, time.Second, counter)
	if err == nil {
		t.Fatalf("expected an error from a failing write")
	}
	if counter.Load() != 0 {
		t.Fatalf("expected counter decremented even on error, got %d", counter.Load())
	}
}

func TestRunIncrementsCounterWhileActive(t *testing.T) {
	pr, pw := io.Pipe()
	dst := &fakeConn{}
	counter := &station.Counter{}

	done := make(chan error, 1)
	go func() {
		done <- Run(context.Background(), dst, pr, time.Second, counter)
	}()

	pw.Write([]byte("x"))
	time.Sleep(10 * time.Millisecond)
	if counter.Load() != 1 {
		t.Fatalf("expected counter at 1 while streaming, got %d", counter.Load())
	}
	pw.Close()
	<-done
}
