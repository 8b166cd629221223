package broadcaster

import (
	"testing"

	"github.com/quic-go/quic-go"
)

func TestRegistryAcceptAssignsMonotonicIDs(t *testing.T) {
	r := newRegistry()
	var conn *quic.Conn // nil stands in for a connection; only ID allocation is under test here

	i1 := r.accept(conn, "alice", "10.0.0.1:1")
	i2 := r.accept(conn, "bob", "10.0.0.2:2")

	if i2.ID <= i1.ID {
		t.Fatalf("expected listener_id to be monotonically increasing, got %d then %d", i1.ID, i2.ID)
	}
}

func TestRegistryLookupAfterRemoveReturnsNil(t *testing.T) {
	r := newRegistry()
	var conn *quic.Conn

	r.accept(conn, "alice", "10.0.0.1:1")
	if r.lookup(conn) == nil {
		t.Fatalf("expected lookup to find the just-accepted connection")
	}

	r.remove(conn)
	if r.lookup(conn) != nil {
		t.Fatalf("expected lookup to return nil after remove")
	}
}

func TestRegistrySnapshotReflectsActiveConnections(t *testing.T) {
	r := newRegistry()
	var conn *quic.Conn
	r.accept(conn, "alice", "10.0.0.1:1")

	if len(r.snapshot()) != 1 {
		t.Fatalf("expected 1 active listener")
	}
}
