package broadcaster

import (
	"sync"
	"time"

	"github.com/quic-go/quic-go"
)

// ListenerInfo is the per-connection record: created at accept, destroyed
// at disconnect, addressable through the registry below rather than
// threaded through every RPC method signature.
type ListenerInfo struct {
	ID          uint64
	Nickname    string
	ConnectedAt time.Time // surfaced on the admin status endpoint
	RemoteAddr  string    // logging only
}

// registry is the broadcaster's connection extension map: one ListenerInfo
// per live connection, keyed by the QUIC connection itself so send_chat
// (which carries no listener_id of its own) can look the caller up from the
// connection its request arrived on.
type registry struct {
	mu      sync.RWMutex
	nextID  uint64
	entries map[*quic.Conn]*ListenerInfo
}

func newRegistry() *registry {
	return &registry{entries: make(map[*quic.Conn]*ListenerInfo)}
}

// accept assigns a fresh monotonically non-decreasing listener_id and
// records the ListenerInfo for conn.
func (r *registry) accept(conn *quic.Conn, nickname, remoteAddr string) *ListenerInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	info := &ListenerInfo{
		ID:          r.nextID,
		Nickname:    nickname,
		ConnectedAt: time.Now(),
		RemoteAddr:  remoteAddr,
	}
	r.entries[conn] = info
	return info
}

// remove destroys the ListenerInfo for conn, called when the connection's
// listen session ends.
func (r *registry) remove(conn *quic.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, conn)
}

// lookup returns the ListenerInfo for conn, or nil if absent — the caller
// uses this to produce ListenerInfoMissing for chat from an unregistered
// connection.
func (r *registry) lookup(conn *quic.Conn) *ListenerInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entries[conn]
}

// snapshot returns a stable copy of every currently connected listener, for
// the admin status surface (C8).
func (r *registry) snapshot() []ListenerInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ListenerInfo, 0, len(r.entries))
	for _, info := range r.entries {
		out = append(out, *info)
	}
	return out
}
