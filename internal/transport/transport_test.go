package transport

import "testing"

func TestNewIdentityProducesHexNodeID(t *testing.T) {
	id, err := NewIdentity()
	if err != nil {
		t.Fatalf("NewIdentity: %v", err)
	}
	if len(id.NodeID) != 64 {
		t.Fatalf("got node-id length %d, want 64 (sha256 hex)", len(id.NodeID))
	}
	for _, r := range id.NodeID {
		if !((r >= '0' && r <= '9') || (r >= 'a' && r <= 'f')) {
			t.Fatalf("node-id %q is not lowercase hex", id.NodeID)
		}
	}
}

func TestTwoIdentitiesHaveDifferentNodeIDs(t *testing.T) {
	a, _ := NewIdentity()
	b, _ := NewIdentity()
	if a.NodeID == b.NodeID {
		t.Fatalf("expected distinct node-ids across identities")
	}
}

func TestParseAddressRoundTrip(t *testing.T) {
	raw := "abcdef0123456789@192.0.2.1:4433"
	addr, err := ParseAddress(raw)
	if err != nil {
		t.Fatalf("ParseAddress: %v", err)
	}
	if addr.NodeID != "abcdef0123456789" || addr.HostPort != "192.0.2.1:4433" {
		t.Fatalf("got %+v", addr)
	}
	if addr.String() != raw {
		t.Fatalf("got %q, want %q", addr.String(), raw)
	}
}

func TestParseAddressRejectsMissingAt(t *testing.T) {
	if _, err := ParseAddress("192.0.2.1:4433"); err == nil {
		t.Fatalf("expected an error for an address with no node-id")
	}
}
