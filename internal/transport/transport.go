// Package transport wires zelfm's QUIC endpoint: node identity via a
// self-signed certificate fingerprint (no CA, since this is P2P) and
// connection pinning by that fingerprint instead of by trust chain.
package transport

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/quic-go/quic-go"
)

// ALPN is the application-layer protocol negotiated on every zelfm QUIC
// connection.
const ALPN = "zelfm/1"

// Identity is a node's ephemeral ECDSA P-256 key/cert pair plus the
// derived node-id used to address it.
type Identity struct {
	NodeID string // lowercase hex SHA-256 of the certificate's DER bytes
	cert   tls.Certificate
}

// NewIdentity generates a fresh ephemeral key and self-signed certificate.
// There is no CA: the certificate exists only to carry a key whose
// fingerprint becomes the node-id, and to terminate TLS 1.3 for QUIC.
func NewIdentity() (*Identity, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("transport: generate key: %w", err)
	}

	serial, err := rand.Int(rand.Reader, big.NewInt(1<<62))
	if err != nil {
		return nil, fmt.Errorf("transport: generate serial: %w", err)
	}

	template := &x509.Certificate{
		SerialNumber: serial,
		Subject:      pkix.Name{CommonName: "zelfm-node"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * 365 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		return nil, fmt.Errorf("transport: create certificate: %w", err)
	}

	cert := tls.Certificate{
		Certificate: [][]byte{der},
		PrivateKey:  key,
	}

	sum := sha256.Sum256(der)
	return &Identity{NodeID: hex.EncodeToString(sum[:]), cert: cert}, nil
}

// ServerTLSConfig returns a tls.Config suitable for quic.Listen: it presents
// id's self-signed certificate and negotiates ALPN.
func (id *Identity) ServerTLSConfig() *tls.Config {
	return &tls.Config{
		Certificates: []tls.Certificate{id.cert},
		NextProtos:   []string{ALPN},
	}
}

// Listen opens a QUIC listener on addr using id's identity.
func Listen(addr string, id *Identity) (*quic.Listener, error) {
	return quic.ListenAddr(addr, id.ServerTLSConfig(), &quic.Config{
		MaxIdleTimeout: 2 * time.Minute,
	})
}

// Address is a parsed `<node-id-hex>@host:port` dial string, the
// operator-facing address format for dialing a broadcaster.
type Address struct {
	NodeID   string
	HostPort string
}

// ParseAddress parses the address string broadcast prints at startup and a
// listener is given on the command line.
func ParseAddress(s string) (Address, error) {
	parts := strings.SplitN(s, "@", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Address{}, fmt.Errorf("transport: malformed address %q, want <node-id>@host:port", s)
	}
	return Address{NodeID: strings.ToLower(parts[0]), HostPort: parts[1]}, nil
}

func (a Address) String() string {
	return a.NodeID + "@" + a.HostPort
}

// Dial connects to addr, pinning the peer's certificate fingerprint to
// addr.NodeID via VerifyPeerCertificate rather than trusting a CA chain.
func Dial(ctx context.Context, addr Address) (*quic.Conn, error) {
	tlsConf := &tls.Config{
		InsecureSkipVerify: true, // fingerprint pinning replaces chain validation
		NextProtos:         []string{ALPN},
		VerifyPeerCertificate: func(rawCerts [][]byte, _ [][]*x509.Certificate) error {
			if len(rawCerts) == 0 {
				return fmt.Errorf("transport: peer presented no certificate")
			}
			sum := sha256.Sum256(rawCerts[0])
			got := hex.EncodeToString(sum[:])
			if got != addr.NodeID {
				return fmt.Errorf("transport: peer fingerprint %s does not match expected node-id %s", got, addr.NodeID)
			}
			return nil
		},
	}
	return quic.DialAddr(ctx, addr.HostPort, tlsConf, &quic.Config{
		MaxIdleTimeout: 2 * time.Minute,
	})
}
