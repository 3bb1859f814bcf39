// Package tls wraps transport connections in Transport Layer Security (TLS) client sessions.
//
// Certificates are verified against the platform trust store, and the server name
// is the dialed host. There is no way to skip or customize verification.
//
// Reference:
// - https://datatracker.ietf.org/doc/html/rfc8446
// - https://datatracker.ietf.org/doc/html/rfc6066#section-3
package tls

import (
	"context"
	cryptotls "crypto/tls"
	"crypto/x509"

	"web-browser/transport"

	"github.com/pkg/errors"
)

type Dialer struct {
	underlying transport.ConnDialer

	// nil means the platform trust store.
	rootCAs *x509.CertPool
}

var _ transport.ConnDialer = (*Dialer)(nil)

// NewDialer returns a dialer running a client handshake over connections of underlying.
func NewDialer(underlying transport.ConnDialer) *Dialer {
	return &Dialer{underlying: underlying}
}

// Dial connects and completes the handshake. On handshake failure the underlying
// connection is closed; there is no fallback to plaintext.
func (d *Dialer) Dial(ctx context.Context, addr transport.Addr) (transport.Conn, error) {
	conn, err := d.underlying.Dial(ctx, addr)
	if err != nil {
		return nil, err
	}

	tlsConn := cryptotls.Client(conn, d.config(addr.Host))
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, errors.Wrapf(err, "handshake with %s failed", addr)
	}

	return tlsConn, nil
}

func (d *Dialer) config(serverName string) *cryptotls.Config {
	return &cryptotls.Config{
		ServerName: serverName,
		RootCAs:    d.rootCAs,
		MinVersion: cryptotls.VersionTLS12,
	}
}
