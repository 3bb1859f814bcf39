// Package tcp dials Transmission Control Protocol (TCP) connections.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc9293
package tcp

import (
	"context"
	"net"

	"web-browser/transport"

	"github.com/pkg/errors"
)

type Dialer struct {
	d net.Dialer
}

var _ transport.ConnDialer = (*Dialer)(nil)

func NewDialer() *Dialer { return &Dialer{} }

// Dial resolves the host and opens one connection.
// It blocks until connected or ctx is done.
func (d *Dialer) Dial(ctx context.Context, addr transport.Addr) (transport.Conn, error) {
	conn, err := d.d.DialContext(ctx, string(transport.TCP), addr.String())
	if err != nil {
		return nil, errors.Wrapf(err, "dialing %s", addr)
	}

	return conn, nil
}
