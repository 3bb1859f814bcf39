package transport

import (
	"context"
	"net"
	"strconv"
)

type Protocol string

const (
	TCP Protocol = "tcp"
)

// Conn is a byte stream to a peer.
// Plain sockets and TLS sessions both satisfy it.
type Conn = net.Conn

type ConnDialer interface {
	Dial(ctx context.Context, addr Addr) (Conn, error)
}

// Addr is a host (name or IP literal) and a port.
type Addr struct {
	Host string
	Port int
}

func NewAddr(host string, port int) Addr { return Addr{Host: host, Port: port} }

func (a Addr) String() string {
	return net.JoinHostPort(a.Host, strconv.Itoa(a.Port))
}
