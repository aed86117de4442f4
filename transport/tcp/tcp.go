// Package tcp dials Transmission Control Protocol (TCP) connections through the host's socket API.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc9293
package tcp

import (
	"context"
	"net"
	"strconv"
	"syscall"

	"httprequests/transport"

	"github.com/pkg/errors"
)

type Addr struct {
	host string
	port uint16
}

var _ transport.Addr = Addr{}

func NewAddr(host string, port uint16) Addr {
	return Addr{host: host, port: port}
}

func (a Addr) Host() string { return a.host }
func (a Addr) Port() uint16 { return a.port }

func (a Addr) String() string {
	return net.JoinHostPort(a.host, strconv.FormatUint(uint64(a.port), 10))
}

// Dialer opens a fresh blocking socket for every Dial.
type Dialer struct {
	d net.Dialer
}

var _ transport.ConnDialer = (*Dialer)(nil)

func NewDialer() *Dialer {
	return &Dialer{}
}

func (d *Dialer) Dial(ctx context.Context, addr transport.Addr) (transport.Conn, error) {
	tcpAddr, ok := addr.(Addr)
	if !ok {
		return nil, errors.Errorf("unsupported address type: %T", addr)
	}

	conn, err := d.d.DialContext(ctx, "tcp", tcpAddr.String())
	if err != nil {
		if errors.Is(err, syscall.ECONNREFUSED) {
			return nil, errors.Wrap(transport.ErrConnRefused, tcpAddr.String())
		}
		return nil, errors.Wrapf(err, "dialing %s", tcpAddr)
	}

	return conn, nil
}
