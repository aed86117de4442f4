// Package transport abstracts the byte streams HTTP messages are exchanged over.
package transport

import (
	"context"
	"errors"
)

var (
	ErrConnClosed         = errors.New("connection is closed")
	ErrConnRefused        = errors.New("connection refused")
	ErrConnListenerClosed = errors.New("conn listener is closed")
	ErrAddrAlreadyInUse   = errors.New("address already in use")
	ErrNetUnreachable     = errors.New("network unreachable")
)

// Addr identifies the remote end a [ConnDialer] connects to.
type Addr interface {
	String() string
}

// Conn is a blocking, bidirectional byte stream.
type Conn interface {
	Read(p []byte) (n int, err error)
	Write(p []byte) (n int, err error)
	Close() error
}

type ConnListener interface {
	Accept(ctx context.Context) (Conn, error)
	Close() error
}

type ConnDialer interface {
	Dial(ctx context.Context, addr Addr) (Conn, error)
}
