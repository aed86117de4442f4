// Package pipe provides an in-memory transport. Both ends are synchronous and unbuffered:
// a Write returns only after the counterpart has read every byte of it.
package pipe

import (
	"sync"

	"httprequests/transport"
)

type pipe struct {
	stream chan []byte // stream that this pipe reads from.
	nc     chan int    // counterpart's respond will be sent here.

	writeMu sync.Mutex

	closed chan struct{}
	once   sync.Once // making sure not to close closed channel.

	// the opposite pipe.
	counterpart *pipe

	addr Addr
}

type Addr struct {
	Name string
}

func (a Addr) String() string { return a.Name }

var _ transport.Addr = Addr{}
var _ transport.Conn = (*pipe)(nil)

// Pipe creates a pair of connected pipes.
func Pipe(name1, name2 string) (c1, c2 *pipe) {
	c1 = newPipe(name1)
	c2 = newPipe(name2)
	c1.counterpart, c2.counterpart = c2, c1
	return
}

func newPipe(name string) *pipe {
	return &pipe{
		stream: make(chan []byte),
		nc:     make(chan int),
		closed: make(chan struct{}),
		addr:   Addr{Name: name},
	}
}

func (p *pipe) LocalAddr() transport.Addr  { return p.addr }
func (p *pipe) RemoteAddr() transport.Addr { return p.counterpart.addr }

func (p *pipe) Close() error {
	p.once.Do(func() { close(p.closed) })
	return nil
}

func (p *pipe) Read(b []byte) (n int, err error) {
	if p.isClosed() {
		return 0, transport.ErrConnClosed
	}

	select {
	case received := <-p.stream:
		n := copy(b, received)
		p.counterpart.nc <- n
		return n, nil
	case <-p.closed:
		return 0, transport.ErrConnClosed
	case <-p.counterpart.closed:
		return 0, transport.ErrConnClosed
	}
}

func (p *pipe) Write(b []byte) (n int, err error) {
	if p.isClosed() {
		return 0, transport.ErrConnClosed
	}

	if len(b) == 0 {
		return 0, nil
	}

	// Serialize write operations to prevent interleaving write.
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	// Ensure all the bytes are sent.
	nn := 0
	for len(b) > 0 {
		select {
		case p.counterpart.stream <- b:
			n := <-p.nc
			b = b[n:]
			nn += n
		case <-p.closed:
			return nn, transport.ErrConnClosed
		case <-p.counterpart.closed:
			return nn, transport.ErrConnClosed
		}
	}

	return nn, nil
}

func (p *pipe) isClosed() bool {
	return isClosed(p.closed) || isClosed(p.counterpart.closed)
}

func isClosed(c <-chan struct{}) bool {
	select {
	case <-c: // c will only fire at closed state.
		return true
	default:
		return false
	}
}
