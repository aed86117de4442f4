// Package test holds reusable suites every [transport.Conn] implementation should pass.
package test

import (
	"sync"
	"time"

	"httprequests/transport"

	"github.com/stretchr/testify/suite"
	"go.uber.org/goleak"
)

type ConnTestSuite struct {
	suite.Suite
	C1, C2 transport.Conn

	done  chan struct{}
	timer *time.Timer
}

func (s *ConnTestSuite) SetupTest() {
	s.done = make(chan struct{})

	s.timer = time.AfterFunc(time.Second, func() {
		select {
		case <-s.done:
		default:
			s.FailNow("timeout exceeded")
		}
	})
}

func (s *ConnTestSuite) TearDownTest() {
	defer goleak.VerifyNone(s.T())
	s.NoError(s.C1.Close())
	s.NoError(s.C2.Close())
	close(s.done)
	s.timer.Stop()
}

func (s *ConnTestSuite) TestReadWrite() {
	data := []byte("Hello, World!")

	var wg sync.WaitGroup
	defer wg.Wait()
	wg.Add(2)

	go func() {
		defer wg.Done()
		n, err := s.C1.Write(data)
		s.NoError(err)
		s.Equal(len(data), n)
	}()
	go func() {
		defer wg.Done()
		buf := make([]byte, 10)

		n, err := s.C2.Read(buf)
		s.NoError(err)
		s.Equal(len(buf), n)
		s.Equal(data[:n], buf)

		n, err = s.C2.Read(buf)
		s.NoError(err)
		s.Equal(len(data)-len(buf), n)
		s.Equal(data[len(buf):], buf[:n])
	}()
}

func (s *ConnTestSuite) TestCloseUnblocksRead() {
	done := make(chan struct{})
	go func() {
		defer close(done)
		n, err := s.C2.Read(make([]byte, 1))
		s.ErrorIs(err, transport.ErrConnClosed)
		s.Zero(n)
	}()

	s.Require().NoError(s.C1.Close())
	<-done
}

func (s *ConnTestSuite) TestWriteAfterClose() {
	s.Require().NoError(s.C2.Close())

	n, err := s.C1.Write([]byte("hey"))
	s.ErrorIs(err, transport.ErrConnClosed)
	s.Zero(n)
}
