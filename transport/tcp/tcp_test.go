package tcp_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	nethttp "net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"httprequests/application/http"
	"httprequests/application/http/actor/client"
	iolib "httprequests/lib/io"
	"httprequests/transport"
	"httprequests/transport/tcp"

	"github.com/benbjohnson/clock"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/suite"
)

type TCPTestSuite struct {
	suite.Suite

	server *httptest.Server
	addr   tcp.Addr
}

func TestTCPTestSuite(t *testing.T) {
	suite.Run(t, new(TCPTestSuite))
}

func (s *TCPTestSuite) SetupSuite() {
	router := mux.NewRouter()

	router.HandleFunc("/hello", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("X-Seen-Host", r.Host)
		fmt.Fprint(w, "hello")
	}).Methods(nethttp.MethodGet, nethttp.MethodHead)

	router.HandleFunc("/chunked", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		fmt.Fprint(w, "Wiki")
		w.(nethttp.Flusher).Flush()
		fmt.Fprint(w, "pedia")
	}).Methods(nethttp.MethodGet)

	router.HandleFunc("/redirect", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		nethttp.Redirect(w, r, "/hello", nethttp.StatusFound)
	}).Methods(nethttp.MethodGet)

	router.HandleFunc("/loop", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		nethttp.Redirect(w, r, "/loop", nethttp.StatusMovedPermanently)
	}).Methods(nethttp.MethodGet)

	router.HandleFunc("/form", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if err := r.ParseForm(); err != nil {
			nethttp.Error(w, err.Error(), nethttp.StatusBadRequest)
			return
		}
		fmt.Fprintf(w, "%s|%s", r.PostForm.Get("q"), r.PostForm.Get("tag"))
	}).Methods(nethttp.MethodPost)

	s.server = httptest.NewServer(router)

	host, portStr, err := net.SplitHostPort(s.server.Listener.Addr().String())
	s.Require().NoError(err)
	port, err := strconv.ParseUint(portStr, 10, 16)
	s.Require().NoError(err)

	s.addr = tcp.NewAddr(host, uint16(port))
}

func (s *TCPTestSuite) TearDownSuite() {
	s.server.Close()
}

func (s *TCPTestSuite) newClient() *client.Client {
	c, err := client.New(s.server.URL, tcp.NewDialer(), slog.New(slog.NewTextHandler(io.Discard, nil)), clock.New(), client.DefaultOptions)
	s.Require().NoError(err)
	return c
}

func (s *TCPTestSuite) TestDial() {
	conn, err := tcp.NewDialer().Dial(context.Background(), s.addr)
	s.Require().NoError(err)
	defer conn.Close()

	req := http.NewRequest(http.MethodGet, "/hello", s.addr.String(), nil, nil, nil)
	raw, err := http.NewRequestEncoder(http.DefaultEncodeOptions).Build(req)
	s.Require().NoError(err)

	_, err = iolib.WriteFull(conn, raw)
	s.Require().NoError(err)

	var res http.Response
	s.Require().NoError(http.NewResponseDecoder(conn, http.DefaultDecodeOptions).Decode(&res, http.MethodGet))
	s.Equal(uint(200), res.StatusCode)
	s.Equal("hello", string(res.Body))
}

func (s *TCPTestSuite) TestAddr() {
	s.Equal("127.0.0.1:8080", tcp.NewAddr("127.0.0.1", 8080).String())
	s.Equal("[::1]:80", tcp.NewAddr("::1", 80).String())
}

func (s *TCPTestSuite) TestDialUnsupportedAddr() {
	_, err := tcp.NewDialer().Dial(context.Background(), fakeAddr{})
	s.Error(err)
}

type fakeAddr struct{}

func (fakeAddr) String() string { return "fake" }

func (s *TCPTestSuite) TestDialRefused() {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	s.Require().NoError(err)
	tcpAddr := lis.Addr().(*net.TCPAddr)
	s.Require().NoError(lis.Close())

	_, err = tcp.NewDialer().Dial(context.Background(), tcp.NewAddr("127.0.0.1", uint16(tcpAddr.Port)))
	s.ErrorIs(err, transport.ErrConnRefused)
}

func (s *TCPTestSuite) TestClientGet() {
	c := s.newClient()

	res, err := c.Get(context.Background(), "/hello", nil, nil)
	s.Require().NoError(err)

	s.Equal(uint(200), res.StatusCode)
	s.Equal("hello", string(res.Body))
	s.Equal(http.FramingContentLength, res.Framing)

	seen, _ := res.Headers.Get("x-seen-host")
	s.Equal(s.addr.String(), seen)
}

func (s *TCPTestSuite) TestClientChunked() {
	c := s.newClient()

	res, err := c.Get(context.Background(), "/chunked", nil, nil)
	s.Require().NoError(err)

	s.Equal("Wikipedia", string(res.Body))
	s.Equal(http.FramingChunked, res.Framing)
}

func (s *TCPTestSuite) TestClientHead() {
	c := s.newClient()

	res, err := c.Head(context.Background(), "/hello", nil)
	s.Require().NoError(err)

	s.Equal(uint(200), res.StatusCode)
	s.Empty(res.Body)
}

func (s *TCPTestSuite) TestClientPost() {
	c := s.newClient()

	res, err := c.Post(context.Background(), "/form", nil, map[string]string{"q": "a b", "tag": "go_1.24%"}, nil)
	s.Require().NoError(err)

	s.Equal(uint(200), res.StatusCode)
	s.Equal("a b|go_1.24%", string(res.Body))
}

func (s *TCPTestSuite) TestClientRedirect() {
	c := s.newClient()

	res, err := c.Get(context.Background(), "/redirect", nil, nil)
	s.Require().NoError(err)

	s.Equal("hello", string(res.Body))
	s.Equal(uint(1), c.RedirectCount())
	s.Len(c.Requests(), 2)
}

func (s *TCPTestSuite) TestClientRedirectLoop() {
	c := s.newClient()

	_, err := c.Get(context.Background(), "/loop", nil, nil)
	s.ErrorIs(err, client.ErrRedirectLimitExceeded)
	s.Len(c.Requests(), 4)
}

func (s *TCPTestSuite) TestClientNotFound() {
	c := s.newClient()

	res, err := c.Get(context.Background(), "/missing", nil, nil)
	s.Require().NoError(err)
	s.Equal(uint(404), res.StatusCode)
}
