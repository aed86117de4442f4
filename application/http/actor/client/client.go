// Package client sends requests to a single server and follows its redirects.
package client

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"httprequests/application/http"
	"httprequests/application/http/cookie"
	"httprequests/application/util/form"
	iolib "httprequests/lib/io"
	"httprequests/transport"
	"httprequests/transport/tcp"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// Attempt is a request as it was sent, along with where and when.
type Attempt struct {
	Target  Target
	Request *http.Request
	SentAt  time.Time
}

// Client is not safe for concurrent use. Every request, redirected ones included,
// goes over a new connection which is closed once the response is read.
type Client struct {
	target        Target
	history       []Attempt
	redirectCount uint

	opts Options

	logger *slog.Logger
	clock  clock.Clock

	builder    http.Builder
	connDialer transport.ConnDialer

	combineAddr CombineAddrFunc
}

type CombineAddrFunc func(target Target) transport.Addr

func New(
	host string,
	d transport.ConnDialer,
	logger *slog.Logger,
	clock clock.Clock,
	opts Options,
) (*Client, error) {
	if opts.DefaultPort == 0 {
		opts.DefaultPort = DefaultPort
	}

	target, err := ParseTarget(host, opts.DefaultPort)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing host %q", host)
	}

	client := &Client{
		target:     target,
		history:    make([]Attempt, 0),
		opts:       opts,
		logger:     logger,
		clock:      clock,
		builder:    opts.Builder,
		connDialer: d,
	}

	if client.builder == nil {
		client.builder = http.NewRequestEncoder(opts.Encode)
	}

	client.combineAddr = func(target Target) transport.Addr {
		return tcp.NewAddr(target.Host, target.Port)
	}

	return client, nil
}

func (c *Client) Target() Target      { return c.target }
func (c *Client) History() []Attempt  { return slices.Clone(c.history) }
func (c *Client) RedirectCount() uint { return c.redirectCount }

// Requests lists every request sent so far, oldest first.
func (c *Client) Requests() []*http.Request {
	requests := make([]*http.Request, 0, len(c.history))
	for _, attempt := range c.history {
		requests = append(requests, attempt.Request)
	}
	return requests
}

// Get returns the final response once redirects are followed.
//
// When the response body length can't be determined the response is returned
// with an error matching [http.ErrUnknownBodyFraming]. When the redirect limit is hit
// the unfollowed redirect response is returned with a [*RedirectLimitError].
func (c *Client) Get(ctx context.Context, path string, headers map[string]string, cookies []cookie.Cookie) (*http.Response, error) {
	return c.do(ctx, c.newRequest(http.MethodGet, path, headers, nil, cookies))
}

// Post sends data url-encoded. Content-Type is set to application/x-www-form-urlencoded
// unless headers have one. Results are as for [Client.Get].
func (c *Client) Post(
	ctx context.Context, path string,
	headers map[string]string, data map[string]string, cookies []cookie.Cookie,
) (*http.Response, error) {
	h := http.NewHeaders(headers)
	if !h.Has("Content-Type") {
		h.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	body := []byte(form.Encode(data))

	return c.do(ctx, c.newRequest(http.MethodPost, path, h.Map(), body, cookies))
}

// Head never reads a body, whatever the response advertises.
func (c *Client) Head(ctx context.Context, path string, headers map[string]string) (*http.Response, error) {
	return c.do(ctx, c.newRequest(http.MethodHead, path, headers, nil, nil))
}

func (c *Client) newRequest(
	method http.Method, path string,
	headers map[string]string, body []byte, cookies []cookie.Cookie,
) *http.Request {
	if path == "" {
		path = "/"
	}
	return http.NewRequest(method, path, c.target.HostHeader(), headers, body, cookies)
}

// do exchanges req and follows 301/302 responses with plain GETs,
// which carry none of the first request's headers, body or cookies.
func (c *Client) do(ctx context.Context, req *http.Request) (*http.Response, error) {
	for {
		res, err := c.exchange(ctx, req)
		if err != nil && !errors.Is(err, http.ErrUnknownBodyFraming) {
			return nil, err
		}

		if !isRedirect(res.StatusCode) {
			return res, err
		}

		c.redirectCount++

		location, ok := res.Headers.Get("Location")
		if c.redirectCount > c.opts.MaxRedirects {
			c.logger.Error("redirect limit exceeded", "limit", c.opts.MaxRedirects, "location", location)
			return res, &RedirectLimitError{
				Limit:    c.opts.MaxRedirects,
				Count:    c.redirectCount,
				Location: location,
			}
		}

		if !ok {
			return res, errors.Wrapf(ErrMissingLocation, "status %d", res.StatusCode)
		}

		target, path, err := ParseLocation(c.target, location)
		if err != nil {
			return res, errors.Wrap(err, "resolving redirect")
		}

		c.logger.Info("following redirect",
			"status", res.StatusCode,
			"location", location,
			"target", target.String(),
			"count", c.redirectCount,
		)

		c.target = target
		req = c.newRequest(http.MethodGet, path, nil, nil, nil)
	}
}

func isRedirect(code uint) bool {
	return code == http.StatusMovedPermanently || code == http.StatusFound
}

// exchange sends a single request on a fresh connection and reads its response.
func (c *Client) exchange(ctx context.Context, req *http.Request) (res *http.Response, err error) {
	attempt := Attempt{Target: c.target, Request: req, SentAt: c.clock.Now()}
	c.history = append(c.history, attempt)

	logger := c.logger.With("method", req.Method(), "host", attempt.Target.Host, "port", attempt.Target.Port, "path", req.Path())
	logger.Debug("sending request")

	raw, err := c.builder.Build(req)
	if err != nil {
		return nil, errors.Wrap(err, "building request")
	}

	conn, err := c.connDialer.Dial(ctx, c.combineAddr(attempt.Target))
	if err != nil {
		return nil, errors.Wrapf(err, "dialing %s", attempt.Target)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			err = multierr.Append(err, errors.Wrap(cerr, "closing connection"))
		}
	}()

	if _, err := iolib.WriteFull(conn, raw); err != nil {
		return nil, errors.Wrap(err, "writing request")
	}

	res = new(http.Response)
	err = http.NewResponseDecoder(conn, c.opts.Decode).Decode(res, req.Method())
	switch {
	case errors.Is(err, http.ErrUnknownBodyFraming):
		logger.Warn("response body length is unknown, leaving body empty", "status", res.StatusCode)
	case err != nil:
		return nil, errors.Wrap(err, "reading response")
	}

	logger.Debug("response received",
		"status", res.StatusCode,
		"framing", res.Framing.String(),
		"length", len(res.Body),
		"duration", c.clock.Since(attempt.SentAt),
	)

	return res, err
}
