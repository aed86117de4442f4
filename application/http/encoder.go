package http

import (
	"bytes"
	"strconv"
	"strings"

	"httprequests/application/http/cookie"
	"httprequests/application/util/rule"

	"github.com/pkg/errors"
	"golang.org/x/net/http/httpguts"
)

// Builder serializes a request into the bytes to put on the wire.
type Builder interface {
	Build(req *Request) ([]byte, error)
}

type EncodeOptions struct {
	// UseSoleLF specifies wheter a single LF character should be used as a line terminator.
	//
	// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-2.2-3
	UseSoleLF bool

	// UserAgent is sent unless the request has its own User-Agent field.
	UserAgent string
}

var DefaultEncodeOptions = EncodeOptions{
	UseSoleLF: false,
}

var (
	ErrInvalidMethod = errors.New("method is not a valid token")
	ErrInvalidTarget = errors.New("request target must start with /")
	ErrInvalidField  = errors.New("invalid header field")
)

// RequestEncoder is the default [Builder]. It writes HTTP/1.1 messages
// which ask the server to close the connection after responding.
type RequestEncoder struct {
	opts EncodeOptions
}

var _ Builder = (*RequestEncoder)(nil)

func NewRequestEncoder(opts EncodeOptions) *RequestEncoder {
	return &RequestEncoder{opts: opts}
}

func (re *RequestEncoder) Build(req *Request) ([]byte, error) {
	if !rule.IsValidToken(string(req.Method())) {
		return nil, errors.Wrapf(ErrInvalidMethod, "%q", req.Method())
	}

	if !strings.HasPrefix(req.Path(), "/") || strings.ContainsAny(req.Path(), " \r\n") {
		return nil, errors.Wrapf(ErrInvalidTarget, "%q", req.Path())
	}

	buf := bytes.NewBuffer(nil)

	re.writeLine(buf, string(req.Method())+" "+req.Path()+" "+Version11.String())

	fields, err := re.fields(req)
	if err != nil {
		return nil, err
	}
	for _, field := range fields {
		re.writeLine(buf, field[0]+": "+field[1])
	}

	// Write a empty line as all the headers are written.
	re.writeLine(buf, "")

	buf.Write(req.body)

	return buf.Bytes(), nil
}

// fields lists the header fields in the order they go on the wire:
// Host, User-Agent, the request's own fields sorted by name,
// then Cookie, Content-Length and Connection.
func (re *RequestEncoder) fields(req *Request) ([][2]string, error) {
	headers := req.headers
	fields := make([][2]string, 0, headers.Len()+5)

	if !headers.Has("Host") {
		fields = append(fields, [2]string{"Host", req.host})
	}

	if re.opts.UserAgent != "" && !headers.Has("User-Agent") {
		fields = append(fields, [2]string{"User-Agent", re.opts.UserAgent})
	}

	for _, name := range headers.Names() {
		switch name {
		case "Content-Length":
			// Always computed from the body.
			continue
		case "Cookie":
			if len(req.cookies) > 0 {
				continue
			}
		}

		value, _ := headers.Get(name)
		fields = append(fields, [2]string{name, value})
	}

	if len(req.cookies) > 0 {
		fields = append(fields, [2]string{"Cookie", cookie.Header(req.cookies)})
	}

	if len(req.body) > 0 || req.method == MethodPost {
		fields = append(fields, [2]string{"Content-Length", strconv.Itoa(len(req.body))})
	}

	if !headers.Has("Connection") {
		// Connections are never reused.
		fields = append(fields, [2]string{"Connection", "close"})
	}

	for _, field := range fields {
		if !httpguts.ValidHeaderFieldName(field[0]) {
			return nil, errors.Wrapf(ErrInvalidField, "name %q", field[0])
		}
		if !httpguts.ValidHeaderFieldValue(field[1]) {
			return nil, errors.Wrapf(ErrInvalidField, "value of %s: %q", field[0], field[1])
		}
	}

	return fields, nil
}

func (re *RequestEncoder) writeLine(buf *bytes.Buffer, line string) {
	buf.WriteString(line)

	term := rule.CRLF
	if re.opts.UseSoleLF {
		term = term[1:]
	}
	buf.Write(term)
}
