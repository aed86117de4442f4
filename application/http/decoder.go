package http

import (
	"io"
	"strconv"
	"strings"

	"httprequests/application/http/transfer"
	"httprequests/application/util/rule"
	iolib "httprequests/lib/io"

	"github.com/pkg/errors"
)

type DecodeOptions struct {
	// AllowSoleLF specifies wheter a single LF character should be recognized as a valid line terminator.
	//
	// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-2.2-3
	AllowSoleLF bool

	// MaxLineLength limits the status line, the request line and every field line.
	// Zero means no limit.
	MaxLineLength uint
}

var DefaultDecodeOptions = DecodeOptions{
	AllowSoleLF:   false,
	MaxLineLength: 0,
}

var (
	ErrLineTooLong          = errors.New("line length exceeds limit")
	ErrMissingCRBeforeLF    = errors.New("missing CR before LF")
	ErrMalformedStatusLine  = errors.New("status line is malformed")
	ErrMalformedRequestLine = errors.New("request line is malformed")
	ErrInvalidContentLength = errors.New("invalid Content-Length")

	// ErrUnknownBodyFraming is returned along with a complete response
	// whose body length can't be determined. The body is left empty.
	ErrUnknownBodyFraming = errors.New("neither Content-Length nor chunked Transfer-Encoding present")
)

type MessageDecoder struct {
	r    *iolib.UntilReader
	opts DecodeOptions
}

func newMessageDecoder(r io.Reader, opts DecodeOptions) MessageDecoder {
	ur, ok := r.(*iolib.UntilReader)
	if !ok {
		ur = iolib.NewUntilReader(r)
	}
	return MessageDecoder{r: ur, opts: opts}
}

// readLine reads a line and strips its terminator.
func (md *MessageDecoder) readLine() ([]byte, error) {
	b, err := md.r.ReadUntilLimit([]byte{rule.LF}, md.opts.MaxLineLength)
	if err != nil {
		switch {
		case errors.Is(err, iolib.ErrLimitExceeded):
			return nil, ErrLineTooLong
		case errors.Is(err, io.EOF) && len(b) > 0:
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}

	if limit := md.opts.MaxLineLength; limit > 0 && uint(len(b)) > limit {
		return nil, ErrLineTooLong
	}

	b = b[:len(b)-1] // Remove LF.

	if len(b) > 0 && b[len(b)-1] == rule.CR {
		b = b[:len(b)-1] // Remove CR.
	} else if !md.opts.AllowSoleLF {
		return nil, ErrMissingCRBeforeLF
	}

	return b, nil
}

// readNonEmptyLine skips the empty lines which can be received before a message.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-2.2-6
func (md *MessageDecoder) readNonEmptyLine() ([]byte, error) {
	for {
		b, err := md.readLine()
		if err != nil {
			return nil, err
		}
		if len(b) > 0 {
			return b, nil
		}
	}
}

// decodeHeaders reads field lines up to the empty line which ends the header section.
func (md *MessageDecoder) decodeHeaders() (Headers, error) {
	lines := make([][]byte, 0)
	for {
		line, err := md.readLine()
		if err != nil {
			return Headers{}, errors.Wrap(err, "reading field line")
		}

		if len(line) == 0 {
			break
		}

		lines = append(lines, line)
	}

	return headersFromLines(lines), nil
}

func (md *MessageDecoder) readContentLength(h Headers) (body []byte, ok bool, err error) {
	v, ok := h.Get("Content-Length")
	if !ok {
		return nil, false, nil
	}

	// Any value greater than or equal to 0 is valid.
	// But let's restrict it to 64bit uint.
	// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-8.6-10
	length, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return nil, true, errors.Wrapf(ErrInvalidContentLength, "%q", v)
	}

	body, err = iolib.ReadExactly(md.r, uint(length))
	if err != nil {
		return nil, true, errors.Wrap(err, "reading body")
	}

	return body, true, nil
}

type ResponseDecoder struct{ MessageDecoder }

func NewResponseDecoder(r io.Reader, opts DecodeOptions) *ResponseDecoder {
	return &ResponseDecoder{newMessageDecoder(r, opts)}
}

// Decode reads a whole response to a request made with requestMethod.
// On [ErrUnknownBodyFraming] res is still completely filled.
//
// r MUST be a non-nil pointer
func (rd *ResponseDecoder) Decode(res *Response, requestMethod Method) error {
	line, err := rd.readNonEmptyLine()
	if err != nil {
		return errors.Wrap(err, "reading status line")
	}

	statLine, err := parseStatusLine(line)
	if err != nil {
		return errors.Wrap(ErrMalformedStatusLine, err.Error())
	}

	headers, err := rd.decodeHeaders()
	if err != nil {
		return errors.Wrap(err, "parsing headers")
	}

	res.StatusLine = statLine
	res.RawStatus = string(line)
	res.Headers = headers

	return rd.decodeBody(res, requestMethod)
}

// decodeBody picks the body length in this order: no content by definition,
// Content-Length, chunked Transfer-Encoding.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-6.3
func (rd *ResponseDecoder) decodeBody(res *Response, requestMethod Method) error {
	if requestMethod == MethodHead || IsBodyless(res.StatusCode) {
		res.Body, res.Framing = []byte{}, FramingNone
		return nil
	}

	body, ok, err := rd.readContentLength(res.Headers)
	if err != nil {
		return err
	}
	if ok {
		res.Body, res.Framing = body, FramingContentLength
		return nil
	}

	if te, ok := res.Headers.Get("Transfer-Encoding"); ok && strings.EqualFold(te, transfer.CodingChunked) {
		body, err := io.ReadAll(transfer.NewChunkedReader(rd.r))
		if err != nil {
			return errors.Wrap(err, "reading chunked body")
		}

		res.Body, res.Framing = body, FramingChunked
		return nil
	}

	res.Body, res.Framing = []byte{}, FramingUnknown
	return ErrUnknownBodyFraming
}

// RequestDecoder reads request messages as sent by [RequestEncoder].
// Bodies are only delimited by Content-Length.
type RequestDecoder struct{ MessageDecoder }

func NewRequestDecoder(r io.Reader, opts DecodeOptions) *RequestDecoder {
	return &RequestDecoder{newMessageDecoder(r, opts)}
}

func (rd *RequestDecoder) Decode() (*Request, error) {
	line, err := rd.readNonEmptyLine()
	if err != nil {
		return nil, errors.Wrap(err, "reading request line")
	}

	method, target, err := parseRequestLine(line)
	if err != nil {
		return nil, errors.Wrap(ErrMalformedRequestLine, err.Error())
	}

	headers, err := rd.decodeHeaders()
	if err != nil {
		return nil, errors.Wrap(err, "parsing headers")
	}

	body, _, err := rd.readContentLength(headers)
	if err != nil {
		return nil, err
	}

	host, _ := headers.Get("Host")

	return NewRequest(method, target, host, headers.Map(), body, nil), nil
}

func parseRequestLine(line []byte) (Method, string, error) {
	parts := strings.Split(string(line), string(rule.SP))
	if len(parts) != 3 {
		return "", "", errors.New("request line is malformed")
	}

	if !rule.IsValidToken(parts[0]) {
		return "", "", errors.New("method is not a valid token")
	}

	if len(parts[1]) == 0 {
		return "", "", errors.New("request target should not be empty")
	}

	if _, err := ParseVersion([]byte(parts[2])); err != nil {
		return "", "", errors.Wrap(err, "parsing version")
	}

	return Method(parts[0]), parts[1], nil
}
