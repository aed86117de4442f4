package http

// Framing tells how the body of a response was delimited.
type Framing uint8

const (
	FramingUnknown Framing = iota
	FramingNone
	FramingContentLength
	FramingChunked
)

func (f Framing) String() string {
	switch f {
	case FramingNone:
		return "none"
	case FramingContentLength:
		return "content-length"
	case FramingChunked:
		return "chunked"
	}
	return "unknown"
}

type Response struct {
	StatusLine

	// RawStatus is the status line as received, without the line terminator.
	RawStatus string
	Headers   Headers
	Body      []byte
	Framing   Framing
}
