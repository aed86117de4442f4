package iolib

import (
	"bytes"
	"errors"
	"io"
)

const readChunkSize = 1024

// UntilReader buffers an underlying reader so that it can be consumed
// both delimiter-wise and as a plain byte stream.
type UntilReader struct {
	r io.Reader

	buf *bytes.Buffer
}

var _ io.Reader = (*UntilReader)(nil)

func NewUntilReader(r io.Reader) *UntilReader {
	return &UntilReader{r: r, buf: bytes.NewBuffer(nil)}
}

// Read drains buffered bytes first, then reads through.
func (ur *UntilReader) Read(p []byte) (n int, err error) {
	if ur.buf.Len() > 0 {
		return ur.buf.Read(p)
	}

	return ur.r.Read(p)
}

var (
	ErrZeroLenDelim  = errors.New("delim has zero length")
	ErrLimitExceeded = errors.New("delim not found within limit")
)

// ReadUntil reads until delim. The output includes delim.
// If the underlying reader fails before delim, every byte read so far is returned with the error.
func (ur *UntilReader) ReadUntil(delim []byte) ([]byte, error) {
	return ur.ReadUntilLimit(delim, 0)
}

// ReadUntilLimit works like [UntilReader.ReadUntil], but gives up with [ErrLimitExceeded]
// once more than limit bytes are buffered without delim. Zero means no limit.
func (ur *UntilReader) ReadUntilLimit(delim []byte, limit uint) ([]byte, error) {
	if len(delim) == 0 {
		return nil, ErrZeroLenDelim
	}

	temp := make([]byte, readChunkSize)
	searched := 0
	for {
		buffered := ur.buf.Bytes()
		if idx := bytes.Index(buffered[searched:], delim); idx >= 0 {
			end := searched + idx + len(delim)
			found := bytes.Clone(buffered[:end])
			ur.buf.Next(end)
			return found, nil
		}

		if limit > 0 && uint(len(buffered)) > limit {
			return nil, ErrLimitExceeded
		}

		// delim might straddle the boundary of the next read.
		searched = max(0, len(buffered)-len(delim)+1)

		n, err := ur.r.Read(temp)
		ur.buf.Write(temp[:n])

		if err != nil && n == 0 {
			b := bytes.Clone(ur.buf.Bytes())
			ur.buf.Reset()
			return b, err
		}
	}
}
