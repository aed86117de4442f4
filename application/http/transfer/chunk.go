// Package transfer implements the chunked transfer coding.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-7.1
package transfer

import (
	"bytes"
	"io"
	"math/big"
	"strconv"

	"httprequests/application/util/rule"
	iolib "httprequests/lib/io"

	"github.com/pkg/errors"
)

const CodingChunked = "chunked"

type Chunk struct {
	Size       uint
	Extensions [][2]string
}

// ChunkedReader converts a chunked message body into a plain byte stream.
// Reading stops at the last chunk; trailer fields after it are left unread.
type ChunkedReader struct {
	r     *iolib.UntilReader
	chunk *Chunk
	read  uint // reset for each chunk
	done  bool
}

var _ io.Reader = (*ChunkedReader)(nil)

func NewChunkedReader(r io.Reader) *ChunkedReader {
	ur, ok := r.(*iolib.UntilReader)
	if !ok {
		ur = iolib.NewUntilReader(r)
	}

	return &ChunkedReader{r: ur}
}

// DecodeChunked decodes a whole chunked body held in memory.
func DecodeChunked(b []byte) ([]byte, error) {
	return io.ReadAll(NewChunkedReader(bytes.NewReader(b)))
}

func (cr *ChunkedReader) Read(b []byte) (int, error) {
	if cr.done {
		return 0, io.EOF
	}

	if cr.chunk == nil {
		if err := cr.decodeChunk(); err != nil {
			return 0, errors.Wrap(err, "decoding chunk")
		}

		if cr.chunk.Size == 0 {
			// Last chunk.
			cr.done = true
			return 0, io.EOF
		}
	}

	remain := cr.chunk.Size - cr.read
	if uint(len(b)) > remain {
		b = b[:remain]
	}

	n, err := cr.r.Read(b)
	if n == 0 && err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return 0, errors.Wrap(err, "reading chunk data")
	}

	cr.read += uint(n)

	if cr.read == cr.chunk.Size {
		// Whatever follows the data up to the line end is discarded.
		if _, err := readLine(cr.r); err != nil {
			return n, errors.Wrap(err, "reading chunk delimiter")
		}

		cr.chunk = nil
		cr.read = 0
	}

	return n, nil
}

func (cr *ChunkedReader) decodeChunk() error {
	line, err := readLine(cr.r)
	if err != nil {
		return err
	}

	chunk, err := parseChunkHeader(line)
	if err != nil {
		return err
	}

	cr.chunk = &chunk
	return nil
}

// parseChunkHeader parses chunk-size and chunk-ext of a chunk.
func parseChunkHeader(line []byte) (Chunk, error) {
	parts := bytes.Split(line, []byte{';'})

	sizeRaw := bytes.TrimFunc(parts[0], rule.IsWhitespace)
	chunkSize, err := decodeChunkSize(sizeRaw)
	if err != nil {
		return Chunk{}, errors.Wrap(err, "decoding chunk size")
	}

	extensions := make([][2]string, 0)
	for _, part := range parts[1:] {
		k, v, _ := bytes.Cut(part, []byte{'='})
		// Trim BWS.
		k = bytes.TrimFunc(k, rule.IsWhitespace)
		v = bytes.TrimFunc(v, rule.IsWhitespace)

		extensions = append(extensions, [2]string{
			string(k),
			string(rule.Unquote(v)),
		})
	}

	return Chunk{Size: chunkSize, Extensions: extensions}, nil
}

func decodeChunkSize(b []byte) (uint, error) {
	n, ok := new(big.Int).SetString(string(b), 16)
	if !ok {
		return 0, errors.Errorf("failed to decode hex: %q", string(b))
	}

	if n.Sign() < 0 {
		return 0, errors.Errorf("negative chunk size: %q", string(b))
	}

	if n.BitLen() > 64 {
		return 0, errors.Errorf("chunk size larger than 64bit: %dbits", n.BitLen())
	}

	return uint(n.Uint64()), nil
}

// ChunkedWriter frames every Write as one chunk. Close writes the last chunk.
type ChunkedWriter struct {
	w          io.Writer
	headerBuf  *bytes.Buffer
	extensions [][2]string
}

var _ io.WriteCloser = (*ChunkedWriter)(nil)

func NewChunkedWriter(w io.Writer) *ChunkedWriter {
	return &ChunkedWriter{
		w:         w,
		headerBuf: bytes.NewBuffer(nil),
	}
}

// SetExtensions sets extensions of the next chunk only.
func (cw *ChunkedWriter) SetExtensions(extensions [][2]string) {
	cw.extensions = extensions
}

func (cw *ChunkedWriter) Write(p []byte) (n int, err error) {
	if len(p) == 0 {
		// A zero length chunk would mean the end of the body.
		return 0, nil
	}

	if err := cw.writeChunk(Chunk{Size: uint(len(p)), Extensions: cw.extensions}, p); err != nil {
		return 0, errors.Wrap(err, "encoding chunk")
	}
	cw.extensions = nil

	return len(p), nil
}

// Close writes the last chunk and an empty trailer section.
// It doesn't close the underlying writer.
func (cw *ChunkedWriter) Close() error {
	if err := cw.writeChunk(Chunk{Size: 0, Extensions: cw.extensions}, nil); err != nil {
		return errors.Wrap(err, "encoding last chunk")
	}

	if err := writeLine(cw.w, nil); err != nil {
		return errors.Wrap(err, "writing last trailer line")
	}

	return nil
}

func (cw *ChunkedWriter) writeChunk(chunk Chunk, data []byte) error {
	buf := cw.headerBuf
	buf.Reset()
	buf.WriteString(strconv.FormatUint(uint64(chunk.Size), 16))
	for _, ext := range chunk.Extensions {
		buf.WriteByte(';')
		buf.WriteString(ext[0])
		buf.WriteByte('=')
		buf.WriteString(ext[1])
	}

	if err := writeLine(cw.w, buf.Bytes()); err != nil {
		return errors.Wrap(err, "writing chunk header")
	}

	if chunk.Size == 0 {
		return nil
	}

	if err := writeLine(cw.w, data); err != nil {
		return errors.Wrap(err, "writing chunk data")
	}

	return nil
}

// readLine reads until CRLF and cuts it.
func readLine(r *iolib.UntilReader) ([]byte, error) {
	line, err := r.ReadUntil(rule.CRLF)
	if err != nil {
		if err == io.EOF {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}

	return line[:len(line)-len(rule.CRLF)], nil
}

func writeLine(w io.Writer, line []byte) error {
	b := make([]byte, 0, len(line)+len(rule.CRLF))
	b = append(append(b, line...), rule.CRLF...)

	if _, err := iolib.WriteFull(w, b); err != nil {
		return errors.Wrap(err, "writing line")
	}

	return nil
}
