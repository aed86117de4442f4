package http

import (
	"bytes"
	"strconv"

	"httprequests/application/util/rule"

	"github.com/pkg/errors"
)

type Method string

const (
	MethodGet  Method = "GET"
	MethodHead Method = "HEAD"
	MethodPost Method = "POST"
)

const (
	StatusNoContent        uint = 204
	StatusMovedPermanently uint = 301
	StatusFound            uint = 302
	StatusNotModified      uint = 304
)

// [Major, Minor]
type Version [2]uint

var Version11 = Version{1, 1}

// ParseVersion parses http version text(e.g. "HTTP/1.1") into [Version].
func ParseVersion(b []byte) (Version, error) {
	prefix := []byte("HTTP/")
	if !bytes.HasPrefix(b, prefix) {
		return Version{}, errors.Errorf("http version prefix not found: %s", b)
	}

	first, second, found := bytes.Cut(b[len(prefix):], []byte{'.'})
	if !found {
		return Version{}, errors.Errorf("dot seperator not found on version: %s", b)
	}

	major, err1 := strconv.ParseUint(string(first), 10, 64)
	minor, err2 := strconv.ParseUint(string(second), 10, 64)
	if err1 != nil || err2 != nil {
		return Version{}, errors.Errorf("http version is not convertable to int: %s", b)
	}

	return Version{uint(major), uint(minor)}, nil
}

func (ver Version) Text() []byte {
	buf := bytes.NewBuffer(nil)
	buf.WriteString("HTTP/")
	buf.WriteString(strconv.FormatUint(uint64(ver[0]), 10))
	buf.WriteByte('.')
	buf.WriteString(strconv.FormatUint(uint64(ver[1]), 10))
	return buf.Bytes()
}

func (ver Version) String() string { return string(ver.Text()) }

type StatusLine struct {
	Version      Version
	StatusCode   uint
	ReasonPhrase string
}

// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-4
func parseStatusLine(line []byte) (StatusLine, error) {
	parts := bytes.SplitN(line, []byte{rule.SP}, 3)
	if len(parts) < 2 {
		return StatusLine{}, errors.New("status line is malformed")
	}

	ver, err := ParseVersion(parts[0])
	if err != nil {
		return StatusLine{}, errors.Wrap(err, "parsing version")
	}

	statusCodeStr := string(parts[1])
	statusCode, err := strconv.ParseUint(statusCodeStr, 10, 64)
	if err != nil || len(statusCodeStr) != 3 {
		return StatusLine{}, errors.Errorf("status code is malformed: %q", statusCodeStr)
	}

	// reason-phrase is optional.
	reasonPhrase := ""
	if len(parts) == 3 {
		reasonPhrase = string(parts[2])
	}

	return StatusLine{Version: ver, StatusCode: uint(statusCode), ReasonPhrase: reasonPhrase}, nil
}

func (sl StatusLine) Text() []byte {
	buf := bytes.NewBuffer(sl.Version.Text())
	buf.WriteByte(rule.SP)
	buf.WriteString(strconv.FormatUint(uint64(sl.StatusCode), 10))
	buf.WriteByte(rule.SP)
	buf.WriteString(sl.ReasonPhrase)
	return buf.Bytes()
}

// IsBodyless reports whether a response with the code never carries content.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-6.3-2.1
func IsBodyless(code uint) bool {
	return (100 <= code && code < 200) || code == StatusNoContent || code == StatusNotModified
}
