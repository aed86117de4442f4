package http

import (
	"bytes"
	"maps"
	"slices"

	"httprequests/application/util/rule"
)

// Headers maps title-cased field names to raw field values.
// A name holds a single value: when a field repeats, the last one wins.
type Headers struct{ underlying map[string]string }

func NewHeaders(initial map[string]string) Headers {
	clone := make(map[string]string, len(initial))
	for k, v := range initial {
		clone[toCanonicalFieldName(k)] = v
	}

	return Headers{underlying: clone}
}

// ParseHeaders converts a CRLF separated header block into [Headers].
// Lines without a colon are dropped, as well as blank lines.
func ParseHeaders(block []byte) Headers {
	return headersFromLines(bytes.Split(block, rule.CRLF))
}

func headersFromLines(lines [][]byte) Headers {
	h := Headers{underlying: make(map[string]string, len(lines))}
	for _, line := range lines {
		name, value, ok := splitFieldLine(line)
		if !ok {
			continue
		}
		h.underlying[name] = value
	}

	return h
}

// splitFieldLine cuts on the first colon only, so the value keeps any colon of its own.
func splitFieldLine(line []byte) (name, value string, ok bool) {
	rawName, rawValue, found := bytes.Cut(line, []byte{':'})
	if !found {
		return "", "", false
	}

	rawName = bytes.TrimFunc(rawName, rule.IsWhitespace)
	if len(rawName) == 0 {
		return "", "", false
	}

	rawValue = bytes.TrimFunc(rawValue, rule.IsWhitespace)

	return toCanonicalFieldName(string(rawName)), string(rawValue), true
}

func (h *Headers) Get(key string) (value string, ok bool) {
	value, ok = h.underlying[toCanonicalFieldName(key)]
	return
}

func (h *Headers) Has(key string) bool {
	_, ok := h.Get(key)
	return ok
}

func (h *Headers) Set(key, value string) {
	if h.underlying == nil {
		h.underlying = make(map[string]string)
	}
	h.underlying[toCanonicalFieldName(key)] = value
}

func (h *Headers) Del(key string) {
	delete(h.underlying, toCanonicalFieldName(key))
}

func (h *Headers) Len() int { return len(h.underlying) }

// Names returns the canonical field names in sorted order.
func (h *Headers) Names() []string {
	var names []string
	for k := range h.underlying {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}

// Map returns a copy of the underlying mapping.
func (h *Headers) Map() map[string]string {
	return maps.Clone(h.underlying)
}

func (h *Headers) Clone() Headers {
	return Headers{underlying: h.Map()}
}

// toCanonicalFieldName title-cases s: a letter following a non-letter is upper-cased,
// every other letter is lower-cased. e.g. "content-length" becomes "Content-Length".
func toCanonicalFieldName(s string) string {
	const capitalDiff = 'a' - 'A'
	b := []byte(s)
	prevLetter := false
	for i, c := range b {
		lower := 'a' <= c && c <= 'z'
		upper := 'A' <= c && c <= 'Z'
		switch {
		case lower && !prevLetter:
			b[i] = c - capitalDiff
		case upper && prevLetter:
			b[i] = c + capitalDiff
		}
		prevLetter = lower || upper
	}
	return string(b)
}
