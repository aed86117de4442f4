// Package form encodes key/value pairs into a request body.
//
// The escaping table is narrower than RFC 3986: '~', '`', '{', '|', '}'
// and every non-ASCII byte are sent as they are, while '-', '.' and '_'
// are escaped.
package form

import (
	"slices"
	"strings"
)

// escapeSet holds the bytes escaped in values.
var escapeSet = func() (set [256]bool) {
	for _, c := range []byte(" !\"#$%&'()*+,-./:;<=>?@[\\]^_") {
		set[c] = true
	}
	return
}()

func hex(c byte) (h [2]byte) {
	const hexSet = "0123456789ABCDEF"
	h[0] = hexSet[c>>4]
	h[1] = hexSet[c&0xF]
	return
}

// Escape percent-encodes the bytes of s found in the escaping table.
// '%' itself becomes "%25", so escaping is never ambiguous.
func Escape(s string) string {
	b := new(strings.Builder)
	b.Grow(len(s))

	for idx := 0; idx < len(s); idx++ {
		c := s[idx]
		if escapeSet[c] {
			hex := hex(c)
			b.Write([]byte{'%', hex[0], hex[1]})
		} else {
			b.WriteByte(c)
		}
	}

	return b.String()
}

// Encode joins the pairs as "k1=v1&k2=v2" with keys sorted.
// Only values are escaped; keys are written unchanged.
func Encode(values map[string]string) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	b := new(strings.Builder)
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(Escape(values[k]))
	}

	return b.String()
}
