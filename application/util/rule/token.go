package rule

import (
	"bytes"
)

// IsValidToken reports whether s is a non-empty tchar sequence.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-5.6.2-2
func IsValidToken(s string) bool {
	if len(s) == 0 {
		return false
	}
	for _, c := range s {
		if IsAlpha(c) || IsDigit(c) {
			continue
		}

		switch c {
		case '!', '#', '$', '%', '&', '\'', '*', '+',
			'-', '.', '^', '_', '`', '|', '~':
			continue
		}

		return false
	}

	return true
}

// Unquote strips surrounding double quotes and drops the backslash of quoted-pairs.
// Tokens that aren't quoted are returned as a copy.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-5.6.4
func Unquote(token []byte) []byte {
	if len(token) < 2 || token[0] != '"' || token[len(token)-1] != '"' {
		return bytes.Clone(token)
	}

	inner := token[1 : len(token)-1]
	buf := bytes.NewBuffer(make([]byte, 0, len(inner)))
	for idx := 0; idx < len(inner); idx++ {
		c := inner[idx]
		if c == '\\' && idx+1 < len(inner) {
			idx++
			c = inner[idx]
		}
		buf.WriteByte(c)
	}

	return buf.Bytes()
}
