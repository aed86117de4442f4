// Package cookie holds the cookie values a request carries.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc6265
package cookie

import "strings"

// Options are the attributes a cookie was issued with.
// The zero value means: no expiry, no max-age, neither Secure nor HttpOnly.
type Options struct {
	Expires   string
	MaxAge    string
	Secure    bool
	HTTPOnly  bool
	RawString string
}

// Cookie is immutable. Attributes are kept for the caller,
// but only name and value ever go on the wire.
type Cookie struct {
	name   string
	value  string
	domain string
	path   string
	opts   Options
}

func New(name, value, domain, path string, opts Options) Cookie {
	return Cookie{
		name:   name,
		value:  value,
		domain: domain,
		path:   path,
		opts:   opts,
	}
}

func (c Cookie) Name() string      { return c.name }
func (c Cookie) Value() string     { return c.value }
func (c Cookie) Domain() string    { return c.domain }
func (c Cookie) Path() string      { return c.path }
func (c Cookie) Expires() string   { return c.opts.Expires }
func (c Cookie) MaxAge() string    { return c.opts.MaxAge }
func (c Cookie) Secure() bool      { return c.opts.Secure }
func (c Cookie) HTTPOnly() bool    { return c.opts.HTTPOnly }
func (c Cookie) RawString() string { return c.opts.RawString }
func (c Cookie) Options() Options  { return c.opts }

// String renders the cookie as a "name=value;" fragment.
func (c Cookie) String() string {
	return c.name + "=" + c.value + ";"
}

// Header joins cookies into a single Cookie field value.
func Header(cookies []Cookie) string {
	fragments := make([]string, 0, len(cookies))
	for _, c := range cookies {
		fragments = append(fragments, c.String())
	}
	return strings.Join(fragments, " ")
}
