package http

import (
	"bytes"
	"slices"

	"httprequests/application/http/cookie"
)

// Request is a single attempt's request message. It can't be changed after [NewRequest];
// every accessor hands out a copy.
type Request struct {
	method  Method
	path    string
	host    string
	headers Headers
	body    []byte
	cookies []cookie.Cookie
}

func NewRequest(
	method Method, path, host string,
	headers map[string]string, body []byte, cookies []cookie.Cookie,
) *Request {
	return &Request{
		method:  method,
		path:    path,
		host:    host,
		headers: NewHeaders(headers),
		body:    bytes.Clone(body),
		cookies: slices.Clone(cookies),
	}
}

func (r *Request) Method() Method           { return r.method }
func (r *Request) Path() string             { return r.path }
func (r *Request) Host() string             { return r.host }
func (r *Request) Headers() Headers         { return r.headers.Clone() }
func (r *Request) Body() []byte             { return bytes.Clone(r.body) }
func (r *Request) Cookies() []cookie.Cookie { return slices.Clone(r.cookies) }
