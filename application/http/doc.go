// Package http implements the client side of Hypertext Transfer Protocol (HTTP) version 1.1:
// building request messages and decoding the responses.
//
// Reference:
//
// - https://datatracker.ietf.org/doc/html/rfc9110
//
// - https://datatracker.ietf.org/doc/html/rfc9112
package http
