package client

import "httprequests/application/http"

type Options struct {
	// MaxRedirects is how many 301/302 responses a client follows over its lifetime.
	// The next one fails with [ErrRedirectLimitExceeded].
	MaxRedirects uint

	// DefaultPort is used when the host carries no port.
	DefaultPort uint16

	// Builder serializes requests. Nil means a [http.RequestEncoder] made with Encode.
	Builder http.Builder

	Encode http.EncodeOptions
	Decode http.DecodeOptions
}

var DefaultOptions = Options{
	MaxRedirects: 3,
	DefaultPort:  DefaultPort,
	Encode:       http.DefaultEncodeOptions,
	Decode:       http.DefaultDecodeOptions,
}
