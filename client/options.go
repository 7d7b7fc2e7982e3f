// Package client implements the request engine, the redirect driver,
// and the convenience surface: composing urlutil, protocol, transport
// and pool into one round trip that streams the response body to a
// caller-supplied consumer.
package client

import (
	"crypto/tls"
	"time"
)

// Options controls dialling and redirect behaviour for Do/DoFollow.
// Nothing bounds a request once it has started: Do checks ctx only
// before it dials, and no transport reads DialTimeout.
type Options struct {
	// MaxRedirects is the initial remaining-hop counter, starting at
	// 10 by default. With zero, DoFollow fails with
	// errors.ErrTooManyRedirects on the first 3xx response that carries
	// a Location header.
	MaxRedirects int

	// DialTimeout, if non-zero, is advisory: it is not currently
	// enforced inside transport.Plaintext's io_uring connect path, only
	// documented here as the knob a future timeout-aware transport would
	// read.
	DialTimeout time.Duration

	// TLSConfig is passed to transport.NewTLS for secure requests. A nil
	// value uses the zero-value *tls.Config (system roots).
	TLSConfig *tls.Config
}

// DefaultOptions returns the standard redirect cap of 10.
func DefaultOptions() Options {
	return Options{MaxRedirects: 10}
}
