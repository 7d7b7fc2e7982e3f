package client

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/nczempin/httpstream/errors"
	"github.com/nczempin/httpstream/pool"
	"github.com/nczempin/httpstream/urlutil"
)

// DoFollow wraps Do with a redirect driver: a 3xx response carrying a
// Location header is not handed to consume at all — instead the
// request is rewritten and reissued through Do, up to
// opts.MaxRedirects hops. A 3xx with no Location, or any non-3xx
// status, reaches consume unchanged.
//
// The rewritten request's method always comes out as GET, because
// urlutil.ParseURL (used to parse both the relative and the absolute
// Location forms) always defaults method to GET. This is intentional,
// not a bug to silently fix: every redirect becomes GET, not only
// those following a 303.
func DoFollow[T any](ctx context.Context, req *Request, p *pool.Pool, opts Options, consume Consumer[T]) (T, error) {
	remaining := opts.MaxRedirects
	current := req

	for {
		var redirectLocation string
		var redirecting bool
		var zero T

		result, err := Do(ctx, current, opts, p, func(status Status, headers Headers, body io.Reader) (T, error) {
			if status.Code >= 300 && status.Code < 400 {
				if loc, ok := headers.Get("Location"); ok {
					redirectLocation = loc
					redirecting = true
					// Drain the body fully so the underlying plaintext
					// socket is eligible for pool return before the next
					// hop tries to acquire one for the same origin.
					io.Copy(io.Discard, body)
					return zero, nil
				}
			}
			return consume(status, headers, body)
		})
		if err != nil {
			return result, err
		}
		if !redirecting {
			return result, nil
		}

		if remaining <= 0 {
			return zero, errors.ErrTooManyRedirects
		}
		remaining--

		next, rerr := resolveRedirect(current, redirectLocation)
		if rerr != nil {
			return zero, rerr
		}
		current = next
	}
}

// resolveRedirect computes the next hop's request descriptor from the
// current one and a Location value: a location beginning with '/'
// resolves against the current scheme/host/port (always emitting
// "scheme://host:port/..."); otherwise it is parsed as an absolute
// URL.
func resolveRedirect(current *Request, location string) (*Request, error) {
	if strings.HasPrefix(location, "/") {
		scheme := "http"
		if current.Secure {
			scheme = "https"
		}
		absolute := fmt.Sprintf("%s://%s:%d%s", scheme, current.Host, current.Port, location)
		return urlutil.ParseURL(absolute)
	}
	return urlutil.ParseURL(location)
}
