package client

import (
	"context"
	"io"

	"github.com/nczempin/httpstream/message"
	"github.com/nczempin/httpstream/pool"
	"github.com/nczempin/httpstream/protocol"
	"github.com/nczempin/httpstream/transport"
)

// Request, Header, QueryParam, Body and Status are the descriptor
// types, re-exported here under the public client package so callers
// never need to import message directly.
type (
	Request    = message.Request
	Header     = message.Header
	Headers    = message.Headers
	QueryParam = message.QueryParam
	Body       = message.Body
	Status     = message.Status
	Response   = message.Response
)

// Consumer is the caller-supplied sink: invoked with the parsed status
// and headers, it reads the body as a lazy stream and returns a
// result.
type Consumer[T any] func(status Status, headers Headers, body io.Reader) (T, error)

// Do performs one request/response round trip: select a transport by
// req.Secure, acquire-or-dial for plaintext, serialise and write the
// request, parse the response, build the framed (+gzip) body, and hand
// it to consume. After consume returns, a plaintext socket whose body
// was fully drained is released to p; otherwise (TLS, or an
// unconsumed/erroring body) it is closed, never pooled.
//
// opts.TLSConfig is passed through to transport.NewTLS for secure
// requests; the zero Options uses the zero-value *tls.Config (system
// roots, negotiated version).
func Do[T any](ctx context.Context, req *Request, opts Options, p *pool.Pool, consume Consumer[T]) (T, error) {
	var zero T

	if err := ctx.Err(); err != nil {
		return zero, err
	}

	if req.Secure {
		tlsConn := transport.NewTLS(opts.TLSConfig)
		if err := tlsConn.Connect(req.Host, req.Port); err != nil {
			return zero, err
		}
		return roundTripAndConsume(tlsConn, req, consume, func(clean bool) {
			tlsConn.Close()
		})
	}

	conn, pooled := p.Acquire(req.Host, req.Port)
	if !pooled {
		fresh, err := transport.NewPlaintext()
		if err != nil {
			return zero, err
		}
		if err := fresh.Connect(req.Host, req.Port); err != nil {
			fresh.Destroy()
			return zero, err
		}
		conn = fresh
	}

	return roundTripAndConsume(conn, req, consume, func(clean bool) {
		if clean {
			p.Release(req.Host, req.Port, conn)
		} else {
			conn.Destroy()
		}
	})
}

// roundTripAndConsume runs protocol.RoundTrip over t, invokes consume
// with a tracking reader, and calls release(clean) exactly once
// afterward — clean is true only when the body was drained to its
// natural end ("fully consumed") and no transport error occurred along
// the way.
func roundTripAndConsume[T any](t transport.Transport, req *Request, consume Consumer[T], release func(clean bool)) (T, error) {
	var zero T

	status, headers, body, err := protocol.RoundTrip(t, req)
	if err != nil {
		release(false)
		return zero, err
	}

	tracked := &trackingReader{r: body}
	result, cerr := consume(status, headers, tracked)
	if cerr != nil {
		release(false)
		return zero, cerr
	}

	release(tracked.eof && !tracked.errored)
	return result, nil
}

// trackingReader records whether the wrapped body reader reached a
// clean end-of-stream, so the engine knows whether the socket is
// eligible for pool return.
type trackingReader struct {
	r       io.Reader
	eof     bool
	errored bool
}

func (t *trackingReader) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	switch err {
	case nil:
	case io.EOF:
		t.eof = true
	default:
		t.errored = true
	}
	return n, err
}
