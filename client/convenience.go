package client

import (
	"context"
	"io"

	"github.com/nczempin/httpstream/errors"
	"github.com/nczempin/httpstream/message"
	"github.com/nczempin/httpstream/pool"
	"github.com/nczempin/httpstream/urlutil"
)

// Buffered is a Consumer that accumulates the entire body into memory
// and returns it as a Response, a convenience shape for callers who
// don't want to write a streaming consumer.
func Buffered(status Status, headers Headers, body io.Reader) (Response, error) {
	buf, err := io.ReadAll(body)
	if err != nil {
		return Response{}, err
	}
	return Response{Status: status.Code, Headers: headers, Body: buf}, nil
}

// Get parses rawURL, follows redirects with its own freshly created
// (and closed) connection pool, and returns the buffered body only
// when the final status falls in [200, 300). Any other final status
// yields errors.NewStatusCodeError carrying that status and its
// (buffered) body.
func Get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := urlutil.ParseURL(rawURL)
	if err != nil {
		return nil, err
	}

	p := pool.New()
	defer p.CloseAll()

	resp, err := DoFollow(ctx, req, p, DefaultOptions(), Buffered)
	if err != nil {
		return nil, err
	}

	if resp.Status < 200 || resp.Status >= 300 {
		return nil, errors.NewStatusCodeError(resp.Status, resp.Body)
	}
	return resp.Body, nil
}

// URLEncodedBody rewrites req in place into an
// application/x-www-form-urlencoded POST: the method becomes POST, the
// body is pairs rendered by urlutil.FormEncodeBody, and any existing
// Content-Type header is replaced with
// "application/x-www-form-urlencoded".
func URLEncodedBody(req *Request, pairs []QueryParam) {
	encoded := urlutil.FormEncodeBody(pairs)
	req.Method = message.MethodPost
	req.Body = message.BytesBody([]byte(encoded))
	req.Headers = req.Headers.Without("Content-Type")
	req.Headers = append(req.Headers, Header{Name: "Content-Type", Value: "application/x-www-form-urlencoded"})
}
