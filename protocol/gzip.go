package protocol

import (
	"compress/gzip"
	"io"
	"strings"

	"github.com/nczempin/httpstream/errors"
	"github.com/nczempin/httpstream/message"
)

// MaybeDecompress splices a gzip decoder over body when the response
// carries "Content-Encoding: gzip" (exact value, case-insensitive
// header name). Only gzip framing is supported: compress/gzip validates
// the gzip magic header strictly and will not also accept raw deflate
// with no gzip wrapper.
func MaybeDecompress(headers message.Headers, body io.Reader) (io.Reader, error) {
	ce, ok := headers.Get("Content-Encoding")
	if !ok || strings.TrimSpace(ce) != "gzip" {
		return body, nil
	}

	gz, err := gzip.NewReader(body)
	if err != nil {
		return nil, errors.NewProtocolError("Gzip header", err)
	}
	return &gzipBodyReader{gz: gz}, nil
}

// gzipBodyReader wraps *gzip.Reader so inflate errors surface as a
// protocol error consistent with the rest of the response parser,
// rather than a bare compress/gzip error.
type gzipBodyReader struct {
	gz *gzip.Reader
}

func (g *gzipBodyReader) Read(p []byte) (int, error) {
	n, err := g.gz.Read(p)
	if err != nil && err != io.EOF {
		return n, errors.NewProtocolError("Gzip body", err)
	}
	return n, err
}
