package protocol

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/nczempin/httpstream/errors"
	"github.com/nczempin/httpstream/message"
)

// NewBodyReader builds the framed body stream: HEAD always yields an
// empty body; else chunked transfer encoding (exact value "chunked",
// case-insensitive header name) is decoded; else a present, parseable
// Content-Length streams exactly that many bytes; else the body streams
// to end-of-connection.
func NewBodyReader(method message.Method, headers message.Headers, r *bufio.Reader) io.Reader {
	if method == message.MethodHead {
		return emptyReader{}
	}

	if te, ok := headers.Get("Transfer-Encoding"); ok && strings.TrimSpace(te) == "chunked" {
		return &chunkedReader{r: r}
	}

	if cl, ok := headers.Get("Content-Length"); ok {
		if n, err := strconv.ParseInt(strings.TrimSpace(cl), 10, 64); err == nil && n >= 0 {
			return io.LimitReader(toEOFReader{r}, n)
		}
	}

	return toEOFReader{r}
}

type emptyReader struct{}

func (emptyReader) Read([]byte) (int, error) { return 0, io.EOF }

// toEOFReader translates the transport's "connection closed by peer"
// error into io.EOF: for end-of-connection framing and the tail of a
// Content-Length body, a clean peer close is the expected terminator,
// not a failure.
type toEOFReader struct {
	r io.Reader
}

func (t toEOFReader) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	if err != nil {
		if httpErr, ok := err.(*errors.HttpError); ok &&
			httpErr.Type == errors.ErrorTransport &&
			httpErr.TransportErr == errors.TransportErrorConnectionClosed {
			return n, io.EOF
		}
	}
	return n, err
}

// chunkedReader decodes HTTP/1.1 chunked transfer encoding: repeatedly
// read a hex-length line, read that many body bytes, read the trailing
// CRLF, until a zero-length chunk terminates the body. Chunk extensions
// and trailers are parsed only enough to be skipped, never surfaced to
// the consumer.
type chunkedReader struct {
	r         *bufio.Reader
	remaining int64
	done      bool
}

func (c *chunkedReader) Read(p []byte) (int, error) {
	if c.done {
		return 0, io.EOF
	}

	if c.remaining == 0 {
		size, err := c.readChunkSize()
		if err != nil {
			return 0, err
		}
		if size == 0 {
			if err := c.consumeTrailers(); err != nil {
				return 0, err
			}
			c.done = true
			return 0, io.EOF
		}
		c.remaining = size
	}

	toRead := int64(len(p))
	if toRead > c.remaining {
		toRead = c.remaining
	}
	n, err := c.r.Read(p[:toRead])
	c.remaining -= int64(n)
	if err != nil {
		return n, errors.NewProtocolError("Chunk body", err)
	}

	if c.remaining == 0 {
		if err := readChunkCRLF(c.r); err != nil {
			return n, err
		}
	}
	return n, nil
}

func (c *chunkedReader) readChunkSize() (int64, error) {
	line, err := readCRLFLine(c.r, "Chunk header")
	if err != nil {
		return 0, err
	}
	if idx := strings.IndexByte(line, ';'); idx >= 0 {
		line = line[:idx]
	}
	size, err := strconv.ParseInt(strings.TrimSpace(line), 16, 64)
	if err != nil || size < 0 {
		return 0, errors.NewProtocolError("Chunk header", err)
	}
	return size, nil
}

func (c *chunkedReader) consumeTrailers() error {
	for {
		line, err := readCRLFLine(c.r, "Chunk trailer")
		if err != nil {
			return err
		}
		if line == "" {
			return nil
		}
	}
}

func readChunkCRLF(r *bufio.Reader) error {
	var crlf [2]byte
	if _, err := io.ReadFull(r, crlf[:]); err != nil {
		return errors.NewProtocolError("End of chunk newline", err)
	}
	if crlf[0] != '\r' || crlf[1] != '\n' {
		return errors.NewProtocolError("End of chunk newline", nil)
	}
	return nil
}
