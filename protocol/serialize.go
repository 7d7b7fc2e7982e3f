// Package protocol implements the HTTP/1.1 wire codec: request
// serialisation, status/header parsing, body framing and gzip
// decompression. Request serialisation writes straight to the
// transport, and response parsing pulls a stream instead of reading the
// whole message up front, so body size is bounded only by what the
// caller's consumer holds onto.
package protocol

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nczempin/httpstream/message"
	"github.com/nczempin/httpstream/transport"
	"github.com/nczempin/httpstream/urlutil"
)

// reservedRequestHeaders are injected by the engine; caller-supplied
// values under these names are dropped before the wire headers are
// written, so the engine's own values always win.
var reservedRequestHeaders = []string{"Host", "Content-Length", "Accept-Encoding"}

// HostHeader computes the Host header value for req: host alone when
// the port matches the scheme default (80 plain, 443 secure), else
// host:port.
func HostHeader(req *message.Request) string {
	defaultPort := 80
	if req.Secure {
		defaultPort = 443
	}
	if req.Port == defaultPort {
		return req.Host
	}
	return fmt.Sprintf("%s:%d", req.Host, req.Port)
}

// RequestTarget renders the path-with-query sent on the wire: path
// forced to start with '/', followed by "?k=v&..." when the query is
// non-empty, values encoded with the space-to-'+' rule.
func RequestTarget(req *message.Request) string {
	path := req.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(req.Query) == 0 {
		return path
	}
	return path + "?" + urlutil.EncodeQuery(req.Query)
}

// WriteRequest serialises req as request-line + headers + body directly
// to t:
//
//	<METHOD> SP <path-with-query> SP HTTP/1.1 CRLF
//	Host: ... CRLF
//	Content-Length: <N> CRLF
//	Accept-Encoding: gzip CRLF
//	<caller headers, in order> CRLF
//	<body bytes>
func WriteRequest(t transport.Transport, req *message.Request) error {
	method := req.Method
	if method == "" {
		method = message.MethodGet
	}

	var b strings.Builder
	b.WriteString(string(method))
	b.WriteByte(' ')
	b.WriteString(RequestTarget(req))
	b.WriteString(" HTTP/1.1\r\n")

	b.WriteString("Host: ")
	b.WriteString(HostHeader(req))
	b.WriteString("\r\n")

	b.WriteString("Content-Length: ")
	b.WriteString(strconv.FormatInt(req.Body.Len(), 10))
	b.WriteString("\r\n")

	b.WriteString("Accept-Encoding: gzip\r\n")

	headers := req.Headers
	for _, name := range reservedRequestHeaders {
		headers = headers.Without(name)
	}
	for _, h := range headers {
		b.WriteString(h.Name)
		b.WriteString(": ")
		b.WriteString(h.Value)
		b.WriteString("\r\n")
	}
	b.WriteString("\r\n")

	if _, err := t.Write([]byte(b.String())); err != nil {
		return err
	}

	if req.Body.Len() == 0 {
		return nil
	}
	body, err := req.Body.Open()
	if err != nil {
		return err
	}
	return writeAll(t, body)
}

func writeAll(t transport.Transport, r io.Reader) error {
	buf := make([]byte, 32*1024)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if _, werr := t.Write(buf[:n]); werr != nil {
				return werr
			}
		}
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
	}
}
