package protocol

import (
	"bufio"
	"io"

	"github.com/nczempin/httpstream/message"
	"github.com/nczempin/httpstream/transport"
)

// RoundTrip performs one HTTP/1.1 request/response exchange over t: it
// writes req, reads the status line and headers, and builds the framed,
// optionally gzip-decompressed body stream as a pull-based reader rather
// than buffering the whole response up front.
func RoundTrip(t transport.Transport, req *message.Request) (message.Status, message.Headers, io.Reader, error) {
	if err := WriteRequest(t, req); err != nil {
		return message.Status{}, nil, nil, err
	}

	r := bufio.NewReaderSize(transportReader{t}, transport.DefaultReadBufferSize)
	status, headers, err := ReadStatusAndHeaders(r)
	if err != nil {
		return message.Status{}, nil, nil, err
	}

	framed := NewBodyReader(req.Method, headers, r)
	body, err := MaybeDecompress(headers, framed)
	if err != nil {
		return message.Status{}, nil, nil, err
	}

	return status, headers, body, nil
}

// transportReader adapts transport.Transport's Read(buf) (int, error)
// to io.Reader — the two already share the same method signature, this
// just names the conversion so bufio.NewReader's argument type is
// satisfied without an unsafe type assertion.
type transportReader struct {
	t transport.Transport
}

func (r transportReader) Read(p []byte) (int, error) {
	return r.t.Read(p)
}
