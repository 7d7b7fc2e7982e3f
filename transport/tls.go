package transport

import (
	"crypto/tls"
	"fmt"
	"io"
	"net"

	"github.com/nczempin/httpstream/errors"
)

// TLS implements Transport over crypto/tls, treating the TLS handshake
// and record layer as an external collaborator rather than something
// to reimplement. It dials plainly with net.Dial rather than routing
// through Plaintext/io_uring: TLS connections are never pooled, a
// deliberate simplification, so there is nothing to gain from sharing
// the io_uring-backed socket path, and crypto/tls needs a net.Conn, not
// a raw file descriptor.
type TLS struct {
	conn   *tls.Conn
	config *tls.Config
}

// NewTLS creates a TLS transport that will use config on Connect. A nil
// config is replaced with a zero-value *tls.Config (system roots,
// negotiated version).
func NewTLS(config *tls.Config) *TLS {
	if config == nil {
		config = &tls.Config{}
	}
	return &TLS{config: config}
}

// Connect dials host:port and performs the TLS handshake, with
// ServerName defaulted to host when the caller's config didn't set one.
func (t *TLS) Connect(host string, port int) error {
	cfg := t.config
	if cfg.ServerName == "" {
		cfg = cfg.Clone()
		cfg.ServerName = host
	}

	addr := fmt.Sprintf("%s:%d", host, port)
	rawConn, err := net.Dial("tcp", addr)
	if err != nil {
		return errors.NewTransportError(
			errors.TransportErrorSocketConnectFailure,
			fmt.Sprintf("failed to connect to %s", addr),
			err,
		)
	}

	tlsConn := tls.Client(rawConn, cfg)
	if err := tlsConn.Handshake(); err != nil {
		rawConn.Close()
		return errors.NewTransportError(
			errors.TransportErrorTLSHandshake,
			fmt.Sprintf("TLS handshake with %s failed", addr),
			err,
		)
	}

	t.conn = tlsConn
	return nil
}

// Write sends data over the TLS stream, retrying partial writes.
func (t *TLS) Write(buf []byte) (int, error) {
	if t.conn == nil {
		return 0, errors.NewTransportError(
			errors.TransportErrorSocketWriteFailure,
			"not connected",
			nil,
		)
	}
	totalWritten := 0
	for totalWritten < len(buf) {
		n, err := t.conn.Write(buf[totalWritten:])
		if err != nil {
			return totalWritten, errors.NewTransportError(
				errors.TransportErrorSocketWriteFailure,
				"write failed",
				err,
			)
		}
		totalWritten += n
	}
	return totalWritten, nil
}

// Read receives one chunk of data from the TLS stream. A clean peer
// close (io.EOF or io.ErrUnexpectedEOF surfacing from the record
// layer) is reported as TransportErrorConnectionClosed, mirroring
// Plaintext.Read's contract so stream-to-EOF body framing terminates
// the same way over TLS as over plaintext.
func (t *TLS) Read(buf []byte) (int, error) {
	if t.conn == nil {
		return 0, errors.NewTransportError(
			errors.TransportErrorSocketReadFailure,
			"not connected",
			nil,
		)
	}
	n, err := t.conn.Read(buf)
	if err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return n, errors.NewTransportError(
				errors.TransportErrorConnectionClosed,
				"connection closed by peer",
				nil,
			)
		}
		return n, errors.NewTransportError(
			errors.TransportErrorSocketReadFailure,
			"read failed",
			err,
		)
	}
	return n, nil
}

// Close closes the TLS stream and its underlying socket.
func (t *TLS) Close() error {
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	if err != nil {
		return errors.NewTransportError(
			errors.TransportErrorConnectionClosed,
			"failed to close TLS connection",
			err,
		)
	}
	return nil
}
