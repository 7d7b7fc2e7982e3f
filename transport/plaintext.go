package transport

import (
	"context"
	"fmt"
	"net"
	"syscall"

	iouring "github.com/iceber/iouring-go"
	sockaddr "github.com/libp2p/go-sockaddr"

	"github.com/nczempin/httpstream/errors"
)

// Plaintext implements Transport over a raw TCP socket driven by
// io_uring. Address resolution goes through
// net.DefaultResolver.LookupIPAddr so a host name resolves to whichever
// address family the resolver returns first, and the connection dials
// that first resolved address.
type Plaintext struct {
	iour   *iouring.IOURing
	fd     int
	closed bool
}

// NewPlaintext creates an unconnected plaintext transport with its own
// io_uring instance (queue depth 32).
func NewPlaintext() (*Plaintext, error) {
	iour, err := iouring.New(32)
	if err != nil {
		return nil, errors.NewTransportError(
			errors.TransportErrorIoUringInit,
			"failed to initialize io_uring",
			err,
		)
	}
	return &Plaintext{iour: iour, fd: -1}, nil
}

// Connect resolves host and dials the first resolved address on port
// using io_uring.
func (t *Plaintext) Connect(host string, port int) error {
	if t.fd >= 0 {
		return errors.NewTransportError(
			errors.TransportErrorSocketConnectFailure,
			"already connected",
			nil,
		)
	}

	ipAddrs, err := net.DefaultResolver.LookupIPAddr(context.Background(), host)
	if err != nil || len(ipAddrs) == 0 {
		return errors.NewTransportError(
			errors.TransportErrorDnsFailure,
			fmt.Sprintf("failed to resolve %s", host),
			err,
		)
	}
	ip := ipAddrs[0].IP

	family := syscall.AF_INET
	if ip.To4() == nil {
		family = syscall.AF_INET6
	}

	fd, err := syscall.Socket(family, syscall.SOCK_STREAM, 0)
	if err != nil {
		return errors.NewTransportError(
			errors.TransportErrorSocketCreateFailure,
			"failed to create socket",
			err,
		)
	}

	if err := syscall.SetNonblock(fd, true); err != nil {
		syscall.Close(fd)
		return errors.NewTransportError(
			errors.TransportErrorSocketCreateFailure,
			"failed to set non-blocking mode",
			err,
		)
	}

	if err := syscall.SetsockoptInt(fd, syscall.IPPROTO_TCP, syscall.TCP_NODELAY, 1); err != nil {
		syscall.Close(fd)
		return errors.NewTransportError(
			errors.TransportErrorSocketCreateFailure,
			"failed to set TCP_NODELAY",
			err,
		)
	}

	sa, err := sockaddr.ToSockaddr(&net.TCPAddr{IP: ip, Port: port})
	if err != nil {
		syscall.Close(fd)
		return errors.NewTransportError(
			errors.TransportErrorSocketConnectFailure,
			fmt.Sprintf("failed to build sockaddr for %s:%d", host, port),
			err,
		)
	}

	ch := make(chan iouring.Result, 1)
	prepReq, err := iouring.Connect(fd, sa)
	if err != nil {
		syscall.Close(fd)
		return errors.NewTransportError(
			errors.TransportErrorSocketConnectFailure,
			fmt.Sprintf("failed to build connect request for %s:%d", host, port),
			err,
		)
	}
	if _, err := t.iour.SubmitRequest(prepReq, ch); err != nil {
		syscall.Close(fd)
		return errors.NewTransportError(
			errors.TransportErrorIoUringSubmit,
			"failed to submit connect request",
			err,
		)
	}

	result := <-ch
	if _, err := result.ReturnInt(); err != nil {
		syscall.Close(fd)
		return errors.NewTransportError(
			errors.TransportErrorSocketConnectFailure,
			fmt.Sprintf("failed to connect to %s:%d", host, port),
			err,
		)
	}

	t.fd = fd
	return nil
}

// Write sends data over the connection using io_uring, retrying partial
// sends until buf is fully written.
func (t *Plaintext) Write(buf []byte) (int, error) {
	if t.fd < 0 {
		return 0, errors.NewTransportError(
			errors.TransportErrorSocketWriteFailure,
			"not connected",
			nil,
		)
	}
	if t.closed {
		return 0, errors.NewTransportError(
			errors.TransportErrorConnectionClosed,
			"connection closed",
			nil,
		)
	}

	totalWritten := 0
	for totalWritten < len(buf) {
		ch := make(chan iouring.Result, 1)
		prepReq := iouring.Send(t.fd, buf[totalWritten:], 0)
		if _, err := t.iour.SubmitRequest(prepReq, ch); err != nil {
			return totalWritten, errors.NewTransportError(
				errors.TransportErrorIoUringSubmit,
				"failed to submit write request",
				err,
			)
		}

		result := <-ch
		n, err := result.ReturnInt()
		if err != nil {
			return totalWritten, errors.NewTransportError(
				errors.TransportErrorSocketWriteFailure,
				"write failed",
				err,
			)
		}
		if n <= 0 {
			return totalWritten, errors.NewTransportError(
				errors.TransportErrorConnectionClosed,
				"connection closed during write",
				nil,
			)
		}
		totalWritten += n
	}

	return totalWritten, nil
}

// Read receives one chunk of data from the connection using io_uring.
// Callers may pass any buffer length: the streaming body pipeline
// reuses this to pull DefaultReadBufferSize chunks at a time.
func (t *Plaintext) Read(buf []byte) (int, error) {
	if t.fd < 0 {
		return 0, errors.NewTransportError(
			errors.TransportErrorSocketReadFailure,
			"not connected",
			nil,
		)
	}
	if t.closed {
		return 0, errors.NewTransportError(
			errors.TransportErrorConnectionClosed,
			"connection closed",
			nil,
		)
	}

	ch := make(chan iouring.Result, 1)
	prepReq := iouring.Recv(t.fd, buf, 0)
	if _, err := t.iour.SubmitRequest(prepReq, ch); err != nil {
		return 0, errors.NewTransportError(
			errors.TransportErrorIoUringSubmit,
			"failed to submit read request",
			err,
		)
	}

	result := <-ch
	n, err := result.ReturnInt()
	if err != nil {
		return 0, errors.NewTransportError(
			errors.TransportErrorSocketReadFailure,
			"read failed",
			err,
		)
	}
	if n == 0 && len(buf) > 0 {
		return 0, errors.NewTransportError(
			errors.TransportErrorConnectionClosed,
			"connection closed by peer",
			nil,
		)
	}

	return n, nil
}

// Close closes the underlying socket. Idempotent.
func (t *Plaintext) Close() error {
	if t.fd < 0 {
		return nil
	}
	if !t.closed {
		t.closed = true
		if err := syscall.Close(t.fd); err != nil {
			return errors.NewTransportError(
				errors.TransportErrorConnectionClosed,
				"failed to close socket",
				err,
			)
		}
		t.fd = -1
	}
	return nil
}

// Destroy closes the connection and tears down the io_uring instance.
// The pool calls this (not just Close) when discarding a socket for
// good.
func (t *Plaintext) Destroy() {
	t.Close()
	if t.iour != nil {
		t.iour.Close()
		t.iour = nil
	}
}

// FD exposes the raw file descriptor so the pool can run a liveness
// probe (transport.ProbeAlive) on a socket it is about to discard.
func (t *Plaintext) FD() int {
	return t.fd
}
