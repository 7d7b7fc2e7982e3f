package transport

import (
	"syscall"

	iouring "github.com/iceber/iouring-go"

	"github.com/nczempin/httpstream/errors"
)

// Unix implements Transport over a Unix domain socket. It is not
// reachable through ParseURL, which only recognises http/https, and
// client.Do never selects it; tests use it to drive protocol.RoundTrip
// against an in-process listener without binding a TCP port.
type Unix struct {
	iour   *iouring.IOURing
	fd     int
	closed bool
}

// NewUnix creates an unconnected Unix-domain-socket transport.
func NewUnix() (*Unix, error) {
	iour, err := iouring.New(32)
	if err != nil {
		return nil, errors.NewTransportError(
			errors.TransportErrorIoUringInit,
			"failed to initialize io_uring",
			err,
		)
	}
	return &Unix{iour: iour, fd: -1}, nil
}

// Connect dials the Unix socket at path. port is ignored.
func (t *Unix) Connect(path string, _ int) error {
	if t.fd >= 0 {
		return errors.NewTransportError(
			errors.TransportErrorSocketConnectFailure,
			"already connected",
			nil,
		)
	}

	fd, err := syscall.Socket(syscall.AF_UNIX, syscall.SOCK_STREAM, 0)
	if err != nil {
		return errors.NewTransportError(
			errors.TransportErrorSocketCreateFailure,
			"failed to create socket",
			err,
		)
	}

	sa := &syscall.SockaddrUnix{Name: path}
	// io_uring connect support for AF_UNIX is limited; dial with a
	// blocking connect instead.
	if err := syscall.Connect(fd, sa); err != nil {
		syscall.Close(fd)
		return errors.NewTransportError(
			errors.TransportErrorSocketConnectFailure,
			"failed to connect to unix socket",
			err,
		)
	}

	t.fd = fd
	return nil
}

// Write sends data over the socket using io_uring.
func (t *Unix) Write(buf []byte) (int, error) {
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

// Read receives one chunk of data from the socket using io_uring.
func (t *Unix) Read(buf []byte) (int, error) {
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

// Close closes the socket. Idempotent.
func (t *Unix) Close() error {
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
func (t *Unix) Destroy() {
	t.Close()
	if t.iour != nil {
		t.iour.Close()
		t.iour = nil
	}
}
