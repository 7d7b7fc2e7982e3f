package transport

import (
	"github.com/godzie44/go-uring/uring"
)

// ProbeAlive performs a zero-length, non-blocking peek read on a pooled
// Plaintext socket's file descriptor using a second io_uring backend
// (godzie44/go-uring), separate from the one each Plaintext connection
// owns for its own dial/read/write path. It confirms a socket the pool
// is about to discard (the one Release's swap displaced) hasn't
// already been closed by the peer, so the liveness check never blocks
// waiting on a connection that is still genuinely idle.
//
// Returns true if the socket still appears open. A probe failure is
// treated as "can't tell" and reported as alive, since ProbeAlive is a
// best-effort optimisation, not a correctness requirement: Close is
// always safe to call on an already-closed fd.
func ProbeAlive(fd int) bool {
	if fd < 0 {
		return false
	}

	ring, err := uring.New(1)
	if err != nil {
		return true
	}
	defer ring.Close()

	var peek [1]byte
	sqe := uring.Read(uintptr(fd), peek[:0], 0)
	if err := ring.QueueSQE(sqe, 0, 0); err != nil {
		return true
	}
	if _, err := ring.Submit(); err != nil {
		return true
	}

	cqe, err := ring.WaitCQEvents(1)
	if err != nil {
		return true
	}
	defer ring.SeenCQE(cqe)

	if err := cqe.Error(); err != nil {
		return false
	}
	// A zero-length read never reports EOF (res == 0) on a live,
	// data-less socket; a negative Res here would have surfaced via
	// cqe.Error() above.
	return true
}
