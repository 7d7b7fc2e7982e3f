// Package pool implements the connection pool: a mapping from (host,
// port) to at most one idle plaintext socket, mutated only through
// atomic-from-the-caller's-perspective Acquire/Release/CloseAll
// operations. TLS connections never pass through here.
package pool

import (
	"sync"

	"github.com/nczempin/httpstream/transport"
)

type key struct {
	host string
	port int
}

// Pool is a process-scoped cache of idle plaintext sockets keyed by
// origin. The zero value is not usable; construct with New.
type Pool struct {
	mu   sync.Mutex
	idle map[key]*transport.Plaintext
}

// New creates an empty pool.
func New() *Pool {
	return &Pool{idle: make(map[key]*transport.Plaintext)}
}

// Acquire atomically removes and returns the idle socket held for
// (host, port), or (nil, false) if none is pooled.
func (p *Pool) Acquire(host string, port int) (*transport.Plaintext, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	k := key{host, port}
	conn, ok := p.idle[k]
	if ok {
		delete(p.idle, k)
	}
	return conn, ok
}

// Release atomically inserts conn as the idle socket for (host, port).
// If a prior entry existed under that key, it is closed after the swap:
// the pool holds at most one idle socket per key, and a racing release
// replaces the older one. The replaced socket is
// liveness-probed first (transport.ProbeAlive); the probe result is
// discarded, and the socket is destroyed whatever it reports.
func (p *Pool) Release(host string, port int, conn *transport.Plaintext) {
	p.mu.Lock()
	k := key{host, port}
	prior, hadPrior := p.idle[k]
	p.idle[k] = conn
	p.mu.Unlock()

	if hadPrior && prior != nil {
		transport.ProbeAlive(prior.FD())
		prior.Destroy()
	}
}

// CloseAll atomically drains the pool and closes every socket held.
func (p *Pool) CloseAll() {
	p.mu.Lock()
	drained := p.idle
	p.idle = make(map[key]*transport.Plaintext)
	p.mu.Unlock()

	for _, conn := range drained {
		conn.Destroy()
	}
}

// Len reports the number of idle sockets currently pooled, for tests
// verifying the "at most one entry per (host, port)" and "after
// closing the pool, no sockets remain" properties.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.idle)
}
