// Package transport defines the byte-duplex abstraction the engine bridges
// between and a serial-backed implementation of it.
package transport

import "time"

// DefaultIOTimeout bounds every blocking read the engine performs, so the
// worker loop (internal/engine) never stalls past this waiting for input on
// a wedged link. Writes are not bounded by a timeout.
const DefaultIOTimeout = 500 * time.Millisecond

// Duplex is one side of the passthrough pair: a byte-oriented, full-duplex
// channel with non-blocking peek, exact-length read, best-effort-complete
// write, and input flush. Implementations must make every method safe to
// call from a single owning goroutine (the engine worker never calls two
// Duplex methods concurrently on the same instance, so implementations are
// not required to be internally thread-safe beyond that).
type Duplex interface {
	// Pending reports how many bytes are available to read without
	// blocking. It blocks at most briefly itself (SerialDuplex waits up to
	// peekTimeout for a first byte).
	Pending() (int, error)

	// ReadExact blocks (up to the implementation's read timeout) until
	// exactly n bytes have been read, or returns an error. Partial reads
	// are never handed back to the caller.
	ReadExact(n int) ([]byte, error)

	// WriteAll writes every byte of p or returns an error; implementations
	// retry short writes internally. SerialDuplex sets no write timeout: it
	// stops only on a write error or a write that makes no progress.
	WriteAll(p []byte) error

	// FlushInput discards any buffered, unread input.
	FlushInput() error

	// Close releases the underlying resource. Close is idempotent.
	Close() error
}

// Pair bundles the two transports the engine bridges. Which one ends up
// bound "heater-side" vs "controller-side" is a runtime decision made by
// internal/router from observed traffic, never from the order ports appear
// here.
type Pair struct {
	A Duplex
	B Duplex
}

// Close closes both sides, returning the first error encountered (if any)
// after attempting both closes.
func (p Pair) Close() error {
	errA := p.A.Close()
	errB := p.B.Close()
	if errA != nil {
		return errA
	}
	return errB
}
