// Package transporttest provides an in-memory transport.Duplex double so
// internal/reassembler and internal/engine tests can
// drive byte streams without a real serial port.
package transporttest

import (
	"fmt"
	"sync"
)

// Mock is a transport.Duplex backed by two in-memory byte queues: Inbound
// is what the code under test reads (tests feed it via Feed), Outbound
// accumulates everything the code under test writes (tests inspect it via
// Written).
type Mock struct {
	mu       sync.Mutex
	inbound  []byte
	outbound []byte
	closed   bool
}

// New returns an empty Mock.
func New() *Mock {
	return &Mock{}
}

// Feed appends bytes as if they had just arrived on the wire.
func (m *Mock) Feed(b []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inbound = append(m.inbound, b...)
}

// Written returns everything written so far, in order.
func (m *Mock) Written() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]byte, len(m.outbound))
	copy(out, m.outbound)
	return out
}

// ResetWritten clears the recorded outbound bytes, useful between
// assertions in a long-running scenario test.
func (m *Mock) ResetWritten() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outbound = m.outbound[:0]
}

func (m *Mock) Pending() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, fmt.Errorf("transporttest: mock closed")
	}
	return len(m.inbound), nil
}

func (m *Mock) ReadExact(n int) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, fmt.Errorf("transporttest: mock closed")
	}
	if len(m.inbound) < n {
		return nil, fmt.Errorf("transporttest: read %d bytes, only %d buffered", n, len(m.inbound))
	}
	out := m.inbound[:n]
	m.inbound = m.inbound[n:]
	return out, nil
}

func (m *Mock) WriteAll(p []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return fmt.Errorf("transporttest: mock closed")
	}
	m.outbound = append(m.outbound, p...)
	return nil
}

func (m *Mock) FlushInput() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inbound = m.inbound[:0]
	return nil
}

func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
