package transport

import (
	"fmt"
	"sync"
	"time"

	"go.bug.st/serial"
)

// peekTimeout is how long OpenSerial's Pending() blocks hoping for at least
// one byte before giving up and reporting zero. It must stay well under
// DefaultIOTimeout so a quiet link never starves the worker's other side.
const peekTimeout = 5 * time.Millisecond

// SerialDuplex adapts a go.bug.st/serial port to the Duplex interface. The
// underlying library has no "bytes waiting" primitive portable across
// platforms (unlike pyserial's inWaiting, which the original Python
// implementation leaned on directly), so Pending is synthesized: it does a
// short, bounded read and buffers whatever comes back for the next
// ReadExact to drain first.
type SerialDuplex struct {
	mu   sync.Mutex
	port serial.Port
	peek []byte
}

// OpenSerial opens a named serial device at 8-N-1, the framing the
// Autoterm link requires, at the given baud rate.
func OpenSerial(path string, baud int) (*SerialDuplex, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("transport: open %s: %w", path, err)
	}
	if err := port.SetReadTimeout(DefaultIOTimeout); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("transport: set read timeout on %s: %w", path, err)
	}
	if err := port.ResetInputBuffer(); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("transport: flush input on %s: %w", path, err)
	}
	return &SerialDuplex{port: port}, nil
}

func (s *SerialDuplex) Pending() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.peek) > 0 {
		return len(s.peek), nil
	}

	if err := s.port.SetReadTimeout(peekTimeout); err != nil {
		return 0, fmt.Errorf("transport: peek: %w", err)
	}
	buf := make([]byte, 256)
	n, err := s.port.Read(buf)
	if restoreErr := s.port.SetReadTimeout(DefaultIOTimeout); restoreErr != nil && err == nil {
		err = restoreErr
	}
	if err != nil {
		return 0, fmt.Errorf("transport: peek: %w", err)
	}
	if n > 0 {
		s.peek = append(s.peek, buf[:n]...)
	}
	return len(s.peek), nil
}

func (s *SerialDuplex) ReadExact(n int) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]byte, 0, n)
	if take := min(len(s.peek), n); take > 0 {
		out = append(out, s.peek[:take]...)
		s.peek = s.peek[take:]
	}
	for len(out) < n {
		buf := make([]byte, n-len(out))
		r, err := s.port.Read(buf)
		if err != nil {
			return nil, fmt.Errorf("transport: read: %w", err)
		}
		if r == 0 {
			return nil, fmt.Errorf("transport: read: timed out after %d/%d bytes", len(out), n)
		}
		out = append(out, buf[:r]...)
	}
	return out, nil
}

func (s *SerialDuplex) WriteAll(p []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	written := 0
	for written < len(p) {
		n, err := s.port.Write(p[written:])
		if err != nil {
			return fmt.Errorf("transport: write: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("transport: write: no progress, link likely dead")
		}
		written += n
	}
	return nil
}

func (s *SerialDuplex) FlushInput() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.peek = s.peek[:0]
	if err := s.port.ResetInputBuffer(); err != nil {
		return fmt.Errorf("transport: flush input: %w", err)
	}
	return nil
}

func (s *SerialDuplex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port.Close()
}
