// Package reassembler implements the per-side streaming parser: resync on
// the preamble byte, pull a length-prefixed frame body, or recognize the
// lone escape byte. It never validates CRC or device code — that is
// protocol.Parse's job, invoked by the engine only after the raw bytes have
// already been forwarded, preserving end-to-end transparency.
package reassembler

import (
	"fmt"

	"github.com/prclm/autoterm-passthrough/internal/protocol"
	"github.com/prclm/autoterm-passthrough/internal/transport"
)

// Escape is the legacy "initialization" marker, forwarded raw one byte at a
// time and never wrapped in a frame.
const Escape = 0x1B

// Kind classifies what one Step call observed.
type Kind int

const (
	// KindNone means no bytes were pending; the caller should move on to
	// the other side or sleep briefly.
	KindNone Kind = iota
	// KindEscape means a single 0x1B byte was read and must be forwarded
	// verbatim to the other side.
	KindEscape
	// KindGarbage means a non-preamble, non-escape byte was read and the
	// side's input buffer was flushed; nothing is forwarded.
	KindGarbage
	// KindFrame means a complete, structurally-framed candidate (preamble
	// through CRC) was read. It may still fail CRC/device validation;
	// the caller forwards Raw regardless.
	KindFrame
)

// Result is the outcome of one Step call.
type Result struct {
	Kind Kind
	Raw  []byte // populated only when Kind == KindFrame
}

// Step performs at most one framing event read from src: an escape byte, a
// garbage byte (disposed), or one complete candidate frame. It mirrors the
// shape of a classic per-side read loop, generalized from a fixed
// sync-byte-pair framing to this protocol's single preamble byte plus
// length-prefixed body.
//
// Step never blocks waiting for more bytes to arrive on a quiet line: it
// only acts when src.Pending() reports bytes are already available, so the
// engine worker's poll cycle stays responsive to the other side too.
func Step(src transport.Duplex) (Result, error) {
	pending, err := src.Pending()
	if err != nil {
		return Result{}, fmt.Errorf("reassembler: pending: %w", err)
	}
	if pending == 0 {
		return Result{Kind: KindNone}, nil
	}

	lead, err := src.ReadExact(1)
	if err != nil {
		return Result{}, fmt.Errorf("reassembler: read lead byte: %w", err)
	}

	switch lead[0] {
	case Escape:
		return Result{Kind: KindEscape}, nil

	case protocol.Preamble:
		header, err := src.ReadExact(2)
		if err != nil {
			return Result{}, fmt.Errorf("reassembler: read device/length: %w", err)
		}
		length := int(header[1])
		tail, err := src.ReadExact(length + 4) // id1, id2, payload, 2-byte CRC
		if err != nil {
			return Result{}, fmt.Errorf("reassembler: read frame body: %w", err)
		}
		raw := make([]byte, 0, 3+len(tail))
		raw = append(raw, lead[0], header[0], header[1])
		raw = append(raw, tail...)
		return Result{Kind: KindFrame, Raw: raw}, nil

	default:
		if err := src.FlushInput(); err != nil {
			return Result{}, fmt.Errorf("reassembler: flush after garbage byte: %w", err)
		}
		return Result{Kind: KindGarbage}, nil
	}
}
