package reassembler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prclm/autoterm-passthrough/internal/protocol"
	"github.com/prclm/autoterm-passthrough/internal/transport/transporttest"
)

func TestStep_NoneWhenIdle(t *testing.T) {
	mock := transporttest.New()
	res, err := Step(mock)
	require.NoError(t, err)
	assert.Equal(t, KindNone, res.Kind)
}

func TestStep_Escape(t *testing.T) {
	mock := transporttest.New()
	mock.Feed([]byte{0x1B})

	res, err := Step(mock)
	require.NoError(t, err)
	assert.Equal(t, KindEscape, res.Kind)
}

// S5 — resync: a garbage byte flushes whatever else is currently pending on
// that side, so each garbage byte must arrive on its own before the valid
// frame that follows it; once it does, Step reads the frame whole.
func TestStep_ResyncsPastGarbage(t *testing.T) {
	frame, err := protocol.Build(protocol.DeviceHeater, 0, 0x0F, nil)
	require.NoError(t, err)

	mock := transporttest.New()
	mock.Feed([]byte{0xFF})

	res, err := Step(mock)
	require.NoError(t, err)
	assert.Equal(t, KindGarbage, res.Kind)

	mock.Feed([]byte{0xFF})
	res, err = Step(mock)
	require.NoError(t, err)
	assert.Equal(t, KindGarbage, res.Kind)

	mock.Feed(frame)
	res, err = Step(mock)
	require.NoError(t, err)
	require.Equal(t, KindFrame, res.Kind)
	assert.Equal(t, frame, res.Raw)

	parsed, err := protocol.Parse(res.Raw)
	require.NoError(t, err)
	assert.Equal(t, byte(protocol.DeviceHeater), parsed.Device)
}

// A garbage byte discards whatever else was already buffered on that side
// (the whole input, not just the one offending byte), matching how a real
// serial driver's flush-input call behaves.
func TestStep_GarbageFlushesRestOfBuffer(t *testing.T) {
	frame, err := protocol.Build(protocol.DeviceHeater, 0, 0x0F, nil)
	require.NoError(t, err)

	mock := transporttest.New()
	mock.Feed(append([]byte{0xFF}, frame...))

	res, err := Step(mock)
	require.NoError(t, err)
	assert.Equal(t, KindGarbage, res.Kind)

	res, err = Step(mock)
	require.NoError(t, err)
	assert.Equal(t, KindNone, res.Kind, "the frame bytes queued behind the garbage byte were flushed away")
}

func TestStep_ReadsCompleteFrame(t *testing.T) {
	frame, err := protocol.Build(protocol.DeviceController, 0x00, 0x01, []byte{0xFF, 0xFF, 0x04, 0x0F, 0x00, 0x06})
	require.NoError(t, err)

	mock := transporttest.New()
	mock.Feed(frame)

	res, err := Step(mock)
	require.NoError(t, err)
	require.Equal(t, KindFrame, res.Kind)
	assert.Equal(t, frame, res.Raw)
}

func TestStep_ForwardsInvalidCRCFrameStructurally(t *testing.T) {
	frame, err := protocol.Build(protocol.DeviceHeater, 0, 0x0F, nil)
	require.NoError(t, err)
	frame[len(frame)-1] ^= 0xFF // corrupt CRC but keep framing structurally intact

	mock := transporttest.New()
	mock.Feed(frame)

	res, err := Step(mock)
	require.NoError(t, err)
	require.Equal(t, KindFrame, res.Kind)
	assert.Equal(t, frame, res.Raw)

	_, err = protocol.Parse(res.Raw)
	assert.ErrorIs(t, err, protocol.ErrBadCRC)
}
