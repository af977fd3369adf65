package decoder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prclm/autoterm-passthrough/internal/protocol"
	"github.com/prclm/autoterm-passthrough/internal/state"
)

// S2 — heater status decode.
func TestDecodeHeaterStatus(t *testing.T) {
	regs := state.New()
	now := time.Now()
	frame := &protocol.Frame{
		Device:  protocol.DeviceHeater,
		ID2:     0x0F,
		Payload: []byte{0x03, 0x00, 0x00, 0x18, 0x05, 0x00, 0x8C, 0x01, 0x2C, 0x00},
	}

	outcome := Decode(frame, regs, now)

	assert.True(t, outcome.ClearWriteLock)
	assert.True(t, outcome.ResetStatusPoll)
	assert.False(t, outcome.ShutdownConfirmed)

	snap := regs.Snapshot()
	assert.Equal(t, uint8(3), snap.Status1.Val)
	assert.Equal(t, uint8(0), snap.Status2.Val)
	assert.Equal(t, uint8(0), snap.Errors.Val)
	assert.Equal(t, uint8(24), snap.HeaterTemperature.Val)
	assert.Equal(t, uint8(5), snap.ExternalTemperature.Val)
	assert.InDelta(t, 14.0, snap.BatteryVoltage.Val, 0.001)
	assert.Equal(t, uint16(300), snap.FlameTemperature.Val)
}

func TestDecodeHeaterStatus_ShutdownConfirmed(t *testing.T) {
	regs := state.New()
	frame := &protocol.Frame{
		Device:  protocol.DeviceHeater,
		ID2:     0x0F,
		Payload: []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
	}
	outcome := Decode(frame, regs, time.Now())
	assert.True(t, outcome.ShutdownConfirmed)
}

func TestDecodeHeaterStatus_WrongLengthNotApplied(t *testing.T) {
	regs := state.New()
	frame := &protocol.Frame{
		Device:  protocol.DeviceHeater,
		ID2:     0x0F,
		Payload: []byte{0x03, 0x00},
	}
	outcome := Decode(frame, regs, time.Now())

	require.Len(t, outcome.Events, 1)
	assert.Equal(t, LevelWarn, outcome.Events[0].Level)
	assert.False(t, outcome.ResetStatusPoll)
	assert.False(t, regs.Snapshot().Status1.Valid)
}

func TestDecodeController_ArmsWriteLockAlways(t *testing.T) {
	regs := state.New()
	frame := &protocol.Frame{Device: protocol.DeviceController, ID2: 0x0F}
	outcome := Decode(frame, regs, time.Now())
	assert.True(t, outcome.ArmWriteLock)
}

func TestDecodeController_AskSettingsDoesNotCancelAutoOff(t *testing.T) {
	regs := state.New()
	frame := &protocol.Frame{Device: protocol.DeviceController, ID2: 0x02, Payload: nil}
	outcome := Decode(frame, regs, time.Now())
	assert.False(t, outcome.CancelAutoOff)
}

func TestDecodeController_SetSettingsCancelsAutoOff(t *testing.T) {
	regs := state.New()
	frame := &protocol.Frame{Device: protocol.DeviceController, ID2: 0x02, Payload: []byte{0xFF, 0xFF, 4, 0x0F, 0, 6}}
	outcome := Decode(frame, regs, time.Now())
	assert.True(t, outcome.CancelAutoOff)
}

func TestDecodeController_TurnOnAndOffCancelAutoOff(t *testing.T) {
	regs := state.New()
	for _, id2 := range []byte{0x01, 0x03} {
		frame := &protocol.Frame{Device: protocol.DeviceController, ID2: id2}
		outcome := Decode(frame, regs, time.Now())
		assert.True(t, outcome.CancelAutoOff, "id2=0x%02x", id2)
	}
}

func TestDecodeController_ReportsControllerTemperature(t *testing.T) {
	regs := state.New()
	frame := &protocol.Frame{Device: protocol.DeviceController, ID2: 0x11, Payload: []byte{21}}
	Decode(frame, regs, time.Now())

	assert.Equal(t, uint8(21), regs.Snapshot().ControllerTemperature.Val)
}

func TestDecodeHeater_SettingsUpdate(t *testing.T) {
	regs := state.New()
	frame := &protocol.Frame{
		Device:  protocol.DeviceHeater,
		ID2:     0x01,
		Payload: []byte{0xFF, 0xFF, 4, 0x0F, 0, 6},
	}
	outcome := Decode(frame, regs, time.Now())

	assert.True(t, outcome.ResetSettingsPoll)
	snap := regs.Snapshot()
	assert.Equal(t, uint8(4), snap.Mode.Val)
	assert.Equal(t, uint8(0x0F), snap.Setpoint.Val)
	assert.Equal(t, uint8(0), snap.Ventilation.Val)
	assert.Equal(t, uint8(6), snap.PowerLevel.Val)
}

func TestDecodeHeater_SoftwareVersion(t *testing.T) {
	regs := state.New()
	frame := &protocol.Frame{
		Device:  protocol.DeviceHeater,
		ID2:     0x06,
		Payload: []byte{1, 2, 3, 4, 0},
	}
	Decode(frame, regs, time.Now())

	assert.Equal(t, [4]byte{1, 2, 3, 4}, regs.Snapshot().HeaterSoftwareVersion.Val)
}

func TestDecodeDiagnosticDump(t *testing.T) {
	regs := state.New()
	payload := make([]byte, 72)
	payload[0] = 0x01
	payload[1] = 0x02
	payload[7], payload[8] = 0x01, 0x00   // counter1 = 256
	payload[10], payload[11] = 0x00, 0x05 // counter2 = 5
	payload[12] = 9                       // defined rev
	payload[13] = 10                      // measured rev
	payload[15] = 1                       // fuel pump1
	payload[17] = 2                       // fuel pump2
	payload[19], payload[20] = 0x00, 0x64 // chamber temp = 100
	payload[21], payload[22] = 0x01, 0x2C // flame temp = 300
	payload[25] = 7                       // external temp
	payload[26] = 22                      // heater temp
	payload[28] = 123                     // battery voltage raw

	frame := &protocol.Frame{Device: protocol.DeviceDiagnostic, ID2: 0x01, Payload: payload}
	outcome := Decode(frame, regs, time.Now())
	require.Empty(t, filterLevel(outcome.Events, LevelWarn))

	snap := regs.Snapshot()
	assert.Equal(t, uint8(1), snap.DStatus1.Val)
	assert.Equal(t, uint8(2), snap.DStatus2.Val)
	assert.Equal(t, uint16(256), snap.DCounter1.Val)
	assert.Equal(t, uint16(5), snap.DCounter2.Val)
	assert.Equal(t, uint8(9), snap.DDefinedRev.Val)
	assert.Equal(t, uint8(10), snap.DMeasuredRev.Val)
	assert.Equal(t, uint16(100), snap.DChamberTemperature.Val)
	assert.Equal(t, uint16(300), snap.DFlameTemperature.Val)
	assert.Equal(t, uint8(7), snap.DExternalTemperature.Val)
	assert.Equal(t, uint8(22), snap.DHeaterTemperature.Val)
	assert.Equal(t, uint8(123), snap.DBatteryVoltage.Val)
}

func filterLevel(events []Event, level Level) []Event {
	var out []Event
	for _, e := range events {
		if e.Level == level {
			out = append(out, e)
		}
	}
	return out
}
