// Package decoder maps (device, msg_id2, payload) onto state mutations and
// log events. A decoder call never touches transports or timers directly;
// it returns an Outcome describing what the engine worker should do next
// (log lines to emit, write-lock arm/clear, which poll deadlines to reset,
// whether an auto-off timer should be cancelled). This keeps the message
// dispatch logic a simple, decoupled data-producing step with no direct
// dependency on the timer or write-lock packages.
package decoder

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/prclm/autoterm-passthrough/internal/protocol"
	"github.com/prclm/autoterm-passthrough/internal/state"
)

// Level is the severity of one logged Event.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
)

// Event is one human-readable log line produced while decoding a frame.
type Event struct {
	Level   Level
	Message string
}

// Outcome is everything the engine worker needs to react to after a frame
// crosses the decoder: log events to emit, and write-lock/timer side
// effects.
type Outcome struct {
	Events []Event

	ArmWriteLock   bool // a controller-origin frame was observed
	ClearWriteLock bool // a heater-origin frame was observed

	ResetStatusPoll   bool // a heater status reply was received
	ResetSettingsPoll bool // a heater settings reply was received

	CancelAutoOff     bool // a controller settings-changing frame was observed
	ShutdownConfirmed bool // heater status reported status1 == 0
}

func (o *Outcome) logf(level Level, format string, args ...interface{}) {
	o.Events = append(o.Events, Event{Level: level, Message: fmt.Sprintf(format, args...)})
}

// Decode applies frame to regs and reports the resulting Outcome. now is
// the monotonic instant the frame was decoded, stamped onto any register
// Decode mutates.
func Decode(frame *protocol.Frame, regs *state.Registers, now time.Time) Outcome {
	switch frame.Device {
	case protocol.DeviceInit:
		var o Outcome
		o.logf(LevelInfo, "initialization message on broadcast device (id1=0x%02x id2=0x%02x)", frame.ID1, frame.ID2)
		return o
	case protocol.DeviceDiagnostic:
		return decodeDiagnostic(frame, regs, now)
	case protocol.DeviceController:
		return decodeController(frame, regs, now)
	case protocol.DeviceHeater:
		return decodeHeater(frame, regs, now)
	default:
		var o Outcome
		o.logf(LevelWarn, "unrecognized device code 0x%02x", frame.Device)
		return o
	}
}

func decodeDiagnostic(frame *protocol.Frame, regs *state.Registers, now time.Time) Outcome {
	var o Outcome
	switch frame.ID2 {
	case 0x00:
		o.logf(LevelInfo, "diagnostic bus initialization")
	case 0x01:
		if len(frame.Payload) != 72 {
			o.logf(LevelWarn, "diagnostic dump with unexpected payload length %d (want 72)", len(frame.Payload))
			return o
		}
		p := frame.Payload
		regs.SetDiagnostics(state.Diagnostics{
			Status1:             p[0],
			Status2:             p[1],
			Counter1:            binary.BigEndian.Uint16(p[7:9]),
			Counter2:            binary.BigEndian.Uint16(p[10:12]),
			DefinedRev:          p[12],
			MeasuredRev:         p[13],
			FuelPump1:           p[15],
			FuelPump2:           p[17],
			ChamberTemperature:  binary.BigEndian.Uint16(p[19:21]),
			FlameTemperature:    binary.BigEndian.Uint16(p[21:23]),
			ExternalTemperature: p[25],
			HeaterTemperature:   p[26],
			BatteryVoltage:      p[28],
		}, now)
		o.logf(LevelInfo, "diagnostic dump decoded")
	default:
		o.logf(LevelWarn, "unknown diagnostic message id2=0x%02x", frame.ID2)
	}
	return o
}

func decodeController(frame *protocol.Frame, regs *state.Registers, now time.Time) Outcome {
	var o Outcome
	o.ArmWriteLock = true

	switch frame.ID2 {
	case 0x01:
		o.CancelAutoOff = true
		o.logf(LevelInfo, "panel turns heater on with settings %x", safeTail(frame.Payload, 2))
	case 0x02:
		if len(frame.Payload) == 0 {
			o.logf(LevelInfo, "panel asks for settings")
		} else {
			o.CancelAutoOff = true
			o.logf(LevelInfo, "panel sets new settings %x", safeTail(frame.Payload, 2))
		}
	case 0x03:
		o.CancelAutoOff = true
		o.logf(LevelInfo, "panel turns off the heater")
	case 0x04, 0x06, 0x1C:
		o.logf(LevelInfo, "panel sends initialization message (id2=0x%02x)", frame.ID2)
	case 0x0F:
		o.logf(LevelInfo, "panel asks for status")
	case 0x11:
		if len(frame.Payload) != 1 {
			o.logf(LevelWarn, "panel temperature report with unexpected payload length %d (want 1)", len(frame.Payload))
			break
		}
		regs.SetControllerTemperature(frame.Payload[0], now)
		o.logf(LevelInfo, "panel reports temperature %d C", frame.Payload[0])
	case 0x23:
		o.logf(LevelInfo, "panel turns ventilation on with settings %x", safeTail(frame.Payload, 2))
	default:
		o.logf(LevelWarn, "unknown controller message id2=0x%02x", frame.ID2)
	}
	return o
}

func decodeHeater(frame *protocol.Frame, regs *state.Registers, now time.Time) Outcome {
	var o Outcome
	o.ClearWriteLock = true

	switch frame.ID2 {
	case 0x01, 0x02:
		if len(frame.Payload) != 6 {
			o.logf(LevelWarn, "heater settings report with unexpected payload length %d (want 6)", len(frame.Payload))
			break
		}
		p := frame.Payload
		regs.SetSettings(p[2], p[3], p[4], p[5], now)
		o.ResetSettingsPoll = true
		o.logf(LevelInfo, "heater reports settings %x", p)
	case 0x03:
		o.logf(LevelInfo, "heater confirms turning off")
	case 0x04, 0x1C:
		o.logf(LevelInfo, "heater responds to initialization message (id2=0x%02x)", frame.ID2)
	case 0x06:
		if len(frame.Payload) != 5 {
			o.logf(LevelWarn, "heater software version report with unexpected payload length %d (want 5)", len(frame.Payload))
			break
		}
		var version [4]byte
		copy(version[:], frame.Payload[0:4])
		regs.SetHeaterSoftwareVersion(version, now)
		o.logf(LevelInfo, "heater reports software version %x", version)
	case 0x0F:
		if len(frame.Payload) != 10 {
			o.logf(LevelWarn, "heater status report with unexpected payload length %d (want 10)", len(frame.Payload))
			break
		}
		p := frame.Payload
		batteryVoltage := float32(p[6]) / 10
		flameTemperature := binary.BigEndian.Uint16(p[7:9])
		regs.SetStatus(p[0], p[1], p[2], p[3], p[4], batteryVoltage, flameTemperature, now)
		o.ResetStatusPoll = true
		o.ShutdownConfirmed = p[0] == 0
		o.logf(LevelInfo, "heater reports status %x", p)
	case 0x11:
		o.logf(LevelInfo, "heater confirms panel temperature")
	case 0x23:
		o.logf(LevelInfo, "heater confirms turning ventilation on")
	default:
		o.logf(LevelWarn, "unknown heater message id2=0x%02x", frame.ID2)
	}
	return o
}

// safeTail returns payload[n:] or an empty slice if payload is shorter than
// n, purely for best-effort log messages that must never index out of
// range on a malformed frame.
func safeTail(payload []byte, n int) []byte {
	if len(payload) < n {
		return nil
	}
	return payload[n:]
}
