package engine

import (
	"time"

	"github.com/prclm/autoterm-passthrough/internal/protocol"
	"github.com/prclm/autoterm-passthrough/internal/state"
)

// Command methods below only ever append to the injection queue or touch
// e.timers; they never block on transport I/O and are safe to call from any
// goroutine.

// AsksForStatus enqueues a controller "ask status" frame.
func (e *Engine) AsksForStatus() {
	e.enqueueControllerFrame("ask status", 0x0F, nil, false)
}

// AsksForSettings enqueues a controller "ask settings" frame (empty payload).
func (e *Engine) AsksForSettings() {
	e.enqueueControllerFrame("ask settings", 0x02, nil, false)
}

// AsksForSoftwareVersion enqueues a controller init-variant frame that
// prompts the heater to report its software version.
func (e *Engine) AsksForSoftwareVersion() {
	e.enqueueControllerFrame("ask software version", 0x06, nil, false)
}

// ReportControllerTemperature enqueues a controller temperature report.
func (e *Engine) ReportControllerTemperature(t uint8) {
	e.enqueueControllerFrame("report controller temperature", 0x11, []byte{t}, false)
}

// Shutdown arms the shutdown-retry sequence; it does not itself enqueue
// anything, the timer does that on its own schedule.
func (e *Engine) Shutdown() {
	e.timers.RequestShutdown(time.Now())
}

// TurnOnHeater enqueues (twice — the OEM panel itself repeats this command
// on the wire) a frame that starts the heater in the given mode with the
// given setpoint, ventilation level, and power level. timer, if non-nil,
// also arms the auto-off deadline.
func (e *Engine) TurnOnHeater(mode, setpoint, ventilation, power uint8, timer *time.Duration) {
	payload := []byte{0xFF, 0xFF, mode, setpoint, ventilation, power}
	e.enqueueControllerFrame("turn on heater", 0x01, payload, true)
	e.armAutoOffIfSet(timer)
}

// TurnOnVentilation enqueues (twice) a frame that starts ventilation-only
// mode at the given power level.
func (e *Engine) TurnOnVentilation(power uint8, timer *time.Duration) {
	payload := []byte{0xFF, 0xFF, power, 0x0F}
	e.enqueueControllerFrame("turn on ventilation", 0x23, payload, true)
	e.armAutoOffIfSet(timer)
}

// ChangeSettings enqueues (twice) a settings-change frame with the same
// payload shape as TurnOnHeater.
func (e *Engine) ChangeSettings(mode, setpoint, ventilation, power uint8, timer *time.Duration) {
	payload := []byte{0xFF, 0xFF, mode, setpoint, ventilation, power}
	e.enqueueControllerFrame("change settings", 0x02, payload, true)
	e.armAutoOffIfSet(timer)
}

// DiagnosticOn enqueues the diagnostic-mode-enable frame.
func (e *Engine) DiagnosticOn() {
	e.enqueueControllerFrame("diagnostic on", 0x07, []byte{0x01}, false)
}

// DiagnosticOff enqueues the diagnostic-mode-disable frame.
func (e *Engine) DiagnosticOff() {
	e.enqueueControllerFrame("diagnostic off", 0x07, []byte{0x00}, false)
}

// Unblock enqueues the 0x0D "unblock" frame.
func (e *Engine) Unblock() {
	e.enqueueControllerFrame("unblock", 0x0D, nil, false)
}

// SetHeaterTimer arms the auto-off deadline minutes from now.
func (e *Engine) SetHeaterTimer(minutes int) {
	e.timers.SetAutoOff(time.Now().Add(time.Duration(minutes) * time.Minute))
}

// GetHeaterTimer reports the current auto-off deadline, if armed.
func (e *Engine) GetHeaterTimer() (time.Time, bool) {
	return e.timers.AutoOffDeadline()
}

// CancelHeaterTimer disarms the auto-off deadline without affecting any
// shutdown request already in flight.
func (e *Engine) CancelHeaterTimer() {
	e.timers.CancelAutoOff()
}

// Snapshot returns the current register snapshot.
func (e *Engine) Snapshot() state.Snapshot {
	return e.regs.Snapshot()
}

// GetHeaterStatusText maps the current status1 register through the fixed
// human-readable table.
func (e *Engine) GetHeaterStatusText() string {
	snap := e.regs.Snapshot()
	return state.HeaterStatusText(snap.Status1.Val, snap.Status1.Valid)
}

func (e *Engine) armAutoOffIfSet(timer *time.Duration) {
	if timer != nil {
		e.timers.SetAutoOff(time.Now().Add(*timer))
	}
}

func (e *Engine) enqueueControllerFrame(action string, id2 byte, payload []byte, twice bool) {
	frame, err := protocol.BuildControllerFrame(id2, payload)
	if err != nil {
		enqueueError(e, action, err)
		return
	}
	if twice {
		e.queue.EnqueueTwice(frame)
	} else {
		e.queue.Enqueue(frame)
	}
}
