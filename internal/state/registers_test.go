package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNew_AllRegistersStartInvalid(t *testing.T) {
	snap := New().Snapshot()

	assert.False(t, snap.Mode.Valid)
	assert.False(t, snap.Status1.Valid)
	assert.False(t, snap.DBatteryVoltage.Valid)
	assert.False(t, snap.HeaterSoftwareVersion.Valid)
	assert.True(t, snap.Mode.Time.IsZero())
}

// S2 — the already-converted heater status values land in the right
// registers (the raw-byte conversions are covered by the decoder tests).
func TestSetStatus(t *testing.T) {
	regs := New()
	now := time.Now()

	regs.SetStatus(3, 0, 0, 24, 5, 14.0, 300, now)

	snap := regs.Snapshot()
	assert.Equal(t, uint8(3), snap.Status1.Val)
	assert.Equal(t, uint8(0), snap.Status2.Val)
	assert.Equal(t, uint8(0), snap.Errors.Val)
	assert.Equal(t, uint8(24), snap.HeaterTemperature.Val)
	assert.Equal(t, uint8(5), snap.ExternalTemperature.Val)
	assert.InDelta(t, 14.0, snap.BatteryVoltage.Val, 0.001)
	assert.Equal(t, uint16(300), snap.FlameTemperature.Val)
	assert.True(t, snap.Status1.Valid)
	assert.False(t, snap.Status1.Time.Before(now))
}

func TestSetSettings(t *testing.T) {
	regs := New()
	now := time.Now()
	regs.SetSettings(4, 0x0F, 0, 6, now)

	snap := regs.Snapshot()
	assert.Equal(t, uint8(4), snap.Mode.Val)
	assert.Equal(t, uint8(0x0F), snap.Setpoint.Val)
	assert.Equal(t, uint8(0), snap.Ventilation.Val)
	assert.Equal(t, uint8(6), snap.PowerLevel.Val)
}

func TestHeaterStatusText(t *testing.T) {
	cases := map[uint8]string{
		0: "heater off",
		1: "starting",
		2: "warming up",
		3: "running",
		4: "shutting down",
		9: "unknown",
	}
	for status, want := range cases {
		assert.Equal(t, want, HeaterStatusText(status, true))
	}
	assert.Equal(t, "unknown", HeaterStatusText(3, false))
}

func TestSnapshotIsIndependentCopy(t *testing.T) {
	regs := New()
	regs.SetMode(1, time.Now())
	snap1 := regs.Snapshot()

	regs.SetMode(2, time.Now())
	snap2 := regs.Snapshot()

	assert.Equal(t, uint8(1), snap1.Mode.Val)
	assert.Equal(t, uint8(2), snap2.Mode.Val)
}
