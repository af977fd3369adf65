package timers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTick_StatusPollFiresAfterPeriodWhenUnlocked(t *testing.T) {
	now := time.Now()
	tm := New(5*time.Second, 5*time.Second, 10*time.Second, now)

	a := tm.Tick(now.Add(4*time.Second), false)
	assert.False(t, a.AskStatus)

	a = tm.Tick(now.Add(5*time.Second), false)
	assert.True(t, a.AskStatus)
}

func TestTick_StatusPollSuppressedWhileWriteLockHeld(t *testing.T) {
	now := time.Now()
	tm := New(5*time.Second, 5*time.Second, 10*time.Second, now)

	a := tm.Tick(now.Add(10*time.Second), true)
	assert.False(t, a.AskStatus)
}

func TestTick_ResetStatusPollDelaysNextFire(t *testing.T) {
	now := time.Now()
	tm := New(5*time.Second, 5*time.Second, 10*time.Second, now)

	tm.ResetStatusPoll(now.Add(3 * time.Second))
	a := tm.Tick(now.Add(5*time.Second), false)
	assert.False(t, a.AskStatus)

	a = tm.Tick(now.Add(8*time.Second), false)
	assert.True(t, a.AskStatus)
}

// S4 — shutdown retry.
func TestTick_ShutdownRetryEveryPeriod(t *testing.T) {
	now := time.Now()
	tm := New(5*time.Second, 5*time.Second, 10*time.Second, now)

	tm.RequestShutdown(now)
	a := tm.Tick(now, false)
	assert.True(t, a.SendOff, "first retry should fire immediately on request")

	a = tm.Tick(now.Add(9*time.Second), false)
	assert.False(t, a.SendOff)

	a = tm.Tick(now.Add(10*time.Second), false)
	assert.True(t, a.SendOff)
}

func TestTick_ShutdownConfirmedStopsRetries(t *testing.T) {
	now := time.Now()
	tm := New(5*time.Second, 5*time.Second, 10*time.Second, now)
	tm.RequestShutdown(now)
	tm.Tick(now, false)

	tm.ConfirmShutdown()
	a := tm.Tick(now.Add(10*time.Second), false)
	assert.False(t, a.SendOff)
	assert.False(t, tm.ShutdownActive())
}

func TestTick_AutoOffRaisesShutdownRequest(t *testing.T) {
	now := time.Now()
	tm := New(5*time.Second, 5*time.Second, 10*time.Second, now)
	tm.SetAutoOff(now.Add(30 * time.Minute))

	a := tm.Tick(now.Add(30*time.Minute), false)
	assert.True(t, a.SendOff)
	assert.True(t, tm.ShutdownActive())
}

func TestCancelAutoOff_PreventsLaterTrigger(t *testing.T) {
	now := time.Now()
	tm := New(5*time.Second, 5*time.Second, 10*time.Second, now)
	tm.SetAutoOff(now.Add(30 * time.Minute))
	tm.CancelAutoOff()

	a := tm.Tick(now.Add(30*time.Minute), false)
	assert.False(t, a.SendOff)
	assert.False(t, tm.ShutdownActive())
}

func TestAutoOffDeadline_ReportsArmedState(t *testing.T) {
	now := time.Now()
	tm := New(5*time.Second, 5*time.Second, 10*time.Second, now)

	_, armed := tm.AutoOffDeadline()
	assert.False(t, armed)

	deadline := now.Add(time.Hour)
	tm.SetAutoOff(deadline)
	got, armed := tm.AutoOffDeadline()
	assert.True(t, armed)
	assert.Equal(t, deadline, got)
}
