// Package timers drives the engine's time-based behaviors: status/settings
// polling, shutdown retry, and the optional scheduled auto-off. All
// deadlines live on the monotonic clock (time.Time from time.Now(), never
// wall-clock floats).
package timers

import (
	"sync"
	"time"
)

// Actions reports which frames the engine worker should enqueue after one
// Tick call.
type Actions struct {
	AskStatus   bool
	AskSettings bool
	SendOff     bool
}

// Timers holds the four independent deadlines the worker loop checks each tick.
type Timers struct {
	mu sync.Mutex

	StatusPeriod   time.Duration
	SettingsPeriod time.Duration
	ShutdownPeriod time.Duration

	statusDeadline   time.Time // last status reply
	settingsDeadline time.Time // last settings reply

	shutdownActive     bool
	nextShutdownRetry time.Time

	autoOffArmed    bool
	autoOffDeadline time.Time
}

// New returns Timers with the status/settings poll clocks started at now,
// so the first poll fires after one full period has elapsed.
func New(statusPeriod, settingsPeriod, shutdownPeriod time.Duration, now time.Time) *Timers {
	return &Timers{
		StatusPeriod:     statusPeriod,
		SettingsPeriod:   settingsPeriod,
		ShutdownPeriod:   shutdownPeriod,
		statusDeadline:   now,
		settingsDeadline: now,
	}
}

// ResetStatusPoll is called upon receipt of the heater's status reply, not
// upon sending the request.
func (t *Timers) ResetStatusPoll(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.statusDeadline = now
}

// ResetSettingsPoll is the settings-reply equivalent of ResetStatusPoll.
func (t *Timers) ResetSettingsPoll(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.settingsDeadline = now
}

// RequestShutdown arms the shutdown-retry sequence if it is not already
// running, scheduling an immediate first attempt. Called by the Host API's
// shutdown() command and by auto-off expiry.
func (t *Timers) RequestShutdown(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.activateShutdown(now)
}

func (t *Timers) activateShutdown(now time.Time) {
	if t.shutdownActive {
		return
	}
	t.shutdownActive = true
	t.nextShutdownRetry = now
}

// ConfirmShutdown clears the shutdown request once status1 == 0 has been
// observed from the heater.
func (t *Timers) ConfirmShutdown() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.shutdownActive = false
}

// ShutdownActive reports whether a shutdown request is currently pending.
func (t *Timers) ShutdownActive() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.shutdownActive
}

// SetAutoOff arms the scheduled-off deadline.
func (t *Timers) SetAutoOff(deadline time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.autoOffDeadline = deadline
	t.autoOffArmed = true
}

// CancelAutoOff disarms the scheduled-off deadline. Any controller-origin
// settings-changing frame cancels it: the human is in control.
func (t *Timers) CancelAutoOff() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.autoOffArmed = false
}

// AutoOffDeadline reports the current auto-off deadline and whether it is
// armed.
func (t *Timers) AutoOffDeadline() (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.autoOffDeadline, t.autoOffArmed
}

// Tick evaluates every deadline against now and reports what the worker
// should enqueue this iteration. writeLockHeld gates the status/settings
// polls only; shutdown retries are unconditional on the write-lock because
// an off-frame is itself expected to go through the same injection path
// and re-arm the lock naturally.
func (t *Timers) Tick(now time.Time, writeLockHeld bool) Actions {
	t.mu.Lock()
	defer t.mu.Unlock()

	var a Actions

	if t.autoOffArmed && !now.Before(t.autoOffDeadline) {
		t.autoOffArmed = false
		t.activateShutdown(now)
	}

	if !writeLockHeld {
		if !now.Before(t.statusDeadline.Add(t.StatusPeriod)) {
			a.AskStatus = true
		}
		if !now.Before(t.settingsDeadline.Add(t.SettingsPeriod)) {
			a.AskSettings = true
		}
	}

	if t.shutdownActive && !now.Before(t.nextShutdownRetry) {
		a.SendOff = true
		t.nextShutdownRetry = now.Add(t.ShutdownPeriod)
	}

	return a
}
