// Package engine wires the framing codec, transport pair, reassembler,
// router, state model, decoder, injection scheduler and timers into the
// running passthrough engine, and exposes the Host API façade external
// collaborators use.
package engine

import (
	"time"

	"github.com/prclm/autoterm-passthrough/internal/injector"
	"github.com/prclm/autoterm-passthrough/internal/state"
	"github.com/prclm/autoterm-passthrough/internal/timers"
	"github.com/prclm/autoterm-passthrough/internal/transport"
)

// Config holds the tunable timer constants, exposed as fields so tests can
// shrink them instead of waiting on real clocks.
type Config struct {
	StatusPeriod   time.Duration
	SettingsPeriod time.Duration
	ShutdownPeriod time.Duration
	WriteLockHold  time.Duration

	// ReconnectBackoff bounds the pause between failed (re)connection
	// attempts.
	ReconnectBackoff time.Duration

	// StopTimeout bounds how long Stop waits for the worker to exit.
	StopTimeout time.Duration

	// IdleSleep is the short, bounded pause the worker takes when both
	// sides report zero pending bytes, to avoid busy-spinning.
	IdleSleep time.Duration
}

// DefaultConfig returns sensible defaults: a 5s status poll, a 5s settings
// poll, a 10s shutdown retry, and a 10s write-lock hold.
func DefaultConfig() Config {
	return Config{
		StatusPeriod:     5 * time.Second,
		SettingsPeriod:   5 * time.Second,
		ShutdownPeriod:   10 * time.Second,
		WriteLockHold:    10 * time.Second,
		ReconnectBackoff: 10 * time.Second,
		StopTimeout:      10 * time.Second,
		IdleSleep:        10 * time.Millisecond,
	}
}

// Opener (re)opens both transports the engine bridges. It is called once at
// startup and again after every transport error; which physical port ends
// up "heater-side" is decided later, by observed traffic (internal/router),
// not by which Opener returns first.
type Opener func() (transport.Duplex, transport.Duplex, error)

// Engine is the passthrough engine: one worker goroutine owns both
// transports and the state model; every other goroutine only touches the
// injection queue and register snapshots.
type Engine struct {
	cfg    Config
	logger *Logger
	open   Opener

	regs   *state.Registers
	queue  *injector.Queue
	timers *timers.Timers

	stopCh chan struct{}
	doneCh chan struct{}
}

// New constructs an Engine. It does not open transports or start the
// worker; call Start for that. Stop may be called even if Start was never
// reached; it then waits the full cfg.StopTimeout and logs that the worker
// did not stop, since no worker exists to signal completion.
func New(cfg Config, logger *Logger, open Opener) *Engine {
	now := time.Now()
	return &Engine{
		cfg:    cfg,
		logger: logger,
		open:   open,
		regs:   state.New(),
		queue:  injector.New(),
		timers: timers.New(cfg.StatusPeriod, cfg.SettingsPeriod, cfg.ShutdownPeriod, now),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Start opens the transports and launches the worker goroutine. It returns
// immediately; connection and reconnection happen on the worker.
func (e *Engine) Start() {
	go e.run()
}

// Stop requests the worker to exit and waits up to cfg.StopTimeout for it
// to do so.
func (e *Engine) Stop() {
	close(e.stopCh)
	select {
	case <-e.doneCh:
	case <-time.After(e.cfg.StopTimeout):
		e.logger.Criticalf("worker did not stop within %s", e.cfg.StopTimeout)
	}
}

func (e *Engine) stopRequested() bool {
	select {
	case <-e.stopCh:
		return true
	default:
		return false
	}
}

// sleepOrStop pauses for d unless a stop is requested in the meantime, in
// which case it returns true immediately.
func (e *Engine) sleepOrStop(d time.Duration) bool {
	select {
	case <-e.stopCh:
		return true
	case <-time.After(d):
		return false
	}
}

func enqueueError(e *Engine, action string, err error) {
	e.logger.Warnf("dropped %s command, could not build frame: %v", action, err)
}
