package engine

import (
	"time"

	"github.com/prclm/autoterm-passthrough/internal/decoder"
	"github.com/prclm/autoterm-passthrough/internal/injector"
	"github.com/prclm/autoterm-passthrough/internal/protocol"
	"github.com/prclm/autoterm-passthrough/internal/reassembler"
	"github.com/prclm/autoterm-passthrough/internal/router"
	"github.com/prclm/autoterm-passthrough/internal/transport"
)

// run is the top-level reconnect loop: (re)open both transports, run the
// connected loop until a transport error or a stop request, and retry with
// a bounded back-off on open failure.
func (e *Engine) run() {
	defer close(e.doneCh)

	for {
		if e.stopRequested() {
			return
		}

		sideA, sideB, err := e.open()
		if err != nil {
			e.logger.Criticalf("failed to open transports: %v", err)
			if e.sleepOrStop(e.cfg.ReconnectBackoff) {
				return
			}
			continue
		}
		e.logger.Infof("both transports connected")

		stop := e.runConnected(sideA, sideB)
		if stop {
			return
		}
		e.logger.Criticalf("transport fault, reconnecting")
	}
}

// runConnected drives the poll loop for as long as both transports stay
// healthy. It returns true if a stop was requested, false if a transport
// error forced a reconnect. Role bindings and the write-lock are fresh
// every time this is entered: a reconnect unbinds roles and re-zeroes the
// write-lock but retains state registers. e.timers persists across
// reconnects since the poll/shutdown/auto-off deadlines are not connection
// state.
func (e *Engine) runConnected(sideA, sideB transport.Duplex) (stopped bool) {
	defer sideA.Close()
	defer sideB.Close()

	resolver := router.New()
	var writeLock injector.WriteLock

	for {
		if e.stopRequested() {
			return true
		}

		now := time.Now()

		resA, errA := reassembler.Step(sideA)
		if errA != nil {
			e.logger.Criticalf("side A: %v", errA)
			return false
		}
		if err := e.handleSideEvent(resA, sideB, router.SideA, resolver, &writeLock, now); err != nil {
			e.logger.Criticalf("side A: forwarding to side B failed: %v", err)
			return false
		}

		resB, errB := reassembler.Step(sideB)
		if errB != nil {
			e.logger.Criticalf("side B: %v", errB)
			return false
		}
		if err := e.handleSideEvent(resB, sideA, router.SideB, resolver, &writeLock, now); err != nil {
			e.logger.Criticalf("side B: forwarding to side A failed: %v", err)
			return false
		}

		if err := e.drainInjectionQueue(sideA, sideB, resolver, &writeLock, now); err != nil {
			e.logger.Criticalf("injection write failed: %v", err)
			return false
		}

		e.runTimers(now, writeLock.Held(now))

		if resA.Kind == reassembler.KindNone && resB.Kind == reassembler.KindNone {
			time.Sleep(e.cfg.IdleSleep)
		}
	}
}

// handleSideEvent reacts to one reassembler.Result read from the side
// named by from: forwarding escape bytes and frames to peer unconditionally,
// then — for frames only — validating, binding the role resolver, and
// running the semantic decoder.
func (e *Engine) handleSideEvent(res reassembler.Result, peer transport.Duplex, from router.Side, resolver *router.Resolver, writeLock *injector.WriteLock, now time.Time) error {
	switch res.Kind {
	case reassembler.KindNone:
		return nil

	case reassembler.KindEscape:
		e.logger.Debugf("escape byte forwarded (side %d)", from)
		return peer.WriteAll([]byte{reassembler.Escape})

	case reassembler.KindGarbage:
		e.logger.Warnf("garbage byte disposed (side %d)", from)
		return nil

	case reassembler.KindFrame:
		e.logger.Debugf("frame forwarded (side %d): %x", from, res.Raw)
		if err := peer.WriteAll(res.Raw); err != nil {
			return err
		}

		frame, err := protocol.Parse(res.Raw)
		if err != nil {
			e.logger.Warnf("frame failed validation, forwarded anyway: %v", err)
			return nil
		}

		resolver.Observe(frame.Device, from)
		e.applyDecoded(frame, now, writeLock)
		return nil

	default:
		return nil
	}
}

func (e *Engine) applyDecoded(frame *protocol.Frame, now time.Time, writeLock *injector.WriteLock) {
	outcome := decoder.Decode(frame, e.regs, now)

	for _, ev := range outcome.Events {
		switch ev.Level {
		case decoder.LevelDebug:
			e.logger.Debugf("%s", ev.Message)
		case decoder.LevelInfo:
			e.logger.Infof("%s", ev.Message)
		case decoder.LevelWarn:
			e.logger.Warnf("%s", ev.Message)
		}
	}

	if outcome.ArmWriteLock {
		writeLock.Arm(now, e.cfg.WriteLockHold)
	}
	if outcome.ClearWriteLock {
		writeLock.Clear(now)
	}
	if outcome.ResetStatusPoll {
		e.timers.ResetStatusPoll(now)
	}
	if outcome.ResetSettingsPoll {
		e.timers.ResetSettingsPoll(now)
	}
	if outcome.CancelAutoOff {
		e.timers.CancelAutoOff()
	}
	if outcome.ShutdownConfirmed {
		e.timers.ConfirmShutdown()
	}
}

// drainInjectionQueue dequeues and writes at most one frame per tick, only
// while the write-lock is clear. It targets the heater side once bound;
// until then it broadcasts to both sides and logs a warning.
func (e *Engine) drainInjectionQueue(sideA, sideB transport.Duplex, resolver *router.Resolver, writeLock *injector.WriteLock, now time.Time) error {
	if e.queue.Len() == 0 || writeLock.Held(now) {
		return nil
	}

	frame, ok := e.queue.Dequeue()
	if !ok {
		return nil
	}

	heaterSide, bound := resolver.HeaterSide()
	if !bound {
		e.logger.Warnf("heater side not yet bound, broadcasting injected frame to both sides: %x", frame)
		if err := sideA.WriteAll(frame); err != nil {
			return err
		}
		if err := sideB.WriteAll(frame); err != nil {
			return err
		}
	} else {
		dest := sideA
		if heaterSide == router.SideB {
			dest = sideB
		}
		if err := dest.WriteAll(frame); err != nil {
			return err
		}
		e.logger.Infof("injected frame written to heater side: %x", frame)
	}

	writeLock.Arm(now, e.cfg.WriteLockHold)
	return nil
}

// runTimers enqueues whatever internal/timers says is due this tick.
func (e *Engine) runTimers(now time.Time, writeLockHeld bool) {
	actions := e.timers.Tick(now, writeLockHeld)

	if actions.AskStatus {
		e.enqueueControllerFrame("ask status", 0x0F, nil, false)
	}
	if actions.AskSettings {
		e.enqueueControllerFrame("ask settings", 0x02, nil, false)
	}
	if actions.SendOff {
		e.enqueueControllerFrame("shutdown retry", 0x03, nil, false)
	}
}
