// Package router resolves which physical side of the passthrough pair is
// the heater and which is the controller panel, purely from observed
// traffic. Bindings latch: once a side is assigned a role it keeps it for
// the Resolver's lifetime. The engine worker creates a fresh Resolver on
// every (re)connect, so roles are unbound again after a transport fault.
package router

// Side identifies one of the two transports the engine bridges.
type Side int

const (
	SideA Side = iota
	SideB
)

// Resolver holds the two (initially unbound) role slots.
//
// Design note: traffic observation could bind a role to the side a frame
// was read from, or to the other side. This implementation binds to the
// side the frame came from; see DESIGN.md for the reasoning.
type Resolver struct {
	heaterSide     Side
	heaterBound    bool
	controllerSide Side
	controllerBound bool
}

// New returns a Resolver with both slots unbound.
func New() *Resolver {
	return &Resolver{}
}

// Observe latches a role binding the first time a recognized device code is
// seen from a given side. Subsequent frames from either side never change
// an already-bound slot.
func (r *Resolver) Observe(device byte, from Side) {
	switch device {
	case 0x03:
		if !r.controllerBound {
			r.controllerSide = from
			r.controllerBound = true
		}
	case 0x04:
		if !r.heaterBound {
			r.heaterSide = from
			r.heaterBound = true
		}
	}
}

// HeaterSide reports the side bound as heater-side, if any.
func (r *Resolver) HeaterSide() (Side, bool) {
	return r.heaterSide, r.heaterBound
}

// ControllerSide reports the side bound as controller-side, if any.
func (r *Resolver) ControllerSide() (Side, bool) {
	return r.controllerSide, r.controllerBound
}
