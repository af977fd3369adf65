// Package state holds the engine's replicated, timestamped model of heater,
// controller and diagnostic registers. A single Registers value is owned
// and mutated exclusively by the engine worker; readers only ever see an
// atomically published Snapshot copy.
package state

import "time"

// Value[T] pairs an observed value with the monotonic instant it was
// observed. The zero value is the "(none, none)" sentinel: Valid is false
// and Time is the zero time.Time.
type Value[T any] struct {
	Val   T
	Valid bool
	Time  time.Time
}

// Set returns a new, valid Value[T] stamped at now. Registers never mutate
// a Value in place; they replace the field wholesale, so a reader holding
// an old Snapshot never observes a half-written register.
func Set[T any](v T, now time.Time) Value[T] {
	return Value[T]{Val: v, Valid: true, Time: now}
}
