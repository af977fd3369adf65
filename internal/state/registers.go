package state

import (
	"sync"
	"time"
)

// Snapshot is a plain, copyable view of every register at one instant. The
// Host API façade returns a freshly-taken Snapshot rather than Registers
// itself, so callers never hold a reference that could race with the
// worker's next mutation.
type Snapshot struct {
	Mode          Value[uint8]
	Setpoint      Value[uint8]
	Ventilation   Value[uint8]
	PowerLevel    Value[uint8]

	Status1             Value[uint8]
	Status2             Value[uint8]
	Errors              Value[uint8]
	HeaterTemperature   Value[uint8]
	ExternalTemperature Value[uint8]
	BatteryVoltage      Value[float32]
	FlameTemperature    Value[uint16]

	ControllerTemperature Value[uint8]

	DStatus1             Value[uint8]
	DStatus2             Value[uint8]
	DCounter1            Value[uint16]
	DCounter2            Value[uint16]
	DDefinedRev          Value[uint8]
	DMeasuredRev         Value[uint8]
	DFuelPump1           Value[uint8]
	DFuelPump2           Value[uint8]
	DChamberTemperature  Value[uint16]
	DFlameTemperature    Value[uint16]
	DExternalTemperature Value[uint8]
	DHeaterTemperature   Value[uint8]
	DBatteryVoltage      Value[uint8]

	HeaterSoftwareVersion Value[[4]byte]
}

// Registers is the engine's single logical record of replicated state. Only
// the worker goroutine calls the Set* methods; any goroutine may call
// Snapshot.
type Registers struct {
	mu   sync.RWMutex
	snap Snapshot
}

// New returns a Registers with every field at its "(none, none)" zero value.
func New() *Registers {
	return &Registers{}
}

// Snapshot returns a copy of every register, safe to read without further
// locking.
func (r *Registers) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snap
}

func (r *Registers) SetMode(v uint8, now time.Time) {
	r.mu.Lock()
	r.snap.Mode = Set(v, now)
	r.mu.Unlock()
}

func (r *Registers) SetSetpoint(v uint8, now time.Time) {
	r.mu.Lock()
	r.snap.Setpoint = Set(v, now)
	r.mu.Unlock()
}

func (r *Registers) SetVentilation(v uint8, now time.Time) {
	r.mu.Lock()
	r.snap.Ventilation = Set(v, now)
	r.mu.Unlock()
}

func (r *Registers) SetPowerLevel(v uint8, now time.Time) {
	r.mu.Lock()
	r.snap.PowerLevel = Set(v, now)
	r.mu.Unlock()
}

// SetSettings updates mode/setpoint/ventilation/power-level together, the
// shape both "heater confirms on" (0x01) and "heater reports settings"
// (0x02) frames carry.
func (r *Registers) SetSettings(mode, setpoint, ventilation, power uint8, now time.Time) {
	r.mu.Lock()
	r.snap.Mode = Set(mode, now)
	r.snap.Setpoint = Set(setpoint, now)
	r.snap.Ventilation = Set(ventilation, now)
	r.snap.PowerLevel = Set(power, now)
	r.mu.Unlock()
}

// SetStatus updates the full status-reply register group in one atomic step.
func (r *Registers) SetStatus(status1, status2, errs uint8, heaterTemp, externalTemp uint8, batteryVoltage float32, flameTemp uint16, now time.Time) {
	r.mu.Lock()
	r.snap.Status1 = Set(status1, now)
	r.snap.Status2 = Set(status2, now)
	r.snap.Errors = Set(errs, now)
	r.snap.HeaterTemperature = Set(heaterTemp, now)
	r.snap.ExternalTemperature = Set(externalTemp, now)
	r.snap.BatteryVoltage = Set(batteryVoltage, now)
	r.snap.FlameTemperature = Set(flameTemp, now)
	r.mu.Unlock()
}

func (r *Registers) SetControllerTemperature(v uint8, now time.Time) {
	r.mu.Lock()
	r.snap.ControllerTemperature = Set(v, now)
	r.mu.Unlock()
}

func (r *Registers) SetHeaterSoftwareVersion(v [4]byte, now time.Time) {
	r.mu.Lock()
	r.snap.HeaterSoftwareVersion = Set(v, now)
	r.mu.Unlock()
}

// Diagnostics carries the values of all 13 diagnostic registers from one
// decoded diagnostic dump frame (device 0x02, id2 0x01); SetDiagnostics
// stores them together.
type Diagnostics struct {
	Status1             uint8
	Status2             uint8
	Counter1            uint16
	Counter2            uint16
	DefinedRev          uint8
	MeasuredRev         uint8
	FuelPump1           uint8
	FuelPump2           uint8
	ChamberTemperature  uint16
	FlameTemperature    uint16
	ExternalTemperature uint8
	HeaterTemperature   uint8
	BatteryVoltage      uint8
}

func (r *Registers) SetDiagnostics(d Diagnostics, now time.Time) {
	r.mu.Lock()
	r.snap.DStatus1 = Set(d.Status1, now)
	r.snap.DStatus2 = Set(d.Status2, now)
	r.snap.DCounter1 = Set(d.Counter1, now)
	r.snap.DCounter2 = Set(d.Counter2, now)
	r.snap.DDefinedRev = Set(d.DefinedRev, now)
	r.snap.DMeasuredRev = Set(d.MeasuredRev, now)
	r.snap.DFuelPump1 = Set(d.FuelPump1, now)
	r.snap.DFuelPump2 = Set(d.FuelPump2, now)
	r.snap.DChamberTemperature = Set(d.ChamberTemperature, now)
	r.snap.DFlameTemperature = Set(d.FlameTemperature, now)
	r.snap.DExternalTemperature = Set(d.ExternalTemperature, now)
	r.snap.DHeaterTemperature = Set(d.HeaterTemperature, now)
	r.snap.DBatteryVoltage = Set(d.BatteryVoltage, now)
	r.mu.Unlock()
}

// HeaterStatusText maps status1 through the fixed human-readable table.
func HeaterStatusText(status1 uint8, valid bool) string {
	if !valid {
		return "unknown"
	}
	switch status1 {
	case 0:
		return "heater off"
	case 1:
		return "starting"
	case 2:
		return "warming up"
	case 3:
		return "running"
	case 4:
		return "shutting down"
	default:
		return "unknown"
	}
}
