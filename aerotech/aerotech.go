// Package aerotech provides PV-level control of Aerotech motorized stages
// behind the beamline's EPICS IOC support.  It layers power gating, retry
// observability, and fault handling on the generic positioner in package
// motor.
package aerotech

import (
	"errors"
	"fmt"

	"github.com/nasa-jpl/epicsmotor/motor"
	"github.com/nasa-jpl/epicsmotor/pv"
)

// record suffixes of the Aerotech-specific PVs.  The dotted ones are
// fields of the motor record proper; the colon ones are sibling records
// the IOC support installs next to it.  These strings are a contract
// with the IOC and must not change.
const (
	PowerSuffix           = ".CNEN"
	RetriesSuffix         = ".RCNT"
	RetriesMaxSuffix      = ".RTRY"
	RetriesDeadbandSuffix = ".RDBD"
	FaultSuffix           = ":AXIS_FAULT"
	StatusSuffix          = ":AXIS_STATUS"
	ClearSuffix           = ":CLEAR"
	ConfigSuffix          = ":CONFIG"
)

// ErrDevice is the base kind for errors raised by this package; matching
// it with errors.Is catches any locally-raised device error
var ErrDevice = errors.New("aerotech device error")

// ErrMotorDisabled is generated when motion is requested while axis
// power is disabled.  It matches ErrDevice under errors.Is.
type ErrMotorDisabled struct {
	Prefix string
}

func (e ErrMotorDisabled) Error() string {
	return fmt.Sprintf("%s: motor must be enabled before moving", e.Prefix)
}

func (e ErrMotorDisabled) Unwrap() error {
	return ErrDevice
}

// Disabled marks the error as an enable-precondition violation for
// layers that do not know this package's types
func (e ErrMotorDisabled) Disabled() bool {
	return true
}

// StageKind tags which flavor of Aerotech stage an Aero fronts.  The
// kinds carry no behavioral difference; they exist so configuration and
// logs can say what a prefix is.
type StageKind int

const (
	// Rotation is an Aerotech rotation stage
	Rotation StageKind = iota

	// Linear is an Aerotech linear stage
	Linear

	// Diode is the VT50 Micronix motor of the diodes
	Diode
)

func (k StageKind) String() string {
	switch k {
	case Rotation:
		return "rotation"
	case Linear:
		return "linear"
	case Diode:
		return "diode"
	default:
		return fmt.Sprintf("StageKind(%d)", int(k))
	}
}

// Aero is an Aerotech stage.  It embeds the generic positioner and adds
// the eight Aerotech bindings; all bindings are established at
// construction and never rebound.
type Aero struct {
	*motor.Motor

	kind StageKind

	power           *pv.Signal
	retries         *pv.Signal
	retriesMax      *pv.Signal
	retriesDeadband *pv.Signal
	axisFault       *pv.Signal
	axisStatus      *pv.Signal
	clearError      *pv.Signal
	config          *pv.Signal
}

// NewAero returns an Aero bound to the records at prefix over conn.
// For prefix "BL3:MOT:01" the power binding resolves to
// "BL3:MOT:01.CNEN", the fault binding to "BL3:MOT:01:AXIS_FAULT", and
// so on.
func NewAero(conn pv.Conn, prefix string, kind StageKind) *Aero {
	m := motor.New(conn, prefix)
	// the limit switch records were never commissioned in the Aerotech
	// IOC support; bind them as unimplemented so a read errors instead
	// of reporting a switch that is not there
	m.LowLimitSwitch = pv.NewSignal(nil, prefix+motor.LowLimSuffix, pv.Unimplemented)
	m.HighLimitSwitch = pv.NewSignal(nil, prefix+motor.HighLimSuffix, pv.Unimplemented)
	a := &Aero{
		Motor:           m,
		kind:            kind,
		power:           pv.NewSignal(conn, prefix+PowerSuffix, pv.ReadWrite),
		retries:         pv.NewSignal(conn, prefix+RetriesSuffix, pv.ReadOnly),
		retriesMax:      pv.NewSignal(conn, prefix+RetriesMaxSuffix, pv.ReadWrite),
		retriesDeadband: pv.NewSignal(conn, prefix+RetriesDeadbandSuffix, pv.ReadWrite),
		axisFault:       pv.NewSignal(conn, prefix+FaultSuffix, pv.ReadOnly),
		axisStatus:      pv.NewSignal(conn, prefix+StatusSuffix, pv.ReadOnly),
		clearError:      pv.NewSignal(conn, prefix+ClearSuffix, pv.WriteOnly),
		config:          pv.NewSignal(conn, prefix+ConfigSuffix, pv.WriteOnly),
	}
	m.AddConfigurationAttr("power", a.power)
	return a
}

// NewRotationAero returns an Aero for a rotation stage
func NewRotationAero(conn pv.Conn, prefix string) *Aero {
	return NewAero(conn, prefix, Rotation)
}

// NewLinearAero returns an Aero for a linear stage
func NewLinearAero(conn pv.Conn, prefix string) *Aero {
	return NewAero(conn, prefix, Linear)
}

// NewDiodeAero returns an Aero for a diode positioning stage
func NewDiodeAero(conn pv.Conn, prefix string) *Aero {
	return NewAero(conn, prefix, Diode)
}

// Monitored returns the signals a background poller should keep fresh:
// the cached reads behind Enabled and Faulted go stale without it
func (a *Aero) Monitored() []*pv.Signal {
	return []*pv.Signal{a.power, a.axisFault}
}

// Kind returns which flavor of stage this is
func (a *Aero) Kind() StageKind {
	return a.kind
}

// Move commands a move to an absolute position.  If axis power is
// disabled the move fails immediately with ErrMotorDisabled and nothing
// is sent to the motion subsystem; otherwise the move is delegated to
// the positioner and its pending status returned unmodified.
//
// The check reads the cached power value; a disable racing this call is
// caught by the firmware, which rejects motion on an unpowered axis.
func (a *Aero) Move(position float64) (*pv.Status, error) {
	enabled, err := a.Enabled()
	if err != nil {
		return nil, err
	}
	if !enabled {
		return nil, ErrMotorDisabled{Prefix: a.Prefix()}
	}
	return a.Motor.Move(position), nil
}

// Enable powers the axis on
func (a *Aero) Enable() *pv.Status {
	return a.power.Set(1)
}

// Disable powers the axis off
func (a *Aero) Disable() *pv.Status {
	return a.power.Set(0)
}

// Enabled returns true if the last-known power value is nonzero
func (a *Aero) Enabled() (bool, error) {
	v, err := a.power.Value()
	return v != 0, err
}

// Clear clears the axis error
func (a *Aero) Clear() *pv.Status {
	return a.clearError.Set(1)
}

// Reconfig commands the controller to re-run axis configuration
func (a *Aero) Reconfig() *pv.Status {
	return a.config.Set(1)
}

// Faulted returns true if the last-known axis fault value is nonzero
func (a *Aero) Faulted() (bool, error) {
	v, err := a.axisFault.Value()
	return v != 0, err
}

// AxisStatus reads the raw status bitfield from the controller.  Some
// IOC support serves the word unsigned; going through int64 makes
// values past the sign bit wrap instead of being unspecified.
func (a *Aero) AxisStatus() (Status, error) {
	v, err := a.axisStatus.Get()
	return Status(int32(int64(v))), err
}

// Retries reads the number of retries the firmware has attempted on the
// current positioning; the counting itself lives in the controller
func (a *Aero) Retries() (int, error) {
	v, err := a.retries.Get()
	return int(v), err
}

// RetriesMax reads the retry ceiling
func (a *Aero) RetriesMax() (int, error) {
	v, err := a.retriesMax.Get()
	return int(v), err
}

// SetRetriesMax writes the retry ceiling
func (a *Aero) SetRetriesMax(n int) *pv.Status {
	return a.retriesMax.Set(float64(n))
}

// RetriesDeadband reads the retry tolerance in EGU
func (a *Aero) RetriesDeadband() (float64, error) {
	return a.retriesDeadband.Get()
}

// SetRetriesDeadband writes the retry tolerance in EGU
func (a *Aero) SetRetriesDeadband(v float64) *pv.Status {
	return a.retriesDeadband.Set(v)
}
