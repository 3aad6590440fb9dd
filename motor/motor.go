// Package motor provides a generic positioner over the EPICS motor record.
// Vendor packages embed Motor and stack their own signals on it; see
// package aerotech for the canonical example.
package motor

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nasa-jpl/epicsmotor/pv"
)

// suffixes of the motor record fields bound by the base positioner
const (
	SetpointSuffix = ".VAL"
	ReadbackSuffix = ".RBV"
	DoneSuffix     = ".DMOV"
	MovingSuffix   = ".MOVN"
	VelocitySuffix = ".VELO"
	StopSuffix     = ".STOP"
	LowLimSuffix   = ".LLS"
	HighLimSuffix  = ".HLS"
)

// ErrMoveTimeout is generated when a move does not report done within the
// motor's move timeout
var ErrMoveTimeout = errors.New("move did not complete within the timeout")

// Motor is a positioner over one EPICS motor record.  All bindings are
// established at construction from the record prefix and live for the
// lifetime of the Motor.
type Motor struct {
	prefix string

	setpoint *pv.Signal
	readback *pv.Signal
	done     *pv.Signal
	moving   *pv.Signal
	velocity *pv.Signal
	stop     *pv.Signal

	// LowLimitSwitch and HighLimitSwitch are exported so controllers
	// whose IOC support never wired the limit switches can replace them
	// with unimplemented bindings
	LowLimitSwitch  *pv.Signal
	HighLimitSwitch *pv.Signal

	// MoveTimeout bounds how long Move waits for the record to report
	// done; SettlePoll is the done-flag polling cadence
	MoveTimeout time.Duration
	SettlePoll  time.Duration

	mu          sync.Mutex
	configAttrs []configAttr
}

type configAttr struct {
	name string
	sig  *pv.Signal
}

// New returns a Motor bound to the record at prefix over conn
func New(conn pv.Conn, prefix string) *Motor {
	m := &Motor{
		prefix:          prefix,
		setpoint:        pv.NewSignal(conn, prefix+SetpointSuffix, pv.ReadWrite),
		readback:        pv.NewSignal(conn, prefix+ReadbackSuffix, pv.ReadOnly),
		done:            pv.NewSignal(conn, prefix+DoneSuffix, pv.ReadOnly),
		moving:          pv.NewSignal(conn, prefix+MovingSuffix, pv.ReadOnly),
		velocity:        pv.NewSignal(conn, prefix+VelocitySuffix, pv.ReadWrite),
		stop:            pv.NewSignal(conn, prefix+StopSuffix, pv.WriteOnly),
		LowLimitSwitch:  pv.NewSignal(conn, prefix+LowLimSuffix, pv.ReadOnly),
		HighLimitSwitch: pv.NewSignal(conn, prefix+HighLimSuffix, pv.ReadOnly),
		MoveTimeout:     300 * time.Second,
		SettlePoll:      100 * time.Millisecond,
	}
	m.AddConfigurationAttr("velocity", m.velocity)
	return m
}

// Prefix returns the record prefix the motor is bound to
func (m *Motor) Prefix() string {
	return m.prefix
}

// Move commands a move to an absolute position.  The returned status
// resolves when the record reports the move done, or fails on a setpoint
// write error or ErrMoveTimeout.  Invalid positions are rejected by the
// record and come back through the status as remote errors.
func (m *Motor) Move(position float64) *pv.Status {
	st := pv.NewStatus()
	go func() {
		if err := m.setpoint.Set(position).Wait(0); err != nil {
			st.Finish(err)
			return
		}
		st.Finish(m.waitSettle())
	}()
	return st
}

// waitSettle polls the done flag until it reads nonzero.  The record
// holds DMOV at 1 for a short window after the setpoint write lands, so
// one poll period is burned before the flag is trusted.
func (m *Motor) waitSettle() error {
	deadline := time.Now().Add(m.MoveTimeout)
	time.Sleep(m.SettlePoll)
	for time.Now().Before(deadline) {
		d, err := m.done.Get()
		if err != nil {
			return err
		}
		if d != 0 {
			return nil
		}
		time.Sleep(m.SettlePoll)
	}
	return fmt.Errorf("%s: %w", m.prefix, ErrMoveTimeout)
}

// Position returns the current readback position
func (m *Motor) Position() (float64, error) {
	return m.readback.Get()
}

// Moving returns true if the record reports motion in progress
func (m *Motor) Moving() (bool, error) {
	v, err := m.moving.Get()
	return v != 0, err
}

// Stop commands an immediate stop
func (m *Motor) Stop() *pv.Status {
	return m.stop.Set(1)
}

// Velocity returns the programmed velocity in EGU/s
func (m *Motor) Velocity() (float64, error) {
	return m.velocity.Get()
}

// SetVelocity programs the velocity in EGU/s
func (m *Motor) SetVelocity(vel float64) *pv.Status {
	return m.velocity.Set(vel)
}

// Connect reads every readable binding once, so that cached-value
// queries work before any operation has touched the remote
func (m *Motor) Connect() error {
	for _, s := range m.readables() {
		if _, err := s.Get(); err != nil {
			return err
		}
	}
	return nil
}

// Connected returns true once every readable binding has served at
// least one successful read
func (m *Motor) Connected() bool {
	for _, s := range m.readables() {
		if !s.HasValue() {
			return false
		}
	}
	return true
}

func (m *Motor) readables() []*pv.Signal {
	all := []*pv.Signal{
		m.setpoint, m.readback, m.done, m.moving, m.velocity,
		m.LowLimitSwitch, m.HighLimitSwitch}
	m.mu.Lock()
	for _, ca := range m.configAttrs {
		all = append(all, ca.sig)
	}
	m.mu.Unlock()
	out := all[:0]
	seen := map[string]bool{}
	for _, s := range all {
		if seen[s.Name()] {
			continue
		}
		seen[s.Name()] = true
		if s.Mode() == pv.ReadWrite || s.Mode() == pv.ReadOnly {
			out = append(out, s)
		}
	}
	return out
}

// AddConfigurationAttr registers a named signal for inclusion in
// configuration snapshots
func (m *Motor) AddConfigurationAttr(name string, sig *pv.Signal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configAttrs = append(m.configAttrs, configAttr{name: name, sig: sig})
}

// ConfigurationAttrs lists the registered attribute names in order
func (m *Motor) ConfigurationAttrs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.configAttrs))
	for i, ca := range m.configAttrs {
		out[i] = ca.name
	}
	return out
}

// Configuration returns a snapshot of the last-known values of all
// registered configuration attributes
func (m *Motor) Configuration() (map[string]float64, error) {
	m.mu.Lock()
	attrs := make([]configAttr, len(m.configAttrs))
	copy(attrs, m.configAttrs)
	m.mu.Unlock()
	out := make(map[string]float64, len(attrs))
	for _, ca := range attrs {
		v, err := ca.sig.Value()
		if err != nil {
			return nil, fmt.Errorf("configuration attr %s: %w", ca.name, err)
		}
		out[ca.name] = v
	}
	return out, nil
}
