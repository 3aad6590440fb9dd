/*Package pv provides bindings to remote process variables on EPICS-fronted
control hardware.

A Signal is a live binding from a local attribute to one named process
variable, resolved once at construction and never rebound.  Reads go
through a cache of the last-known value; writes are issued
asynchronously and hand back a Status, which resolves when the write
has been accepted or failed.

The transport behind a Signal is anything satisfying Conn.  Gateway
implements Conn with an ASCII line protocol over TCP or serial; Mock
implements it with an in-memory map for tests and offline bring-up.
This package deliberately does not speak Channel Access or pvAccess;
it talks to a gateway service that does.
*/
package pv

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrUnimplemented is generated when reading or writing a signal whose
	// remote mapping is deliberately absent.  Callers must not treat these
	// signals as real hardware state.
	ErrUnimplemented = errors.New("no process variable backs this signal")

	// ErrReadOnly is generated when writing a read-only signal
	ErrReadOnly = errors.New("signal is read-only")

	// ErrWriteOnly is generated when reading a write-only signal
	ErrWriteOnly = errors.New("signal is write-only")

	// ErrNeverRead is generated when Value is called on a signal that has
	// no cached value and cannot refresh one
	ErrNeverRead = errors.New("signal has never been read")
)

// AccessMode describes which directions a Signal supports
type AccessMode int

const (
	// ReadWrite signals may be read and written
	ReadWrite AccessMode = iota

	// ReadOnly signals may only be read
	ReadOnly

	// WriteOnly signals may only be written
	WriteOnly

	// Unimplemented signals have no remote mapping; every operation on
	// them fails with ErrUnimplemented
	Unimplemented
)

func (m AccessMode) String() string {
	switch m {
	case ReadWrite:
		return "read-write"
	case ReadOnly:
		return "read-only"
	case WriteOnly:
		return "write-only"
	case Unimplemented:
		return "unimplemented"
	default:
		return fmt.Sprintf("AccessMode(%d)", int(m))
	}
}

// Conn is a transport to a namespace of process variables
type Conn interface {
	// Get reads the current value of the named PV
	Get(name string) (float64, error)

	// Put writes a value to the named PV
	Put(name string, value float64) error
}

// Signal is a binding to a single process variable.  Signals must be
// created with NewSignal and are safe for concurrent use.
type Signal struct {
	name string
	mode AccessMode
	conn Conn

	mu    sync.Mutex
	last  float64
	valid bool // a read has succeeded at least once
}

// NewSignal binds the named PV over conn with the given access mode.
// For Unimplemented signals conn may be nil.
func NewSignal(conn Conn, name string, mode AccessMode) *Signal {
	return &Signal{conn: conn, name: name, mode: mode}
}

// Name returns the PV name the signal is bound to
func (s *Signal) Name() string {
	return s.name
}

// Mode returns the signal's access mode
func (s *Signal) Mode() AccessMode {
	return s.mode
}

// HasValue returns true once at least one read has succeeded
func (s *Signal) HasValue() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.valid
}

// Get reads the PV from the remote, updates the cache, and returns the value
func (s *Signal) Get() (float64, error) {
	switch s.mode {
	case Unimplemented:
		return 0, fmt.Errorf("%s: %w", s.name, ErrUnimplemented)
	case WriteOnly:
		return 0, fmt.Errorf("%s: %w", s.name, ErrWriteOnly)
	}
	v, err := s.conn.Get(s.name)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	s.last = v
	s.valid = true
	s.mu.Unlock()
	return v, nil
}

// Value returns the last-known value of the PV, querying the remote only
// if no read has succeeded yet
func (s *Signal) Value() (float64, error) {
	s.mu.Lock()
	if s.valid {
		v := s.last
		s.mu.Unlock()
		return v, nil
	}
	s.mu.Unlock()
	return s.Get()
}

// Set writes a value to the PV asynchronously.  The returned Status
// resolves when the write has been accepted by the remote or has failed.
// Mode violations come back as an already-failed Status.
func (s *Signal) Set(value float64) *Status {
	st := NewStatus()
	switch s.mode {
	case Unimplemented:
		st.Finish(fmt.Errorf("%s: %w", s.name, ErrUnimplemented))
		return st
	case ReadOnly:
		st.Finish(fmt.Errorf("%s: %w", s.name, ErrReadOnly))
		return st
	}
	go func() {
		err := s.conn.Put(s.name, value)
		if err == nil && s.mode != WriteOnly {
			s.mu.Lock()
			s.last = value
			s.valid = true
			s.mu.Unlock()
		}
		st.Finish(err)
	}()
	return st
}
