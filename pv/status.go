package pv

import (
	"errors"
	"sync"
	"time"
)

// ErrStatusTimeout is generated when Wait gives up on a pending operation.
// The operation itself is not cancelled; it may still complete later.
var ErrStatusTimeout = errors.New("timed out waiting for pending operation")

// Status represents an in-flight write or move.  It resolves exactly once,
// to nil on success or the failure otherwise.  Statuses must be created
// with NewStatus.
type Status struct {
	done chan struct{}
	once sync.Once

	mu  sync.Mutex
	err error
}

// NewStatus returns an unresolved Status.  It is exported for transport
// and positioner implementations; consumers of signals never call it.
func NewStatus() *Status {
	return &Status{done: make(chan struct{})}
}

// Finish resolves the status.  Calls after the first are no-ops.
func (s *Status) Finish(err error) {
	s.once.Do(func() {
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
		close(s.done)
	})
}

// Done returns a channel that is closed when the operation completes
func (s *Status) Done() <-chan struct{} {
	return s.done
}

// Resolved returns true if the operation has completed
func (s *Status) Resolved() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Err returns the outcome of the operation, or nil if it has not
// completed (or completed successfully); check Resolved or Done to
// distinguish the two.
func (s *Status) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Wait blocks until the operation completes and returns its outcome, or
// ErrStatusTimeout after the given duration.  A nonpositive timeout waits
// forever.
func (s *Status) Wait(timeout time.Duration) error {
	if timeout <= 0 {
		<-s.done
		return s.Err()
	}
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-s.done:
		return s.Err()
	case <-t.C:
		return ErrStatusTimeout
	}
}
