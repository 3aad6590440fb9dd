package pv

import (
	"fmt"
	"sync"
)

// PutRecord is one entry in a Mock's write journal
type PutRecord struct {
	Name  string
	Value float64
}

// Mock is an in-memory Conn.  It backs tests and the server's mock mode,
// where no gateway is reachable.  The zero value is not usable; create
// with NewMock.
type Mock struct {
	mu   sync.Mutex
	vals map[string]float64
	puts []PutRecord
}

// NewMock returns a Mock pre-seeded with the given PV values
func NewMock(seed map[string]float64) *Mock {
	vals := make(map[string]float64, len(seed))
	for k, v := range seed {
		vals[k] = v
	}
	return &Mock{vals: vals}
}

// Get implements Conn; unknown names error the way a gateway would
func (m *Mock) Get(name string) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.vals[name]
	if !ok {
		return 0, ErrRemote{Msg: fmt.Sprintf("no such record %s", name)}
	}
	return v, nil
}

// Put implements Conn and journals the write
func (m *Mock) Put(name string, value float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vals[name] = value
	m.puts = append(m.puts, PutRecord{Name: name, Value: value})
	return nil
}

// Store sets a value without touching the journal, as if the IOC changed
// it on its own
func (m *Mock) Store(name string, value float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vals[name] = value
}

// Puts returns a copy of the write journal
func (m *Mock) Puts() []PutRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]PutRecord, len(m.puts))
	copy(out, m.puts)
	return out
}
