package comm

import (
	"errors"
	"io"
	"time"
)

// ErrTimeoutUnsupported is generated when NewTimeout is given a connection
// that has no concept of deadlines, e.g. a serial port, whose timeout is
// fixed when the port is opened.
var ErrTimeoutUnsupported = errors.New("connection does not support deadlines")

// deadliner is the part of net.Conn used to implement per-call timeouts
type deadliner interface {
	SetReadDeadline(time.Time) error
	SetWriteDeadline(time.Time) error
}

// Terminator wraps a ReadWriter, appending the Tx terminator to each write
// and stripping trailing Rx terminators from each read.
type Terminator struct {
	rw io.ReadWriter
	rx byte
	tx byte
}

// NewTerminator returns a Terminator around rw with the given Rx and Tx
// termination bytes.
func NewTerminator(rw io.ReadWriter, rx, tx byte) *Terminator {
	return &Terminator{rw: rw, rx: rx, tx: tx}
}

// Write sends b with the Tx terminator appended, unless b already ends in it
func (t *Terminator) Write(b []byte) (int, error) {
	if len(b) == 0 || b[len(b)-1] != t.tx {
		b = append(b, t.tx)
	}
	return t.rw.Write(b)
}

// Read reads into b and strips any trailing Rx terminators from the result
func (t *Terminator) Read(b []byte) (int, error) {
	n, err := t.rw.Read(b)
	for n > 0 && b[n-1] == t.rx {
		n--
	}
	return n, err
}

// Underlying returns the wrapped ReadWriter
func (t *Terminator) Underlying() io.ReadWriter {
	return t.rw
}

// SetReadDeadline forwards to the wrapped connection if it supports deadlines
func (t *Terminator) SetReadDeadline(tm time.Time) error {
	if d, ok := t.rw.(deadliner); ok {
		return d.SetReadDeadline(tm)
	}
	return ErrTimeoutUnsupported
}

// SetWriteDeadline forwards to the wrapped connection if it supports deadlines
func (t *Terminator) SetWriteDeadline(tm time.Time) error {
	if d, ok := t.rw.(deadliner); ok {
		return d.SetWriteDeadline(tm)
	}
	return ErrTimeoutUnsupported
}

// timeout wraps a ReadWriter, bumping the deadline before each Read or Write
type timeout struct {
	rw io.ReadWriter
	d  deadliner
	t  time.Duration
}

// NewTimeout wraps rw such that each Read or Write must complete within t.
// If rw has no deadline support the original rw is returned along with
// ErrTimeoutUnsupported; callers talking to serial ports, which configure
// their timeout at open, may ignore that error.
func NewTimeout(rw io.ReadWriter, t time.Duration) (io.ReadWriter, error) {
	if d, ok := rw.(deadliner); ok {
		return &timeout{rw: rw, d: d, t: t}, nil
	}
	return rw, ErrTimeoutUnsupported
}

func (t *timeout) Read(b []byte) (int, error) {
	err := t.d.SetReadDeadline(time.Now().Add(t.t))
	if err != nil {
		return 0, err
	}
	return t.rw.Read(b)
}

func (t *timeout) Write(b []byte) (int, error) {
	err := t.d.SetWriteDeadline(time.Now().Add(t.t))
	if err != nil {
		return 0, err
	}
	return t.rw.Write(b)
}
