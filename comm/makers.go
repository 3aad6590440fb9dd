package comm

import (
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/tarm/serial"
)

// TCPSetup opens a new TCP connection and sets a timeout on connect, read, and write
func TCPSetup(addr string, timeout time.Duration) (net.Conn, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, err
	}
	deadline := time.Now().Add(timeout)
	conn.SetReadDeadline(deadline)
	conn.SetWriteDeadline(deadline)
	return conn, nil
}

// TCPConnMaker returns a CreationFunc that dials addr with the given timeout
func TCPConnMaker(addr string, timeout time.Duration) CreationFunc {
	return func() (io.ReadWriteCloser, error) {
		return TCPSetup(addr, timeout)
	}
}

// BackingOffTCPConnMaker is like TCPConnMaker, but retries refused
// connections under an exponential backoff.  Some terminal servers drop
// the listener briefly when a previous connection is torn down; thrashing
// them with immediate redials only makes it worse.
func BackingOffTCPConnMaker(addr string, timeout time.Duration) CreationFunc {
	return func() (io.ReadWriteCloser, error) {
		var conn net.Conn
		wasTimeout := false
		op := func() error {
			var err error
			conn, err = TCPSetup(addr, timeout)
			if err != nil {
				errS := strings.ToLower(err.Error())
				if strings.Contains(errS, "refused") {
					return err // retriable
				}
				wasTimeout = true
				return nil // not retriable, captured below
			}
			return nil
		}
		err := backoff.Retry(op, &backoff.ExponentialBackOff{
			InitialInterval:     25 * time.Millisecond,
			RandomizationFactor: 0.,
			Multiplier:          2.,
			MaxInterval:         1 * time.Second,
			MaxElapsedTime:      3 * time.Second,
			Clock:               backoff.SystemClock})
		if err == nil && !wasTimeout {
			return conn, nil
		}
		if wasTimeout {
			return nil, fmt.Errorf("connection timeout to %s", addr)
		}
		return nil, err
	}
}

// SerialConnMaker returns a CreationFunc that opens the serial port named
// by addr, e.g. /dev/ttyS4 or COM3, at the given baud rate
func SerialConnMaker(addr string, baud int, timeout time.Duration) CreationFunc {
	return func() (io.ReadWriteCloser, error) {
		conf := &serial.Config{
			Name:        addr,
			Baud:        baud,
			ReadTimeout: timeout}
		return serial.OpenPort(conf)
	}
}
