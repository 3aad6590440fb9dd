package pv

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nasa-jpl/epicsmotor/comm"
	"github.com/snksoft/crc"
)

// the gateway protocol is a line-oriented ASCII exchange with whatever
// service actually speaks Channel Access on our behalf:
//
//	get BL3:MOT:01.RBV          =>  ok 12.5
//	put BL3:MOT:01.CNEN 1       =>  ok
//	get BL3:MOT:99.RBV          =>  err no such record
//
// On serial links every line additionally carries an XMODEM CRC-16 of the
// payload, hex encoded after an asterisk: "get X.RBV*29B1".  Terminal
// servers on long RS232 runs flip bits often enough that this has paid
// for itself.

const (
	// Terminator is the request and reply line terminator
	Terminator = '\n'

	// MaxTries is the number of times a request is reattempted when the
	// gateway resets the connection under us
	MaxTries = 3
)

var crcTable = crc.NewTable(crc.XMODEM)

// ErrBadResponse is generated when the gateway's reply fits neither the
// ok nor the err shape
type ErrBadResponse struct {
	Resp string
}

func (e ErrBadResponse) Error() string {
	return fmt.Sprintf("bad response from gateway, expected ok or err, got %q", e.Resp)
}

// ErrRemote is generated when the gateway reports a failure from the
// control system, e.g. an unknown record or a disconnected IOC
type ErrRemote struct {
	Msg string
}

func (e ErrRemote) Error() string {
	return "remote error: " + e.Msg
}

// ErrBadChecksum is generated when a CRC-framed reply fails verification
type ErrBadChecksum struct {
	Resp string
}

func (e ErrBadChecksum) Error() string {
	return fmt.Sprintf("checksum mismatch on reply %q", e.Resp)
}

func checksum(msg string) uint16 {
	c := crcTable.InitCrc()
	c = crcTable.UpdateCrc(c, []byte(msg))
	return crcTable.CRC16(c)
}

func frame(msg string) string {
	return fmt.Sprintf("%s*%04X", msg, checksum(msg))
}

func deframe(msg string) (string, error) {
	idx := strings.LastIndexByte(msg, '*')
	if idx < 0 || len(msg)-idx != 5 {
		return "", ErrBadChecksum{msg}
	}
	body := msg[:idx]
	want, err := strconv.ParseUint(msg[idx+1:], 16, 16)
	if err != nil {
		return "", ErrBadChecksum{msg}
	}
	if checksum(body) != uint16(want) {
		return "", ErrBadChecksum{msg}
	}
	return body, nil
}

// Gateway is a Conn over a PV gateway service, reached by TCP or by a
// serial line hung off a terminal server
type Gateway struct {
	pool    *comm.Pool
	timeout time.Duration
	framed  bool // CRC framing, used on serial links
}

// NewGateway returns a Gateway talking to addr.  addr is host:port for
// TCP, or a serial device path when connectSerial is true.  Serial links
// use CRC framing.
func NewGateway(addr string, connectSerial bool) *Gateway {
	var maker comm.CreationFunc
	if connectSerial {
		maker = comm.SerialConnMaker(addr, 115200, 3*time.Second)
	} else {
		maker = comm.BackingOffTCPConnMaker(addr, 3*time.Second)
	}
	// one connection; the gateway serializes puts per connection and we
	// lean on that for write ordering
	pool := comm.NewPool(1, 30*time.Second, maker)
	return &Gateway{pool: pool, timeout: 10 * time.Second, framed: connectSerial}
}

func (g *Gateway) writeRead(msg string) (string, error) {
	if g.framed {
		msg = frame(msg)
	}
	var lastErr error
	for tries := 0; tries < MaxTries; tries++ {
		conn, err := g.pool.Get()
		if err != nil {
			return "", err
		}
		wrap, err := comm.NewTimeout(conn, g.timeout)
		if err != nil && err != comm.ErrTimeoutUnsupported {
			g.pool.Destroy(conn)
			return "", err
		}
		var rw io.ReadWriter = comm.NewTerminator(wrap, Terminator, Terminator)
		resp, err := exchange(rw, msg)
		if err != nil {
			// the gateway recycles idle connections; remake ours and go
			// again if it was reset, bail on anything else
			if strings.Contains(err.Error(), "reset") {
				lastErr = err
				g.pool.Destroy(conn)
				continue
			}
			g.pool.Destroy(conn)
			return "", err
		}
		g.pool.Put(conn)
		if g.framed {
			return deframe(resp)
		}
		return resp, nil
	}
	return "", lastErr
}

func exchange(rw io.ReadWriter, msg string) (string, error) {
	_, err := io.WriteString(rw, msg)
	if err != nil {
		return "", err
	}
	// replies are a single line inside one TCP frame
	buf := make([]byte, 1500)
	n, err := rw.Read(buf)
	if err != nil {
		return "", err
	}
	return string(buf[:n]), nil
}

// parseReply splits a reply line into its value (if any) and error
func parseReply(line string) (float64, bool, error) {
	fields := strings.SplitN(line, " ", 2)
	switch fields[0] {
	case "ok":
		if len(fields) == 1 {
			return 0, false, nil
		}
		v, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return 0, false, ErrBadResponse{line}
		}
		return v, true, nil
	case "err":
		msg := ""
		if len(fields) > 1 {
			msg = fields[1]
		}
		return 0, false, ErrRemote{msg}
	default:
		return 0, false, ErrBadResponse{line}
	}
}

// Get implements Conn
func (g *Gateway) Get(name string) (float64, error) {
	resp, err := g.writeRead("get " + name)
	if err != nil {
		return 0, err
	}
	v, ok, err := parseReply(resp)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrBadResponse{resp}
	}
	return v, nil
}

// Put implements Conn
func (g *Gateway) Put(name string, value float64) error {
	vS := strconv.FormatFloat(value, 'G', -1, 64)
	resp, err := g.writeRead(fmt.Sprintf("put %s %s", name, vS))
	if err != nil {
		return err
	}
	_, _, err = parseReply(resp)
	return err
}
