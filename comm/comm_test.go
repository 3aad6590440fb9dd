package comm_test

import (
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/nasa-jpl/epicsmotor/comm"
)

// tcpEchoServer starts an echo server on an OS-assigned port and returns
// its address
func tcpEchoServer(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal("could not listen:", err)
	}
	t.Cleanup(func() { ln.Close() })
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func() { io.Copy(conn, conn) }()
		}
	}()
	return ln.Addr().String()
}

func TestPoolReusesReturnedConnections(t *testing.T) {
	addr := tcpEchoServer(t)
	pool := comm.NewPool(1, time.Minute, comm.TCPConnMaker(addr, time.Second))
	conn, err := pool.Get()
	if err != nil {
		t.Fatal("could not get connection:", err)
	}
	pool.Put(conn)
	conn2, err := pool.Get()
	if err != nil {
		t.Fatal("could not get connection back:", err)
	}
	if conn != conn2 {
		t.Error("pool did not reuse the returned connection")
	}
	pool.Put(conn2)
	if pool.Size() != 1 {
		t.Errorf("pool size %d, expected 1", pool.Size())
	}
}

func TestPoolReturnWithErrorDestroys(t *testing.T) {
	addr := tcpEchoServer(t)
	pool := comm.NewPool(1, time.Minute, comm.TCPConnMaker(addr, time.Second))
	conn, err := pool.Get()
	if err != nil {
		t.Fatal("could not get connection:", err)
	}
	pool.ReturnWithError(conn, io.EOF)
	if pool.Size() != 0 {
		t.Errorf("pool size %d after destroying the only connection, expected 0", pool.Size())
	}
	if pool.Active() != 0 {
		t.Errorf("pool active %d, expected 0", pool.Active())
	}
}

func TestPoolConcurrentGetPut(t *testing.T) {
	addr := tcpEchoServer(t)
	pool := comm.NewPool(2, time.Minute, comm.TCPConnMaker(addr, time.Second))
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				conn, err := pool.Get()
				if err != nil {
					t.Error("get failed:", err)
					return
				}
				pool.Put(conn)
			}
		}()
	}
	wg.Wait()
	if pool.Active() != 0 {
		t.Errorf("pool active %d after all returns, expected 0", pool.Active())
	}
	if pool.Size() > 2 {
		t.Errorf("pool size %d, expected at most 2", pool.Size())
	}
}

func TestTerminatorRoundTrip(t *testing.T) {
	addr := tcpEchoServer(t)
	pool := comm.NewPool(1, time.Minute, comm.TCPConnMaker(addr, time.Second))
	conn, err := pool.Get()
	if err != nil {
		t.Fatal("could not get connection:", err)
	}
	defer func() { pool.ReturnWithError(conn, err) }()
	wrap := comm.NewTerminator(conn, '\n', '\n')
	_, err = io.WriteString(wrap, "hello")
	if err != nil {
		t.Fatal("write failed:", err)
	}
	buf := make([]byte, 64)
	n, err := wrap.Read(buf)
	if err != nil {
		t.Fatal("read failed:", err)
	}
	if string(buf[:n]) != "hello" {
		t.Errorf("expected hello, got %q", string(buf[:n]))
	}
}

func TestNewTimeoutRejectsPlainReadWriters(t *testing.T) {
	type rw struct{ io.ReadWriter }
	_, err := comm.NewTimeout(rw{}, time.Second)
	if err != comm.ErrTimeoutUnsupported {
		t.Errorf("expected ErrTimeoutUnsupported, got %v", err)
	}
}
