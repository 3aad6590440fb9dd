package motor_test

import (
	"errors"
	"testing"
	"time"

	"github.com/nasa-jpl/epicsmotor/motor"
	"github.com/nasa-jpl/epicsmotor/pv"
)

func newTestMotor(seed map[string]float64) (*motor.Motor, *pv.Mock) {
	mock := pv.NewMock(seed)
	m := motor.New(mock, "TST:M1")
	m.SettlePoll = time.Millisecond
	m.MoveTimeout = 250 * time.Millisecond
	return m, mock
}

func TestMoveWritesSetpointAndResolvesOnDone(t *testing.T) {
	m, mock := newTestMotor(map[string]float64{"TST:M1.DMOV": 1})
	st := m.Move(4.5)
	if err := st.Wait(time.Second); err != nil {
		t.Fatal("move failed:", err)
	}
	puts := mock.Puts()
	if len(puts) != 1 || puts[0].Name != "TST:M1.VAL" || puts[0].Value != 4.5 {
		t.Errorf("unexpected write journal %+v", puts)
	}
}

func TestMoveTimesOutWhenNeverDone(t *testing.T) {
	m, _ := newTestMotor(map[string]float64{"TST:M1.DMOV": 0})
	st := m.Move(1)
	err := st.Wait(time.Second)
	if !errors.Is(err, motor.ErrMoveTimeout) {
		t.Errorf("expected ErrMoveTimeout, got %v", err)
	}
}

func TestStopWritesStopRecord(t *testing.T) {
	m, mock := newTestMotor(nil)
	if err := m.Stop().Wait(time.Second); err != nil {
		t.Fatal("stop failed:", err)
	}
	puts := mock.Puts()
	if len(puts) != 1 || puts[0].Name != "TST:M1.STOP" || puts[0].Value != 1 {
		t.Errorf("unexpected write journal %+v", puts)
	}
}

func TestPositionReadsReadback(t *testing.T) {
	m, _ := newTestMotor(map[string]float64{"TST:M1.RBV": 12})
	pos, err := m.Position()
	if err != nil {
		t.Fatal("position failed:", err)
	}
	if pos != 12 {
		t.Errorf("expected 12, got %G", pos)
	}
}

func TestConnectMarksConnected(t *testing.T) {
	m, mock := newTestMotor(nil)
	if m.Connected() {
		t.Fatal("motor claims connected before any read")
	}
	for _, suffix := range []string{".VAL", ".RBV", ".DMOV", ".MOVN", ".VELO", ".LLS", ".HLS"} {
		mock.Store("TST:M1"+suffix, 0)
	}
	if err := m.Connect(); err != nil {
		t.Fatal("connect failed:", err)
	}
	if !m.Connected() {
		t.Error("motor not connected after successful connect")
	}
}

func TestConfigurationIncludesVelocity(t *testing.T) {
	m, _ := newTestMotor(map[string]float64{"TST:M1.VELO": 2.5})
	cfg, err := m.Configuration()
	if err != nil {
		t.Fatal("configuration failed:", err)
	}
	if v, ok := cfg["velocity"]; !ok || v != 2.5 {
		t.Errorf("expected velocity 2.5 in configuration, got %+v", cfg)
	}
}
