package aerotech_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nasa-jpl/epicsmotor/aerotech"
	"github.com/nasa-jpl/epicsmotor/pv"
)

// newTestStage returns a stage over a mock gateway with every record
// seeded and the move settle loop cranked down for test speed
func newTestStage(prefix string, seed map[string]float64) (*aerotech.Aero, *pv.Mock) {
	base := map[string]float64{
		prefix + ".VAL": 0, prefix + ".RBV": 0, prefix + ".DMOV": 1,
		prefix + ".MOVN": 0, prefix + ".VELO": 1,
		prefix + ".CNEN": 0, prefix + ".RCNT": 0, prefix + ".RTRY": 10,
		prefix + ".RDBD": 0.1, prefix + ":AXIS_FAULT": 0,
		prefix + ":AXIS_STATUS": 0,
	}
	for k, v := range seed {
		base[k] = v
	}
	mock := pv.NewMock(base)
	a := aerotech.NewAero(mock, prefix, aerotech.Linear)
	a.SettlePoll = time.Millisecond
	a.MoveTimeout = 250 * time.Millisecond
	return a, mock
}

// setpointPuts counts writes to the motion setpoint in the journal
func setpointPuts(mock *pv.Mock, prefix string) int {
	n := 0
	for _, p := range mock.Puts() {
		if p.Name == prefix+".VAL" {
			n++
		}
	}
	return n
}

func TestBindingAddressDerivation(t *testing.T) {
	// the suffix set is a contract with the IOC; all eight must resolve
	// bit-exactly from the prefix
	prefix := "XYZ"
	expect := map[string]string{
		"power":            "XYZ.CNEN",
		"retries":          "XYZ.RCNT",
		"retries_max":      "XYZ.RTRY",
		"retries_deadband": "XYZ.RDBD",
		"axis_fault":       "XYZ:AXIS_FAULT",
		"axis_status":      "XYZ:AXIS_STATUS",
		"clear_error":      "XYZ:CLEAR",
		"config":           "XYZ:CONFIG",
	}
	got := map[string]string{
		"power":            prefix + aerotech.PowerSuffix,
		"retries":          prefix + aerotech.RetriesSuffix,
		"retries_max":      prefix + aerotech.RetriesMaxSuffix,
		"retries_deadband": prefix + aerotech.RetriesDeadbandSuffix,
		"axis_fault":       prefix + aerotech.FaultSuffix,
		"axis_status":      prefix + aerotech.StatusSuffix,
		"clear_error":      prefix + aerotech.ClearSuffix,
		"config":           prefix + aerotech.ConfigSuffix,
	}
	for attr, addr := range expect {
		if got[attr] != addr {
			t.Errorf("%s resolves to %s, expected %s", attr, got[attr], addr)
		}
	}
}

func TestMoveWhileDisabled(t *testing.T) {
	a, mock := newTestStage("MOT:01", nil)
	_, err := a.Move(5)
	if err == nil {
		t.Fatal("move succeeded on a disabled motor")
	}
	var disabled aerotech.ErrMotorDisabled
	if !errors.As(err, &disabled) {
		t.Fatalf("expected ErrMotorDisabled, got %v", err)
	}
	if !errors.Is(err, aerotech.ErrDevice) {
		t.Error("ErrMotorDisabled does not match the base device error kind")
	}
	if !strings.Contains(err.Error(), "MOT:01") {
		t.Errorf("error does not name the device: %v", err)
	}
	// the refusal must be local; nothing reaches the motion subsystem
	if n := setpointPuts(mock, "MOT:01"); n != 0 {
		t.Errorf("disabled move issued %d setpoint writes", n)
	}
}

func TestEnableThenMoveScenario(t *testing.T) {
	a, mock := newTestStage("MOT:01", nil)
	if _, err := a.Move(5); err == nil {
		t.Fatal("move succeeded on a disabled motor")
	}
	if err := a.Enable().Wait(time.Second); err != nil {
		t.Fatal("enable failed:", err)
	}
	// enable writes exactly 1 to the power record
	found := false
	for _, p := range mock.Puts() {
		if p.Name == "MOT:01.CNEN" {
			found = true
			if p.Value != 1 {
				t.Errorf("enable wrote %G to power, expected 1", p.Value)
			}
		}
	}
	if !found {
		t.Fatal("enable did not write the power record")
	}
	st, err := a.Move(5)
	if err != nil {
		t.Fatal("move failed after enable:", err)
	}
	if err := st.Wait(time.Second); err != nil {
		t.Fatal("move did not resolve:", err)
	}
	if n := setpointPuts(mock, "MOT:01"); n != 1 {
		t.Errorf("expected exactly one setpoint write, got %d", n)
	}
}

func TestDisableWritesZero(t *testing.T) {
	a, mock := newTestStage("MOT:02", nil)
	if err := a.Disable().Wait(time.Second); err != nil {
		t.Fatal("disable failed:", err)
	}
	puts := mock.Puts()
	if len(puts) != 1 || puts[0].Name != "MOT:02.CNEN" || puts[0].Value != 0 {
		t.Errorf("unexpected write journal %+v", puts)
	}
}

func TestEnabledTracksLastKnownPower(t *testing.T) {
	a, mock := newTestStage("MOT:03", map[string]float64{"MOT:03.CNEN": 0})
	enabled, err := a.Enabled()
	if err != nil {
		t.Fatal("enabled query failed:", err)
	}
	if enabled {
		t.Error("enabled true with power 0")
	}
	// any nonzero value counts as enabled; refresh the cache to see it
	mock.Store("MOT:03.CNEN", 2)
	for _, s := range a.Monitored() {
		if _, err := s.Get(); err != nil {
			t.Fatal("refresh failed:", err)
		}
	}
	enabled, err = a.Enabled()
	if err != nil {
		t.Fatal("enabled query failed:", err)
	}
	if !enabled {
		t.Error("enabled false with power 2")
	}
}

func TestFaultedTracksAxisFault(t *testing.T) {
	a, _ := newTestStage("MOT:04", map[string]float64{"MOT:04:AXIS_FAULT": 1})
	faulted, err := a.Faulted()
	if err != nil {
		t.Fatal("faulted query failed:", err)
	}
	if !faulted {
		t.Error("faulted false with fault 1")
	}
}

func TestClearAndReconfigWriteOne(t *testing.T) {
	a, mock := newTestStage("MOT:05", nil)
	if err := a.Clear().Wait(time.Second); err != nil {
		t.Fatal("clear failed:", err)
	}
	if err := a.Reconfig().Wait(time.Second); err != nil {
		t.Fatal("reconfig failed:", err)
	}
	puts := mock.Puts()
	if len(puts) != 2 {
		t.Fatalf("expected 2 writes, got %+v", puts)
	}
	if puts[0].Name != "MOT:05:CLEAR" || puts[0].Value != 1 {
		t.Errorf("clear wrote %+v, expected 1 to MOT:05:CLEAR", puts[0])
	}
	if puts[1].Name != "MOT:05:CONFIG" || puts[1].Value != 1 {
		t.Errorf("reconfig wrote %+v, expected 1 to MOT:05:CONFIG", puts[1])
	}
}

func TestLimitSwitchesAreUnimplemented(t *testing.T) {
	a, _ := newTestStage("MOT:06", nil)
	if _, err := a.LowLimitSwitch.Get(); !errors.Is(err, pv.ErrUnimplemented) {
		t.Errorf("low limit switch read: expected ErrUnimplemented, got %v", err)
	}
	if _, err := a.HighLimitSwitch.Get(); !errors.Is(err, pv.ErrUnimplemented) {
		t.Errorf("high limit switch read: expected ErrUnimplemented, got %v", err)
	}
}

func TestConfigurationContainsPower(t *testing.T) {
	a, _ := newTestStage("MOT:07", map[string]float64{"MOT:07.CNEN": 1})
	attrs := a.ConfigurationAttrs()
	found := false
	for _, name := range attrs {
		if name == "power" {
			found = true
		}
	}
	if !found {
		t.Fatalf("power not in configuration attrs %v", attrs)
	}
	cfg, err := a.Configuration()
	if err != nil {
		t.Fatal("configuration failed:", err)
	}
	if v, ok := cfg["power"]; !ok || v != 1 {
		t.Errorf("expected power 1 in configuration, got %+v", cfg)
	}
}

func TestRetriesPassthrough(t *testing.T) {
	a, mock := newTestStage("MOT:08", map[string]float64{"MOT:08.RCNT": 3})
	n, err := a.Retries()
	if err != nil || n != 3 {
		t.Errorf("retries: expected 3, got %d (err %v)", n, err)
	}
	max, err := a.RetriesMax()
	if err != nil || max != 10 {
		t.Errorf("retries max: expected 10, got %d (err %v)", max, err)
	}
	if err := a.SetRetriesMax(5).Wait(time.Second); err != nil {
		t.Fatal("set retries max failed:", err)
	}
	if err := a.SetRetriesDeadband(0.25).Wait(time.Second); err != nil {
		t.Fatal("set retries deadband failed:", err)
	}
	puts := mock.Puts()
	if len(puts) != 2 || puts[0].Name != "MOT:08.RTRY" || puts[0].Value != 5 ||
		puts[1].Name != "MOT:08.RDBD" || puts[1].Value != 0.25 {
		t.Errorf("unexpected write journal %+v", puts)
	}
}

func TestKindConstructors(t *testing.T) {
	mock := pv.NewMock(nil)
	cases := []struct {
		a    *aerotech.Aero
		kind aerotech.StageKind
	}{
		{aerotech.NewRotationAero(mock, "R"), aerotech.Rotation},
		{aerotech.NewLinearAero(mock, "L"), aerotech.Linear},
		{aerotech.NewDiodeAero(mock, "D"), aerotech.Diode},
	}
	for _, c := range cases {
		if c.a.Kind() != c.kind {
			t.Errorf("constructor for %v produced kind %v", c.kind, c.a.Kind())
		}
	}
}

func TestAxisStatusUnsignedValue(t *testing.T) {
	// IOCs that serve the status word unsigned put the ESTOP bit past
	// the int32 sign bit; the decode must wrap, not go undefined
	a, mock := newTestStage("MOT:10", nil)
	mock.Store("MOT:10:AXIS_STATUS", 2147483649) // bits 31 and 0, unsigned
	s, err := a.AxisStatus()
	if err != nil {
		t.Fatal("axis status read failed:", err)
	}
	if !s.ESTOPInput() || !s.Enabled() {
		t.Errorf("unsigned status word misdecoded: %032b", uint32(s))
	}
	if s.Homed() {
		t.Error("unset bit decoded as set")
	}
}

func TestMoveErrorWhenPowerUnreadable(t *testing.T) {
	// an unreachable power record must surface its own error, not a
	// spurious disabled refusal
	mock := pv.NewMock(nil) // nothing seeded, every read errors
	a := aerotech.NewAero(mock, "MOT:09", aerotech.Rotation)
	a.SettlePoll = time.Millisecond
	_, err := a.Move(1)
	if err == nil {
		t.Fatal("move succeeded with unreadable power record")
	}
	var disabled aerotech.ErrMotorDisabled
	if errors.As(err, &disabled) {
		t.Error("communication failure misreported as disabled")
	}
}
