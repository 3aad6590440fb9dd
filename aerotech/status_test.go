package aerotech

import "testing"

func TestStatusBitDecode(t *testing.T) {
	var s Status = 1<<0 | 1<<2 | 1<<23
	if !s.Enabled() {
		t.Error("bit 0 set but Enabled false")
	}
	if !s.InPosition() {
		t.Error("bit 2 set but InPosition false")
	}
	if !s.CcwEOTLimit() {
		t.Error("bit 23 set but CcwEOTLimit false")
	}
	if s.Homed() || s.MoveActive() || s.ESTOPInput() {
		t.Error("unset bits decoded as set")
	}
}

func TestStatusNegativeBitfield(t *testing.T) {
	// AXIS_STATUS arrives as a signed 32-bit value; the sign bit is the
	// ESTOP input
	s := Status(-1)
	if !s.ESTOPInput() {
		t.Error("bit 31 set but ESTOPInput false")
	}
	all := s.All()
	for name, v := range all {
		if !v {
			t.Errorf("all-ones bitfield decoded %s as false", name)
		}
	}
	if len(all) != 32 {
		t.Errorf("expected 32 bits, got %d", len(all))
	}
}
