package aerotech

// Status is the axis status bitfield surfaced through the :AXIS_STATUS
// record.  The bit layout is the Ensemble AXISSTATUS word; this layer
// only decodes it for display, the state machine behind it lives in the
// controller firmware.
type Status int32

func (s Status) Enabled() bool            { return (s>>0)&1 == 1 }
func (s Status) Homed() bool              { return (s>>1)&1 == 1 }
func (s Status) InPosition() bool         { return (s>>2)&1 == 1 }
func (s Status) MoveActive() bool         { return (s>>3)&1 == 1 }
func (s Status) AccelPhase() bool         { return (s>>4)&1 == 1 }
func (s Status) DecelPhase() bool         { return (s>>5)&1 == 1 }
func (s Status) PositionCapture() bool    { return (s>>6)&1 == 1 }
func (s Status) CurrentClamp() bool       { return (s>>7)&1 == 1 }
func (s Status) BrakeOutput() bool        { return (s>>8)&1 == 1 }
func (s Status) MotionIsCw() bool         { return (s>>9)&1 == 1 }
func (s Status) MasterSlaveControl() bool { return (s>>10)&1 == 1 }
func (s Status) CalActive() bool          { return (s>>11)&1 == 1 }
func (s Status) CalEnabled() bool         { return (s>>12)&1 == 1 }
func (s Status) JoystickControl() bool    { return (s>>13)&1 == 1 }
func (s Status) Homing() bool             { return (s>>14)&1 == 1 }
func (s Status) MasterSuppress() bool     { return (s>>15)&1 == 1 }
func (s Status) GantryActive() bool       { return (s>>16)&1 == 1 }
func (s Status) GantryMaster() bool       { return (s>>17)&1 == 1 }
func (s Status) AutofocusActive() bool    { return (s>>18)&1 == 1 }
func (s Status) CommandFilterDone() bool  { return (s>>19)&1 == 1 }
func (s Status) InPosition2() bool        { return (s>>20)&1 == 1 }
func (s Status) ServoControl() bool       { return (s>>21)&1 == 1 }
func (s Status) CwEOTLimit() bool         { return (s>>22)&1 == 1 }
func (s Status) CcwEOTLimit() bool        { return (s>>23)&1 == 1 }
func (s Status) HomeLimit() bool          { return (s>>24)&1 == 1 }
func (s Status) MarkerInput() bool        { return (s>>25)&1 == 1 }
func (s Status) HallAInput() bool         { return (s>>26)&1 == 1 }
func (s Status) HallBInput() bool         { return (s>>27)&1 == 1 }
func (s Status) HallCInput() bool         { return (s>>28)&1 == 1 }
func (s Status) SineEncoderError() bool   { return (s>>29)&1 == 1 }
func (s Status) CosineEncoderError() bool { return (s>>30)&1 == 1 }
func (s Status) ESTOPInput() bool         { return (s>>31)&1 == 1 }

// All returns a k:v map of all bits in the bitfield
func (s Status) All() map[string]bool {
	return map[string]bool{
		"Enabled":            s.Enabled(),
		"Homed":              s.Homed(),
		"InPosition":         s.InPosition(),
		"MoveActive":         s.MoveActive(),
		"AccelPhase":         s.AccelPhase(),
		"DecelPhase":         s.DecelPhase(),
		"PositionCapture":    s.PositionCapture(),
		"CurrentClamp":       s.CurrentClamp(),
		"BrakeOutput":        s.BrakeOutput(),
		"MotionIsCw":         s.MotionIsCw(),
		"MasterSlaveControl": s.MasterSlaveControl(),
		"CalActive":          s.CalActive(),
		"CalEnabled":         s.CalEnabled(),
		"JoystickControl":    s.JoystickControl(),
		"Homing":             s.Homing(),
		"MasterSuppress":     s.MasterSuppress(),
		"GantryActive":       s.GantryActive(),
		"GantryMaster":       s.GantryMaster(),
		"AutofocusActive":    s.AutofocusActive(),
		"CommandFilterDone":  s.CommandFilterDone(),
		"InPosition2":        s.InPosition2(),
		"ServoControl":       s.ServoControl(),
		"CwEOTLimit":         s.CwEOTLimit(),
		"CcwEOTLimit":        s.CcwEOTLimit(),
		"HomeLimit":          s.HomeLimit(),
		"MarkerInput":        s.MarkerInput(),
		"HallAInput":         s.HallAInput(),
		"HallBInput":         s.HallBInput(),
		"HallCInput":         s.HallCInput(),
		"SineEncoderError":   s.SineEncoderError(),
		"CosineEncoderError": s.CosineEncoderError(),
		"ESTOPInput":         s.ESTOPInput(),
	}
}
