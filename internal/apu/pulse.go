package apu

// Duty cycle lookup table (8 steps each)
var dutyTable = [4][8]uint8{
	{0, 1, 0, 0, 0, 0, 0, 0}, // 12.5%
	{0, 1, 1, 0, 0, 0, 0, 0}, // 25%
	{0, 1, 1, 1, 1, 0, 0, 0}, // 50%
	{1, 0, 0, 1, 1, 1, 1, 1}, // 75%
}

// PulseChannel represents a pulse wave channel
type PulseChannel struct {
	Envelope Envelope `json:"envelope"`

	DutyCycle   uint8  `json:"dutyCycle"` // 0-3 (12.5%, 25%, 50%, 75%)
	DutyPos     uint8  `json:"dutyPos"`   // position in the 8-step sequence
	LengthHalt  bool   `json:"lengthHalt"`
	Length      uint8  `json:"length"`
	Timer       uint16 `json:"timer"` // 11-bit period
	TimerCount  uint16 `json:"timerCount"`
	SweepEnable bool   `json:"sweepEnable"`
	SweepPeriod uint8  `json:"sweepPeriod"`
	SweepNegate bool   `json:"sweepNegate"`
	SweepShift  uint8  `json:"sweepShift"`
	SweepReload bool   `json:"sweepReload"`
	SweepCount  uint8  `json:"sweepCount"`

	// onesComplement is set on pulse 1, whose negated sweep subtracts one
	// more than pulse 2's.
	onesComplement bool
}

// writeControl handles $4000/$4004.
func (p *PulseChannel) writeControl(value uint8) {
	p.DutyCycle = (value >> 6) & 0x03
	p.LengthHalt = value&0x20 != 0
	p.Envelope.write(value)
}

// writeSweep handles $4001/$4005.
func (p *PulseChannel) writeSweep(value uint8) {
	p.SweepEnable = value&0x80 != 0
	p.SweepPeriod = (value >> 4) & 0x07
	p.SweepNegate = value&0x08 != 0
	p.SweepShift = value & 0x07
	p.SweepReload = true
}

// writeTimerLow handles $4002/$4006.
func (p *PulseChannel) writeTimerLow(value uint8) {
	p.Timer = (p.Timer & 0xFF00) | uint16(value)
}

// writeTimerHigh handles $4003/$4007.
func (p *PulseChannel) writeTimerHigh(value uint8, enabled bool) {
	p.Timer = (p.Timer & 0x00FF) | (uint16(value&0x07) << 8)
	if enabled {
		p.Length = lengthTable[value>>3]
	}
	p.Envelope.Start = true
	p.DutyPos = 0
}

// stepTimer runs once per APU cycle.
func (p *PulseChannel) stepTimer() {
	if p.TimerCount == 0 {
		p.TimerCount = p.Timer
		p.DutyPos = (p.DutyPos + 1) & 0x07
	} else {
		p.TimerCount--
	}
}

func (p *PulseChannel) clockLength() {
	if !p.LengthHalt && p.Length > 0 {
		p.Length--
	}
}

// sweepTarget is the period the sweep unit would switch to.
func (p *PulseChannel) sweepTarget() uint16 {
	change := p.Timer >> p.SweepShift
	if !p.SweepNegate {
		return p.Timer + change
	}
	if p.onesComplement {
		change++
	}
	if change > p.Timer {
		return 0
	}
	return p.Timer - change
}

// muted reports whether the sweep unit silences the channel, which it does
// even when sweeping is disabled.
func (p *PulseChannel) muted() bool {
	return p.Timer < 8 || (!p.SweepNegate && p.sweepTarget() > 0x7FF)
}

func (p *PulseChannel) clockSweep() {
	if p.SweepCount == 0 && p.SweepEnable && p.SweepShift > 0 && !p.muted() {
		p.Timer = p.sweepTarget()
	}
	if p.SweepCount == 0 || p.SweepReload {
		p.SweepCount = p.SweepPeriod
		p.SweepReload = false
	} else {
		p.SweepCount--
	}
}

func (p *PulseChannel) output() uint8 {
	if p.Length == 0 || p.muted() || dutyTable[p.DutyCycle][p.DutyPos] == 0 {
		return 0
	}
	return p.Envelope.volume()
}

// Envelope is the volume unit shared by the pulse and noise channels.
type Envelope struct {
	Start    bool  `json:"start"`
	Loop     bool  `json:"loop"`
	Constant bool  `json:"constant"`
	Volume   uint8 `json:"volume"` // constant volume or divider period
	Divider  uint8 `json:"divider"`
	Decay    uint8 `json:"decay"`
}

func (e *Envelope) write(value uint8) {
	e.Loop = value&0x20 != 0
	e.Constant = value&0x10 != 0
	e.Volume = value & 0x0F
}

// clock runs on every quarter frame.
func (e *Envelope) clock() {
	if e.Start {
		e.Start = false
		e.Decay = 15
		e.Divider = e.Volume
		return
	}
	if e.Divider > 0 {
		e.Divider--
		return
	}
	e.Divider = e.Volume
	if e.Decay > 0 {
		e.Decay--
	} else if e.Loop {
		e.Decay = 15
	}
}

func (e *Envelope) volume() uint8 {
	if e.Constant {
		return e.Volume
	}
	return e.Decay
}
