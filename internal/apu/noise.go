package apu

// Noise period table (NTSC), in APU cycles.
var noisePeriodTable = [16]uint16{
	2, 4, 8, 16, 32, 48, 64, 80,
	101, 127, 190, 254, 381, 508, 1017, 2034,
}

// NoiseChannel represents the noise channel
type NoiseChannel struct {
	Envelope Envelope `json:"envelope"`

	LengthHalt  bool   `json:"lengthHalt"`
	Length      uint8  `json:"length"`
	Mode        bool   `json:"mode"` // short 93-step sequence
	PeriodIndex uint8  `json:"periodIndex"`
	TimerCount  uint16 `json:"timerCount"`
	Shift       uint16 `json:"shift"` // 15-bit LFSR
}

// writeControl handles $400C.
func (n *NoiseChannel) writeControl(value uint8) {
	n.LengthHalt = value&0x20 != 0
	n.Envelope.write(value)
}

// writePeriod handles $400E.
func (n *NoiseChannel) writePeriod(value uint8) {
	n.Mode = value&0x80 != 0
	n.PeriodIndex = value & 0x0F
}

// writeLength handles $400F.
func (n *NoiseChannel) writeLength(value uint8, enabled bool) {
	if enabled {
		n.Length = lengthTable[value>>3]
	}
	n.Envelope.Start = true
}

// stepTimer runs once per APU cycle.
func (n *NoiseChannel) stepTimer() {
	if n.TimerCount > 0 {
		n.TimerCount--
		return
	}
	n.TimerCount = noisePeriodTable[n.PeriodIndex] - 1

	tap := uint16(1)
	if n.Mode {
		tap = 6
	}
	feedback := (n.Shift ^ (n.Shift >> tap)) & 0x01
	n.Shift = (n.Shift >> 1) | (feedback << 14)
}

func (n *NoiseChannel) clockLength() {
	if !n.LengthHalt && n.Length > 0 {
		n.Length--
	}
}

func (n *NoiseChannel) output() uint8 {
	if n.Length == 0 || n.Shift&0x01 != 0 {
		return 0
	}
	return n.Envelope.volume()
}
