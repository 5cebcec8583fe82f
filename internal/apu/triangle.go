package apu

// Triangle wave sequence (32 steps)
var triangleTable = [32]uint8{
	15, 14, 13, 12, 11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1, 0,
	0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15,
}

// TriangleChannel represents the triangle wave channel
type TriangleChannel struct {
	Control      bool   `json:"control"` // length halt and linear counter control
	LinearLoad   uint8  `json:"linearLoad"`
	LinearCount  uint8  `json:"linearCount"`
	LinearReload bool   `json:"linearReload"`
	Length       uint8  `json:"length"`
	Timer        uint16 `json:"timer"`
	TimerCount   uint16 `json:"timerCount"`
	SequencerPos uint8  `json:"sequencerPos"`
}

// writeControl handles $4008.
func (t *TriangleChannel) writeControl(value uint8) {
	t.Control = value&0x80 != 0
	t.LinearLoad = value & 0x7F
}

// writeTimerLow handles $400A.
func (t *TriangleChannel) writeTimerLow(value uint8) {
	t.Timer = (t.Timer & 0xFF00) | uint16(value)
}

// writeTimerHigh handles $400B.
func (t *TriangleChannel) writeTimerHigh(value uint8, enabled bool) {
	t.Timer = (t.Timer & 0x00FF) | (uint16(value&0x07) << 8)
	if enabled {
		t.Length = lengthTable[value>>3]
	}
	t.LinearReload = true
}

// stepTimer runs every CPU cycle. The sequencer only moves while both
// counters are non-zero, so a silenced triangle holds its last level.
func (t *TriangleChannel) stepTimer() {
	if t.TimerCount == 0 {
		t.TimerCount = t.Timer
		if t.Length > 0 && t.LinearCount > 0 {
			t.SequencerPos = (t.SequencerPos + 1) & 0x1F
		}
	} else {
		t.TimerCount--
	}
}

// clockLinear runs on every quarter frame.
func (t *TriangleChannel) clockLinear() {
	if t.LinearReload {
		t.LinearCount = t.LinearLoad
	} else if t.LinearCount > 0 {
		t.LinearCount--
	}
	if !t.Control {
		t.LinearReload = false
	}
}

func (t *TriangleChannel) clockLength() {
	if !t.Control && t.Length > 0 {
		t.Length--
	}
}

func (t *TriangleChannel) output() uint8 {
	return triangleTable[t.SequencerPos]
}
