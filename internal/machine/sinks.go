package machine

import (
	"nescore/internal/ppu"
)

// FrameSink receives every completed frame. The array is reused; copy it
// to keep it past the call.
type FrameSink interface {
	WriteFrame(frame *[ppu.ScreenWidth * ppu.ScreenHeight]uint32)
}

// AudioSink receives mixed samples in [-1, 1] at the configured rate.
type AudioSink interface {
	WriteSample(sample float32)
}

// StatusSink receives informational messages on load and reset.
type StatusSink interface {
	Status(message string)
}

// BatterySink is told about every PRG RAM write on battery-backed boards.
type BatterySink interface {
	WriteBatteryRAM(address uint16, value uint8)
}

// BatteryLoader supplies saved PRG RAM when a battery-backed image loads.
// A nil or short slice leaves the rest of RAM cleared.
type BatteryLoader interface {
	LoadBatteryRAM() []uint8
}

// BreakSink is told when Frame stops at a breakpoint.
type BreakSink interface {
	OnBreak(midFrame bool)
}

func (m *Machine) status(message string) {
	if m.opts.StatusSink != nil {
		m.opts.StatusSink.Status(message)
	}
}

func (m *Machine) writeFrame(frame *[ppu.ScreenWidth * ppu.ScreenHeight]uint32) {
	if m.opts.FrameSink != nil {
		m.opts.FrameSink.WriteFrame(frame)
	}
}

func (m *Machine) onBreak(midFrame bool) {
	if m.opts.BreakSink != nil {
		m.opts.BreakSink.OnBreak(midFrame)
	}
}
