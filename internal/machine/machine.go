// Package machine wires the CPU, PPU, APU, mapper and input ports into a
// console and runs it a frame at a time.
//
// A Machine is single-threaded. Sinks are called synchronously from Frame,
// LoadROM and Reset and must not call back into the Machine.
package machine

import (
	"fmt"

	"nescore/internal/cartridge"
	"nescore/internal/input"
	"nescore/internal/ppu"
)

// State is the lifecycle state of a Machine.
type State int

const (
	Unloaded State = iota
	Running
	Paused
	Break
)

func (s State) String() string {
	switch s {
	case Unloaded:
		return "unloaded"
	case Running:
		return "running"
	case Paused:
		return "paused"
	case Break:
		return "break"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Options configures a Machine. Start from DefaultOptions; every sink may
// be nil.
type Options struct {
	EmulateSound       bool
	SampleRate         int
	PreferredFrameRate int

	FrameSink     FrameSink
	AudioSink     AudioSink
	StatusSink    StatusSink
	BatterySink   BatterySink
	BatteryLoader BatteryLoader
	BreakSink     BreakSink
}

// DefaultOptions returns sound on at 44.1kHz and 60 frames per second.
func DefaultOptions() Options {
	return Options{
		EmulateSound:       true,
		SampleRate:         44100,
		PreferredFrameRate: 60,
	}
}

// FrameResult describes how a Frame call ended.
type FrameResult struct {
	// Break is set when the frame stopped at a breakpoint. The next Frame
	// call continues where it stopped.
	Break bool
}

// Machine is the console.
type Machine struct {
	opts  Options
	state State
	hw    *console
	input *input.InputState

	breakRequested bool
	breakScanline  int // -1 when unset
}

// New creates an unloaded Machine.
func New(opts Options) *Machine {
	defaults := DefaultOptions()
	if opts.SampleRate <= 0 {
		opts.SampleRate = defaults.SampleRate
	}
	if opts.PreferredFrameRate <= 0 {
		opts.PreferredFrameRate = defaults.PreferredFrameRate
	}

	m := &Machine{
		opts:          opts,
		breakScanline: -1,
	}
	m.input = input.NewInputState(lightSensor{m})
	return m
}

// lightSensor lets the zapper see whichever console is plugged in.
type lightSensor struct {
	m *Machine
}

func (s lightSensor) PixelBright(x, y int) bool {
	return s.m.hw != nil && s.m.hw.ppu.PixelBright(x, y)
}

// LoadROM decodes an iNES image and powers the console up with it. A
// malformed or unsupported image leaves the Machine as it was.
func (m *Machine) LoadROM(data []byte) error {
	rom, err := cartridge.Decode(data)
	if err != nil {
		return fmt.Errorf("load rom: %w", err)
	}
	hw, err := m.newConsole(rom)
	if err != nil {
		return fmt.Errorf("load rom: %w", err)
	}
	hw.loadBattery(m.opts.BatteryLoader)

	m.swap(hw, Running)
	m.input.Reset()
	m.status(fmt.Sprintf("Loaded ROM: mapper %d (%s), %d KiB PRG, %s mirroring",
		rom.MapperID, hw.mapper.Name(), len(rom.PRG)/1024, rom.Mirroring))
	return nil
}

// ReloadROM loads the current image again from its raw bytes.
func (m *Machine) ReloadROM() error {
	if m.hw == nil {
		return ErrNoROM
	}
	return m.LoadROM(m.hw.rom.Raw)
}

// Reset power-cycles the loaded image. Battery RAM is reloaded; held
// buttons are kept.
func (m *Machine) Reset() error {
	if m.hw == nil {
		return ErrNoROM
	}
	hw, err := m.newConsole(m.hw.rom)
	if err != nil {
		return err
	}
	hw.loadBattery(m.opts.BatteryLoader)
	m.swap(hw, Running)
	m.status("Reset")
	return nil
}

func (m *Machine) swap(hw *console, state State) {
	m.hw = hw
	m.state = state
	m.breakRequested = false
	m.breakScanline = -1
}

// Frame runs the console until the PPU finishes a frame, then hands the
// frame to the FrameSink. A breakpoint stops it early with Break set.
func (m *Machine) Frame() (FrameResult, error) {
	switch m.state {
	case Unloaded:
		return FrameResult{}, ErrNoROM
	case Paused:
		return FrameResult{}, ErrPaused
	}

	hw := m.hw
	midFrame := m.state == Break
	if !midFrame {
		hw.ppu.StartFrame()
	}
	m.state = Running

	for {
		if m.shouldBreak(hw) {
			m.state = Break
			m.onBreak(midFrame)
			return FrameResult{Break: true}, nil
		}

		cycles := hw.cpu.Emulate()
		midFrame = true
		hw.apu.ClockFrameCounter(cycles)

		// Dots left over after VBlank starts are dropped with the rest
		// of the instruction.
		for dots := cycles * 3; dots > 0; dots-- {
			if hw.ppu.Step() {
				m.writeFrame(hw.ppu.GetFrameBuffer())
				return FrameResult{}, nil
			}
		}
	}
}

func (m *Machine) shouldBreak(hw *console) bool {
	if m.breakRequested {
		m.breakRequested = false
		return true
	}
	if m.breakScanline >= 0 && hw.ppu.GetScanline() == m.breakScanline {
		m.breakScanline = -1
		return true
	}
	return false
}

// RequestBreak stops the running frame before its next instruction.
func (m *Machine) RequestBreak() {
	m.breakRequested = true
}

// BreakAt stops once, before the first instruction that starts while the
// PPU is on scanline. Scanlines count from the start of VBlank: 21 is the
// first visible line.
func (m *Machine) BreakAt(scanline int) {
	m.breakScanline = scanline
}

// Pause stops Frame from running until Resume.
func (m *Machine) Pause() {
	if m.state == Running {
		m.state = Paused
	}
}

// Resume undoes Pause.
func (m *Machine) Resume() {
	if m.state == Paused {
		m.state = Running
	}
}

// State returns the lifecycle state.
func (m *Machine) State() State {
	return m.state
}

// Options returns the options the Machine runs with.
func (m *Machine) Options() Options {
	return m.opts
}

// SetEmulateSound turns sample output on or off. The APU keeps running
// either way.
func (m *Machine) SetEmulateSound(on bool) {
	m.opts.EmulateSound = on
	if m.hw != nil {
		m.hw.apu.SetMuted(!on)
	}
}

// FrameBuffer returns the last completed frame, or nil when unloaded.
func (m *Machine) FrameBuffer() *[ppu.ScreenWidth * ppu.ScreenHeight]uint32 {
	if m.hw == nil {
		return nil
	}
	return m.hw.ppu.GetFrameBuffer()
}

// PartialFrame returns the frame drawn so far with the boundary marked,
// for display at a breakpoint.
func (m *Machine) PartialFrame() *[ppu.ScreenWidth * ppu.ScreenHeight]uint32 {
	if m.hw == nil {
		return nil
	}
	return m.hw.ppu.PartialFrame()
}

// FrameCount returns the number of frames completed since power-up.
func (m *Machine) FrameCount() uint64 {
	if m.hw == nil {
		return 0
	}
	return m.hw.ppu.GetFrameCount()
}

// ROM returns the loaded image, or nil.
func (m *Machine) ROM() *cartridge.ROM {
	if m.hw == nil {
		return nil
	}
	return m.hw.rom
}

// SetButtons sets every button of the controller on port 0 or 1.
func (m *Machine) SetButtons(port int, buttons input.Button) {
	if c := m.input.Controller(port); c != nil {
		c.SetButtons(buttons)
	}
}

// ButtonDown presses b on port 0 or 1.
func (m *Machine) ButtonDown(port int, b input.Button) {
	if c := m.input.Controller(port); c != nil {
		c.SetButton(b, true)
	}
}

// ButtonUp releases b on port 0 or 1.
func (m *Machine) ButtonUp(port int, b input.Button) {
	if c := m.input.Controller(port); c != nil {
		c.SetButton(b, false)
	}
}

// ZapperMove aims the light gun at screen position (x, y).
func (m *Machine) ZapperMove(x, y int) {
	m.input.Zapper.Move(x, y)
}

// ZapperFireDown pulls the trigger.
func (m *Machine) ZapperFireDown() {
	m.input.Zapper.SetTrigger(true)
}

// ZapperFireUp releases the trigger.
func (m *Machine) ZapperFireUp() {
	m.input.Zapper.SetTrigger(false)
}
