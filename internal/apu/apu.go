// Package apu implements the Audio Processing Unit for the NES.
package apu

// CPUFrequency is the NTSC CPU clock in Hz.
const CPUFrequency = 1789773

// Frame sequencer steps in CPU cycles (NTSC).
const (
	frameStep1       = 7457
	frameStep2       = 14913
	frameStep3       = 22371
	frameStep4       = 29829
	frameIRQStep     = 29830
	frameStep5       = 37281
	statusFrameIRQ   = 0x40
	statusDMCIRQ     = 0x80
	frameModeFive    = 0x80
	frameIRQInhibit  = 0x40
	dcBlockingFactor = 0.996
)

// Length counter lookup table
var lengthTable = [32]uint8{
	10, 254, 20, 2, 40, 4, 80, 6,
	160, 8, 60, 10, 14, 12, 26, 14,
	12, 16, 24, 8, 48, 6, 96, 4,
	192, 2, 72, 16, 28, 32, 52, 2,
}

// SampleSink receives mixed samples in [-1, 1].
type SampleSink interface {
	WriteSample(sample float32)
}

// IRQLine is the CPU's IRQ input.
type IRQLine interface {
	RequestIRQ()
	AcknowledgeIRQ()
}

// Reader serves DMC sample fetches from CPU memory.
type Reader interface {
	Read(address uint16) uint8
}

// Staller suspends the CPU while the DMC steals the bus.
type Staller interface {
	Halt(cycles int)
}

// APU represents the NES Audio Processing Unit
type APU struct {
	// APU channels
	pulse1   PulseChannel
	pulse2   PulseChannel
	triangle TriangleChannel
	noise    NoiseChannel
	dmc      DMCChannel

	// Frame counter
	frameCounter   int  // CPU cycles into the sequence
	frameMode      bool // false = 4-step, true = 5-step
	frameIRQEnable bool
	frameIRQFlag   bool
	oddCycle       bool // APU timers run on every other CPU cycle

	// Channel enable flags ($4015)
	channelEnable uint8

	// Audio generation
	sampleRate  int
	accumulator int // fixed-point resampler phase, in Hz
	muted       bool
	sink        SampleSink
	filterIn    float64
	filterOut   float64

	irq     IRQLine
	reader  Reader
	staller Staller

	// Timing
	cycles uint64
}

// New creates a new APU producing sampleRate samples per second.
func New(sampleRate int) *APU {
	apu := &APU{sampleRate: sampleRate}
	apu.Reset()
	return apu
}

// Connect attaches the CPU-side lines. Any of them may be nil.
func (apu *APU) Connect(irq IRQLine, reader Reader, staller Staller) {
	apu.irq = irq
	apu.reader = reader
	apu.staller = staller
}

// SetSampleSink sets where samples go. A nil sink discards them.
func (apu *APU) SetSampleSink(sink SampleSink) {
	apu.sink = sink
}

// SetMuted discards samples while keeping every unit running, so muted
// and unmuted runs stay in step.
func (apu *APU) SetMuted(muted bool) {
	apu.muted = muted
}

// Reset resets the APU to its initial state
func (apu *APU) Reset() {
	apu.pulse1 = PulseChannel{onesComplement: true}
	apu.pulse2 = PulseChannel{}
	apu.triangle = TriangleChannel{}
	apu.noise = NoiseChannel{Shift: 1}
	apu.dmc = newDMC()

	apu.frameCounter = 0
	apu.frameMode = false
	apu.frameIRQEnable = true
	apu.frameIRQFlag = false
	apu.oddCycle = false
	apu.channelEnable = 0

	apu.accumulator = 0
	apu.filterIn = 0
	apu.filterOut = 0
	apu.cycles = 0
}

// ClockFrameCounter advances the APU by cpuCycles CPU cycles.
func (apu *APU) ClockFrameCounter(cpuCycles int) {
	for i := 0; i < cpuCycles; i++ {
		apu.step()
	}
}

func (apu *APU) step() {
	apu.cycles++

	apu.triangle.stepTimer()
	if apu.oddCycle {
		apu.pulse1.stepTimer()
		apu.pulse2.stepTimer()
		apu.noise.stepTimer()
		apu.dmc.stepTimer(apu)
	}
	apu.oddCycle = !apu.oddCycle

	apu.stepFrameCounter()
	apu.generateSample()
}

// stepFrameCounter handles frame counter timing
func (apu *APU) stepFrameCounter() {
	apu.frameCounter++

	switch apu.frameCounter {
	case frameStep1, frameStep3:
		apu.clockQuarterFrame()
	case frameStep2:
		apu.clockQuarterFrame()
		apu.clockHalfFrame()
	case frameStep4:
		if !apu.frameMode {
			apu.clockQuarterFrame()
			apu.clockHalfFrame()
		}
	case frameIRQStep:
		if !apu.frameMode {
			if apu.frameIRQEnable {
				apu.frameIRQFlag = true
				apu.raiseIRQ()
			}
			apu.frameCounter = 0
		}
	case frameStep5:
		apu.clockQuarterFrame()
		apu.clockHalfFrame()
		apu.frameCounter = 0
	}
}

// clockQuarterFrame clocks envelopes and the triangle linear counter.
func (apu *APU) clockQuarterFrame() {
	apu.pulse1.Envelope.clock()
	apu.pulse2.Envelope.clock()
	apu.noise.Envelope.clock()
	apu.triangle.clockLinear()
}

// clockHalfFrame clocks length counters and sweep units.
func (apu *APU) clockHalfFrame() {
	apu.pulse1.clockLength()
	apu.pulse1.clockSweep()
	apu.pulse2.clockLength()
	apu.pulse2.clockSweep()
	apu.triangle.clockLength()
	apu.noise.clockLength()
}

// generateSample emits sampleRate samples per CPUFrequency cycles using
// an integer phase accumulator.
func (apu *APU) generateSample() {
	apu.accumulator += apu.sampleRate
	if apu.accumulator < CPUFrequency {
		return
	}
	apu.accumulator -= CPUFrequency

	sample := apu.filter(apu.mix())
	if apu.muted || apu.sink == nil {
		return
	}
	apu.sink.WriteSample(sample)
}

// mix applies the NES nonlinear mixer. The result is in [0, 1].
func (apu *APU) mix() float64 {
	var pulseOut float64
	if sum := float64(apu.pulse1.output()) + float64(apu.pulse2.output()); sum != 0 {
		pulseOut = 95.88 / (8128.0/sum + 100.0)
	}

	tnd := float64(apu.triangle.output())/8227.0 +
		float64(apu.noise.output())/12241.0 +
		float64(apu.dmc.output())/22638.0
	var tndOut float64
	if tnd != 0 {
		tndOut = 159.79 / (1.0/tnd + 100.0)
	}
	return pulseOut + tndOut
}

// filter removes the DC offset so output is centred on zero, then clamps
// to [-1, 1].
func (apu *APU) filter(x float64) float32 {
	y := x - apu.filterIn + dcBlockingFactor*apu.filterOut
	apu.filterIn = x
	apu.filterOut = y

	y *= 2
	switch {
	case y > 1:
		y = 1
	case y < -1:
		y = -1
	}
	return float32(y)
}

func (apu *APU) raiseIRQ() {
	if apu.irq != nil {
		apu.irq.RequestIRQ()
	}
}

// lowerIRQ withdraws the request once no APU source is asserting it.
func (apu *APU) lowerIRQ() {
	if apu.irq != nil && !apu.frameIRQFlag && !apu.dmc.IRQFlag {
		apu.irq.AcknowledgeIRQ()
	}
}

// WriteRegister writes to an APU register
func (apu *APU) WriteRegister(address uint16, value uint8) {
	switch address {
	// Pulse Channel 1
	case 0x4000:
		apu.pulse1.writeControl(value)
	case 0x4001:
		apu.pulse1.writeSweep(value)
	case 0x4002:
		apu.pulse1.writeTimerLow(value)
	case 0x4003:
		apu.pulse1.writeTimerHigh(value, apu.channelEnable&0x01 != 0)

	// Pulse Channel 2
	case 0x4004:
		apu.pulse2.writeControl(value)
	case 0x4005:
		apu.pulse2.writeSweep(value)
	case 0x4006:
		apu.pulse2.writeTimerLow(value)
	case 0x4007:
		apu.pulse2.writeTimerHigh(value, apu.channelEnable&0x02 != 0)

	// Triangle Channel
	case 0x4008:
		apu.triangle.writeControl(value)
	case 0x400A:
		apu.triangle.writeTimerLow(value)
	case 0x400B:
		apu.triangle.writeTimerHigh(value, apu.channelEnable&0x04 != 0)

	// Noise Channel
	case 0x400C:
		apu.noise.writeControl(value)
	case 0x400E:
		apu.noise.writePeriod(value)
	case 0x400F:
		apu.noise.writeLength(value, apu.channelEnable&0x08 != 0)

	// DMC Channel
	case 0x4010:
		pending := apu.dmc.IRQFlag
		apu.dmc.writeControl(value)
		if pending && !apu.dmc.IRQFlag {
			apu.lowerIRQ()
		}
	case 0x4011:
		apu.dmc.writeDirectLoad(value)
	case 0x4012:
		apu.dmc.writeSampleAddress(value)
	case 0x4013:
		apu.dmc.writeSampleLength(value)

	// Control registers
	case 0x4015:
		apu.writeChannelEnable(value)
	case 0x4017:
		apu.writeFrameCounter(value)
	}
}

// writeChannelEnable writes to channel enable register ($4015)
func (apu *APU) writeChannelEnable(value uint8) {
	apu.channelEnable = value & 0x1F

	if apu.dmc.IRQFlag {
		apu.dmc.IRQFlag = false
		apu.lowerIRQ()
	}

	// Clear length counters for disabled channels
	if value&0x01 == 0 {
		apu.pulse1.Length = 0
	}
	if value&0x02 == 0 {
		apu.pulse2.Length = 0
	}
	if value&0x04 == 0 {
		apu.triangle.Length = 0
	}
	if value&0x08 == 0 {
		apu.noise.Length = 0
	}
	if value&0x10 == 0 {
		apu.dmc.BytesRemaining = 0
	} else if apu.dmc.BytesRemaining == 0 {
		apu.dmc.restart()
		apu.dmc.fetch(apu)
	}
}

// writeFrameCounter writes to frame counter register ($4017)
func (apu *APU) writeFrameCounter(value uint8) {
	apu.frameMode = value&frameModeFive != 0
	apu.frameIRQEnable = value&frameIRQInhibit == 0
	if !apu.frameIRQEnable && apu.frameIRQFlag {
		apu.frameIRQFlag = false
		apu.lowerIRQ()
	}

	apu.frameCounter = 0
	if apu.frameMode {
		apu.clockQuarterFrame()
		apu.clockHalfFrame()
	}
}

// ReadStatus reads the APU status register ($4015). The read clears the
// frame IRQ flag.
func (apu *APU) ReadStatus() uint8 {
	var status uint8
	if apu.pulse1.Length > 0 {
		status |= 0x01
	}
	if apu.pulse2.Length > 0 {
		status |= 0x02
	}
	if apu.triangle.Length > 0 {
		status |= 0x04
	}
	if apu.noise.Length > 0 {
		status |= 0x08
	}
	if apu.dmc.BytesRemaining > 0 {
		status |= 0x10
	}
	if apu.frameIRQFlag {
		status |= statusFrameIRQ
	}
	if apu.dmc.IRQFlag {
		status |= statusDMCIRQ
	}

	if apu.frameIRQFlag {
		apu.frameIRQFlag = false
		apu.lowerIRQ()
	}
	return status
}

// GetFrameIRQ returns the current frame counter IRQ flag
func (apu *APU) GetFrameIRQ() bool {
	return apu.frameIRQFlag
}

// GetDMCIRQ returns the current DMC IRQ flag
func (apu *APU) GetDMCIRQ() bool {
	return apu.dmc.IRQFlag
}

// SetSampleRate sets the target audio sample rate
func (apu *APU) SetSampleRate(rate int) {
	apu.sampleRate = rate
	apu.accumulator = 0
}

// GetSampleRate returns the current sample rate
func (apu *APU) GetSampleRate() int {
	return apu.sampleRate
}

// Cycles returns the CPU cycles the APU has been clocked for.
func (apu *APU) Cycles() uint64 {
	return apu.cycles
}

// GetChannelOutput returns the output level for a specific channel (for debugging)
func (apu *APU) GetChannelOutput(channel int) uint8 {
	switch channel {
	case 0:
		return apu.pulse1.output()
	case 1:
		return apu.pulse2.output()
	case 2:
		return apu.triangle.output()
	case 3:
		return apu.noise.output()
	case 4:
		return apu.dmc.output()
	default:
		return 0
	}
}
