package apu

// State is the serializable APU state.
type State struct {
	Pulse1   PulseChannel    `json:"pulse1"`
	Pulse2   PulseChannel    `json:"pulse2"`
	Triangle TriangleChannel `json:"triangle"`
	Noise    NoiseChannel    `json:"noise"`
	DMC      DMCChannel      `json:"dmc"`

	FrameCounter   int    `json:"frameCounter"`
	FiveStep       bool   `json:"fiveStep"`
	FrameIRQEnable bool   `json:"frameIrqEnable"`
	FrameIRQFlag   bool   `json:"frameIrqFlag"`
	OddCycle       bool   `json:"oddCycle"`
	ChannelEnable  uint8  `json:"channelEnable"`
	Cycles         uint64 `json:"cycles"`

	Accumulator int     `json:"accumulator"`
	FilterIn    float64 `json:"filterIn"`
	FilterOut   float64 `json:"filterOut"`
}

// State captures everything the APU needs to continue bit-identically.
func (apu *APU) State() State {
	return State{
		Pulse1:         apu.pulse1,
		Pulse2:         apu.pulse2,
		Triangle:       apu.triangle,
		Noise:          apu.noise,
		DMC:            apu.dmc,
		FrameCounter:   apu.frameCounter,
		FiveStep:       apu.frameMode,
		FrameIRQEnable: apu.frameIRQEnable,
		FrameIRQFlag:   apu.frameIRQFlag,
		OddCycle:       apu.oddCycle,
		ChannelEnable:  apu.channelEnable,
		Cycles:         apu.cycles,
		Accumulator:    apu.accumulator,
		FilterIn:       apu.filterIn,
		FilterOut:      apu.filterOut,
	}
}

// SetState restores a State. Sample rate, sinks and mute are left alone.
func (apu *APU) SetState(s State) {
	apu.pulse1 = s.Pulse1
	apu.pulse1.onesComplement = true
	apu.pulse2 = s.Pulse2
	apu.pulse2.onesComplement = false
	apu.triangle = s.Triangle
	apu.noise = s.Noise
	apu.dmc = s.DMC

	apu.frameCounter = s.FrameCounter
	apu.frameMode = s.FiveStep
	apu.frameIRQEnable = s.FrameIRQEnable
	apu.frameIRQFlag = s.FrameIRQFlag
	apu.oddCycle = s.OddCycle
	apu.channelEnable = s.ChannelEnable
	apu.cycles = s.Cycles

	apu.accumulator = s.Accumulator
	apu.filterIn = s.FilterIn
	apu.filterOut = s.FilterOut
}
