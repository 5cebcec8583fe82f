package apu

// DMC rate table (NTSC), in APU cycles.
var dmcRateTable = [16]uint16{
	214, 190, 170, 160, 143, 127, 113, 107,
	95, 80, 71, 64, 53, 42, 36, 27,
}

// dmcFetchStall is the number of CPU cycles a sample fetch steals.
const dmcFetchStall = 4

// DMCChannel represents the Delta Modulation Channel
type DMCChannel struct {
	IRQEnable bool  `json:"irqEnable"`
	IRQFlag   bool  `json:"irqFlag"`
	Loop      bool  `json:"loop"`
	RateIndex uint8 `json:"rateIndex"`
	Level     uint8 `json:"level"` // 7-bit DAC value

	SampleAddress  uint16 `json:"sampleAddress"`
	SampleLength   uint16 `json:"sampleLength"`
	CurrentAddress uint16 `json:"currentAddress"`
	BytesRemaining uint16 `json:"bytesRemaining"`

	Buffer      uint8  `json:"buffer"`
	BufferEmpty bool   `json:"bufferEmpty"`
	Shift       uint8  `json:"shift"`
	BitsLeft    uint8  `json:"bitsLeft"`
	Silence     bool   `json:"silence"`
	TimerCount  uint16 `json:"timerCount"`
}

func newDMC() DMCChannel {
	return DMCChannel{
		BufferEmpty:   true,
		Silence:       true,
		BitsLeft:      8,
		SampleAddress: 0xC000,
		SampleLength:  1,
	}
}

// writeControl handles $4010.
func (d *DMCChannel) writeControl(value uint8) {
	d.IRQEnable = value&0x80 != 0
	d.Loop = value&0x40 != 0
	d.RateIndex = value & 0x0F
	if !d.IRQEnable {
		d.IRQFlag = false
	}
}

// writeDirectLoad handles $4011.
func (d *DMCChannel) writeDirectLoad(value uint8) {
	d.Level = value & 0x7F
}

// writeSampleAddress handles $4012.
func (d *DMCChannel) writeSampleAddress(value uint8) {
	d.SampleAddress = 0xC000 + uint16(value)<<6
}

// writeSampleLength handles $4013.
func (d *DMCChannel) writeSampleLength(value uint8) {
	d.SampleLength = uint16(value)<<4 + 1
}

// restart begins playback from the sample start when nothing is left.
func (d *DMCChannel) restart() {
	d.CurrentAddress = d.SampleAddress
	d.BytesRemaining = d.SampleLength
}

// stepTimer runs once per APU cycle and clocks the output unit when the
// rate divider expires.
func (d *DMCChannel) stepTimer(apu *APU) {
	if d.TimerCount > 0 {
		d.TimerCount--
		return
	}
	d.TimerCount = dmcRateTable[d.RateIndex] - 1

	if !d.Silence {
		if d.Shift&0x01 != 0 {
			if d.Level <= 125 {
				d.Level += 2
			}
		} else if d.Level >= 2 {
			d.Level -= 2
		}
		d.Shift >>= 1
	}

	d.BitsLeft--
	if d.BitsLeft == 0 {
		d.BitsLeft = 8
		if d.BufferEmpty {
			d.Silence = true
		} else {
			d.Silence = false
			d.Shift = d.Buffer
			d.BufferEmpty = true
			d.fetch(apu)
		}
	}
}

// fetch refills the sample buffer from CPU memory, stalling the CPU.
func (d *DMCChannel) fetch(apu *APU) {
	if !d.BufferEmpty || d.BytesRemaining == 0 || apu.reader == nil {
		return
	}
	if apu.staller != nil {
		apu.staller.Halt(dmcFetchStall)
	}
	d.Buffer = apu.reader.Read(d.CurrentAddress)
	d.BufferEmpty = false

	d.CurrentAddress++
	if d.CurrentAddress == 0 {
		d.CurrentAddress = 0x8000
	}
	d.BytesRemaining--
	if d.BytesRemaining == 0 {
		if d.Loop {
			d.restart()
		} else if d.IRQEnable {
			d.IRQFlag = true
			apu.raiseIRQ()
		}
	}
}

func (d *DMCChannel) output() uint8 {
	return d.Level
}
