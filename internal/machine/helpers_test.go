package machine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"nescore/internal/cartridge"
	"nescore/internal/ppu"
)

// demoProgram waits two VBlanks, fills the palette, the first nametable and
// OAM, starts a pulse tone, then enables NMI and rendering and spins.
var demoProgram = []uint8{
	0x78,             // F000 SEI
	0xD8,             // F001 CLD
	0xA2, 0xFF,       // F002 LDX #$FF
	0x9A,             // F004 TXS
	0xAD, 0x02, 0x20, // F005 LDA $2002
	0x10, 0xFB,       // F008 BPL $F005
	0xAD, 0x02, 0x20, // F00A LDA $2002
	0x10, 0xFB,       // F00D BPL $F00A
	0xA9, 0x3F,       // F00F LDA #$3F
	0x8D, 0x06, 0x20, // F011 STA $2006
	0xA9, 0x00,       // F014 LDA #$00
	0x8D, 0x06, 0x20, // F016 STA $2006
	0xA2, 0x00,       // F019 LDX #$00
	0x8A,             // F01B TXA
	0x8D, 0x07, 0x20, // F01C STA $2007
	0xE8,             // F01F INX
	0xE0, 0x20,       // F020 CPX #$20
	0xD0, 0xF7,       // F022 BNE $F01B
	0xA9, 0x20,       // F024 LDA #$20
	0x8D, 0x06, 0x20, // F026 STA $2006
	0xA9, 0x00,       // F029 LDA #$00
	0x8D, 0x06, 0x20, // F02B STA $2006
	0xA0, 0x04,       // F02E LDY #$04
	0xA2, 0x00,       // F030 LDX #$00
	0x8A,             // F032 TXA
	0x8D, 0x07, 0x20, // F033 STA $2007
	0xE8,             // F036 INX
	0xD0, 0xF9,       // F037 BNE $F032
	0x88,             // F039 DEY
	0xD0, 0xF6,       // F03A BNE $F032
	0xA2, 0x00,       // F03C LDX #$00
	0x8A,             // F03E TXA
	0x9D, 0x00, 0x02, // F03F STA $0200,X
	0xE8,             // F042 INX
	0xD0, 0xF9,       // F043 BNE $F03E
	0xA9, 0x02,       // F045 LDA #$02
	0x8D, 0x14, 0x40, // F047 STA $4014
	0xA9, 0x01,       // F04A LDA #$01
	0x8D, 0x15, 0x40, // F04C STA $4015
	0xA9, 0xBF,       // F04F LDA #$BF
	0x8D, 0x00, 0x40, // F051 STA $4000
	0xA9, 0xFD,       // F054 LDA #$FD
	0x8D, 0x02, 0x40, // F056 STA $4002
	0xA9, 0x08,       // F059 LDA #$08
	0x8D, 0x03, 0x40, // F05B STA $4003
	0xA9, 0x80,       // F05E LDA #$80
	0x8D, 0x00, 0x20, // F060 STA $2000
	0xA9, 0x1E,       // F063 LDA #$1E
	0x8D, 0x01, 0x20, // F065 STA $2001
	0xE6, 0x10,       // F068 INC $10
	0x4C, 0x68, 0xF0, // F06A JMP $F068
}

// demoNMI scrolls by one pixel per frame, reloads OAM and samples the A
// button of pad 1 into $12.
var demoNMI = []uint8{
	0x48,             // F800 PHA
	0xE6, 0x11,       // F801 INC $11
	0xA5, 0x11,       // F803 LDA $11
	0x8D, 0x05, 0x20, // F805 STA $2005
	0x8D, 0x05, 0x20, // F808 STA $2005
	0xA9, 0x02,       // F80B LDA #$02
	0x8D, 0x14, 0x40, // F80D STA $4014
	0xA9, 0x01,       // F810 LDA #$01
	0x8D, 0x16, 0x40, // F812 STA $4016
	0xA9, 0x00,       // F815 LDA #$00
	0x8D, 0x16, 0x40, // F817 STA $4016
	0xAD, 0x16, 0x40, // F81A LDA $4016
	0x29, 0x01,       // F81D AND #$01
	0x85, 0x12,       // F81F STA $12
	0x68,             // F821 PLA
	0x40,             // F822 RTI
}

// mmc3IRQProgram inhibits the APU frame IRQ, arms the MMC3 counter with a
// latch of 20, turns the background on and waits for the IRQ.
var mmc3IRQProgram = []uint8{
	0x78,             // F000 SEI
	0xD8,             // F001 CLD
	0xA2, 0xFF,       // F002 LDX #$FF
	0x9A,             // F004 TXS
	0xAD, 0x02, 0x20, // F005 LDA $2002
	0x10, 0xFB,       // F008 BPL $F005
	0xAD, 0x02, 0x20, // F00A LDA $2002
	0x10, 0xFB,       // F00D BPL $F00A
	0xA9, 0x40,       // F00F LDA #$40
	0x8D, 0x17, 0x40, // F011 STA $4017
	0xA9, 0x14,       // F014 LDA #20
	0x8D, 0x00, 0xC0, // F016 STA $C000
	0x8D, 0x01, 0xC0, // F019 STA $C001
	0x8D, 0x01, 0xE0, // F01C STA $E001
	0xA9, 0x08,       // F01F LDA #$08
	0x8D, 0x01, 0x20, // F021 STA $2001
	0x58,             // F024 CLI
	0xE6, 0x10,       // F025 INC $10
	0x4C, 0x25, 0xF0, // F027 JMP $F025
}

// mmc3IRQHandler counts IRQs in $13 and disables further ones.
var mmc3IRQHandler = []uint8{
	0xE6, 0x13,       // FC00 INC $13
	0x8D, 0x00, 0xE0, // FC02 STA $E000
	0x40,             // FC05 RTI
}

// batteryProgram stores $42 at $6000 and spins.
var batteryProgram = []uint8{
	0xA9, 0x42,       // F000 LDA #$42
	0x8D, 0x00, 0x60, // F002 STA $6000
	0x4C, 0x05, 0xF0, // F005 JMP $F005
}

// demoCHR is a fixed, busy pattern so background tiles differ.
func demoCHR() []uint8 {
	chr := make([]uint8, 0x2000)
	for i := range chr {
		chr[i] = uint8(i*37) ^ uint8(i>>3)
	}
	return chr
}

func demoROM(mapper int) []byte {
	return cartridge.NewTestROM().
		WithMapper(mapper).
		WithPRGBanks(2).
		WithCHRBanks(1).
		WithMirroring(cartridge.MirrorVertical).
		WithCHR(demoCHR()).
		WithProgram(demoProgram).
		WithNMIHandler(demoNMI).
		Build()
}

type frameRecorder struct {
	frames [][]uint32
}

func (r *frameRecorder) WriteFrame(frame *[ppu.ScreenWidth * ppu.ScreenHeight]uint32) {
	r.frames = append(r.frames, append([]uint32(nil), frame[:]...))
}

type sampleRecorder struct {
	samples []float32
}

func (r *sampleRecorder) WriteSample(sample float32) {
	r.samples = append(r.samples, sample)
}

type statusRecorder struct {
	messages []string
}

func (r *statusRecorder) Status(message string) {
	r.messages = append(r.messages, message)
}

type breakRecorder struct {
	breaks []bool
}

func (r *breakRecorder) OnBreak(midFrame bool) {
	r.breaks = append(r.breaks, midFrame)
}

type batteryRecorder struct {
	writes [][2]uint16
	saved  []uint8
}

func (r *batteryRecorder) WriteBatteryRAM(address uint16, value uint8) {
	r.writes = append(r.writes, [2]uint16{address, uint16(value)})
}

func (r *batteryRecorder) LoadBatteryRAM() []uint8 {
	return r.saved
}

// testMachine bundles a machine with recording sinks.
type testMachine struct {
	*Machine
	video  *frameRecorder
	audio  *sampleRecorder
	status *statusRecorder
	brk    *breakRecorder
}

func newTestMachine(t *testing.T, rom []byte) *testMachine {
	t.Helper()
	tm := &testMachine{
		video:  &frameRecorder{},
		audio:  &sampleRecorder{},
		status: &statusRecorder{},
		brk:    &breakRecorder{},
	}
	opts := DefaultOptions()
	opts.FrameSink = tm.video
	opts.AudioSink = tm.audio
	opts.StatusSink = tm.status
	opts.BreakSink = tm.brk
	tm.Machine = New(opts)
	if rom != nil {
		require.NoError(t, tm.LoadROM(rom))
	}
	return tm
}

// runFrames runs n complete frames.
func (tm *testMachine) runFrames(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		res, err := tm.Frame()
		require.NoError(t, err)
		require.False(t, res.Break)
	}
}

func (tm *testMachine) lastFrame() []uint32 {
	return tm.video.frames[len(tm.video.frames)-1]
}

func (tm *testMachine) ram(address uint16) uint8 {
	return tm.hw.mem.RAM()[address]
}
