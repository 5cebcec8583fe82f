package ppu

import (
	"encoding/binary"
	"fmt"

	"nescore/internal/memory"
)

// State is the serialized PPU, including the frame in progress so a
// machine stopped at a breakpoint resumes with the same picture, and the
// last completed frame so a restored machine has something to show.
type State struct {
	Ctrl       uint8  `json:"ctrl"`
	Mask       uint8  `json:"mask"`
	Status     uint8  `json:"status"`
	OAMAddr    uint8  `json:"oamAddr"`
	V          uint16 `json:"v"`
	T          uint16 `json:"t"`
	X          uint8  `json:"x"`
	W          bool   `json:"w"`
	ReadBuffer uint8  `json:"readBuffer"`
	OpenBus    uint8  `json:"openBus"`
	OAM        []byte `json:"oam"`

	Scanline             int    `json:"scanline"`
	CurX                 int    `json:"curX"`
	OddFrame             bool   `json:"oddFrame"`
	Spr0HitX             int    `json:"spr0HitX"`
	Spr0HitY             int    `json:"spr0HitY"`
	RequestEndFrame      bool   `json:"requestEndFrame"`
	NMICounter           int    `json:"nmiCounter"`
	LastRenderedScanline int    `json:"lastRenderedScanline"`
	FrameCount           uint64 `json:"frameCount"`

	// Frame holds the working frame as little-endian ARGB words and
	// BGOpaque the background coverage as a bitset.
	Frame     []byte `json:"frame"`
	BGOpaque  []byte `json:"bgOpaque"`
	Completed []byte `json:"completed"`

	Video memory.VideoState `json:"video"`
}

// State captures the PPU.
func (p *PPU) State() State {
	s := State{
		Ctrl:       p.ppuCtrl,
		Mask:       p.ppuMask,
		Status:     p.ppuStatus,
		OAMAddr:    p.oamAddr,
		V:          p.v,
		T:          p.t,
		X:          p.x,
		W:          p.w,
		ReadBuffer: p.readBuffer,
		OpenBus:    p.openBus,
		OAM:        append([]byte(nil), p.oam[:]...),

		Scanline:             p.scanline,
		CurX:                 p.curX,
		OddFrame:             p.oddFrame,
		Spr0HitX:             p.spr0HitX,
		Spr0HitY:             p.spr0HitY,
		RequestEndFrame:      p.requestEndFrame,
		NMICounter:           p.nmiCounter,
		LastRenderedScanline: p.lastRenderedScanline,
		FrameCount:           p.frameCount,

		Frame:     encodeFrame(&p.frame),
		BGOpaque:  make([]byte, len(p.bgOpaque)/8),
		Completed: encodeFrame(&p.frameBuffer),
	}
	for i, o := range p.bgOpaque {
		if o {
			s.BGOpaque[i/8] |= 1 << (i % 8)
		}
	}
	if p.memory != nil {
		s.Video = p.memory.State()
	}
	return s
}

// SetState restores a captured PPU. Nothing is changed when the frame
// data has the wrong size.
func (p *PPU) SetState(s State) error {
	const frameBytes = ScreenWidth * ScreenHeight * 4
	if len(s.Frame) != frameBytes || len(s.Completed) != frameBytes ||
		len(s.BGOpaque) != len(p.bgOpaque)/8 || len(s.OAM) != len(p.oam) {
		return fmt.Errorf("ppu state: frame %d, completed %d, coverage %d, oam %d bytes",
			len(s.Frame), len(s.Completed), len(s.BGOpaque), len(s.OAM))
	}

	p.ppuCtrl = s.Ctrl
	p.ppuMask = s.Mask
	p.ppuStatus = s.Status
	p.oamAddr = s.OAMAddr
	p.v = s.V
	p.t = s.T
	p.x = s.X
	p.w = s.W
	p.readBuffer = s.ReadBuffer
	p.openBus = s.OpenBus
	copy(p.oam[:], s.OAM)

	p.scanline = s.Scanline
	p.curX = s.CurX
	p.oddFrame = s.OddFrame
	p.spr0HitX = s.Spr0HitX
	p.spr0HitY = s.Spr0HitY
	p.requestEndFrame = s.RequestEndFrame
	p.nmiCounter = s.NMICounter
	p.lastRenderedScanline = s.LastRenderedScanline
	p.frameCount = s.FrameCount

	decodeFrame(&p.frame, s.Frame)
	decodeFrame(&p.frameBuffer, s.Completed)
	for i := range p.bgOpaque {
		p.bgOpaque[i] = s.BGOpaque[i/8]&(1<<(i%8)) != 0
	}
	if p.memory != nil {
		p.memory.SetState(s.Video)
	}
	p.updateRenderingFlags()
	return nil
}

func encodeFrame(frame *[ScreenWidth * ScreenHeight]uint32) []byte {
	out := make([]byte, len(frame)*4)
	for i, c := range frame {
		binary.LittleEndian.PutUint32(out[i*4:], c)
	}
	return out
}

func decodeFrame(frame *[ScreenWidth * ScreenHeight]uint32, data []byte) {
	for i := range frame {
		frame[i] = binary.LittleEndian.Uint32(data[i*4:])
	}
}
