// Package ppu implements the Picture Processing Unit for the NES.
//
// The PPU is driven dot by dot from the machine's frame loop but renders a
// scanline at a time: the background of each line is drawn when the
// previous line ends, and sprites are composited lazily, just before
// anything that could change their appearance.
package ppu

import (
	"nescore/internal/cartridge"
	"nescore/internal/memory"
)

// Frame geometry and timing.
const (
	ScreenWidth  = 256
	ScreenHeight = 240

	dotsPerScanline = 341

	// Scanline numbering used by the frame loop.
	lastVBlankScanline = 19
	preRenderScanline  = 20
	firstVisible       = 21
	lastVisible        = 260
	postRenderScanline = 261

	// Dots between the post-render line ending and VBlank starting.
	nmiDelay = 9
)

// PPUCTRL bits.
const (
	ctrlNametableMask   = 0x03
	ctrlIncrement32     = 0x04
	ctrlSpriteTable     = 0x08
	ctrlBackgroundTable = 0x10
	ctrlSprite8x16      = 0x20
	ctrlNMIEnable       = 0x80
)

// PPUMASK bits.
const (
	maskGreyscale      = 0x01
	maskBackgroundLeft = 0x02
	maskSpritesLeft    = 0x04
	maskBackground     = 0x08
	maskSprites        = 0x10
)

// PPUSTATUS bits.
const (
	statusOverflow   = 0x20
	statusSprite0Hit = 0x40
	statusVBlank     = 0x80
)

// ScanlineCounter is clocked once per rendered scanline. MMC3 boards use
// it for their IRQ counter.
type ScanlineCounter interface {
	ClockIrqCounter()
}

// PPU represents the NES Picture Processing Unit (2C02)
type PPU struct {
	// PPU Registers (CPU-visible)
	ppuCtrl   uint8 // $2000 - PPUCTRL
	ppuMask   uint8 // $2001 - PPUMASK
	ppuStatus uint8 // $2002 - PPUSTATUS
	oamAddr   uint8 // $2003 - OAMADDR

	// Internal PPU State
	v uint16 // Current VRAM address (15 bits)
	t uint16 // Temporary VRAM address (15 bits) - address latch
	x uint8  // Fine X scroll (3 bits)
	w bool   // Write latch (toggles between first/second write)

	readBuffer uint8 // PPU read buffer for $2007
	openBus    uint8 // last value driven onto the PPU data bus

	// PPU Memory
	memory  *memory.PPUMemory
	counter ScanlineCounter

	// Timing
	scanline int // 0-19 VBlank, 20 pre-render, 21-260 visible, 261 post-render
	curX     int // Current dot (0 to 340)
	oddFrame bool

	// Sprite 0 hit is armed for one dot per frame, or -1.
	spr0HitX int
	spr0HitY int

	requestEndFrame bool
	nmiCounter      int

	// Sprite Data
	oam [256]uint8 // Object Attribute Memory

	// Frame Buffer
	frame                [ScreenWidth * ScreenHeight]uint32 // frame in progress
	bgOpaque             [ScreenWidth * ScreenHeight]bool
	lastRenderedScanline int // last visible line with sprites composed
	frameBuffer          [ScreenWidth * ScreenHeight]uint32 // last completed frame
	frameCount           uint64

	// Callbacks
	nmiCallback           func()
	frameCompleteCallback func()

	// Rendering Control
	backgroundEnabled bool
	spritesEnabled    bool
	renderingEnabled  bool
}

// New creates a new PPU instance
func New() *PPU {
	p := &PPU{}
	p.Reset()
	return p
}

// Reset returns the PPU to its power-on state.
func (p *PPU) Reset() {
	p.ppuCtrl = 0
	p.ppuMask = 0
	p.ppuStatus = 0
	p.oamAddr = 0

	p.v = 0
	p.t = 0
	p.x = 0
	p.w = false
	p.readBuffer = 0
	p.openBus = 0

	p.scanline = 0
	p.curX = 0
	p.oddFrame = false
	p.spr0HitX = -1
	p.spr0HitY = -1
	p.requestEndFrame = false
	p.nmiCounter = 0

	p.oam = [256]uint8{}
	p.frame = [ScreenWidth * ScreenHeight]uint32{}
	p.bgOpaque = [ScreenWidth * ScreenHeight]bool{}
	p.frameBuffer = [ScreenWidth * ScreenHeight]uint32{}
	p.lastRenderedScanline = -1
	p.frameCount = 0

	p.updateRenderingFlags()
}

// SetMemory sets the PPU memory interface
func (p *PPU) SetMemory(memory *memory.PPUMemory) {
	p.memory = memory
}

// SetScanlineCounter attaches the mapper's scanline counter, or nil.
func (p *PPU) SetScanlineCounter(counter ScanlineCounter) {
	p.counter = counter
}

// SetNMICallback sets the NMI callback function
func (p *PPU) SetNMICallback(callback func()) {
	p.nmiCallback = callback
}

// SetFrameCompleteCallback sets the frame complete callback
func (p *PPU) SetFrameCompleteCallback(callback func()) {
	p.frameCompleteCallback = callback
}

// SetMirroring flushes pending output and remaps the nametables. It takes
// effect from the next rendered line.
func (p *PPU) SetMirroring(mode cartridge.MirrorMode) {
	p.TriggerRendering()
	p.memory.SetMirroring(mode)
}

// ReadRegister reads from a PPU register (CPU $2000-$2007)
func (p *PPU) ReadRegister(address uint16) uint8 {
	switch address {
	case 0x2002: // PPUSTATUS
		status := p.ppuStatus&0xE0 | p.openBus&0x1F
		p.ppuStatus &^= statusVBlank
		p.w = false
		p.openBus = status
		return status
	case 0x2004: // OAMDATA
		value := p.oam[p.oamAddr]
		if p.oamAddr&0x03 == 0x02 {
			value &= 0xE3 // unimplemented attribute bits
		}
		p.openBus = value
		return value
	case 0x2007: // PPUDATA
		value := p.readPPUData()
		p.openBus = value
		return value
	default:
		// Write-only registers
		return p.openBus
	}
}

// WriteRegister writes to a PPU register (CPU $2000-$2007)
func (p *PPU) WriteRegister(address uint16, value uint8) {
	p.openBus = value

	switch address {
	case 0x2000: // PPUCTRL
		p.TriggerRendering()
		wasEnabled := p.ppuCtrl&ctrlNMIEnable != 0
		p.ppuCtrl = value
		p.t = (p.t & 0xF3FF) | ((uint16(value) & ctrlNametableMask) << 10) // Nametable select
		if !wasEnabled {
			p.checkNMI()
		}
	case 0x2001: // PPUMASK
		p.TriggerRendering()
		p.ppuMask = value
		p.updateRenderingFlags()
	case 0x2003: // OAMADDR
		p.oamAddr = value
	case 0x2004: // OAMDATA
		p.TriggerRendering()
		p.oam[p.oamAddr] = value
		p.oamAddr++
	case 0x2005: // PPUSCROLL
		p.writePPUScroll(value)
	case 0x2006: // PPUADDR
		p.writePPUAddr(value)
	case 0x2007: // PPUDATA
		p.writePPUData(value)
	}
}

// WriteOAMDMA copies a full page into OAM starting at OAMADDR.
func (p *PPU) WriteOAMDMA(data *[256]uint8) {
	p.TriggerRendering()
	for i, v := range data {
		p.oam[uint8(int(p.oamAddr)+i)] = v
	}
}

func (p *PPU) updateRenderingFlags() {
	p.backgroundEnabled = p.ppuMask&maskBackground != 0
	p.spritesEnabled = p.ppuMask&maskSprites != 0
	p.renderingEnabled = p.backgroundEnabled || p.spritesEnabled
}

// checkNMI raises an NMI when NMIs get enabled in the middle of VBlank.
func (p *PPU) checkNMI() {
	if p.ppuCtrl&ctrlNMIEnable != 0 && p.ppuStatus&statusVBlank != 0 && p.nmiCallback != nil {
		p.nmiCallback()
	}
}

// writePPUScroll handles writes to PPUSCROLL ($2005)
func (p *PPU) writePPUScroll(value uint8) {
	if !p.w {
		// First write: X scroll
		p.t = (p.t & 0xFFE0) | (uint16(value) >> 3) // Coarse X
		p.x = value & 0x07                          // Fine X
		p.w = true
	} else {
		// Second write: Y scroll
		p.t = (p.t & 0x8FFF) | ((uint16(value) & 0x07) << 12) // Fine Y
		p.t = (p.t & 0xFC1F) | ((uint16(value) & 0xF8) << 2)  // Coarse Y
		p.w = false
	}
}

// writePPUAddr handles writes to PPUADDR ($2006)
func (p *PPU) writePPUAddr(value uint8) {
	if !p.w {
		p.t = (p.t & 0x80FF) | ((uint16(value) & 0x3F) << 8)
		p.w = true
	} else {
		p.t = (p.t & 0xFF00) | uint16(value)
		p.v = p.t
		p.w = false
	}
}

// readPPUData handles reads from PPUDATA ($2007)
func (p *PPU) readPPUData() uint8 {
	var data uint8
	if p.memory != nil {
		address := p.v & 0x3FFF
		if address >= 0x3F00 {
			// Palette data is not buffered
			data = p.memory.Read(address)
			if p.ppuMask&maskGreyscale != 0 {
				data &= 0x30
			}
			p.readBuffer = p.memory.Read(address & 0x2FFF)
		} else {
			data = p.readBuffer
			p.readBuffer = p.memory.Read(address)
		}
	}
	p.incrementAddress()
	return data
}

// writePPUData handles writes to PPUDATA ($2007)
func (p *PPU) writePPUData(value uint8) {
	if p.memory != nil {
		// Pattern and palette writes change how pending sprites look.
		p.TriggerRendering()
		p.memory.Write(p.v, value)
	}
	p.incrementAddress()
}

func (p *PPU) incrementAddress() {
	if p.ppuCtrl&ctrlIncrement32 != 0 {
		p.v += 32
	} else {
		p.v++
	}
	p.v &= 0x7FFF
}

// GetFrameBuffer returns the last completed frame. The array is
// overwritten when the next frame completes.
func (p *PPU) GetFrameBuffer() *[ScreenWidth * ScreenHeight]uint32 {
	return &p.frameBuffer
}

// GetFrameCount returns the number of completed frames.
func (p *PPU) GetFrameCount() uint64 {
	return p.frameCount
}

// GetScanline returns the current scanline
func (p *PPU) GetScanline() int {
	return p.scanline
}

// GetCycle returns the current dot within the scanline.
func (p *PPU) GetCycle() int {
	return p.curX
}

// IsRenderingEnabled returns true if rendering is enabled
func (p *PPU) IsRenderingEnabled() bool {
	return p.renderingEnabled
}

// IsVBlank returns true if currently in vertical blank
func (p *PPU) IsVBlank() bool {
	return p.ppuStatus&statusVBlank != 0
}

// Scroll helper methods for VRAM address manipulation

// incrementX increments the coarse X and wraps to next nametable if needed
func incrementX(v uint16) uint16 {
	if v&0x001F == 31 {
		v &^= 0x001F
		v ^= 0x0400 // Switch horizontal nametable
	} else {
		v++
	}
	return v
}

// incrementY increments fine Y, and if it overflows, increments coarse Y
func (p *PPU) incrementY() {
	if p.v&0x7000 != 0x7000 {
		p.v += 0x1000
		return
	}
	p.v &^= 0x7000
	y := (p.v & 0x03E0) >> 5 // Coarse Y
	switch y {
	case 29:
		y = 0
		p.v ^= 0x0800 // Switch vertical nametable
	case 31:
		y = 0 // Wrap around without switching nametable
	default:
		y++
	}
	p.v = (p.v &^ 0x03E0) | (y << 5)
}

// copyX copies all X-related bits from t to v (bits 10, 4-0)
func (p *PPU) copyX() {
	p.v = (p.v & 0xFBE0) | (p.t & 0x041F)
}
