package ppu

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nescore/internal/cartridge"
	"nescore/internal/memory"
)

const dotsPerFrame = 262 * dotsPerScanline

// MockCartridge implements a simple cartridge for testing
type MockCartridge struct {
	chrData    [0x2000]uint8 // 8KB CHR ROM/RAM
	writeCount map[uint16]int
}

// NewMockCartridge creates a new mock cartridge
func NewMockCartridge() *MockCartridge {
	return &MockCartridge{writeCount: make(map[uint16]int)}
}

// ReadCHR reads from CHR memory (pattern tables)
func (m *MockCartridge) ReadCHR(address uint16) uint8 {
	return m.chrData[address&0x1FFF]
}

// WriteCHR writes to CHR memory (pattern tables)
func (m *MockCartridge) WriteCHR(address uint16, value uint8) {
	address &= 0x1FFF
	m.writeCount[address]++
	m.chrData[address] = value
}

// SetTile fills both planes of an 8x8 tile.
func (m *MockCartridge) SetTile(table uint16, tile uint8, lo, hi uint8) {
	base := table + uint16(tile)*16
	for row := uint16(0); row < 8; row++ {
		m.chrData[base+row] = lo
		m.chrData[base+row+8] = hi
	}
}

type countingCounter struct{ clocks int }

func (c *countingCounter) ClockIrqCounter() { c.clocks++ }

func newTestPPU() (*PPU, *MockCartridge) {
	cart := NewMockCartridge()
	p := New()
	p.SetMemory(memory.NewPPUMemory(cart, cartridge.MirrorHorizontal))
	return p, cart
}

// writeVRAM writes through PPUADDR/PPUDATA and leaves t and v at zero.
func writeVRAM(p *PPU, address uint16, values ...uint8) {
	p.WriteRegister(0x2006, uint8(address>>8))
	p.WriteRegister(0x2006, uint8(address))
	for _, v := range values {
		p.WriteRegister(0x2007, v)
	}
	p.WriteRegister(0x2006, 0)
	p.WriteRegister(0x2006, 0)
}

// hideSprites moves every sprite off screen and places the given ones.
func hideSprites(p *PPU, sprites ...[4]uint8) {
	var page [256]uint8
	for i := range page {
		page[i] = 0xFF
	}
	for i, s := range sprites {
		copy(page[i*4:], s[:])
	}
	p.WriteRegister(0x2003, 0)
	p.WriteOAMDMA(&page)
}

func runFrame(p *PPU) int {
	p.StartFrame()
	for n := 1; ; n++ {
		if p.Step() {
			return n
		}
	}
}

func stepUntilScanline(p *PPU, scanline int) {
	for p.scanline != scanline {
		p.Step()
	}
}

func pixel(p *PPU, x, y int) uint32 {
	return p.GetFrameBuffer()[y*ScreenWidth+x]
}

func TestPPUReset(t *testing.T) {
	p := New()

	assert.Equal(t, 0, p.GetScanline())
	assert.Equal(t, 0, p.GetCycle())
	assert.Equal(t, -1, p.spr0HitX)
	assert.Equal(t, -1, p.spr0HitY)
	assert.Equal(t, -1, p.lastRenderedScanline)
	assert.False(t, p.IsRenderingEnabled())
	assert.False(t, p.IsVBlank())
}

func TestPPUStatusRegisterRead(t *testing.T) {
	p, _ := newTestPPU()
	p.ppuStatus = statusVBlank | statusSprite0Hit
	p.WriteRegister(0x2005, 0x1F) // sets the write latch and the bus

	status := p.ReadRegister(0x2002)
	assert.Equal(t, uint8(0xDF), status, "flags over open bus")
	assert.False(t, p.IsVBlank())
	assert.False(t, p.w)
	assert.Equal(t, uint8(statusSprite0Hit), p.ppuStatus&statusSprite0Hit, "sprite 0 hit survives the read")
}

func TestPPUWriteOnlyRegisters(t *testing.T) {
	p, _ := newTestPPU()
	p.WriteRegister(0x2001, 0x5A)

	for _, addr := range []uint16{0x2000, 0x2001, 0x2003, 0x2005, 0x2006} {
		assert.Equal(t, uint8(0x5A), p.ReadRegister(addr), "$%04X", addr)
	}
}

func TestOAMAddressAndData(t *testing.T) {
	p, _ := newTestPPU()
	p.WriteRegister(0x2003, 0x10)
	p.WriteRegister(0x2004, 0x11)
	p.WriteRegister(0x2004, 0x22)
	p.WriteRegister(0x2004, 0xFF)

	assert.Equal(t, uint8(0x13), p.oamAddr)
	assert.Equal(t, uint8(0x11), p.oam[0x10])
	assert.Equal(t, uint8(0x22), p.oam[0x11])

	p.WriteRegister(0x2003, 0x12)
	assert.Equal(t, uint8(0xE3), p.ReadRegister(0x2004), "attribute bits 2-4 read as zero")
	assert.Equal(t, uint8(0x12), p.oamAddr, "reads do not increment")
}

func TestOAMDMA_WrapsFromOAMAddr(t *testing.T) {
	p, _ := newTestPPU()
	var page [256]uint8
	for i := range page {
		page[i] = uint8(i)
	}
	p.WriteRegister(0x2003, 0xFE)
	p.WriteOAMDMA(&page)

	assert.Equal(t, uint8(0x00), p.oam[0xFE])
	assert.Equal(t, uint8(0x01), p.oam[0xFF])
	assert.Equal(t, uint8(0x02), p.oam[0x00])
}

func TestPPUScrollWrite(t *testing.T) {
	p, _ := newTestPPU()
	p.WriteRegister(0x2000, 0x02)
	p.WriteRegister(0x2005, 0x7D) // coarse X 15, fine X 5
	p.WriteRegister(0x2005, 0x5E) // coarse Y 11, fine Y 6

	assert.Equal(t, uint8(5), p.x)
	assert.Equal(t, uint16(0x6800|11<<5|15), p.t)
	assert.False(t, p.w)
}

func TestPPUAddressWrite(t *testing.T) {
	p, _ := newTestPPU()
	p.WriteRegister(0x2006, 0xFF) // upper bits masked to 14-bit space
	assert.True(t, p.w)
	p.WriteRegister(0x2006, 0x10)

	assert.Equal(t, uint16(0x3F10), p.v)
	assert.Equal(t, p.t, p.v)
}

func TestPPUDataReadWrite(t *testing.T) {
	p, cart := newTestPPU()
	cart.chrData[0x0123] = 0x77
	writeVRAM(p, 0x2005, 0xAA, 0xBB)

	p.WriteRegister(0x2006, 0x20)
	p.WriteRegister(0x2006, 0x05)
	assert.Equal(t, uint8(0x00), p.ReadRegister(0x2007), "first read returns the stale buffer")
	assert.Equal(t, uint8(0xAA), p.ReadRegister(0x2007))
	assert.Equal(t, uint8(0xBB), p.ReadRegister(0x2007))

	p.WriteRegister(0x2006, 0x01)
	p.WriteRegister(0x2006, 0x23)
	p.ReadRegister(0x2007)
	assert.Equal(t, uint8(0x77), p.ReadRegister(0x2007))
}

func TestPPUDataPaletteReadsAreNotBuffered(t *testing.T) {
	p, _ := newTestPPU()
	writeVRAM(p, 0x3F03, 0x2C)

	p.WriteRegister(0x2006, 0x3F)
	p.WriteRegister(0x2006, 0x03)
	assert.Equal(t, uint8(0x2C), p.ReadRegister(0x2007))
}

func TestPPUDataIncrementMode(t *testing.T) {
	p, _ := newTestPPU()
	p.WriteRegister(0x2000, ctrlIncrement32)
	p.WriteRegister(0x2006, 0x20)
	p.WriteRegister(0x2006, 0x00)
	p.WriteRegister(0x2007, 0x01)
	p.WriteRegister(0x2007, 0x02)

	assert.Equal(t, uint16(0x2040), p.v)
	assert.Equal(t, uint8(0x02), p.memory.Read(0x2020))
}

func TestPPUStepTiming(t *testing.T) {
	p, _ := newTestPPU()

	for i := 0; i < dotsPerScanline*3; i++ {
		p.Step()
		assert.True(t, p.GetCycle() >= 0 && p.GetCycle() < dotsPerScanline)
	}
	assert.Equal(t, 3, p.GetScanline())
	assert.Equal(t, 0, p.GetCycle())
}

func TestPPUFrameCompletion(t *testing.T) {
	p, _ := newTestPPU()
	frames := 0
	p.SetFrameCompleteCallback(func() { frames++ })

	assert.Equal(t, dotsPerFrame+nmiDelay, runFrame(p))
	assert.Equal(t, 1, frames)
	assert.Equal(t, uint64(1), p.GetFrameCount())
	assert.True(t, p.IsVBlank())
	assert.Equal(t, 0, p.GetScanline())
	assert.Equal(t, nmiDelay-1, p.GetCycle(), "the dot that ends the frame is not advanced")

	// Later frames start where the previous one stopped.
	assert.Equal(t, dotsPerFrame+1, runFrame(p))
	assert.Equal(t, 2, frames)
}

func TestPPUVBlankClearedOnPreRender(t *testing.T) {
	p, _ := newTestPPU()
	runFrame(p)
	p.ppuStatus |= statusSprite0Hit | statusOverflow

	stepUntilScanline(p, preRenderScanline)
	assert.True(t, p.IsVBlank())
	stepUntilScanline(p, firstVisible)
	assert.False(t, p.IsVBlank())
	assert.Zero(t, p.ppuStatus&(statusSprite0Hit|statusOverflow))
}

func TestNMI_OncePerFrame(t *testing.T) {
	p, _ := newTestPPU()
	nmis := 0
	p.SetNMICallback(func() { nmis++ })
	p.WriteRegister(0x2000, ctrlNMIEnable)

	for i := 0; i < 3; i++ {
		runFrame(p)
	}
	assert.Equal(t, 3, nmis)
}

func TestNMI_EnabledDuringVBlank(t *testing.T) {
	p, _ := newTestPPU()
	nmis := 0
	p.SetNMICallback(func() { nmis++ })
	runFrame(p)
	require.True(t, p.IsVBlank())

	p.WriteRegister(0x2000, ctrlNMIEnable)
	assert.Equal(t, 1, nmis)
	p.WriteRegister(0x2000, ctrlNMIEnable)
	assert.Equal(t, 1, nmis, "already enabled")

	p.ReadRegister(0x2002)
	p.WriteRegister(0x2000, 0)
	p.WriteRegister(0x2000, ctrlNMIEnable)
	assert.Equal(t, 1, nmis, "VBlank flag cleared by the status read")
}

func TestTickEndFrame_Debounce(t *testing.T) {
	p, _ := newTestPPU()
	assert.False(t, p.TickEndFrame(), "nothing pending")

	p.requestEndFrame = true
	p.nmiCounter = 3
	assert.False(t, p.TickEndFrame())
	p.nmiCounter = 3 // re-trigger reloads the counter
	assert.False(t, p.TickEndFrame())
	assert.False(t, p.TickEndFrame())
	assert.True(t, p.TickEndFrame())
	assert.False(t, p.TickEndFrame())
	assert.Equal(t, uint64(1), p.GetFrameCount())
}

func TestOddFrameDotSkip(t *testing.T) {
	p, _ := newTestPPU()
	p.WriteRegister(0x2001, maskBackground)

	p.scanline, p.curX = lastVBlankScanline, 0
	p.EndScanline()
	assert.Equal(t, 1, p.curX, "odd frame skips a dot")

	p.scanline, p.curX = lastVBlankScanline, 0
	p.EndScanline()
	assert.Equal(t, 0, p.curX)

	p.WriteRegister(0x2001, 0)
	p.scanline, p.curX = lastVBlankScanline, 0
	p.EndScanline()
	assert.Equal(t, 0, p.curX, "no skip with rendering off")
}

func TestScanlineCounterClocks(t *testing.T) {
	p, _ := newTestPPU()
	counter := &countingCounter{}
	p.SetScanlineCounter(counter)

	runFrame(p)
	assert.Zero(t, counter.clocks, "rendering disabled")

	p.WriteRegister(0x2001, maskBackground)
	runFrame(p)
	assert.Equal(t, 241, counter.clocks)
}

func TestBackgroundTileRendering(t *testing.T) {
	p, cart := newTestPPU()
	cart.SetTile(0x0000, 1, 0xFF, 0x00)
	writeVRAM(p, 0x2000, 1)
	writeVRAM(p, 0x3F01, 0x16)

	p.WriteRegister(0x2001, maskBackground|maskBackgroundLeft)
	runFrame(p)

	want := NESColorToRGB(0x16)
	backdrop := NESColorToRGB(0x0F)
	for x := 0; x < 8; x++ {
		assert.Equal(t, want, pixel(p, x, 0))
		assert.Equal(t, want, pixel(p, x, 7))
	}
	assert.Equal(t, backdrop, pixel(p, 8, 0))
	assert.Equal(t, backdrop, pixel(p, 0, 8))
}

func TestBackgroundLeftClipping(t *testing.T) {
	p, cart := newTestPPU()
	cart.SetTile(0x0000, 1, 0xFF, 0x00)
	writeVRAM(p, 0x2000, 1, 1)
	writeVRAM(p, 0x3F01, 0x16)

	p.WriteRegister(0x2001, maskBackground)
	runFrame(p)

	assert.Equal(t, NESColorToRGB(0x0F), pixel(p, 7, 0))
	assert.Equal(t, NESColorToRGB(0x16), pixel(p, 8, 0))
}

func TestBackgroundFineXScroll(t *testing.T) {
	p, cart := newTestPPU()
	cart.SetTile(0x0000, 1, 0xFF, 0x00)
	writeVRAM(p, 0x2000, 1)
	writeVRAM(p, 0x3F01, 0x16)

	p.WriteRegister(0x2005, 3)
	p.WriteRegister(0x2005, 0)
	p.WriteRegister(0x2001, maskBackground|maskBackgroundLeft)
	runFrame(p)

	assert.Equal(t, NESColorToRGB(0x16), pixel(p, 4, 0))
	assert.Equal(t, NESColorToRGB(0x0F), pixel(p, 5, 0))
}

func TestBackgroundAttributePalette(t *testing.T) {
	p, cart := newTestPPU()
	cart.SetTile(0x0000, 1, 0xFF, 0xFF) // colour 3
	writeVRAM(p, 0x2000+2, 1)           // tile column 2: top-right quadrant
	writeVRAM(p, 0x23C0, 0x04)          // quadrant 1 uses palette 1
	writeVRAM(p, 0x3F07, 0x1A)

	p.WriteRegister(0x2001, maskBackground|maskBackgroundLeft)
	runFrame(p)

	assert.Equal(t, NESColorToRGB(0x1A), pixel(p, 16, 0))
}

func TestBackgroundPatternTableSelection(t *testing.T) {
	p, cart := newTestPPU()
	cart.SetTile(0x1000, 1, 0xFF, 0x00)
	writeVRAM(p, 0x2000, 1)
	writeVRAM(p, 0x3F01, 0x16)

	p.WriteRegister(0x2000, ctrlBackgroundTable)
	p.WriteRegister(0x2001, maskBackground|maskBackgroundLeft)
	runFrame(p)

	assert.Equal(t, NESColorToRGB(0x16), pixel(p, 0, 0))
}

func TestSpriteRenderingBasic(t *testing.T) {
	p, cart := newTestPPU()
	cart.SetTile(0x0000, 2, 0x80, 0x00)
	writeVRAM(p, 0x3F11, 0x2A)
	hideSprites(p, [4]uint8{9, 2, 0x00, 20})

	p.WriteRegister(0x2001, maskBackground|maskSprites|maskBackgroundLeft|maskSpritesLeft)
	runFrame(p)

	sprite := NESColorToRGB(0x2A)
	assert.Equal(t, sprite, pixel(p, 20, 10), "sprites are drawn one line below their Y")
	assert.Equal(t, sprite, pixel(p, 20, 17))
	assert.NotEqual(t, sprite, pixel(p, 20, 9))
	assert.NotEqual(t, sprite, pixel(p, 20, 18))
	assert.NotEqual(t, sprite, pixel(p, 21, 10))
}

func TestSpriteHorizontalFlip(t *testing.T) {
	p, cart := newTestPPU()
	cart.SetTile(0x0000, 2, 0x80, 0x00)
	writeVRAM(p, 0x3F11, 0x2A)
	hideSprites(p, [4]uint8{9, 2, spriteAttrFlipX, 20})

	p.WriteRegister(0x2001, maskSprites|maskSpritesLeft)
	runFrame(p)

	assert.Equal(t, NESColorToRGB(0x2A), pixel(p, 27, 10))
	assert.NotEqual(t, NESColorToRGB(0x2A), pixel(p, 20, 10))
}

func TestSprite8x16(t *testing.T) {
	p, cart := newTestPPU()
	cart.SetTile(0x1000, 4, 0x00, 0x00)
	cart.SetTile(0x1000, 5, 0x80, 0x00)
	writeVRAM(p, 0x3F11, 0x2A)
	hideSprites(p, [4]uint8{9, 0x05, 0x00, 20}) // odd tile: table $1000, tiles 4 and 5

	p.WriteRegister(0x2000, ctrlSprite8x16)
	p.WriteRegister(0x2001, maskSprites|maskSpritesLeft)
	runFrame(p)

	assert.NotEqual(t, NESColorToRGB(0x2A), pixel(p, 20, 10), "top half is blank")
	assert.Equal(t, NESColorToRGB(0x2A), pixel(p, 20, 18), "bottom half")
	assert.Equal(t, NESColorToRGB(0x2A), pixel(p, 20, 25))
}

func TestSpriteBackgroundPriority(t *testing.T) {
	for _, tt := range []struct {
		name string
		attr uint8
		want uint8
	}{
		{"in front", 0x00, 0x2A},
		{"behind", spriteAttrBehind, 0x16},
	} {
		t.Run(tt.name, func(t *testing.T) {
			p, cart := newTestPPU()
			cart.SetTile(0x0000, 1, 0xFF, 0x00)
			cart.SetTile(0x0000, 2, 0x80, 0x00)
			writeVRAM(p, 0x2022, 1) // covers x 16-23, y 8-15
			writeVRAM(p, 0x3F01, 0x16)
			writeVRAM(p, 0x3F11, 0x2A)
			hideSprites(p, [4]uint8{9, 2, tt.attr, 20})

			p.WriteRegister(0x2001, maskBackground|maskSprites|maskBackgroundLeft|maskSpritesLeft)
			runFrame(p)

			assert.Equal(t, NESColorToRGB(tt.want), pixel(p, 20, 10))
		})
	}
}

func TestSpriteOverflow(t *testing.T) {
	p, _ := newTestPPU()
	sprites := make([][4]uint8, 9)
	for i := range sprites {
		sprites[i] = [4]uint8{50, 0, 0, uint8(i * 10)}
	}
	hideSprites(p, sprites...)
	p.WriteRegister(0x2001, maskSprites)

	runFrame(p)
	assert.NotZero(t, p.ppuStatus&statusOverflow)

	hideSprites(p, sprites[:8]...)
	runFrame(p)
	assert.Zero(t, p.ppuStatus&statusOverflow)
}

func TestSprite0HitDetection(t *testing.T) {
	p, cart := newTestPPU()
	cart.SetTile(0x0000, 1, 0xFF, 0x00)
	cart.SetTile(0x0000, 2, 0x80, 0x00)
	writeVRAM(p, 0x2000, 1)
	hideSprites(p, [4]uint8{0, 2, 0x00, 2})
	p.WriteRegister(0x2001, maskBackground|maskSprites|maskBackgroundLeft|maskSpritesLeft)

	p.StartFrame()
	hits := 0
	hitScanline, hitX := -1, -1
	for {
		scanline, x := p.scanline, p.curX
		before := p.ppuStatus & statusSprite0Hit
		done := p.Step()
		if before == 0 && p.ppuStatus&statusSprite0Hit != 0 {
			hits++
			hitScanline, hitX = scanline, x
		}
		if done {
			break
		}
	}

	assert.Equal(t, 1, hits)
	assert.Equal(t, firstVisible+1, hitScanline, "sprite at Y=0 sits on line 1")
	assert.Equal(t, 2, hitX)
	assert.Equal(t, -1, p.spr0HitX, "disarmed after the hit")
}

func TestSprite0HitNeedsOpaqueBackground(t *testing.T) {
	p, cart := newTestPPU()
	cart.SetTile(0x0000, 2, 0x80, 0x00)
	hideSprites(p, [4]uint8{0, 2, 0x00, 2})
	p.WriteRegister(0x2001, maskBackground|maskSprites|maskBackgroundLeft|maskSpritesLeft)

	runFrame(p)
	assert.Zero(t, p.ppuStatus&statusSprite0Hit)
}

func TestTriggerRenderingComposesUpToCurrentLine(t *testing.T) {
	p, _ := newTestPPU()
	p.WriteRegister(0x2001, maskSprites)
	p.StartFrame()
	stepUntilScanline(p, firstVisible+40)

	assert.Equal(t, -1, p.lastRenderedScanline)
	p.WriteRegister(0x2004, 0x00)
	assert.Equal(t, 40, p.lastRenderedScanline)
}

func TestLateOAMChangeOnlyAffectsPendingLines(t *testing.T) {
	p, cart := newTestPPU()
	cart.SetTile(0x0000, 2, 0x80, 0x00)
	writeVRAM(p, 0x3F11, 0x2A)
	// Sprite rows at lines 10-17 and 90-97.
	hideSprites(p, [4]uint8{9, 2, 0x00, 20}, [4]uint8{89, 2, 0x00, 40})
	p.WriteRegister(0x2001, maskSprites|maskSpritesLeft)

	p.StartFrame()
	stepUntilScanline(p, firstVisible+50)
	hideSprites(p)
	for !p.Step() {
	}

	assert.Equal(t, NESColorToRGB(0x2A), pixel(p, 20, 10), "composed before the change")
	assert.NotEqual(t, NESColorToRGB(0x2A), pixel(p, 40, 90), "removed before it was composed")
}

func TestPartialFrame(t *testing.T) {
	p, cart := newTestPPU()
	cart.SetTile(0x0000, 1, 0xFF, 0x00)
	cart.SetTile(0x0000, 2, 0x80, 0x00)
	for i := 0; i < 32*30; i++ {
		writeVRAM(p, 0x2000+uint16(i), 1)
	}
	writeVRAM(p, 0x3F01, 0x16)
	writeVRAM(p, 0x3F11, 0x2A)
	// Sprite rows at lines 50-57.
	hideSprites(p, [4]uint8{49, 2, 0x00, 30})
	p.WriteRegister(0x2001, maskBackground|maskSprites|maskBackgroundLeft|maskSpritesLeft)

	p.StartFrame()
	stepUntilScanline(p, firstVisible+100)

	frame := p.PartialFrame()
	assert.Equal(t, NESColorToRGB(0x16), frame[10])
	assert.Equal(t, NESColorToRGB(0x2A), frame[50*ScreenWidth+30])
	assert.Equal(t, NESColorToRGB(0x16), frame[99*ScreenWidth+10])
	assert.Equal(t, uint32(partialFrameMarker), frame[100*ScreenWidth+10])
	assert.Equal(t, uint32(opaqueBlack), frame[101*ScreenWidth+10])
	assert.Equal(t, uint32(opaqueBlack), frame[239*ScreenWidth+255])

	assert.Equal(t, -1, p.lastRenderedScanline, "the working frame is not composed")
	assert.NotEqual(t, NESColorToRGB(0x2A), p.frame[50*ScreenWidth+30])
}

func TestPartialFrameBeforeVisibleLines(t *testing.T) {
	p, _ := newTestPPU()
	p.StartFrame()
	stepUntilScanline(p, preRenderScanline)

	frame := p.PartialFrame()
	assert.Equal(t, uint32(partialFrameMarker), frame[0])
	assert.Equal(t, uint32(opaqueBlack), frame[ScreenWidth])
}

func TestSetMirroring(t *testing.T) {
	p, _ := newTestPPU()
	p.SetMirroring(cartridge.MirrorVertical)
	assert.Equal(t, cartridge.MirrorVertical, p.memory.Mirroring())
}

func TestGreyscaleAndEmphasis(t *testing.T) {
	p, _ := newTestPPU()

	p.WriteRegister(0x2001, maskGreyscale)
	assert.Equal(t, NESColorToRGB(0x10), p.color(0x16))

	p.WriteRegister(0x2001, 0x20) // emphasise red
	assert.Equal(t, emphasize(NESColorToRGB(0x30), 0x01), p.color(0x30))
	assert.Equal(t, uint32(0xFFFFD0D0), emphasize(0xFFFFFFFF, 0x01))
	assert.Equal(t, uint32(0xFFFFFFFF), emphasize(0xFFFFFFFF, 0x07))
}

func TestPixelBright(t *testing.T) {
	p, _ := newTestPPU()
	p.frame[5*ScreenWidth+5] = NESColorToRGB(0x30)
	p.frame[5*ScreenWidth+6] = NESColorToRGB(0x0F)

	assert.True(t, p.PixelBright(5, 5))
	assert.False(t, p.PixelBright(6, 5))
	assert.False(t, p.PixelBright(-1, 5))
	assert.False(t, p.PixelBright(5, ScreenHeight))
}

func TestStateRoundTripMidFrame(t *testing.T) {
	p, cart := newTestPPU()
	cart.SetTile(0x0000, 1, 0xFF, 0x00)
	cart.SetTile(0x0000, 2, 0xC3, 0x3C)
	for i := 0; i < 64; i++ {
		writeVRAM(p, 0x2000+uint16(i*7), 1)
	}
	writeVRAM(p, 0x3F00, 0x21, 0x16, 0x27, 0x30)
	writeVRAM(p, 0x3F11, 0x2A, 0x05)
	hideSprites(p, [4]uint8{40, 2, 0x00, 30}, [4]uint8{150, 2, 0x41, 200})
	p.WriteRegister(0x2001, maskBackground|maskSprites|maskBackgroundLeft|maskSpritesLeft)

	p.StartFrame()
	stepUntilScanline(p, firstVisible+100)

	data, err := json.Marshal(p.State())
	require.NoError(t, err)
	var s State
	require.NoError(t, json.Unmarshal(data, &s))

	restored, restoredCart := newTestPPU()
	restoredCart.chrData = cart.chrData
	require.NoError(t, restored.SetState(s))
	assert.Equal(t, p.State(), restored.State())

	for !p.Step() {
	}
	for !restored.Step() {
	}
	assert.Equal(t, *p.GetFrameBuffer(), *restored.GetFrameBuffer())
}

func TestSetStateRejectsBadFrame(t *testing.T) {
	p, _ := newTestPPU()
	s := p.State()
	s.Frame = s.Frame[:10]
	p.WriteRegister(0x2001, maskBackground)

	assert.Error(t, p.SetState(s))
	assert.Equal(t, uint8(maskBackground), p.ppuMask, "unchanged on error")

	s = p.State()
	s.Completed = nil
	assert.Error(t, p.SetState(s))
}

func TestStateKeepsCompletedFrame(t *testing.T) {
	p, _ := newTestPPU()
	writeVRAM(p, 0x3F00, 0x16)
	runFrame(p)

	restored, _ := newTestPPU()
	require.NoError(t, restored.SetState(p.State()))
	assert.Equal(t, *p.GetFrameBuffer(), *restored.GetFrameBuffer())
	assert.Equal(t, NESColorToRGB(0x16), restored.GetFrameBuffer()[0])
}
