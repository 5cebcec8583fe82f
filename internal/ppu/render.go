package ppu

const (
	spriteAttrPalette  = 0x03
	spriteAttrBehind   = 0x20
	spriteAttrFlipX    = 0x40
	spriteAttrFlipY    = 0x80
	maxSpritesPerLine  = 8
	partialFrameMarker = 0xFFFF0000
	opaqueBlack        = 0xFF000000
)

// prepareLine renders the background of a visible line and inspects the
// sprites that will appear on it.
func (p *PPU) prepareLine(line int) {
	p.renderBackgroundLine(line)
	p.evaluateOverflow(line)
	p.checkSprite0(line)
}

// renderBackgroundLine draws one line of background using the current
// scroll in v and fine X.
func (p *PPU) renderBackgroundLine(line int) {
	row := p.frame[line*ScreenWidth : (line+1)*ScreenWidth]
	opaque := p.bgOpaque[line*ScreenWidth : (line+1)*ScreenWidth]
	backdrop := p.backdrop()

	if !p.backgroundEnabled || p.memory == nil {
		for i := range row {
			row[i] = backdrop
			opaque[i] = false
		}
		return
	}

	showLeft := p.ppuMask&maskBackgroundLeft != 0
	table := uint16(p.ppuCtrl&ctrlBackgroundTable) << 8
	fineY := (p.v >> 12) & 0x07
	v := p.v
	x := -int(p.x)

	for tile := 0; tile < 33; tile++ {
		name := p.memory.ReadNametable(0x2000 | v&0x0FFF)
		attr := p.memory.ReadNametable(0x23C0 | v&0x0C00 | (v>>4)&0x38 | (v>>2)&0x07)
		shift := (v>>4)&0x04 | v&0x02
		palette := (attr >> shift) & 0x03 << 2

		address := table + uint16(name)*16 + fineY
		lo := p.memory.ReadCHR(address)
		hi := p.memory.ReadCHR(address + 8)

		for bit := 7; bit >= 0; bit-- {
			px := x + 7 - bit
			if px < 0 || px >= ScreenWidth {
				continue
			}
			c := (lo>>bit)&1 | ((hi>>bit)&1)<<1
			if c == 0 || (px < 8 && !showLeft) {
				row[px] = backdrop
				opaque[px] = false
				continue
			}
			row[px] = p.color(p.memory.ReadPalette(palette | c))
			opaque[px] = true
		}

		x += 8
		v = incrementX(v)
	}
}

func (p *PPU) spriteHeight() int {
	if p.ppuCtrl&ctrlSprite8x16 != 0 {
		return 16
	}
	return 8
}

// spriteRow returns the row of sprite i that falls on line, or -1.
func (p *PPU) spriteRow(i, line int) int {
	row := line - (int(p.oam[i*4]) + 1)
	if row < 0 || row >= p.spriteHeight() {
		return -1
	}
	return row
}

// spritePattern fetches the two pattern planes for a row of sprite i,
// with vertical flip applied.
func (p *PPU) spritePattern(i, row int) (lo, hi uint8) {
	tile := uint16(p.oam[i*4+1])
	attr := p.oam[i*4+2]
	height := p.spriteHeight()
	if attr&spriteAttrFlipY != 0 {
		row = height - 1 - row
	}

	var table uint16
	if height == 16 {
		table = (tile & 0x01) * 0x1000
		tile &= 0xFE
		if row >= 8 {
			tile++
			row -= 8
		}
	} else if p.ppuCtrl&ctrlSpriteTable != 0 {
		table = 0x1000
	}

	address := table + tile*16 + uint16(row)
	return p.memory.ReadCHR(address), p.memory.ReadCHR(address + 8)
}

// spritePixel extracts column col (0 = leftmost on screen) from a pattern
// row, with horizontal flip applied.
func spritePixel(lo, hi, attr uint8, col int) uint8 {
	bit := 7 - col
	if attr&spriteAttrFlipX != 0 {
		bit = col
	}
	return (lo>>bit)&1 | ((hi>>bit)&1)<<1
}

// evaluateOverflow sets the overflow flag when more than eight sprites
// land on line.
func (p *PPU) evaluateOverflow(line int) {
	if !p.renderingEnabled {
		return
	}
	count := 0
	for i := 0; i < 64; i++ {
		if p.spriteRow(i, line) < 0 {
			continue
		}
		count++
		if count > maxSpritesPerLine {
			p.ppuStatus |= statusOverflow
			return
		}
	}
}

// checkSprite0 arms the sprite 0 hit coordinates for line when an opaque
// sprite 0 pixel overlaps opaque background.
func (p *PPU) checkSprite0(line int) {
	if p.ppuStatus&statusSprite0Hit != 0 || !p.backgroundEnabled || !p.spritesEnabled || p.memory == nil {
		return
	}
	row := p.spriteRow(0, line)
	if row < 0 {
		return
	}

	lo, hi := p.spritePattern(0, row)
	attr := p.oam[2]
	sx := int(p.oam[3])
	clipLeft := p.ppuMask&maskBackgroundLeft == 0 || p.ppuMask&maskSpritesLeft == 0

	for col := 0; col < 8; col++ {
		px := sx + col
		if px >= ScreenWidth-1 {
			return // no hit at x=255
		}
		if px < 8 && clipLeft {
			continue
		}
		if spritePixel(lo, hi, attr, col) != 0 && p.bgOpaque[line*ScreenWidth+px] {
			p.spr0HitX = px
			p.spr0HitY = line
			return
		}
	}
}

// TriggerRendering composites sprites onto every visible line already
// rendered up to the current one.
func (p *PPU) TriggerRendering() {
	if p.scanline < firstVisible || p.scanline > lastVisible {
		return
	}
	current := min(p.scanline-firstVisible, ScreenHeight-1)
	if current > p.lastRenderedScanline {
		p.renderSprites(p.lastRenderedScanline+1, current)
		p.lastRenderedScanline = current
	}
}

// renderSprites composites sprites onto lines first..last inclusive.
func (p *PPU) renderSprites(first, last int) {
	if !p.spritesEnabled || p.memory == nil {
		return
	}
	for line := first; line <= last; line++ {
		p.renderSpriteLine(line)
	}
}

// renderSpriteLine draws the first eight sprites on line in OAM order.
// A lower-indexed sprite owns its opaque pixels even when it sits behind
// the background.
func (p *PPU) renderSpriteLine(line int) {
	p.drawSpriteLine(p.frame[line*ScreenWidth:(line+1)*ScreenWidth], line)
}

func (p *PPU) drawSpriteLine(row []uint32, line int) {
	opaque := p.bgOpaque[line*ScreenWidth : (line+1)*ScreenWidth]
	showLeft := p.ppuMask&maskSpritesLeft != 0

	var claimed [ScreenWidth]bool
	drawn := 0
	for i := 0; i < 64 && drawn < maxSpritesPerLine; i++ {
		spriteRow := p.spriteRow(i, line)
		if spriteRow < 0 {
			continue
		}
		drawn++

		lo, hi := p.spritePattern(i, spriteRow)
		attr := p.oam[i*4+2]
		sx := int(p.oam[i*4+3])
		palette := 0x10 | (attr&spriteAttrPalette)<<2

		for col := 0; col < 8; col++ {
			px := sx + col
			if px >= ScreenWidth {
				break
			}
			if px < 8 && !showLeft {
				continue
			}
			c := spritePixel(lo, hi, attr, col)
			if c == 0 || claimed[px] {
				continue
			}
			claimed[px] = true
			if attr&spriteAttrBehind != 0 && opaque[px] {
				continue
			}
			row[px] = p.color(p.memory.ReadPalette(palette | c))
		}
	}
}

// PartialFrame returns the frame in progress: every line the beam has
// passed with its sprites, a red marker on the current line and black
// below it. The PPU itself is left untouched.
func (p *PPU) PartialFrame() *[ScreenWidth * ScreenHeight]uint32 {
	var out [ScreenWidth * ScreenHeight]uint32
	n := p.passedLines()
	copy(out[:n*ScreenWidth], p.frame[:n*ScreenWidth])
	if p.spritesEnabled && p.memory != nil {
		for line := p.lastRenderedScanline + 1; line < n; line++ {
			p.drawSpriteLine(out[line*ScreenWidth:(line+1)*ScreenWidth], line)
		}
	}
	for line := n; line < ScreenHeight; line++ {
		fill := uint32(opaqueBlack)
		if line == n {
			fill = partialFrameMarker
		}
		for i := line * ScreenWidth; i < (line+1)*ScreenWidth; i++ {
			out[i] = fill
		}
	}
	return &out
}

// passedLines is the number of visible lines the beam has finished.
func (p *PPU) passedLines() int {
	switch {
	case p.scanline < firstVisible:
		return 0
	case p.scanline > lastVisible:
		return ScreenHeight
	}
	return p.scanline - firstVisible
}

// PixelBright reports whether the pixel under (x, y) in the frame being
// drawn is bright enough to trip a light gun.
func (p *PPU) PixelBright(x, y int) bool {
	if x < 0 || x >= ScreenWidth || y < 0 || y >= ScreenHeight {
		return false
	}
	c := p.frame[y*ScreenWidth+x]
	return (c>>16&0xFF)+(c>>8&0xFF)+(c&0xFF) >= 0x200
}
