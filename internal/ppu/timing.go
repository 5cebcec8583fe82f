package ppu

// Step advances the PPU by one dot. It reports true when the frame has
// ended; the caller should stop clocking the PPU for the rest of the
// current CPU instruction.
func (p *PPU) Step() bool {
	p.Sprite0HitCheck()
	if p.TickEndFrame() {
		return true
	}
	p.curX++
	if p.curX == dotsPerScanline {
		p.curX = 0
		p.EndScanline()
	}
	return false
}

// Sprite0HitCheck sets the sprite 0 hit flag when the beam reaches the
// armed coordinates. A hit disarms the coordinates for the rest of the
// frame.
func (p *PPU) Sprite0HitCheck() {
	if p.curX == p.spr0HitX && p.scanline-firstVisible == p.spr0HitY && p.spritesEnabled {
		p.ppuStatus |= statusSprite0Hit
		p.spr0HitX = -1
		p.spr0HitY = -1
	}
}

// TickEndFrame counts down the delay between the post-render line and the
// start of VBlank. It returns true on the dot VBlank starts.
func (p *PPU) TickEndFrame() bool {
	if !p.requestEndFrame {
		return false
	}
	p.nmiCounter--
	if p.nmiCounter > 0 {
		return false
	}
	p.requestEndFrame = false
	p.StartVBlank()
	return true
}

// EndScanline is called each time curX wraps.
func (p *PPU) EndScanline() {
	switch {
	case p.scanline == lastVBlankScanline:
		p.oddFrame = !p.oddFrame
		if p.oddFrame && p.renderingEnabled {
			p.curX = 1
		}

	case p.scanline == preRenderScanline:
		p.ppuStatus &^= statusVBlank | statusSprite0Hit | statusOverflow
		p.spr0HitX = -1
		p.spr0HitY = -1
		if p.renderingEnabled {
			p.v = p.t
			p.prepareLine(0)
			p.clockScanlineCounter()
		}

	case p.scanline >= firstVisible && p.scanline <= lastVisible:
		if p.renderingEnabled {
			p.incrementY()
			p.copyX()
			if next := p.scanline - firstVisible + 1; next < ScreenHeight {
				p.prepareLine(next)
			}
			p.clockScanlineCounter()
		}

	case p.scanline == postRenderScanline:
		p.ppuStatus |= statusVBlank
		p.requestEndFrame = true
		p.nmiCounter = nmiDelay
		p.scanline = -1
	}
	p.scanline++
}

func (p *PPU) clockScanlineCounter() {
	if p.counter != nil {
		p.counter.ClockIrqCounter()
	}
}

// StartVBlank requests the NMI, finishes the frame and publishes it.
func (p *PPU) StartVBlank() {
	if p.ppuCtrl&ctrlNMIEnable != 0 && p.nmiCallback != nil {
		p.nmiCallback()
	}

	if p.lastRenderedScanline < ScreenHeight-1 {
		p.renderSprites(p.lastRenderedScanline+1, ScreenHeight-1)
	}

	p.frameBuffer = p.frame
	p.frameCount++
	p.lastRenderedScanline = -1

	if p.frameCompleteCallback != nil {
		p.frameCompleteCallback()
	}
}

// StartFrame clears the working frame to the backdrop colour.
func (p *PPU) StartFrame() {
	backdrop := p.backdrop()
	for i := range p.frame {
		p.frame[i] = backdrop
	}
	p.bgOpaque = [ScreenWidth * ScreenHeight]bool{}
	p.lastRenderedScanline = -1
}
