package ppu

// NES 2C02 Color Palette (NTSC) - Based on Dendy emulator palette
var nesColorPalette = [64]uint32{
	// Row 0 (0x00-0x0F)
	0xFF666666, 0xFF002A88, 0xFF1412A7, 0xFF3B00A4, 0xFF5C007E, 0xFF6E0040, 0xFF6C0600, 0xFF561D00,
	0xFF333500, 0xFF0B4800, 0xFF005200, 0xFF004F08, 0xFF00404D, 0xFF000000, 0xFF000000, 0xFF000000,
	// Row 1 (0x10-0x1F)
	0xFFADADAD, 0xFF155FD9, 0xFF4240FF, 0xFF7527FE, 0xFFA01ACC, 0xFFB71E7B, 0xFFB53120, 0xFF994E00,
	0xFF6B6D00, 0xFF388700, 0xFF0C9300, 0xFF008F32, 0xFF007C8D, 0xFF000000, 0xFF000000, 0xFF000000,
	// Row 2 (0x20-0x2F)
	0xFFFFFEFF, 0xFF64B0FF, 0xFF9290FF, 0xFFC676FF, 0xFFF36AFF, 0xFFFE6ECC, 0xFFFE8170, 0xFFEA9E22,
	0xFFBCBE00, 0xFF88D800, 0xFF5CE430, 0xFF45E082, 0xFF48CDDE, 0xFF4F4F4F, 0xFF000000, 0xFF000000,
	// Row 3 (0x30-0x3F)
	0xFFFFFEFF, 0xFFC0DFFF, 0xFFD3D2FF, 0xFFE8C8FF, 0xFFFBC2FF, 0xFFFEC4EA, 0xFFFECCC5, 0xFFF7D8A5,
	0xFFE4E594, 0xFFCFF29B, 0xFFBEFBB3, 0xFFB8F8D8, 0xFFB8F8F8, 0xFF000000, 0xFF000000, 0xFF000000,
}

// emphasisPalettes holds the palette for each combination of the PPUMASK
// emphasis bits (red, green, blue in bits 0-2 of the index).
var emphasisPalettes [8][64]uint32

func init() {
	for e := range emphasisPalettes {
		for i, c := range nesColorPalette {
			emphasisPalettes[e][i] = emphasize(c, uint8(e))
		}
	}
}

// emphasize dims every channel that is not emphasised.
func emphasize(c uint32, emphasis uint8) uint32 {
	if emphasis == 0 {
		return c
	}
	r, g, b := c>>16&0xFF, c>>8&0xFF, c&0xFF
	if emphasis&0x01 == 0 {
		r = r * 816 / 1000
	}
	if emphasis&0x02 == 0 {
		g = g * 816 / 1000
	}
	if emphasis&0x04 == 0 {
		b = b * 816 / 1000
	}
	return 0xFF000000 | r<<16 | g<<8 | b
}

// NESColorToRGB converts a NES color index to an opaque ARGB value.
func NESColorToRGB(colorIndex uint8) uint32 {
	return nesColorPalette[colorIndex&0x3F]
}

// color maps a palette RAM value through greyscale and emphasis.
func (p *PPU) color(value uint8) uint32 {
	if p.ppuMask&maskGreyscale != 0 {
		value &= 0x30
	}
	return emphasisPalettes[p.ppuMask>>5][value&0x3F]
}

func (p *PPU) backdrop() uint32 {
	if p.memory == nil {
		return p.color(0x0F)
	}
	return p.color(p.memory.ReadPalette(0))
}
