package memory

import (
	"nescore/internal/cartridge"
)

// CHRInterface is the PPU side of a mapper ($0000-$1FFF).
type CHRInterface interface {
	ReadCHR(address uint16) uint8
	WriteCHR(address uint16, value uint8)
}

// PPUMemory represents the PPU's address space: pattern tables through the
// mapper, nametable RAM and palette RAM.
type PPUMemory struct {
	vram      [0x1000]uint8 // 2KB on the console, 4KB on four-screen boards
	palette   [32]uint8
	chr       CHRInterface
	mirroring cartridge.MirrorMode

	// nametables maps each of the four logical nametables to a 1KB page
	// of vram.
	nametables [4]uint16
}

// VideoState is the serialized PPU address space.
type VideoState struct {
	VRAM      []uint8              `json:"vram"`
	Palette   []uint8              `json:"palette"`
	Mirroring cartridge.MirrorMode `json:"mirroring"`
}

// NewPPUMemory creates a new PPU memory instance
func NewPPUMemory(chr CHRInterface, mirroring cartridge.MirrorMode) *PPUMemory {
	mem := &PPUMemory{chr: chr}
	for i := 0; i < 32; i += 4 {
		mem.palette[i] = 0x0F
	}
	mem.SetMirroring(mirroring)
	return mem
}

// SetCHR attaches the pattern-table source.
func (pm *PPUMemory) SetCHR(chr CHRInterface) {
	pm.chr = chr
}

// SetMirroring remaps the four logical nametables.
func (pm *PPUMemory) SetMirroring(mode cartridge.MirrorMode) {
	pm.mirroring = mode
	switch mode {
	case cartridge.MirrorVertical:
		pm.nametables = [4]uint16{0x000, 0x400, 0x000, 0x400}
	case cartridge.MirrorSingleScreen0:
		pm.nametables = [4]uint16{0x000, 0x000, 0x000, 0x000}
	case cartridge.MirrorSingleScreen1:
		pm.nametables = [4]uint16{0x400, 0x400, 0x400, 0x400}
	case cartridge.MirrorFourScreen:
		pm.nametables = [4]uint16{0x000, 0x400, 0x800, 0xC00}
	default:
		pm.nametables = [4]uint16{0x000, 0x000, 0x400, 0x400}
	}
}

// Mirroring returns the active nametable arrangement.
func (pm *PPUMemory) Mirroring() cartridge.MirrorMode {
	return pm.mirroring
}

// Read reads from PPU memory space ($0000-$3FFF)
func (pm *PPUMemory) Read(address uint16) uint8 {
	address &= 0x3FFF

	switch {
	case address < 0x2000:
		if pm.chr == nil {
			return 0
		}
		return pm.chr.ReadCHR(address)
	case address < 0x3F00:
		return pm.vram[pm.nametableIndex(address)]
	default:
		return pm.palette[paletteIndex(address)]
	}
}

// Write writes to PPU memory space ($0000-$3FFF)
func (pm *PPUMemory) Write(address uint16, value uint8) {
	address &= 0x3FFF

	switch {
	case address < 0x2000:
		if pm.chr != nil {
			pm.chr.WriteCHR(address, value)
		}
	case address < 0x3F00:
		pm.vram[pm.nametableIndex(address)] = value
	default:
		pm.palette[paletteIndex(address)] = value & 0x3F
	}
}

// ReadNametable reads nametable RAM without going through the pattern
// table or palette decode.
func (pm *PPUMemory) ReadNametable(address uint16) uint8 {
	return pm.vram[pm.nametableIndex(address)]
}

// ReadPalette reads a palette entry (0-31).
func (pm *PPUMemory) ReadPalette(index uint8) uint8 {
	return pm.palette[paletteIndex(uint16(index))]
}

// ReadCHR reads pattern memory.
func (pm *PPUMemory) ReadCHR(address uint16) uint8 {
	if pm.chr == nil {
		return 0
	}
	return pm.chr.ReadCHR(address)
}

func (pm *PPUMemory) nametableIndex(address uint16) uint16 {
	address &= 0x0FFF
	return pm.nametables[address>>10] + address&0x3FF
}

// paletteIndex folds the sprite backdrop entries onto the background ones.
func paletteIndex(address uint16) uint16 {
	index := address & 0x1F
	if index&0x13 == 0x10 {
		index &= 0x0F
	}
	return index
}

// State captures nametable and palette RAM.
func (pm *PPUMemory) State() VideoState {
	return VideoState{
		VRAM:      append([]uint8(nil), pm.vram[:]...),
		Palette:   append([]uint8(nil), pm.palette[:]...),
		Mirroring: pm.mirroring,
	}
}

// SetState restores a VideoState.
func (pm *PPUMemory) SetState(s VideoState) {
	copy(pm.vram[:], s.VRAM)
	copy(pm.palette[:], s.Palette)
	pm.SetMirroring(s.Mirroring)
}

var (
	_ CartridgeInterface = (cartridge.Mapper)(nil)
	_ CHRInterface       = (cartridge.Mapper)(nil)
)
