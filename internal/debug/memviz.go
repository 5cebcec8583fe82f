package debug

import (
	"io"

	"github.com/bradleyjkemp/memviz"

	"nescore/internal/machine"
)

// StateView is the part of a savestate worth drawing. Bulk memory is left
// out; lengths are kept so the graph still shows what was there.
type StateView struct {
	Version  int
	MidFrame bool
	CPU      any
	APU      any
	PPU      PPUView
	Mapper   MapperView
	RAMBytes int
	ROMBytes int
}

// PPUView carries the PPU registers without frame or memory contents.
type PPUView struct {
	Scanline   int
	CurX       int
	Ctrl       uint8
	Mask       uint8
	Status     uint8
	V, T       uint16
	X          uint8
	W          bool
	FrameCount uint64
	Mirroring  string
	Palette    []uint8
	OAMBytes   int
	VRAMBytes  int
}

// MapperView carries the mapper tag and its private registers.
type MapperView struct {
	ID          int
	Name        string
	Registers   string
	PrgRAMBytes int
	ChrRAMBytes int
}

// View trims s for display.
func View(s *machine.Savestate) *StateView {
	return &StateView{
		Version:  s.Version,
		MidFrame: s.MidFrame,
		CPU:      s.CPU,
		APU:      s.APU,
		PPU: PPUView{
			Scanline:   s.PPU.Scanline,
			CurX:       s.PPU.CurX,
			Ctrl:       s.PPU.Ctrl,
			Mask:       s.PPU.Mask,
			Status:     s.PPU.Status,
			V:          s.PPU.V,
			T:          s.PPU.T,
			X:          s.PPU.X,
			W:          s.PPU.W,
			FrameCount: s.PPU.FrameCount,
			Mirroring:  s.PPU.Video.Mirroring.String(),
			Palette:    s.PPU.Video.Palette,
			OAMBytes:   len(s.PPU.OAM),
			VRAMBytes:  len(s.PPU.Video.VRAM),
		},
		Mapper: MapperView{
			ID:          s.Mapper.ID,
			Name:        s.Mapper.Name,
			Registers:   string(s.Mapper.Ext),
			PrgRAMBytes: len(s.Mapper.PrgRAM),
			ChrRAMBytes: len(s.Mapper.ChrRAM),
		},
		RAMBytes: len(s.RAM),
		ROMBytes: len(s.ROM),
	}
}

// DumpState writes a graphviz description of the machine state to w.
func DumpState(w io.Writer, m *machine.Machine) error {
	s, err := m.Snapshot()
	if err != nil {
		return err
	}
	view := View(s)
	memviz.Map(w, view)
	return nil
}
