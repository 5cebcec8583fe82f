package machine

import (
	"encoding/json"
	"fmt"

	"nescore/internal/apu"
	"nescore/internal/cartridge"
	"nescore/internal/cpu"
	"nescore/internal/input"
	"nescore/internal/ppu"
)

// SavestateVersion is the schema written by ToJSON. FromJSON accepts only
// this version.
const SavestateVersion = 1

const ramSize = 0x800

// Savestate is the wire form of a machine snapshot.
type Savestate struct {
	Version  int  `json:"version"`
	MidFrame bool `json:"midFrame,omitempty"`

	CPU     cpu.State   `json:"cpu"`
	PPU     ppu.State   `json:"ppu"`
	APU     apu.State   `json:"apu"`
	RAM     []uint8     `json:"ram"`
	OpenBus uint8       `json:"openBus"`
	Input   input.State `json:"input"`

	// IRQLines is the set of sources holding the CPU's IRQ line.
	IRQLines uint8 `json:"irqLines,omitempty"`

	// Mapper carries the shared base block plus the board's extension
	// block, tagged with the board's id and name.
	Mapper cartridge.State `json:"mapper"`

	ROM []byte `json:"rom"`
}

// ToJSON snapshots the machine. It may be called between frames or while
// stopped at a breakpoint.
func (m *Machine) ToJSON() ([]byte, error) {
	s, err := m.Snapshot()
	if err != nil {
		return nil, err
	}
	return json.Marshal(s)
}

// Snapshot returns the current state as a Savestate value.
func (m *Machine) Snapshot() (*Savestate, error) {
	if m.hw == nil {
		return nil, ErrNoROM
	}
	hw := m.hw

	mapperState, err := hw.mapper.MarshalState()
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}

	return &Savestate{
		Version:  SavestateVersion,
		MidFrame: m.state == Break,
		CPU:      hw.cpu.State(),
		PPU:      hw.ppu.State(),
		APU:      hw.apu.State(),
		RAM:      hw.mem.RAM(),
		OpenBus:  hw.mem.OpenBus(),
		Input:    m.input.State(),
		IRQLines: hw.irqLines,
		Mapper:   mapperState,
		ROM:      hw.rom.Raw,
	}, nil
}

// FromJSON restores a snapshot taken by ToJSON. The console is rebuilt
// from the snapshot's image and swapped in only when every component
// accepts its state; on any error the machine is untouched.
func (m *Machine) FromJSON(data []byte) error {
	var s Savestate
	if err := json.Unmarshal(data, &s); err != nil {
		return &StateError{Field: "json", Err: err}
	}
	return m.Restore(&s)
}

// Restore applies a Savestate value. See FromJSON.
func (m *Machine) Restore(s *Savestate) error {
	if s.Version != SavestateVersion {
		return mismatch("version", "got %d, want %d", s.Version, SavestateVersion)
	}
	if m.hw != nil && (s.Mapper.ID != m.hw.mapper.ID() || s.Mapper.Name != m.hw.mapper.Name()) {
		return mismatch("mapper", "state is %s (%d), loaded ROM is %s (%d)",
			s.Mapper.Name, s.Mapper.ID, m.hw.mapper.Name(), m.hw.mapper.ID())
	}
	if len(s.RAM) != ramSize {
		return mismatch("ram", "%d bytes", len(s.RAM))
	}

	rom, err := m.stateROM(s)
	if err != nil {
		return err
	}
	hw, err := m.newConsole(rom)
	if err != nil {
		return &StateError{Field: "rom", Err: err}
	}

	// The mapper goes first: restoring banks may touch the PPU, which is
	// still at power-on and ignores it. PPU state then overwrites the
	// mirroring the mapper set.
	if err := hw.mapper.RestoreState(s.Mapper); err != nil {
		return &StateError{Field: "mapper", Err: fmt.Errorf("%w: %w", ErrStateMismatch, err)}
	}
	if err := hw.ppu.SetState(s.PPU); err != nil {
		return &StateError{Field: "ppu", Err: fmt.Errorf("%w: %w", ErrStateMismatch, err)}
	}
	hw.cpu.SetState(s.CPU)
	hw.apu.SetState(s.APU)
	hw.mem.SetRAM(s.RAM, s.OpenBus)
	hw.irqLines = s.IRQLines

	state := Running
	if s.MidFrame {
		state = Break
	}
	m.swap(hw, state)
	m.input.SetState(s.Input)
	return nil
}

// stateROM decodes the image carried by s, falling back to the loaded one.
func (m *Machine) stateROM(s *Savestate) (*cartridge.ROM, error) {
	if len(s.ROM) == 0 {
		if m.hw == nil {
			return nil, ErrNoROM
		}
		return m.hw.rom, nil
	}
	rom, err := cartridge.Decode(s.ROM)
	if err != nil {
		return nil, &StateError{Field: "rom", Err: err}
	}
	return rom, nil
}
