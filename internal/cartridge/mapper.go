package cartridge

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// Mapper is the bank-switching contract shared by every cartridge board.
// The CPU reaches $6000-$FFFF through Load and Write8; the PPU reaches the
// pattern tables through ReadCHR and WriteCHR.
type Mapper interface {
	ID() int
	Name() string

	// InitializePrgRom establishes the power-on bank mapping.
	InitializePrgRom()
	// Reset restores power-on register values.
	Reset()

	Load(address uint16) uint8
	Write8(address uint16, value uint8)
	ReadCHR(address uint16) uint8
	WriteCHR(address uint16, value uint8)

	MarshalState() (State, error)
	RestoreState(s State) error
}

// ScanlineCounter is implemented by mappers that count rendered scanlines
// to raise IRQs. The PPU clocks it once per rendered scanline.
type ScanlineCounter interface {
	ClockIrqCounter()
}

// Host is the part of the console a mapper may poke.
type Host interface {
	SetMirroring(mode MirrorMode)
	// TriggerRendering flushes pending PPU output before pattern or
	// nametable mappings change.
	TriggerRendering()
	RequestIRQ()
	// AcknowledgeIRQ withdraws an IRQ the CPU has not taken yet.
	AcknowledgeIRQ()
	BatteryRAMWritten(address uint16, value uint8)
}

// ErrMapperMismatch is returned by RestoreState when the state was taken
// from a different mapper.
var ErrMapperMismatch = errors.New("mapper mismatch")

// State is the serialized form of a mapper. The base fields are shared by
// every board; Ext carries the variant's private registers.
type State struct {
	ID     int             `json:"id"`
	Name   string          `json:"name"`
	PrgRAM []uint8         `json:"prgRam"`
	ChrRAM []uint8         `json:"chrRam,omitempty"`
	Ext    json.RawMessage `json:"ext,omitempty"`
}

type constructor func(b base) Mapper

var registry = map[int]constructor{
	0: func(b base) Mapper { return &NROM{base: b} },
	1: func(b base) Mapper { return &MMC1{base: b} },
	2: func(b base) Mapper { return &UxROM{base: b} },
	3: func(b base) Mapper { return &CNROM{base: b} },
	4: func(b base) Mapper { return &MMC3{base: b} },
	7: func(b base) Mapper { return &AxROM{base: b} },
}

// Supported reports whether a mapper id can be constructed.
func Supported(id int) bool {
	_, ok := registry[id]
	return ok
}

// SupportedIDs lists the constructible mapper ids in ascending order.
func SupportedIDs() []int {
	ids := make([]int, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// MapperName returns the board name for id, or "" if it is not supported.
func MapperName(id int) string {
	c, ok := registry[id]
	if !ok {
		return ""
	}
	return c(base{}).Name()
}

// New builds the mapper selected by rom.MapperID and establishes its
// power-on mapping.
func New(rom *ROM, host Host) (Mapper, error) {
	ctor, ok := registry[rom.MapperID]
	if !ok {
		return nil, &ROMError{Field: fmt.Sprintf("mapper %d", rom.MapperID), Err: ErrUnsupportedMapper}
	}
	m := ctor(newBase(rom, host))
	m.InitializePrgRom()
	return m, nil
}

// base holds the memory every board shares: PRG ROM seen through four 8KB
// windows, CHR seen through eight 1KB windows, and 8KB of PRG RAM.
type base struct {
	rom  *ROM
	host Host

	chr    []uint8
	chrRAM bool
	prgRAM [0x2000]uint8

	prgMap [4]int
	chrMap [8]int
}

func newBase(rom *ROM, host Host) base {
	b := base{rom: rom, host: host}
	if rom.HasCHRRAM() {
		b.chr = make([]uint8, chrBankSize)
		b.chrRAM = true
	} else {
		b.chr = rom.CHR
	}
	b.resetMaps()
	return b
}

func (b *base) resetMaps() {
	for i := range b.prgMap {
		b.prgMap[i] = (i * 0x2000) % len(b.rom.PRG)
	}
	for i := range b.chrMap {
		b.chrMap[i] = (i * 0x400) % len(b.chr)
	}
}

// loadPrgPage maps bank (in units of size) at the CPU address. Negative
// banks count back from the end of PRG ROM.
func (b *base) loadPrgPage(address uint16, bank int, size int) {
	banks := len(b.rom.PRG) / size
	if banks == 0 {
		banks = 1
	}
	bank %= banks
	if bank < 0 {
		bank += banks
	}
	start := int(address-0x8000) >> 13
	for i := 0; i < size/0x2000; i++ {
		b.prgMap[start+i] = (bank*size + i*0x2000) % len(b.rom.PRG)
	}
}

// loadChrPage maps bank (in units of size) at the PPU address. Pending
// rendering is flushed first when the mapping actually changes.
func (b *base) loadChrPage(address uint16, bank int, size int) {
	banks := len(b.chr) / size
	if banks == 0 {
		banks = 1
	}
	bank %= banks
	if bank < 0 {
		bank += banks
	}
	start := int(address) >> 10
	n := size / 0x400
	changed := false
	for i := 0; i < n; i++ {
		if b.chrMap[start+i] != (bank*size+i*0x400)%len(b.chr) {
			changed = true
			break
		}
	}
	if !changed {
		return
	}
	b.host.TriggerRendering()
	for i := 0; i < n; i++ {
		b.chrMap[start+i] = (bank*size + i*0x400) % len(b.chr)
	}
}

func (b *base) readPRG(address uint16) uint8 {
	return b.rom.PRG[b.prgMap[(address-0x8000)>>13]+int(address&0x1FFF)]
}

func (b *base) readRAM(address uint16) uint8 {
	return b.prgRAM[address-0x6000]
}

func (b *base) writeRAM(address uint16, value uint8) {
	b.prgRAM[address-0x6000] = value
	if b.rom.Battery {
		b.host.BatteryRAMWritten(address, value)
	}
}

// Load reads CPU space $6000-$FFFF.
func (b *base) Load(address uint16) uint8 {
	if address >= 0x8000 {
		return b.readPRG(address)
	}
	return b.readRAM(address)
}

func (b *base) ReadCHR(address uint16) uint8 {
	address &= 0x1FFF
	return b.chr[b.chrMap[address>>10]+int(address&0x3FF)]
}

func (b *base) WriteCHR(address uint16, value uint8) {
	if !b.chrRAM {
		return
	}
	address &= 0x1FFF
	b.chr[b.chrMap[address>>10]+int(address&0x3FF)] = value
}

// LoadBatteryRAM copies saved PRG RAM contents into the board.
func (b *base) LoadBatteryRAM(data []uint8) {
	copy(b.prgRAM[:], data)
}

func (b *base) marshalBase(id int, name string, ext any) (State, error) {
	s := State{
		ID:     id,
		Name:   name,
		PrgRAM: append([]uint8(nil), b.prgRAM[:]...),
	}
	if b.chrRAM {
		s.ChrRAM = append([]uint8(nil), b.chr...)
	}
	if ext != nil {
		raw, err := json.Marshal(ext)
		if err != nil {
			return State{}, fmt.Errorf("marshal %s registers: %w", name, err)
		}
		s.Ext = raw
	}
	return s, nil
}

// restoreBase checks the tag and restores shared memory. ext, when non-nil,
// receives the decoded extension block.
func (b *base) restoreBase(s State, id int, name string, ext any) error {
	if s.ID != id || s.Name != name {
		return fmt.Errorf("%w: state is %s (%d), board is %s (%d)", ErrMapperMismatch, s.Name, s.ID, name, id)
	}
	if len(s.PrgRAM) != len(b.prgRAM) {
		return fmt.Errorf("%w: prg ram is %d bytes", ErrMapperMismatch, len(s.PrgRAM))
	}
	if b.chrRAM && len(s.ChrRAM) != len(b.chr) {
		return fmt.Errorf("%w: chr ram is %d bytes", ErrMapperMismatch, len(s.ChrRAM))
	}
	if ext != nil {
		if len(s.Ext) == 0 {
			return fmt.Errorf("%w: missing %s extension block", ErrMapperMismatch, name)
		}
		if err := json.Unmarshal(s.Ext, ext); err != nil {
			return fmt.Errorf("%w: %s extension: %v", ErrMapperMismatch, name, err)
		}
	}
	copy(b.prgRAM[:], s.PrgRAM)
	if b.chrRAM {
		copy(b.chr, s.ChrRAM)
	}
	return nil
}
