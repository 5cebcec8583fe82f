package cartridge

// NROM implements mapper 0.
// NROM is the simplest board with no bank switching capabilities:
// - 16KB or 32KB PRG ROM (16KB is mirrored to fill the 32KB window)
// - 8KB CHR ROM or CHR RAM
// - 8KB PRG RAM at $6000-$7FFF
type NROM struct {
	base
}

func (m *NROM) ID() int      { return 0 }
func (m *NROM) Name() string { return "NROM" }

// InitializePrgRom maps the first and last 16KB banks, which are the same
// bank on a 16KB image.
func (m *NROM) InitializePrgRom() {
	m.loadPrgPage(0x8000, 0, 0x4000)
	m.loadPrgPage(0xC000, -1, 0x4000)
	m.loadChrPage(0x0000, 0, 0x2000)
}

func (m *NROM) Reset() {
	m.InitializePrgRom()
}

// Write8 stores into PRG RAM. Writes to ROM are ignored.
func (m *NROM) Write8(address uint16, value uint8) {
	if address >= 0x6000 && address < 0x8000 {
		m.writeRAM(address, value)
	}
}

func (m *NROM) MarshalState() (State, error) {
	return m.marshalBase(m.ID(), m.Name(), nil)
}

func (m *NROM) RestoreState(s State) error {
	return m.restoreBase(s, m.ID(), m.Name(), nil)
}
