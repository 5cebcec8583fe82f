package cartridge

// UxROM implements mapper 2: a switchable 16KB bank at $8000 with the last
// bank fixed at $C000, and 8KB of CHR RAM.
type UxROM struct {
	base
	bank uint8
}

type uxromRegs struct {
	Bank uint8 `json:"bank"`
}

func (m *UxROM) ID() int      { return 2 }
func (m *UxROM) Name() string { return "UxROM" }

func (m *UxROM) InitializePrgRom() {
	m.bank = 0
	m.update()
}

func (m *UxROM) Reset() {
	m.InitializePrgRom()
}

func (m *UxROM) Write8(address uint16, value uint8) {
	if address < 0x8000 {
		if address >= 0x6000 {
			m.writeRAM(address, value)
		}
		return
	}
	m.bank = value
	m.update()
}

func (m *UxROM) update() {
	m.loadPrgPage(0x8000, int(m.bank), 0x4000)
	m.loadPrgPage(0xC000, -1, 0x4000)
	m.loadChrPage(0x0000, 0, 0x2000)
}

func (m *UxROM) MarshalState() (State, error) {
	return m.marshalBase(m.ID(), m.Name(), uxromRegs{Bank: m.bank})
}

func (m *UxROM) RestoreState(s State) error {
	var regs uxromRegs
	if err := m.restoreBase(s, m.ID(), m.Name(), &regs); err != nil {
		return err
	}
	m.bank = regs.Bank
	m.update()
	return nil
}
