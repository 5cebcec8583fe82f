package cartridge

// CNROM implements mapper 3: fixed PRG and a switchable 8KB CHR bank.
type CNROM struct {
	base
	bank uint8
}

type cnromRegs struct {
	Bank uint8 `json:"bank"`
}

func (m *CNROM) ID() int      { return 3 }
func (m *CNROM) Name() string { return "CNROM" }

func (m *CNROM) InitializePrgRom() {
	m.bank = 0
	m.loadPrgPage(0x8000, 0, 0x4000)
	m.loadPrgPage(0xC000, -1, 0x4000)
	m.loadChrPage(0x0000, 0, 0x2000)
}

func (m *CNROM) Reset() {
	m.InitializePrgRom()
}

func (m *CNROM) Write8(address uint16, value uint8) {
	if address < 0x8000 {
		if address >= 0x6000 {
			m.writeRAM(address, value)
		}
		return
	}
	m.bank = value & 0x03
	m.loadChrPage(0x0000, int(m.bank), 0x2000)
}

func (m *CNROM) MarshalState() (State, error) {
	return m.marshalBase(m.ID(), m.Name(), cnromRegs{Bank: m.bank})
}

func (m *CNROM) RestoreState(s State) error {
	var regs cnromRegs
	if err := m.restoreBase(s, m.ID(), m.Name(), &regs); err != nil {
		return err
	}
	m.bank = regs.Bank
	m.loadChrPage(0x0000, int(m.bank), 0x2000)
	return nil
}
