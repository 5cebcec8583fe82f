package cartridge

// AxROM implements mapper 7: one switchable 32KB PRG bank and single-screen
// mirroring selected by bit 4 of the bank register.
type AxROM struct {
	base
	reg uint8
}

type axromRegs struct {
	Reg uint8 `json:"reg"`
}

func (m *AxROM) ID() int      { return 7 }
func (m *AxROM) Name() string { return "AxROM" }

func (m *AxROM) InitializePrgRom() {
	m.reg = 0
	m.update()
}

func (m *AxROM) Reset() {
	m.InitializePrgRom()
}

func (m *AxROM) Write8(address uint16, value uint8) {
	if address < 0x8000 {
		return
	}
	m.reg = value
	m.update()
}

func (m *AxROM) update() {
	m.loadPrgPage(0x8000, int(m.reg&0x07), 0x8000)
	m.loadChrPage(0x0000, 0, 0x2000)
	if m.reg&0x10 != 0 {
		m.host.SetMirroring(MirrorSingleScreen1)
	} else {
		m.host.SetMirroring(MirrorSingleScreen0)
	}
}

func (m *AxROM) MarshalState() (State, error) {
	return m.marshalBase(m.ID(), m.Name(), axromRegs{Reg: m.reg})
}

func (m *AxROM) RestoreState(s State) error {
	var regs axromRegs
	if err := m.restoreBase(s, m.ID(), m.Name(), &regs); err != nil {
		return err
	}
	m.reg = regs.Reg
	m.update()
	return nil
}
