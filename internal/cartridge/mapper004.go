package cartridge

const (
	mmc3CHRInverted = 0x80
	mmc3PRGInverted = 0x40
	mmc3BankMask    = 0x07
)

// MMC3 implements mapper 4 (TxROM). Banks are selected with direct 8-bit
// writes and a scanline counter raises IRQs for raster effects.
//
// The counter follows the reload-on-zero convention: a $C001 write clears
// it, the next clock reloads it from the latch, each later clock
// decrements it, and an IRQ is requested whenever a clock leaves it at
// zero while enabled. With latch N the first IRQ lands on clock N+1 after
// the reload write.
type MMC3 struct {
	base
	regs mmc3Regs
}

type mmc3Regs struct {
	BankSelect    uint8    `json:"bankSelect"`
	Banks         [8]uint8 `json:"banks"`
	Mirroring     uint8    `json:"mirroring"`
	PrgRAMProtect uint8    `json:"prgRamProtect"`
	IrqLatch      uint8    `json:"irqLatch"`
	IrqCounter    uint8    `json:"irqCounter"`
	IrqReload     bool     `json:"irqReload"`
	IrqEnable     bool     `json:"irqEnable"`
}

func (m *MMC3) ID() int      { return 4 }
func (m *MMC3) Name() string { return "MMC3" }

func (m *MMC3) InitializePrgRom() {
	m.regs = mmc3Regs{
		Banks:         [8]uint8{0, 2, 4, 5, 6, 7, 0, 1},
		PrgRAMProtect: 0x80,
	}
	m.updateBanks()
}

func (m *MMC3) Reset() {
	m.InitializePrgRom()
}

func (m *MMC3) Load(address uint16) uint8 {
	if address < 0x8000 && m.regs.PrgRAMProtect&0x80 == 0 {
		return 0
	}
	return m.base.Load(address)
}

func (m *MMC3) Write8(address uint16, value uint8) {
	if address < 0x8000 {
		if address >= 0x6000 && m.regs.PrgRAMProtect&0xC0 == 0x80 {
			m.writeRAM(address, value)
		}
		return
	}

	switch address & 0xE001 {
	case 0x8000:
		m.regs.BankSelect = value
		m.updateBanks()
	case 0x8001:
		m.regs.Banks[m.regs.BankSelect&mmc3BankMask] = value
		m.updateBanks()
	case 0xA000:
		m.regs.Mirroring = value & 0x01
		m.updateMirroring()
	case 0xA001:
		m.regs.PrgRAMProtect = value
	case 0xC000:
		m.regs.IrqLatch = value
	case 0xC001:
		m.regs.IrqCounter = 0
		m.regs.IrqReload = true
	case 0xE000:
		m.regs.IrqEnable = false
		m.host.AcknowledgeIRQ()
	case 0xE001:
		m.regs.IrqEnable = true
	}
}

func (m *MMC3) updateMirroring() {
	if m.rom.Mirroring == MirrorFourScreen {
		return
	}
	if m.regs.Mirroring != 0 {
		m.host.SetMirroring(MirrorHorizontal)
	} else {
		m.host.SetMirroring(MirrorVertical)
	}
}

// updateBanks recomputes two 2KB and four 1KB CHR windows plus the four
// 8KB PRG windows from bankSelect and banks.
func (m *MMC3) updateBanks() {
	r := &m.regs

	var chrInvert uint16
	if r.BankSelect&mmc3CHRInverted != 0 {
		chrInvert = 0x1000
	}
	m.loadChrPage(0x0000^chrInvert, int(r.Banks[0]>>1), 0x0800)
	m.loadChrPage(0x0800^chrInvert, int(r.Banks[1]>>1), 0x0800)
	m.loadChrPage(0x1000^chrInvert, int(r.Banks[2]), 0x0400)
	m.loadChrPage(0x1400^chrInvert, int(r.Banks[3]), 0x0400)
	m.loadChrPage(0x1800^chrInvert, int(r.Banks[4]), 0x0400)
	m.loadChrPage(0x1C00^chrInvert, int(r.Banks[5]), 0x0400)

	var prgInvert uint16
	if r.BankSelect&mmc3PRGInverted != 0 {
		prgInvert = 0x4000
	}
	m.loadPrgPage(0x8000^prgInvert, int(r.Banks[6]&0x3F), 0x2000)
	m.loadPrgPage(0xA000, int(r.Banks[7]&0x3F), 0x2000)
	m.loadPrgPage(0xC000^prgInvert, -2, 0x2000)
	m.loadPrgPage(0xE000, -1, 0x2000)
}

// ClockIrqCounter is called by the PPU once per rendered scanline.
func (m *MMC3) ClockIrqCounter() {
	if m.regs.IrqCounter == 0 || m.regs.IrqReload {
		m.regs.IrqCounter = m.regs.IrqLatch
		m.regs.IrqReload = false
	} else {
		m.regs.IrqCounter--
	}
	if m.regs.IrqCounter == 0 && m.regs.IrqEnable {
		m.host.RequestIRQ()
	}
}

func (m *MMC3) MarshalState() (State, error) {
	return m.marshalBase(m.ID(), m.Name(), m.regs)
}

func (m *MMC3) RestoreState(s State) error {
	var regs mmc3Regs
	if err := m.restoreBase(s, m.ID(), m.Name(), &regs); err != nil {
		return err
	}
	m.regs = regs
	m.updateBanks()
	m.updateMirroring()
	return nil
}
