package cartridge

// MMC1 control register bits ($8000).
const (
	mmc1MirrorMask  = 0x03
	mmc1MirrorLower = 0x00
	mmc1MirrorUpper = 0x01
	mmc1MirrorVert  = 0x02
	mmc1MirrorHoriz = 0x03

	mmc1PRGMask    = 0x0C
	mmc1PRG16K     = 0x08 // otherwise 32KB
	mmc1PRG16KLow  = 0x0C // $8000 switchable, $C000 fixed to last bank
	mmc1PRG16KHigh = 0x08 // $8000 fixed to first bank, $C000 switchable

	mmc1CHR4K = 0x10 // otherwise 8KB

	// mmc1ShiftReset is the empty shift register. The marker bit reaches
	// bit 0 once four data bits have been shifted in.
	mmc1ShiftReset = 0x10
)

// MMC1 implements mapper 1 (SxROM). Registers are loaded one bit at a time
// through a 5-bit serial shift register.
type MMC1 struct {
	base
	regs mmc1Regs
}

type mmc1Regs struct {
	Shift   uint8 `json:"shift"`
	Control uint8 `json:"control"`
	ChrLo   uint8 `json:"chrLo"`
	ChrHi   uint8 `json:"chrHi"`
	PrgPage uint8 `json:"prgPage"`
}

func (m *MMC1) ID() int      { return 1 }
func (m *MMC1) Name() string { return "MMC1" }

func (m *MMC1) InitializePrgRom() {
	m.regs = mmc1Regs{Shift: mmc1ShiftReset, Control: mmc1PRG16KLow}
	m.update()
}

func (m *MMC1) Reset() {
	m.InitializePrgRom()
}

// Write8 handles PRG RAM writes and the serial register protocol at
// $8000-$FFFF.
func (m *MMC1) Write8(address uint16, value uint8) {
	if address < 0x8000 {
		if address >= 0x6000 && m.ramEnabled() {
			m.writeRAM(address, value)
		}
		return
	}

	if value&0x80 != 0 {
		m.regs.Shift = mmc1ShiftReset
		m.regs.Control |= mmc1PRG16KLow
		m.update()
		return
	}

	complete := m.regs.Shift&0x01 != 0
	m.regs.Shift = (m.regs.Shift >> 1) | ((value & 0x01) << 4)
	if !complete {
		return
	}

	data := m.regs.Shift
	m.regs.Shift = mmc1ShiftReset
	switch {
	case address < 0xA000:
		m.regs.Control = data
	case address < 0xC000:
		m.regs.ChrLo = data
	case address < 0xE000:
		m.regs.ChrHi = data
	default:
		m.regs.PrgPage = data
	}
	m.update()
}

func (m *MMC1) Load(address uint16) uint8 {
	if address < 0x8000 && !m.ramEnabled() {
		return 0
	}
	return m.base.Load(address)
}

func (m *MMC1) ramEnabled() bool {
	return m.regs.PrgPage&0x10 == 0
}

// update recomputes mirroring and the visible PRG/CHR windows from the
// register file.
func (m *MMC1) update() {
	ctrl := m.regs.Control

	switch ctrl & mmc1MirrorMask {
	case mmc1MirrorLower:
		m.host.SetMirroring(MirrorSingleScreen0)
	case mmc1MirrorUpper:
		m.host.SetMirroring(MirrorSingleScreen1)
	case mmc1MirrorVert:
		m.host.SetMirroring(MirrorVertical)
	case mmc1MirrorHoriz:
		m.host.SetMirroring(MirrorHorizontal)
	}

	// 512KB boards use CHR bit 4 to pick the 256KB PRG half.
	outer := 0
	if len(m.rom.PRG) > 0x40000 {
		outer = int(m.regs.ChrLo & 0x10)
	}
	page := int(m.regs.PrgPage & 0x0F)

	if ctrl&mmc1PRG16K != 0 {
		if ctrl&mmc1PRGMask == mmc1PRG16KLow {
			m.loadPrgPage(0x8000, outer|page, 0x4000)
			m.loadPrgPage(0xC000, outer|0x0F, 0x4000)
		} else {
			m.loadPrgPage(0x8000, outer, 0x4000)
			m.loadPrgPage(0xC000, outer|page, 0x4000)
		}
	} else {
		m.loadPrgPage(0x8000, (outer|page)>>1, 0x8000)
	}

	if ctrl&mmc1CHR4K != 0 {
		m.loadChrPage(0x0000, int(m.regs.ChrLo), 0x1000)
		m.loadChrPage(0x1000, int(m.regs.ChrHi), 0x1000)
	} else {
		m.loadChrPage(0x0000, int(m.regs.ChrLo>>1), 0x2000)
	}
}

func (m *MMC1) MarshalState() (State, error) {
	return m.marshalBase(m.ID(), m.Name(), m.regs)
}

func (m *MMC1) RestoreState(s State) error {
	var regs mmc1Regs
	if err := m.restoreBase(s, m.ID(), m.Name(), &regs); err != nil {
		return err
	}
	m.regs = regs
	m.update()
	return nil
}
