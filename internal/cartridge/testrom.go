package cartridge

// Addresses at which TestROM places its code. Every 16KB PRG bank carries
// the same code and vectors, so they are visible whatever the board maps
// at $C000-$FFFF on power-up.
const (
	TestEntry = 0xF000
	TestNMI   = 0xF800
	TestIRQ   = 0xFC00
)

// TestROM builds small iNES images in memory for tests.
type TestROM struct {
	mapper    int
	prgBanks  int
	chrBanks  int
	mirroring MirrorMode
	battery   bool
	markers   bool
	program   []uint8
	nmi       []uint8
	irq       []uint8
	chr       []uint8
}

// NewTestROM returns a builder for a 32KB NROM image with 8KB of CHR ROM.
// The default program spins at TestEntry and both handlers are RTI.
func NewTestROM() *TestROM {
	return &TestROM{
		prgBanks: 2,
		chrBanks: 1,
		program:  []uint8{0x4C, TestEntry & 0xFF, TestEntry >> 8},
		nmi:      []uint8{0x40},
		irq:      []uint8{0x40},
	}
}

func (b *TestROM) WithMapper(id int) *TestROM {
	b.mapper = id
	return b
}

// WithPRGBanks sets the PRG size in 16KB units.
func (b *TestROM) WithPRGBanks(n int) *TestROM {
	b.prgBanks = n
	return b
}

// WithCHRBanks sets the CHR ROM size in 8KB units.
func (b *TestROM) WithCHRBanks(n int) *TestROM {
	b.chrBanks = n
	return b
}

func (b *TestROM) WithCHRRAM() *TestROM {
	b.chrBanks = 0
	return b
}

func (b *TestROM) WithMirroring(m MirrorMode) *TestROM {
	b.mirroring = m
	return b
}

func (b *TestROM) WithBattery() *TestROM {
	b.battery = true
	return b
}

// WithBankMarkers stamps the index of every 8KB PRG bank into its first
// byte and the index of every 1KB CHR bank into its first byte.
func (b *TestROM) WithBankMarkers() *TestROM {
	b.markers = true
	return b
}

// WithProgram sets the code placed at TestEntry.
func (b *TestROM) WithProgram(code []uint8) *TestROM {
	b.program = append([]uint8(nil), code...)
	return b
}

func (b *TestROM) WithNMIHandler(code []uint8) *TestROM {
	b.nmi = append([]uint8(nil), code...)
	return b
}

func (b *TestROM) WithIRQHandler(code []uint8) *TestROM {
	b.irq = append([]uint8(nil), code...)
	return b
}

// WithCHR copies data to the start of CHR ROM.
func (b *TestROM) WithCHR(data []uint8) *TestROM {
	b.chr = append([]uint8(nil), data...)
	return b
}

// Build encodes the image.
func (b *TestROM) Build() []byte {
	header := make([]byte, headerSize)
	copy(header, "NES\x1A")
	header[4] = uint8(b.prgBanks)
	header[5] = uint8(b.chrBanks)
	header[6] = uint8(b.mapper&0x0F) << 4
	header[7] = uint8(b.mapper & 0xF0)
	switch b.mirroring {
	case MirrorVertical:
		header[6] |= 0x01
	case MirrorFourScreen:
		header[6] |= 0x08
	}
	if b.battery {
		header[6] |= 0x02
	}

	prg := make([]byte, b.prgBanks*prgBankSize)
	for bank := 0; bank < b.prgBanks; bank++ {
		p := prg[bank*prgBankSize : (bank+1)*prgBankSize]
		copy(p[TestEntry&0x3FFF:], b.program)
		copy(p[TestNMI&0x3FFF:], b.nmi)
		copy(p[TestIRQ&0x3FFF:], b.irq)
		vectors := []uint16{TestNMI, TestEntry, TestIRQ}
		for i, v := range vectors {
			p[0x3FFA+i*2] = uint8(v)
			p[0x3FFB+i*2] = uint8(v >> 8)
		}
	}

	chr := make([]byte, b.chrBanks*chrBankSize)
	copy(chr, b.chr)

	if b.markers {
		for i := 0; i < len(prg)/0x2000; i++ {
			prg[i*0x2000] = uint8(i)
		}
		for i := 0; i < len(chr)/0x400; i++ {
			chr[i*0x400] = uint8(i)
		}
	}

	out := append(header, prg...)
	return append(out, chr...)
}
