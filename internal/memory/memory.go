// Package memory implements the CPU memory map and the PPU address space
// of the NES.
package memory

// Memory represents the NES CPU memory map
type Memory struct {
	// Internal RAM (2KB, mirrored to 8KB)
	ram [0x800]uint8

	ppu   PPUInterface
	apu   APUInterface
	input InputInterface
	cart  CartridgeInterface

	dma     DMATarget
	staller Staller

	// Last value seen on the data bus, returned for unmapped reads.
	openBus uint8
}

// PPUInterface defines the interface for PPU register access
type PPUInterface interface {
	ReadRegister(address uint16) uint8
	WriteRegister(address uint16, value uint8)
}

// APUInterface defines the interface for APU register access
type APUInterface interface {
	WriteRegister(address uint16, value uint8)
	ReadStatus() uint8
}

// InputInterface defines the interface for the controller ports
type InputInterface interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
}

// CartridgeInterface is the CPU side of a mapper. Writes from $4020 up
// reach it; reads from $6000 up.
type CartridgeInterface interface {
	Load(address uint16) uint8
	Write8(address uint16, value uint8)
}

// DMATarget receives the 256 bytes copied by a $4014 write.
type DMATarget interface {
	WriteOAMDMA(data *[256]uint8)
}

// Staller suspends the CPU for a number of cycles.
type Staller interface {
	Halt(cycles int)
}

// OAMDMACycles is the CPU stall charged for a sprite DMA transfer.
const OAMDMACycles = 513

// New creates a new Memory instance
func New(ppu PPUInterface, apu APUInterface, cart CartridgeInterface) *Memory {
	mem := &Memory{
		ppu:  ppu,
		apu:  apu,
		cart: cart,
	}
	mem.initializePowerUpRAM()
	return mem
}

// SetInputSystem sets the input system for controller access
func (m *Memory) SetInputSystem(input InputInterface) {
	m.input = input
}

// SetDMA wires the OAM DMA destination and the CPU to stall.
func (m *Memory) SetDMA(target DMATarget, staller Staller) {
	m.dma = target
	m.staller = staller
}

// initializePowerUpRAM fills RAM with a fixed pattern. Any pattern works as
// long as it is the same on every power-up, so runs stay reproducible.
func (m *Memory) initializePowerUpRAM() {
	for i := range m.ram {
		if i&0x04 == 0 {
			m.ram[i] = 0x00
		} else {
			m.ram[i] = 0xFF
		}
	}
}

// Read reads a byte from the given address
func (m *Memory) Read(address uint16) uint8 {
	var value uint8

	switch {
	case address < 0x2000:
		value = m.ram[address&0x07FF]

	case address < 0x4000:
		// PPU registers (mirrored every 8 bytes)
		value = m.ppu.ReadRegister(0x2000 + (address & 0x0007))

	case address == 0x4015:
		value = m.apu.ReadStatus()

	case address == 0x4016 || address == 0x4017:
		value = m.openBus & 0xE0
		if m.input != nil {
			value |= m.input.Read(address)
		}

	case address < 0x6000:
		// Write-only APU registers, test registers and the expansion
		// area. None of the supported boards drive the bus here.
		value = m.openBus

	default:
		if m.cart == nil {
			value = m.openBus
		} else {
			value = m.cart.Load(address)
		}
	}

	m.openBus = value
	return value
}

// Write writes a byte to the given address
func (m *Memory) Write(address uint16, value uint8) {
	m.openBus = value

	switch {
	case address < 0x2000:
		m.ram[address&0x07FF] = value

	case address < 0x4000:
		m.ppu.WriteRegister(0x2000+(address&0x0007), value)

	case address == 0x4014:
		m.performOAMDMA(value)

	case address == 0x4016:
		if m.input != nil {
			m.input.Write(address, value)
		}

	case address <= 0x4013 || address == 0x4015 || address == 0x4017:
		m.apu.WriteRegister(address, value)

	case address < 0x4020:
		// CPU test registers are ignored.

	default:
		if m.cart != nil {
			m.cart.Write8(address, value)
		}
	}
}

// performOAMDMA copies one CPU page into OAM and stalls the CPU.
func (m *Memory) performOAMDMA(page uint8) {
	var data [256]uint8
	base := uint16(page) << 8
	for i := range data {
		data[i] = m.Read(base + uint16(i))
	}

	if m.dma != nil {
		m.dma.WriteOAMDMA(&data)
	} else {
		for _, v := range data {
			m.ppu.WriteRegister(0x2004, v)
		}
	}
	if m.staller != nil {
		m.staller.Halt(OAMDMACycles)
	}
}

// OpenBus returns the value currently latched on the data bus.
func (m *Memory) OpenBus() uint8 {
	return m.openBus
}

// RAM returns a copy of internal RAM.
func (m *Memory) RAM() []uint8 {
	return append([]uint8(nil), m.ram[:]...)
}

// SetRAM restores internal RAM and the open-bus latch.
func (m *Memory) SetRAM(data []uint8, openBus uint8) {
	copy(m.ram[:], data)
	m.openBus = openBus
}
