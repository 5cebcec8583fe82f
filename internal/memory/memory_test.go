package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type RegisterWrite struct {
	Address uint16
	Value   uint8
}

// MockPPU implements PPUInterface and DMATarget for testing
type MockPPU struct {
	registers  [8]uint8
	readCalls  []uint16
	writeCalls []RegisterWrite
	dma        []*[256]uint8
}

func (m *MockPPU) ReadRegister(address uint16) uint8 {
	m.readCalls = append(m.readCalls, address)
	return m.registers[address&0x7]
}

func (m *MockPPU) WriteRegister(address uint16, value uint8) {
	m.writeCalls = append(m.writeCalls, RegisterWrite{Address: address, Value: value})
	m.registers[address&0x7] = value
}

func (m *MockPPU) WriteOAMDMA(data *[256]uint8) {
	copied := *data
	m.dma = append(m.dma, &copied)
}

// MockAPU implements APUInterface for testing
type MockAPU struct {
	status     uint8
	writeCalls []RegisterWrite
}

func (m *MockAPU) WriteRegister(address uint16, value uint8) {
	m.writeCalls = append(m.writeCalls, RegisterWrite{Address: address, Value: value})
}

func (m *MockAPU) ReadStatus() uint8 {
	return m.status
}

// MockCartridge implements CartridgeInterface and CHRInterface for testing
type MockCartridge struct {
	prg       [0xA000]uint8
	chr       [0x2000]uint8
	prgWrites []RegisterWrite
}

func (m *MockCartridge) Load(address uint16) uint8 {
	return m.prg[address-0x6000]
}

func (m *MockCartridge) Write8(address uint16, value uint8) {
	m.prgWrites = append(m.prgWrites, RegisterWrite{Address: address, Value: value})
}

func (m *MockCartridge) ReadCHR(address uint16) uint8 {
	return m.chr[address&0x1FFF]
}

func (m *MockCartridge) WriteCHR(address uint16, value uint8) {
	m.chr[address&0x1FFF] = value
}

type MockInput struct {
	value  uint8
	writes []RegisterWrite
}

func (m *MockInput) Read(address uint16) uint8 { return m.value }

func (m *MockInput) Write(address uint16, value uint8) {
	m.writes = append(m.writes, RegisterWrite{Address: address, Value: value})
}

type MockStaller struct {
	halted int
}

func (m *MockStaller) Halt(cycles int) { m.halted += cycles }

func newTestMemory() (*Memory, *MockPPU, *MockAPU, *MockCartridge) {
	ppu := &MockPPU{}
	apu := &MockAPU{}
	cart := &MockCartridge{}
	return New(ppu, apu, cart), ppu, apu, cart
}

func TestMemory_InternalRAM_ShouldMirrorEvery2KB(t *testing.T) {
	mem, _, _, _ := newTestMemory()

	for _, base := range []uint16{0x0000, 0x0001, 0x0100, 0x07FF} {
		mem.Write(base, uint8(base)^0x5A)
		for _, mirror := range []uint16{base + 0x0800, base + 0x1000, base + 0x1800} {
			assert.Equal(t, uint8(base)^0x5A, mem.Read(mirror), "mirror %04X", mirror)
		}
	}
}

func TestMemory_PowerUpRAM_ShouldBeDeterministic(t *testing.T) {
	a, _, _, _ := newTestMemory()
	b, _, _, _ := newTestMemory()
	assert.Equal(t, a.RAM(), b.RAM())
}

func TestMemory_PPURegisters_ShouldMirrorEvery8Bytes(t *testing.T) {
	mem, ppu, _, _ := newTestMemory()

	mem.Write(0x3456, 0x77)
	assert.Equal(t, RegisterWrite{Address: 0x2006, Value: 0x77}, ppu.writeCalls[0])

	mem.Read(0x2FFA)
	assert.Equal(t, []uint16{0x2002}, ppu.readCalls)
}

func TestMemory_APURegisters(t *testing.T) {
	mem, _, apu, _ := newTestMemory()
	apu.status = 0x41

	mem.Write(0x4000, 0x01)
	mem.Write(0x4013, 0x02)
	mem.Write(0x4015, 0x03)
	mem.Write(0x4017, 0x04)
	mem.Write(0x4018, 0x05)

	assert.Equal(t, []RegisterWrite{
		{0x4000, 0x01}, {0x4013, 0x02}, {0x4015, 0x03}, {0x4017, 0x04},
	}, apu.writeCalls)
	assert.Equal(t, uint8(0x41), mem.Read(0x4015))
}

func TestMemory_ControllerPorts(t *testing.T) {
	mem, _, _, _ := newTestMemory()
	input := &MockInput{value: 0x01}
	mem.SetInputSystem(input)

	mem.Write(0x4016, 0x01)
	assert.Equal(t, []RegisterWrite{{0x4016, 0x01}}, input.writes)

	mem.Write(0x0000, 0x40)
	mem.Read(0x0000)
	assert.Equal(t, uint8(0x41), mem.Read(0x4016), "upper bits come from open bus")
}

func TestMemory_OpenBus(t *testing.T) {
	mem, _, _, _ := newTestMemory()

	mem.Write(0x0010, 0xAB)
	assert.Equal(t, uint8(0xAB), mem.Read(0x5000))

	mem.Read(0x0010)
	assert.Equal(t, uint8(0xAB), mem.Read(0x4001), "write-only APU register")

	mem.Write(0x4020, 0x12)
	assert.Equal(t, uint8(0x12), mem.OpenBus())
}

func TestMemory_Cartridge(t *testing.T) {
	mem, _, _, cart := newTestMemory()
	cart.prg[0x2000] = 0x99 // $8000
	cart.prg[0x0000] = 0x33 // $6000

	assert.Equal(t, uint8(0x99), mem.Read(0x8000))
	assert.Equal(t, uint8(0x33), mem.Read(0x6000))

	mem.Write(0x8000, 0x01)
	mem.Write(0x6000, 0x02)
	mem.Write(0x5FFF, 0x03)
	mem.Write(0x4020, 0x04)
	mem.Write(0x401F, 0x05)
	assert.Equal(t, []RegisterWrite{{0x8000, 0x01}, {0x6000, 0x02}, {0x5FFF, 0x03}, {0x4020, 0x04}}, cart.prgWrites)

	mem.Write(0x0000, 0x6C)
	assert.Equal(t, uint8(0x6C), mem.Read(0x4020), "expansion reads are open bus")
}

func TestMemory_NoCartridge_ShouldReturnOpenBus(t *testing.T) {
	mem := New(&MockPPU{}, &MockAPU{}, nil)
	mem.Write(0x0000, 0x6C)
	assert.Equal(t, uint8(0x6C), mem.Read(0xFFFC))
}

func TestMemory_OAMDMA_ShouldCopyPageAndStall(t *testing.T) {
	mem, ppu, _, _ := newTestMemory()
	staller := &MockStaller{}
	mem.SetDMA(ppu, staller)

	for i := 0; i < 256; i++ {
		mem.Write(0x0200+uint16(i), uint8(i))
	}
	mem.Write(0x4014, 0x02)

	assert.Len(t, ppu.dma, 1)
	for i := 0; i < 256; i++ {
		assert.Equal(t, uint8(i), ppu.dma[0][i])
	}
	assert.Equal(t, OAMDMACycles, staller.halted)
}

func TestMemory_OAMDMA_WithoutTarget_ShouldUseOAMDATA(t *testing.T) {
	mem, ppu, _, _ := newTestMemory()

	mem.Write(0x4014, 0x00)

	oamWrites := 0
	for _, w := range ppu.writeCalls {
		if w.Address == 0x2004 {
			oamWrites++
		}
	}
	assert.Equal(t, 256, oamWrites)
}

func TestMemory_SetRAM(t *testing.T) {
	mem, _, _, _ := newTestMemory()
	data := make([]uint8, 0x800)
	data[0x123] = 0xEE

	mem.SetRAM(data, 0x42)
	assert.Equal(t, uint8(0x42), mem.OpenBus())
	assert.Equal(t, uint8(0xEE), mem.Read(0x0123))
}
