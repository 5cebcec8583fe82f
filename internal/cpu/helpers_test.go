package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// MockMemory implements MemoryInterface for testing
type MockMemory struct {
	data       [0x10000]uint8
	readCount  map[uint16]int
	writeCount map[uint16]int
}

func NewMockMemory() *MockMemory {
	return &MockMemory{
		readCount:  make(map[uint16]int),
		writeCount: make(map[uint16]int),
	}
}

func (m *MockMemory) Read(address uint16) uint8 {
	m.readCount[address]++
	return m.data[address]
}

func (m *MockMemory) Write(address uint16, value uint8) {
	m.writeCount[address]++
	m.data[address] = value
}

// SetBytes sets multiple bytes starting at the given address
func (m *MockMemory) SetBytes(address uint16, values ...uint8) {
	for i, value := range values {
		m.data[address+uint16(i)] = value
	}
}

// CPUTestHelper provides common test utilities
type CPUTestHelper struct {
	CPU    *CPU
	Memory *MockMemory
}

func NewCPUTestHelper() *CPUTestHelper {
	memory := NewMockMemory()
	return &CPUTestHelper{
		CPU:    New(memory),
		Memory: memory,
	}
}

// SetupResetVector sets the reset vector and performs reset
func (h *CPUTestHelper) SetupResetVector(address uint16) {
	h.Memory.SetBytes(resetVector, uint8(address), uint8(address>>8))
	h.CPU.Reset()
}

// SetupVectors points NMI and IRQ at distinct handlers.
func (h *CPUTestHelper) SetupVectors(nmi, irq uint16) {
	h.Memory.SetBytes(nmiVector, uint8(nmi), uint8(nmi>>8))
	h.Memory.SetBytes(irqVector, uint8(irq), uint8(irq>>8))
}

// LoadProgram loads a program starting at the given address
func (h *CPUTestHelper) LoadProgram(address uint16, program ...uint8) {
	h.Memory.SetBytes(address, program...)
}

// Run executes n instructions and returns the cycles of each.
func (h *CPUTestHelper) Run(n int) []int {
	cycles := make([]int, n)
	for i := range cycles {
		cycles[i] = h.CPU.Emulate()
	}
	return cycles
}

// AssertRegisters checks if CPU registers match expected values
func (h *CPUTestHelper) AssertRegisters(t *testing.T, a, x, y, sp uint8, pc uint16) {
	t.Helper()
	assert.Equal(t, a, h.CPU.A, "A")
	assert.Equal(t, x, h.CPU.X, "X")
	assert.Equal(t, y, h.CPU.Y, "Y")
	assert.Equal(t, sp, h.CPU.SP, "SP")
	assert.Equal(t, pc, h.CPU.PC, "PC")
}

// AssertFlags compares the status register against "NV-BDIZC" style
// notation, e.g. "N.....ZC" where '.' means clear.
func (h *CPUTestHelper) AssertFlags(t *testing.T, want string) {
	t.Helper()
	got := []byte("........")
	for i, f := range []bool{h.CPU.N, h.CPU.V, false, h.CPU.B, h.CPU.D, h.CPU.I, h.CPU.Z, h.CPU.C} {
		if f {
			got[i] = "NV-BDIZC"[i]
		}
	}
	assert.Equal(t, want, string(got), "flags")
}
