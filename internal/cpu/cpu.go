// Package cpu implements the 6502 CPU emulation for the NES.
package cpu

// Addressing modes
type AddressingMode uint8

const (
	Implied AddressingMode = iota
	Accumulator
	Immediate
	ZeroPage
	ZeroPageX
	ZeroPageY
	Relative
	Absolute
	AbsoluteX
	AbsoluteY
	Indirect
	IndexedIndirect // (zp,X)
	IndirectIndexed // (zp),Y
)

const (
	stackBase = 0x0100

	// Status register bit masks
	nFlagMask  = 0x80
	vFlagMask  = 0x40
	unusedMask = 0x20
	bFlagMask  = 0x10
	dFlagMask  = 0x08
	iFlagMask  = 0x04
	zFlagMask  = 0x02
	cFlagMask  = 0x01

	pageMask = 0xFF00

	// Interrupt vectors
	nmiVector   = 0xFFFA
	resetVector = 0xFFFC
	irqVector   = 0xFFFE

	// InterruptCycles is the cost of entering an interrupt handler.
	InterruptCycles = 7

	// maxHaltChunk bounds the halted cycles returned by a single Emulate
	// call so the PPU and APU stay interleaved during long stalls.
	maxHaltChunk = 8
)

// Interrupt is the kind passed to RequestIRQ.
type Interrupt uint8

const (
	IRQNormal Interrupt = iota
	IRQNMI
	IRQReset
)

// MemoryInterface defines the interface for CPU memory access
type MemoryInterface interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
}

// CPU represents the 6502 processor used in the NES
type CPU struct {
	// Registers
	A  uint8  // Accumulator
	X  uint8  // X register
	Y  uint8  // Y register
	SP uint8  // Stack pointer
	PC uint16 // Program counter

	// Status register flags
	C bool // Carry
	Z bool // Zero
	I bool // Interrupt disable
	D bool // Decimal mode (not used in NES)
	B bool // Break
	V bool // Overflow
	N bool // Negative

	memory MemoryInterface

	cycles       uint64
	cyclesToHalt int

	nmiPending   bool
	irqPending   bool
	resetPending bool
}

// New creates a new CPU instance
func New(memory MemoryInterface) *CPU {
	return &CPU{
		memory: memory,
		SP:     0xFD,
	}
}

// Reset puts the CPU in its power-on state and jumps through the reset
// vector. Pending interrupts and halts are dropped.
func (cpu *CPU) Reset() {
	cpu.A = 0
	cpu.X = 0
	cpu.Y = 0
	cpu.SP = 0xFD
	cpu.SetStatusByte(0x24)

	cpu.cycles = 0
	cpu.cyclesToHalt = 0
	cpu.nmiPending = false
	cpu.irqPending = false
	cpu.resetPending = false

	cpu.PC = cpu.read16(resetVector)
}

// Emulate runs one instruction and returns the CPU cycles it took. While
// the CPU is halted it returns up to eight stalled cycles instead.
func (cpu *CPU) Emulate() int {
	if cpu.cyclesToHalt > 0 {
		n := min(cpu.cyclesToHalt, maxHaltChunk)
		cpu.cyclesToHalt -= n
		cpu.cycles += uint64(n)
		return n
	}

	cycles := cpu.serviceInterrupts()

	opcode := cpu.memory.Read(cpu.PC)
	inst := &instructionTable[opcode]
	address, pageCrossed := cpu.getOperandAddress(inst.Mode)

	cycles += int(inst.Cycles) + int(cpu.execute(inst, address, pageCrossed))
	if pageCrossed && inst.PageCycle {
		cycles++
	}

	cpu.cycles += uint64(cycles)
	return cycles
}

// Halt stalls the CPU for n more cycles.
func (cpu *CPU) Halt(n int) {
	cpu.cyclesToHalt += n
}

// CyclesToHalt returns the stall still owed.
func (cpu *CPU) CyclesToHalt() int {
	return cpu.cyclesToHalt
}

// Cycles returns the number of cycles run since reset.
func (cpu *CPU) Cycles() uint64 {
	return cpu.cycles
}

// RequestIRQ latches an interrupt for the next Emulate call. NMI and reset
// are always taken; a normal IRQ waits until the I flag is clear.
func (cpu *CPU) RequestIRQ(kind Interrupt) {
	switch kind {
	case IRQNMI:
		cpu.nmiPending = true
	case IRQReset:
		cpu.resetPending = true
	default:
		cpu.irqPending = true
	}
}

// AcknowledgeIRQ withdraws a normal IRQ that has not been taken yet. Used
// when the source is cleared before the CPU gets to it.
func (cpu *CPU) AcknowledgeIRQ() {
	cpu.irqPending = false
}

func (cpu *CPU) serviceInterrupts() int {
	switch {
	case cpu.resetPending:
		cpu.resetPending = false
		cpu.nmiPending = false
		cpu.irqPending = false
		cpu.SP -= 3
		cpu.I = true
		cpu.PC = cpu.read16(resetVector)
	case cpu.nmiPending:
		cpu.nmiPending = false
		cpu.interrupt(nmiVector)
	case cpu.irqPending && !cpu.I:
		cpu.irqPending = false
		cpu.interrupt(irqVector)
	default:
		return 0
	}
	return InterruptCycles
}

// interrupt pushes PC and status with B clear and jumps through vector.
func (cpu *CPU) interrupt(vector uint16) {
	cpu.pushWord(cpu.PC)
	cpu.push((cpu.GetStatusByte() &^ bFlagMask) | unusedMask)
	cpu.I = true
	cpu.PC = cpu.read16(vector)
}

func (cpu *CPU) read16(address uint16) uint16 {
	low := uint16(cpu.memory.Read(address))
	high := uint16(cpu.memory.Read(address + 1))
	return high<<8 | low
}

func (cpu *CPU) push(value uint8) {
	cpu.memory.Write(stackBase+uint16(cpu.SP), value)
	cpu.SP--
}

func (cpu *CPU) pop() uint8 {
	cpu.SP++
	return cpu.memory.Read(stackBase + uint16(cpu.SP))
}

func (cpu *CPU) pushWord(value uint16) {
	cpu.push(uint8(value >> 8))
	cpu.push(uint8(value))
}

func (cpu *CPU) popWord() uint16 {
	low := uint16(cpu.pop())
	high := uint16(cpu.pop())
	return high<<8 | low
}

// setZN sets Zero and Negative flags based on value
func (cpu *CPU) setZN(value uint8) {
	cpu.Z = value == 0
	cpu.N = value&nFlagMask != 0
}

// GetStatusByte returns the status register as a byte
func (cpu *CPU) GetStatusByte() uint8 {
	status := uint8(unusedMask)
	for _, f := range []struct {
		set  bool
		mask uint8
	}{
		{cpu.N, nFlagMask}, {cpu.V, vFlagMask}, {cpu.B, bFlagMask}, {cpu.D, dFlagMask},
		{cpu.I, iFlagMask}, {cpu.Z, zFlagMask}, {cpu.C, cFlagMask},
	} {
		if f.set {
			status |= f.mask
		}
	}
	return status
}

// SetStatusByte sets the status register from a byte
func (cpu *CPU) SetStatusByte(status uint8) {
	cpu.N = status&nFlagMask != 0
	cpu.V = status&vFlagMask != 0
	cpu.B = status&bFlagMask != 0
	cpu.D = status&dFlagMask != 0
	cpu.I = status&iFlagMask != 0
	cpu.Z = status&zFlagMask != 0
	cpu.C = status&cFlagMask != 0
}
