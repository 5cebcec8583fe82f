package cpu

// getOperandAddress advances PC past the instruction and returns the
// effective address, plus whether indexing or a branch crossed a page.
func (cpu *CPU) getOperandAddress(mode AddressingMode) (uint16, bool) {
	pc := cpu.PC

	switch mode {
	case Implied, Accumulator:
		cpu.PC++
		return 0, false

	case Immediate:
		cpu.PC += 2
		return pc + 1, false

	case ZeroPage:
		cpu.PC += 2
		return uint16(cpu.memory.Read(pc + 1)), false

	case ZeroPageX:
		cpu.PC += 2
		return uint16(cpu.memory.Read(pc+1) + cpu.X), false

	case ZeroPageY:
		cpu.PC += 2
		return uint16(cpu.memory.Read(pc+1) + cpu.Y), false

	case Relative:
		offset := int8(cpu.memory.Read(pc + 1))
		cpu.PC += 2
		target := uint16(int32(cpu.PC) + int32(offset))
		return target, cpu.PC&pageMask != target&pageMask

	case Absolute:
		cpu.PC += 3
		return cpu.read16(pc + 1), false

	case AbsoluteX:
		cpu.PC += 3
		return indexed(cpu.read16(pc+1), cpu.X)

	case AbsoluteY:
		cpu.PC += 3
		return indexed(cpu.read16(pc+1), cpu.Y)

	case Indirect:
		// JMP ($xxFF) fetches the high byte from $xx00.
		cpu.PC += 3
		ptr := cpu.read16(pc + 1)
		low := uint16(cpu.memory.Read(ptr))
		high := uint16(cpu.memory.Read(ptr&pageMask | uint16(uint8(ptr)+1)))
		return high<<8 | low, false

	case IndexedIndirect:
		cpu.PC += 2
		return cpu.readZeroPage16(cpu.memory.Read(pc+1) + cpu.X), false

	case IndirectIndexed:
		cpu.PC += 2
		return indexed(cpu.readZeroPage16(cpu.memory.Read(pc+1)), cpu.Y)
	}
	return 0, false
}

func indexed(base uint16, index uint8) (uint16, bool) {
	address := base + uint16(index)
	return address, base&pageMask != address&pageMask
}

// readZeroPage16 reads a pointer from the zero page, wrapping at $FF.
func (cpu *CPU) readZeroPage16(ptr uint8) uint16 {
	low := uint16(cpu.memory.Read(uint16(ptr)))
	high := uint16(cpu.memory.Read(uint16(ptr + 1)))
	return high<<8 | low
}
