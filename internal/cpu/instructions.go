package cpu

// execute performs inst and returns cycles spent beyond the table count.
// Only taken branches report extra cycles here; read page-cross penalties
// are added by Emulate.
func (cpu *CPU) execute(inst *Instruction, address uint16, pageCrossed bool) uint8 {
	switch inst.Op {
	// Load/Store
	case LDA:
		cpu.A = cpu.memory.Read(address)
		cpu.setZN(cpu.A)
	case LDX:
		cpu.X = cpu.memory.Read(address)
		cpu.setZN(cpu.X)
	case LDY:
		cpu.Y = cpu.memory.Read(address)
		cpu.setZN(cpu.Y)
	case STA:
		cpu.memory.Write(address, cpu.A)
	case STX:
		cpu.memory.Write(address, cpu.X)
	case STY:
		cpu.memory.Write(address, cpu.Y)

	// Arithmetic and logic
	case ADC:
		cpu.addWithCarry(cpu.memory.Read(address))
	case SBC:
		cpu.addWithCarry(^cpu.memory.Read(address))
	case AND:
		cpu.A &= cpu.memory.Read(address)
		cpu.setZN(cpu.A)
	case ORA:
		cpu.A |= cpu.memory.Read(address)
		cpu.setZN(cpu.A)
	case EOR:
		cpu.A ^= cpu.memory.Read(address)
		cpu.setZN(cpu.A)
	case CMP:
		cpu.compare(cpu.A, cpu.memory.Read(address))
	case CPX:
		cpu.compare(cpu.X, cpu.memory.Read(address))
	case CPY:
		cpu.compare(cpu.Y, cpu.memory.Read(address))
	case BIT:
		value := cpu.memory.Read(address)
		cpu.N = value&nFlagMask != 0
		cpu.V = value&vFlagMask != 0
		cpu.Z = cpu.A&value == 0

	// Shifts, rotates, increments
	case ASL:
		cpu.modify(inst.Mode, address, cpu.asl)
	case LSR:
		cpu.modify(inst.Mode, address, cpu.lsr)
	case ROL:
		cpu.modify(inst.Mode, address, cpu.rol)
	case ROR:
		cpu.modify(inst.Mode, address, cpu.ror)
	case INC:
		cpu.modify(inst.Mode, address, func(v uint8) uint8 { v++; cpu.setZN(v); return v })
	case DEC:
		cpu.modify(inst.Mode, address, func(v uint8) uint8 { v--; cpu.setZN(v); return v })
	case INX:
		cpu.X++
		cpu.setZN(cpu.X)
	case DEX:
		cpu.X--
		cpu.setZN(cpu.X)
	case INY:
		cpu.Y++
		cpu.setZN(cpu.Y)
	case DEY:
		cpu.Y--
		cpu.setZN(cpu.Y)

	// Transfers
	case TAX:
		cpu.X = cpu.A
		cpu.setZN(cpu.X)
	case TXA:
		cpu.A = cpu.X
		cpu.setZN(cpu.A)
	case TAY:
		cpu.Y = cpu.A
		cpu.setZN(cpu.Y)
	case TYA:
		cpu.A = cpu.Y
		cpu.setZN(cpu.A)
	case TSX:
		cpu.X = cpu.SP
		cpu.setZN(cpu.X)
	case TXS:
		cpu.SP = cpu.X

	// Stack
	case PHA:
		cpu.push(cpu.A)
	case PLA:
		cpu.A = cpu.pop()
		cpu.setZN(cpu.A)
	case PHP:
		cpu.push(cpu.GetStatusByte() | bFlagMask)
	case PLP:
		cpu.SetStatusByte(cpu.pop())

	// Flags
	case CLC:
		cpu.C = false
	case SEC:
		cpu.C = true
	case CLI:
		cpu.I = false
	case SEI:
		cpu.I = true
	case CLV:
		cpu.V = false
	case CLD:
		cpu.D = false
	case SED:
		cpu.D = true

	// Control flow
	case JMP:
		cpu.PC = address
	case JSR:
		cpu.pushWord(cpu.PC - 1)
		cpu.PC = address
	case RTS:
		cpu.PC = cpu.popWord() + 1
	case RTI:
		cpu.SetStatusByte(cpu.pop())
		cpu.PC = cpu.popWord()
	case BRK:
		// BRK skips a padding byte.
		cpu.PC++
		cpu.pushWord(cpu.PC)
		cpu.push(cpu.GetStatusByte() | bFlagMask)
		cpu.I = true
		cpu.PC = cpu.read16(irqVector)

	case BCC:
		return cpu.branch(!cpu.C, address, pageCrossed)
	case BCS:
		return cpu.branch(cpu.C, address, pageCrossed)
	case BNE:
		return cpu.branch(!cpu.Z, address, pageCrossed)
	case BEQ:
		return cpu.branch(cpu.Z, address, pageCrossed)
	case BPL:
		return cpu.branch(!cpu.N, address, pageCrossed)
	case BMI:
		return cpu.branch(cpu.N, address, pageCrossed)
	case BVC:
		return cpu.branch(!cpu.V, address, pageCrossed)
	case BVS:
		return cpu.branch(cpu.V, address, pageCrossed)

	// Undocumented
	case LAX:
		cpu.A = cpu.memory.Read(address)
		cpu.X = cpu.A
		cpu.setZN(cpu.A)
	case SAX:
		cpu.memory.Write(address, cpu.A&cpu.X)
	case DCP:
		v := cpu.readModifyWrite(address, func(v uint8) uint8 { return v - 1 })
		cpu.compare(cpu.A, v)
	case ISB:
		v := cpu.readModifyWrite(address, func(v uint8) uint8 { return v + 1 })
		cpu.addWithCarry(^v)
	case SLO:
		cpu.A |= cpu.readModifyWrite(address, cpu.asl)
		cpu.setZN(cpu.A)
	case RLA:
		cpu.A &= cpu.readModifyWrite(address, cpu.rol)
		cpu.setZN(cpu.A)
	case SRE:
		cpu.A ^= cpu.readModifyWrite(address, cpu.lsr)
		cpu.setZN(cpu.A)
	case RRA:
		cpu.addWithCarry(cpu.readModifyWrite(address, cpu.ror))
	case ANC:
		cpu.A &= cpu.memory.Read(address)
		cpu.setZN(cpu.A)
		cpu.C = cpu.N
	case ALR:
		cpu.A = cpu.lsr(cpu.A & cpu.memory.Read(address))
	case ARR:
		v := cpu.A & cpu.memory.Read(address)
		v >>= 1
		if cpu.C {
			v |= 0x80
		}
		cpu.A = v
		cpu.setZN(v)
		cpu.C = v&0x40 != 0
		cpu.V = (v>>6)&1 != (v>>5)&1
	case AXS:
		t := cpu.A & cpu.X
		m := cpu.memory.Read(address)
		cpu.X = t - m
		cpu.C = t >= m
		cpu.setZN(cpu.X)

	default:
		// NOP, and the unstable opcodes that share its behaviour. Operand
		// reads still happen so read-side effects are kept.
		if inst.Mode != Implied && inst.Mode != Accumulator && inst.Op == NOP {
			cpu.memory.Read(address)
		}
	}
	return 0
}

func (cpu *CPU) branch(taken bool, target uint16, pageCrossed bool) uint8 {
	if !taken {
		return 0
	}
	cpu.PC = target
	if pageCrossed {
		return 2
	}
	return 1
}

func (cpu *CPU) addWithCarry(value uint8) {
	var carry uint16
	if cpu.C {
		carry = 1
	}
	result := uint16(cpu.A) + uint16(value) + carry
	cpu.V = (cpu.A^uint8(result))&(value^uint8(result))&0x80 != 0
	cpu.C = result > 0xFF
	cpu.A = uint8(result)
	cpu.setZN(cpu.A)
}

func (cpu *CPU) compare(register, value uint8) {
	cpu.C = register >= value
	cpu.setZN(register - value)
}

// modify applies op to the accumulator or to memory, depending on mode.
func (cpu *CPU) modify(mode AddressingMode, address uint16, op func(uint8) uint8) {
	if mode == Accumulator {
		cpu.A = op(cpu.A)
		return
	}
	cpu.readModifyWrite(address, op)
}

func (cpu *CPU) readModifyWrite(address uint16, op func(uint8) uint8) uint8 {
	value := op(cpu.memory.Read(address))
	cpu.memory.Write(address, value)
	return value
}

func (cpu *CPU) asl(v uint8) uint8 {
	cpu.C = v&0x80 != 0
	v <<= 1
	cpu.setZN(v)
	return v
}

func (cpu *CPU) lsr(v uint8) uint8 {
	cpu.C = v&0x01 != 0
	v >>= 1
	cpu.setZN(v)
	return v
}

func (cpu *CPU) rol(v uint8) uint8 {
	carry := cpu.C
	cpu.C = v&0x80 != 0
	v <<= 1
	if carry {
		v |= 0x01
	}
	cpu.setZN(v)
	return v
}

func (cpu *CPU) ror(v uint8) uint8 {
	carry := cpu.C
	cpu.C = v&0x01 != 0
	v >>= 1
	if carry {
		v |= 0x80
	}
	cpu.setZN(v)
	return v
}
