package cpu

// Operation identifies what an opcode does, independent of its addressing
// mode.
type Operation uint8

const (
	ADC Operation = iota
	AND
	ASL
	BCC
	BCS
	BEQ
	BIT
	BMI
	BNE
	BPL
	BRK
	BVC
	BVS
	CLC
	CLD
	CLI
	CLV
	CMP
	CPX
	CPY
	DEC
	DEX
	DEY
	EOR
	INC
	INX
	INY
	JMP
	JSR
	LDA
	LDX
	LDY
	LSR
	NOP
	ORA
	PHA
	PHP
	PLA
	PLP
	ROL
	ROR
	RTI
	RTS
	SBC
	SEC
	SED
	SEI
	STA
	STX
	STY
	TAX
	TAY
	TSX
	TXA
	TXS
	TYA

	// Undocumented opcodes with stable behaviour.
	LAX
	SAX
	DCP
	ISB
	SLO
	RLA
	SRE
	RRA
	ANC
	ALR
	ARR
	AXS

	// Unstable or jamming opcodes. They run as NOPs of their documented
	// size and timing.
	KIL
	XAA
	AHX
	TAS
	SHX
	SHY
	LAS
)

var operationNames = [...]string{
	ADC: "ADC",
	AND: "AND",
	ASL: "ASL",
	BCC: "BCC",
	BCS: "BCS",
	BEQ: "BEQ",
	BIT: "BIT",
	BMI: "BMI",
	BNE: "BNE",
	BPL: "BPL",
	BRK: "BRK",
	BVC: "BVC",
	BVS: "BVS",
	CLC: "CLC",
	CLD: "CLD",
	CLI: "CLI",
	CLV: "CLV",
	CMP: "CMP",
	CPX: "CPX",
	CPY: "CPY",
	DEC: "DEC",
	DEX: "DEX",
	DEY: "DEY",
	EOR: "EOR",
	INC: "INC",
	INX: "INX",
	INY: "INY",
	JMP: "JMP",
	JSR: "JSR",
	LDA: "LDA",
	LDX: "LDX",
	LDY: "LDY",
	LSR: "LSR",
	NOP: "NOP",
	ORA: "ORA",
	PHA: "PHA",
	PHP: "PHP",
	PLA: "PLA",
	PLP: "PLP",
	ROL: "ROL",
	ROR: "ROR",
	RTI: "RTI",
	RTS: "RTS",
	SBC: "SBC",
	SEC: "SEC",
	SED: "SED",
	SEI: "SEI",
	STA: "STA",
	STX: "STX",
	STY: "STY",
	TAX: "TAX",
	TAY: "TAY",
	TSX: "TSX",
	TXA: "TXA",
	TXS: "TXS",
	TYA: "TYA",
	LAX: "LAX",
	SAX: "SAX",
	DCP: "DCP",
	ISB: "ISB",
	SLO: "SLO",
	RLA: "RLA",
	SRE: "SRE",
	RRA: "RRA",
	ANC: "ANC",
	ALR: "ALR",
	ARR: "ARR",
	AXS: "AXS",
	KIL: "KIL",
	XAA: "XAA",
	AHX: "AHX",
	TAS: "TAS",
	SHX: "SHX",
	SHY: "SHY",
	LAS: "LAS",
}

func (op Operation) String() string {
	if int(op) < len(operationNames) {
		return operationNames[op]
	}
	return "???"
}

// Instruction describes one opcode.
type Instruction struct {
	Op     Operation
	Mode   AddressingMode
	Bytes  uint8
	Cycles uint8
	// PageCycle is set for reads that take an extra cycle when indexing
	// crosses a page.
	PageCycle bool
}

// Name returns the mnemonic.
func (i Instruction) Name() string {
	return i.Op.String()
}

// Lookup returns the table entry for an opcode.
func Lookup(opcode uint8) Instruction {
	return instructionTable[opcode]
}

var instructionTable = [256]Instruction{
	0x00: {BRK, Implied, 1, 7, false},
	0x01: {ORA, IndexedIndirect, 2, 6, false},
	0x02: {KIL, Implied, 1, 2, false},
	0x03: {SLO, IndexedIndirect, 2, 8, false},
	0x04: {NOP, ZeroPage, 2, 3, false},
	0x05: {ORA, ZeroPage, 2, 3, false},
	0x06: {ASL, ZeroPage, 2, 5, false},
	0x07: {SLO, ZeroPage, 2, 5, false},
	0x08: {PHP, Implied, 1, 3, false},
	0x09: {ORA, Immediate, 2, 2, false},
	0x0A: {ASL, Accumulator, 1, 2, false},
	0x0B: {ANC, Immediate, 2, 2, false},
	0x0C: {NOP, Absolute, 3, 4, false},
	0x0D: {ORA, Absolute, 3, 4, false},
	0x0E: {ASL, Absolute, 3, 6, false},
	0x0F: {SLO, Absolute, 3, 6, false},
	0x10: {BPL, Relative, 2, 2, false},
	0x11: {ORA, IndirectIndexed, 2, 5, true},
	0x12: {KIL, Implied, 1, 2, false},
	0x13: {SLO, IndirectIndexed, 2, 8, false},
	0x14: {NOP, ZeroPageX, 2, 4, false},
	0x15: {ORA, ZeroPageX, 2, 4, false},
	0x16: {ASL, ZeroPageX, 2, 6, false},
	0x17: {SLO, ZeroPageX, 2, 6, false},
	0x18: {CLC, Implied, 1, 2, false},
	0x19: {ORA, AbsoluteY, 3, 4, true},
	0x1A: {NOP, Implied, 1, 2, false},
	0x1B: {SLO, AbsoluteY, 3, 7, false},
	0x1C: {NOP, AbsoluteX, 3, 4, true},
	0x1D: {ORA, AbsoluteX, 3, 4, true},
	0x1E: {ASL, AbsoluteX, 3, 7, false},
	0x1F: {SLO, AbsoluteX, 3, 7, false},
	0x20: {JSR, Absolute, 3, 6, false},
	0x21: {AND, IndexedIndirect, 2, 6, false},
	0x22: {KIL, Implied, 1, 2, false},
	0x23: {RLA, IndexedIndirect, 2, 8, false},
	0x24: {BIT, ZeroPage, 2, 3, false},
	0x25: {AND, ZeroPage, 2, 3, false},
	0x26: {ROL, ZeroPage, 2, 5, false},
	0x27: {RLA, ZeroPage, 2, 5, false},
	0x28: {PLP, Implied, 1, 4, false},
	0x29: {AND, Immediate, 2, 2, false},
	0x2A: {ROL, Accumulator, 1, 2, false},
	0x2B: {ANC, Immediate, 2, 2, false},
	0x2C: {BIT, Absolute, 3, 4, false},
	0x2D: {AND, Absolute, 3, 4, false},
	0x2E: {ROL, Absolute, 3, 6, false},
	0x2F: {RLA, Absolute, 3, 6, false},
	0x30: {BMI, Relative, 2, 2, false},
	0x31: {AND, IndirectIndexed, 2, 5, true},
	0x32: {KIL, Implied, 1, 2, false},
	0x33: {RLA, IndirectIndexed, 2, 8, false},
	0x34: {NOP, ZeroPageX, 2, 4, false},
	0x35: {AND, ZeroPageX, 2, 4, false},
	0x36: {ROL, ZeroPageX, 2, 6, false},
	0x37: {RLA, ZeroPageX, 2, 6, false},
	0x38: {SEC, Implied, 1, 2, false},
	0x39: {AND, AbsoluteY, 3, 4, true},
	0x3A: {NOP, Implied, 1, 2, false},
	0x3B: {RLA, AbsoluteY, 3, 7, false},
	0x3C: {NOP, AbsoluteX, 3, 4, true},
	0x3D: {AND, AbsoluteX, 3, 4, true},
	0x3E: {ROL, AbsoluteX, 3, 7, false},
	0x3F: {RLA, AbsoluteX, 3, 7, false},
	0x40: {RTI, Implied, 1, 6, false},
	0x41: {EOR, IndexedIndirect, 2, 6, false},
	0x42: {KIL, Implied, 1, 2, false},
	0x43: {SRE, IndexedIndirect, 2, 8, false},
	0x44: {NOP, ZeroPage, 2, 3, false},
	0x45: {EOR, ZeroPage, 2, 3, false},
	0x46: {LSR, ZeroPage, 2, 5, false},
	0x47: {SRE, ZeroPage, 2, 5, false},
	0x48: {PHA, Implied, 1, 3, false},
	0x49: {EOR, Immediate, 2, 2, false},
	0x4A: {LSR, Accumulator, 1, 2, false},
	0x4B: {ALR, Immediate, 2, 2, false},
	0x4C: {JMP, Absolute, 3, 3, false},
	0x4D: {EOR, Absolute, 3, 4, false},
	0x4E: {LSR, Absolute, 3, 6, false},
	0x4F: {SRE, Absolute, 3, 6, false},
	0x50: {BVC, Relative, 2, 2, false},
	0x51: {EOR, IndirectIndexed, 2, 5, true},
	0x52: {KIL, Implied, 1, 2, false},
	0x53: {SRE, IndirectIndexed, 2, 8, false},
	0x54: {NOP, ZeroPageX, 2, 4, false},
	0x55: {EOR, ZeroPageX, 2, 4, false},
	0x56: {LSR, ZeroPageX, 2, 6, false},
	0x57: {SRE, ZeroPageX, 2, 6, false},
	0x58: {CLI, Implied, 1, 2, false},
	0x59: {EOR, AbsoluteY, 3, 4, true},
	0x5A: {NOP, Implied, 1, 2, false},
	0x5B: {SRE, AbsoluteY, 3, 7, false},
	0x5C: {NOP, AbsoluteX, 3, 4, true},
	0x5D: {EOR, AbsoluteX, 3, 4, true},
	0x5E: {LSR, AbsoluteX, 3, 7, false},
	0x5F: {SRE, AbsoluteX, 3, 7, false},
	0x60: {RTS, Implied, 1, 6, false},
	0x61: {ADC, IndexedIndirect, 2, 6, false},
	0x62: {KIL, Implied, 1, 2, false},
	0x63: {RRA, IndexedIndirect, 2, 8, false},
	0x64: {NOP, ZeroPage, 2, 3, false},
	0x65: {ADC, ZeroPage, 2, 3, false},
	0x66: {ROR, ZeroPage, 2, 5, false},
	0x67: {RRA, ZeroPage, 2, 5, false},
	0x68: {PLA, Implied, 1, 4, false},
	0x69: {ADC, Immediate, 2, 2, false},
	0x6A: {ROR, Accumulator, 1, 2, false},
	0x6B: {ARR, Immediate, 2, 2, false},
	0x6C: {JMP, Indirect, 3, 5, false},
	0x6D: {ADC, Absolute, 3, 4, false},
	0x6E: {ROR, Absolute, 3, 6, false},
	0x6F: {RRA, Absolute, 3, 6, false},
	0x70: {BVS, Relative, 2, 2, false},
	0x71: {ADC, IndirectIndexed, 2, 5, true},
	0x72: {KIL, Implied, 1, 2, false},
	0x73: {RRA, IndirectIndexed, 2, 8, false},
	0x74: {NOP, ZeroPageX, 2, 4, false},
	0x75: {ADC, ZeroPageX, 2, 4, false},
	0x76: {ROR, ZeroPageX, 2, 6, false},
	0x77: {RRA, ZeroPageX, 2, 6, false},
	0x78: {SEI, Implied, 1, 2, false},
	0x79: {ADC, AbsoluteY, 3, 4, true},
	0x7A: {NOP, Implied, 1, 2, false},
	0x7B: {RRA, AbsoluteY, 3, 7, false},
	0x7C: {NOP, AbsoluteX, 3, 4, true},
	0x7D: {ADC, AbsoluteX, 3, 4, true},
	0x7E: {ROR, AbsoluteX, 3, 7, false},
	0x7F: {RRA, AbsoluteX, 3, 7, false},
	0x80: {NOP, Immediate, 2, 2, false},
	0x81: {STA, IndexedIndirect, 2, 6, false},
	0x82: {NOP, Immediate, 2, 2, false},
	0x83: {SAX, IndexedIndirect, 2, 6, false},
	0x84: {STY, ZeroPage, 2, 3, false},
	0x85: {STA, ZeroPage, 2, 3, false},
	0x86: {STX, ZeroPage, 2, 3, false},
	0x87: {SAX, ZeroPage, 2, 3, false},
	0x88: {DEY, Implied, 1, 2, false},
	0x89: {NOP, Immediate, 2, 2, false},
	0x8A: {TXA, Implied, 1, 2, false},
	0x8B: {XAA, Immediate, 2, 2, false},
	0x8C: {STY, Absolute, 3, 4, false},
	0x8D: {STA, Absolute, 3, 4, false},
	0x8E: {STX, Absolute, 3, 4, false},
	0x8F: {SAX, Absolute, 3, 4, false},
	0x90: {BCC, Relative, 2, 2, false},
	0x91: {STA, IndirectIndexed, 2, 6, false},
	0x92: {KIL, Implied, 1, 2, false},
	0x93: {AHX, IndirectIndexed, 2, 6, false},
	0x94: {STY, ZeroPageX, 2, 4, false},
	0x95: {STA, ZeroPageX, 2, 4, false},
	0x96: {STX, ZeroPageY, 2, 4, false},
	0x97: {SAX, ZeroPageY, 2, 4, false},
	0x98: {TYA, Implied, 1, 2, false},
	0x99: {STA, AbsoluteY, 3, 5, false},
	0x9A: {TXS, Implied, 1, 2, false},
	0x9B: {TAS, AbsoluteY, 3, 5, false},
	0x9C: {SHY, AbsoluteX, 3, 5, false},
	0x9D: {STA, AbsoluteX, 3, 5, false},
	0x9E: {SHX, AbsoluteY, 3, 5, false},
	0x9F: {AHX, AbsoluteY, 3, 5, false},
	0xA0: {LDY, Immediate, 2, 2, false},
	0xA1: {LDA, IndexedIndirect, 2, 6, false},
	0xA2: {LDX, Immediate, 2, 2, false},
	0xA3: {LAX, IndexedIndirect, 2, 6, false},
	0xA4: {LDY, ZeroPage, 2, 3, false},
	0xA5: {LDA, ZeroPage, 2, 3, false},
	0xA6: {LDX, ZeroPage, 2, 3, false},
	0xA7: {LAX, ZeroPage, 2, 3, false},
	0xA8: {TAY, Implied, 1, 2, false},
	0xA9: {LDA, Immediate, 2, 2, false},
	0xAA: {TAX, Implied, 1, 2, false},
	0xAB: {LAX, Immediate, 2, 2, false},
	0xAC: {LDY, Absolute, 3, 4, false},
	0xAD: {LDA, Absolute, 3, 4, false},
	0xAE: {LDX, Absolute, 3, 4, false},
	0xAF: {LAX, Absolute, 3, 4, false},
	0xB0: {BCS, Relative, 2, 2, false},
	0xB1: {LDA, IndirectIndexed, 2, 5, true},
	0xB2: {KIL, Implied, 1, 2, false},
	0xB3: {LAX, IndirectIndexed, 2, 5, true},
	0xB4: {LDY, ZeroPageX, 2, 4, false},
	0xB5: {LDA, ZeroPageX, 2, 4, false},
	0xB6: {LDX, ZeroPageY, 2, 4, false},
	0xB7: {LAX, ZeroPageY, 2, 4, false},
	0xB8: {CLV, Implied, 1, 2, false},
	0xB9: {LDA, AbsoluteY, 3, 4, true},
	0xBA: {TSX, Implied, 1, 2, false},
	0xBB: {LAS, AbsoluteY, 3, 4, true},
	0xBC: {LDY, AbsoluteX, 3, 4, true},
	0xBD: {LDA, AbsoluteX, 3, 4, true},
	0xBE: {LDX, AbsoluteY, 3, 4, true},
	0xBF: {LAX, AbsoluteY, 3, 4, true},
	0xC0: {CPY, Immediate, 2, 2, false},
	0xC1: {CMP, IndexedIndirect, 2, 6, false},
	0xC2: {NOP, Immediate, 2, 2, false},
	0xC3: {DCP, IndexedIndirect, 2, 8, false},
	0xC4: {CPY, ZeroPage, 2, 3, false},
	0xC5: {CMP, ZeroPage, 2, 3, false},
	0xC6: {DEC, ZeroPage, 2, 5, false},
	0xC7: {DCP, ZeroPage, 2, 5, false},
	0xC8: {INY, Implied, 1, 2, false},
	0xC9: {CMP, Immediate, 2, 2, false},
	0xCA: {DEX, Implied, 1, 2, false},
	0xCB: {AXS, Immediate, 2, 2, false},
	0xCC: {CPY, Absolute, 3, 4, false},
	0xCD: {CMP, Absolute, 3, 4, false},
	0xCE: {DEC, Absolute, 3, 6, false},
	0xCF: {DCP, Absolute, 3, 6, false},
	0xD0: {BNE, Relative, 2, 2, false},
	0xD1: {CMP, IndirectIndexed, 2, 5, true},
	0xD2: {KIL, Implied, 1, 2, false},
	0xD3: {DCP, IndirectIndexed, 2, 8, false},
	0xD4: {NOP, ZeroPageX, 2, 4, false},
	0xD5: {CMP, ZeroPageX, 2, 4, false},
	0xD6: {DEC, ZeroPageX, 2, 6, false},
	0xD7: {DCP, ZeroPageX, 2, 6, false},
	0xD8: {CLD, Implied, 1, 2, false},
	0xD9: {CMP, AbsoluteY, 3, 4, true},
	0xDA: {NOP, Implied, 1, 2, false},
	0xDB: {DCP, AbsoluteY, 3, 7, false},
	0xDC: {NOP, AbsoluteX, 3, 4, true},
	0xDD: {CMP, AbsoluteX, 3, 4, true},
	0xDE: {DEC, AbsoluteX, 3, 7, false},
	0xDF: {DCP, AbsoluteX, 3, 7, false},
	0xE0: {CPX, Immediate, 2, 2, false},
	0xE1: {SBC, IndexedIndirect, 2, 6, false},
	0xE2: {NOP, Immediate, 2, 2, false},
	0xE3: {ISB, IndexedIndirect, 2, 8, false},
	0xE4: {CPX, ZeroPage, 2, 3, false},
	0xE5: {SBC, ZeroPage, 2, 3, false},
	0xE6: {INC, ZeroPage, 2, 5, false},
	0xE7: {ISB, ZeroPage, 2, 5, false},
	0xE8: {INX, Implied, 1, 2, false},
	0xE9: {SBC, Immediate, 2, 2, false},
	0xEA: {NOP, Implied, 1, 2, false},
	0xEB: {SBC, Immediate, 2, 2, false},
	0xEC: {CPX, Absolute, 3, 4, false},
	0xED: {SBC, Absolute, 3, 4, false},
	0xEE: {INC, Absolute, 3, 6, false},
	0xEF: {ISB, Absolute, 3, 6, false},
	0xF0: {BEQ, Relative, 2, 2, false},
	0xF1: {SBC, IndirectIndexed, 2, 5, true},
	0xF2: {KIL, Implied, 1, 2, false},
	0xF3: {ISB, IndirectIndexed, 2, 8, false},
	0xF4: {NOP, ZeroPageX, 2, 4, false},
	0xF5: {SBC, ZeroPageX, 2, 4, false},
	0xF6: {INC, ZeroPageX, 2, 6, false},
	0xF7: {ISB, ZeroPageX, 2, 6, false},
	0xF8: {SED, Implied, 1, 2, false},
	0xF9: {SBC, AbsoluteY, 3, 4, true},
	0xFA: {NOP, Implied, 1, 2, false},
	0xFB: {ISB, AbsoluteY, 3, 7, false},
	0xFC: {NOP, AbsoluteX, 3, 4, true},
	0xFD: {SBC, AbsoluteX, 3, 4, true},
	0xFE: {INC, AbsoluteX, 3, 7, false},
	0xFF: {ISB, AbsoluteX, 3, 7, false},
}
