package cpu

// State is the serializable register file.
type State struct {
	A            uint8  `json:"a"`
	X            uint8  `json:"x"`
	Y            uint8  `json:"y"`
	SP           uint8  `json:"sp"`
	PC           uint16 `json:"pc"`
	P            uint8  `json:"p"`
	Cycles       uint64 `json:"cycles"`
	CyclesToHalt int    `json:"cyclesToHalt"`
	NMIPending   bool   `json:"nmiPending,omitempty"`
	IRQPending   bool   `json:"irqPending,omitempty"`
	ResetPending bool   `json:"resetPending,omitempty"`
}

// State captures the CPU registers and pending work.
func (cpu *CPU) State() State {
	return State{
		A:            cpu.A,
		X:            cpu.X,
		Y:            cpu.Y,
		SP:           cpu.SP,
		PC:           cpu.PC,
		P:            cpu.GetStatusByte(),
		Cycles:       cpu.cycles,
		CyclesToHalt: cpu.cyclesToHalt,
		NMIPending:   cpu.nmiPending,
		IRQPending:   cpu.irqPending,
		ResetPending: cpu.resetPending,
	}
}

// SetState restores a State.
func (cpu *CPU) SetState(s State) {
	cpu.A = s.A
	cpu.X = s.X
	cpu.Y = s.Y
	cpu.SP = s.SP
	cpu.PC = s.PC
	cpu.SetStatusByte(s.P)
	cpu.cycles = s.Cycles
	cpu.cyclesToHalt = s.CyclesToHalt
	cpu.nmiPending = s.NMIPending
	cpu.irqPending = s.IRQPending
	cpu.resetPending = s.ResetPending
}
