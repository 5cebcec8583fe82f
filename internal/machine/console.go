package machine

import (
	"nescore/internal/apu"
	"nescore/internal/cartridge"
	"nescore/internal/cpu"
	"nescore/internal/memory"
	"nescore/internal/ppu"
)

// console is one wired set of chips for a cartridge image. The Machine
// swaps whole consoles, so a failed load or restore never touches the one
// that is running.
type console struct {
	rom    *cartridge.ROM
	cpu    *cpu.CPU
	ppu    *ppu.PPU
	apu    *apu.APU
	mem    *memory.Memory
	vram   *memory.PPUMemory
	mapper cartridge.Mapper

	battery BatterySink

	// irqLines has a bit per source currently asserting IRQ.
	irqLines uint8
}

// IRQ sources sharing the CPU line.
const (
	irqMapper uint8 = 1 << iota
	irqAPU
)

// newConsole powers up a console for rom. The machine's input ports are
// plugged in but nothing on the machine is modified.
func (m *Machine) newConsole(rom *cartridge.ROM) (*console, error) {
	c := &console{rom: rom}
	if rom.Battery {
		c.battery = m.opts.BatterySink
	}

	c.ppu = ppu.New()
	c.apu = apu.New(m.opts.SampleRate)

	// The mapper may switch mirroring while it initializes, so the PPU
	// address space exists before the mapper does.
	c.vram = memory.NewPPUMemory(nil, rom.Mirroring)
	c.ppu.SetMemory(c.vram)

	mapper, err := cartridge.New(rom, c)
	if err != nil {
		return nil, err
	}
	c.mapper = mapper
	c.vram.SetCHR(mapper)
	if counter, ok := mapper.(cartridge.ScanlineCounter); ok {
		c.ppu.SetScanlineCounter(counter)
	}

	c.mem = memory.New(c.ppu, c.apu, mapper)
	c.mem.SetInputSystem(m.input)
	c.cpu = cpu.New(c.mem)
	c.mem.SetDMA(c.ppu, c.cpu)

	c.ppu.SetNMICallback(func() {
		c.cpu.RequestIRQ(cpu.IRQNMI)
	})
	c.apu.Connect(apuIRQ{c}, c.mem, c.cpu)
	c.apu.SetSampleSink(m.opts.AudioSink)
	c.apu.SetMuted(!m.opts.EmulateSound)

	c.cpu.Reset()
	return c, nil
}

// loadBattery copies saved PRG RAM into a battery-backed board.
func (c *console) loadBattery(loader BatteryLoader) {
	if !c.rom.Battery || loader == nil {
		return
	}
	data := loader.LoadBatteryRAM()
	if len(data) == 0 {
		return
	}
	if b, ok := c.mapper.(interface{ LoadBatteryRAM([]uint8) }); ok {
		b.LoadBatteryRAM(data)
	}
}

// SetMirroring implements cartridge.Host.
func (c *console) SetMirroring(mode cartridge.MirrorMode) {
	c.ppu.SetMirroring(mode)
}

// TriggerRendering implements cartridge.Host.
func (c *console) TriggerRendering() {
	c.ppu.TriggerRendering()
}

// RequestIRQ implements cartridge.Host.
func (c *console) RequestIRQ() {
	c.raiseIRQ(irqMapper)
}

// AcknowledgeIRQ implements cartridge.Host.
func (c *console) AcknowledgeIRQ() {
	c.lowerIRQ(irqMapper)
}

func (c *console) raiseIRQ(source uint8) {
	c.irqLines |= source
	c.cpu.RequestIRQ(cpu.IRQNormal)
}

// lowerIRQ withdraws an untaken IRQ once no source asserts the line.
func (c *console) lowerIRQ(source uint8) {
	c.irqLines &^= source
	if c.irqLines == 0 {
		c.cpu.AcknowledgeIRQ()
	}
}

// apuIRQ is the APU's connection to the shared IRQ line.
type apuIRQ struct {
	c *console
}

func (a apuIRQ) RequestIRQ()     { a.c.raiseIRQ(irqAPU) }
func (a apuIRQ) AcknowledgeIRQ() { a.c.lowerIRQ(irqAPU) }

// BatteryRAMWritten implements cartridge.Host.
func (c *console) BatteryRAMWritten(address uint16, value uint8) {
	if c.battery != nil {
		c.battery.WriteBatteryRAM(address, value)
	}
}
