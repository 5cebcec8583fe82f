package cartridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNROM_16KBImage_ShouldMirror(t *testing.T) {
	m, _ := newTestMapper(t, NewTestROM().WithPRGBanks(1).WithBankMarkers())

	for offset := uint16(0); offset < 0x4000; offset += 0x0777 {
		assert.Equal(t, m.Load(0x8000+offset), m.Load(0xC000+offset), "offset %04X", offset)
	}
	assert.Equal(t, uint8(0), m.Load(0x8000))
	assert.Equal(t, uint8(TestEntry&0xFF), m.Load(0xFFFC))
	assert.Equal(t, uint8(TestEntry>>8), m.Load(0xFFFD))
}

func TestNROM_32KBImage_ShouldBeLinear(t *testing.T) {
	m, _ := newTestMapper(t, NewTestROM().WithPRGBanks(2).WithBankMarkers())

	assert.Equal(t, uint8(0), m.Load(0x8000))
	assert.Equal(t, uint8(1), m.Load(0xA000))
	assert.Equal(t, uint8(2), m.Load(0xC000))
	assert.Equal(t, uint8(3), m.Load(0xE000))
}

func TestNROM_ROMWrites_ShouldBeIgnored(t *testing.T) {
	m, host := newTestMapper(t, NewTestROM().WithBankMarkers())

	m.Write8(0xC000, 0x55)
	assert.Equal(t, uint8(2), m.Load(0xC000))
	assert.Zero(t, host.triggers)
}

func TestNROM_PRGRAM(t *testing.T) {
	m, host := newTestMapper(t, NewTestROM())

	m.Write8(0x6000, 0x12)
	m.Write8(0x7FFF, 0x34)
	assert.Equal(t, uint8(0x12), m.Load(0x6000))
	assert.Equal(t, uint8(0x34), m.Load(0x7FFF))
	assert.Empty(t, host.battery, "no battery on this image")
}

func TestNROM_BatteryWrites_ShouldNotifyHost(t *testing.T) {
	m, host := newTestMapper(t, NewTestROM().WithBattery())

	m.Write8(0x6010, 0xAA)
	assert.Equal(t, []uint16{0x6010}, host.battery)
}

func TestNROM_CHR(t *testing.T) {
	chr := []uint8{0x11, 0x22, 0x33}
	m, _ := newTestMapper(t, NewTestROM().WithCHR(chr))

	assert.Equal(t, uint8(0x22), m.ReadCHR(0x0001))
	m.WriteCHR(0x0001, 0xFF)
	assert.Equal(t, uint8(0x22), m.ReadCHR(0x0001), "CHR ROM is read-only")

	ram, _ := newTestMapper(t, NewTestROM().WithCHRRAM())
	ram.WriteCHR(0x1FFF, 0x77)
	assert.Equal(t, uint8(0x77), ram.ReadCHR(0x1FFF))
}

func TestNROM_StateRoundTrip(t *testing.T) {
	m, _ := newTestMapper(t, NewTestROM().WithCHRRAM())
	m.Write8(0x6000, 0x42)
	m.WriteCHR(0x0100, 0x24)

	s, err := m.MarshalState()
	require.NoError(t, err)
	assert.Equal(t, 0, s.ID)
	assert.Equal(t, "NROM", s.Name)
	assert.Empty(t, s.Ext)

	fresh, _ := newTestMapper(t, NewTestROM().WithCHRRAM())
	require.NoError(t, fresh.RestoreState(s))
	assert.Equal(t, uint8(0x42), fresh.Load(0x6000))
	assert.Equal(t, uint8(0x24), fresh.ReadCHR(0x0100))
}
