package cartridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUxROM_BankSwitch(t *testing.T) {
	m, _ := newTestMapper(t, NewTestROM().WithMapper(2).WithPRGBanks(8).WithCHRRAM().WithBankMarkers())

	assert.Equal(t, [4]uint8{0, 1, 14, 15}, prgWindows(m))
	m.Write8(0x8000, 0x03)
	assert.Equal(t, [4]uint8{6, 7, 14, 15}, prgWindows(m))

	m.WriteCHR(0x0010, 0xAB)
	assert.Equal(t, uint8(0xAB), m.ReadCHR(0x0010))
}

func TestCNROM_CHRSwitch(t *testing.T) {
	m, host := newTestMapper(t, NewTestROM().WithMapper(3).WithCHRBanks(4).WithBankMarkers())

	triggers := host.triggers
	m.Write8(0x8000, 0x02)
	assert.Equal(t, uint8(16), m.ReadCHR(0x0000))
	assert.Equal(t, uint8(23), m.ReadCHR(0x1C00))
	assert.Equal(t, triggers+1, host.triggers)

	m.Write8(0x8000, 0x02)
	assert.Equal(t, triggers+1, host.triggers, "same bank must not flush rendering")
}

func TestAxROM_BankAndMirroring(t *testing.T) {
	m, host := newTestMapper(t, NewTestROM().WithMapper(7).WithPRGBanks(8).WithCHRRAM().WithBankMarkers())

	assert.Equal(t, MirrorSingleScreen0, host.mirroring)
	assert.Equal(t, [4]uint8{0, 1, 2, 3}, prgWindows(m))

	m.Write8(0x8000, 0x12)
	assert.Equal(t, [4]uint8{8, 9, 10, 11}, prgWindows(m))
	assert.Equal(t, MirrorSingleScreen1, host.mirroring)
}

func TestMappers_StateRoundTrip(t *testing.T) {
	builders := map[string]*TestROM{
		"UxROM": NewTestROM().WithMapper(2).WithPRGBanks(8).WithCHRRAM().WithBankMarkers(),
		"CNROM": NewTestROM().WithMapper(3).WithCHRBanks(4).WithBankMarkers(),
		"AxROM": NewTestROM().WithMapper(7).WithPRGBanks(8).WithCHRRAM().WithBankMarkers(),
	}

	for name, b := range builders {
		t.Run(name, func(t *testing.T) {
			m, _ := newTestMapper(t, b)
			m.Write8(0x8000, 0x13)
			if m.ID() != 7 {
				m.Write8(0x6001, 0x77)
			}

			s, err := m.MarshalState()
			require.NoError(t, err)
			assert.Equal(t, name, s.Name)

			fresh, _ := newTestMapper(t, b)
			require.NoError(t, fresh.RestoreState(s))
			assert.Equal(t, prgWindows(m), prgWindows(fresh))
			assert.Equal(t, chrWindows(m), chrWindows(fresh))
			assert.Equal(t, m.Load(0x6001), fresh.Load(0x6001))
		})
	}
}

func TestMappers_Reset_ShouldRestorePowerOnMapping(t *testing.T) {
	m, _ := newMMC3(t)
	m.Write8(0x8000, 0x46)
	m.Write8(0x8001, 0x05)

	m.Reset()
	assert.Equal(t, [4]uint8{0, 1, 14, 15}, prgWindows(m))
}

func TestSupportedIDs(t *testing.T) {
	assert.Equal(t, []int{0, 1, 2, 3, 4, 7}, SupportedIDs())
	for _, id := range SupportedIDs() {
		assert.True(t, Supported(id))
	}
	assert.False(t, Supported(5))

	assert.Equal(t, "MMC3", MapperName(4))
	assert.Equal(t, "AxROM", MapperName(7))
	assert.Empty(t, MapperName(5))
}
