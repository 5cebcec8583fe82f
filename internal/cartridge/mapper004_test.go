package cartridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMMC3(t *testing.T) (*MMC3, *fakeHost) {
	m, host := newTestMapper(t, NewTestROM().WithMapper(4).WithPRGBanks(8).WithCHRBanks(8).WithBankMarkers())
	return m.(*MMC3), host
}

func prgWindows(m Mapper) [4]uint8 {
	return [4]uint8{m.Load(0x8000), m.Load(0xA000), m.Load(0xC000), m.Load(0xE000)}
}

func chrWindows(m Mapper) [8]uint8 {
	var w [8]uint8
	for i := range w {
		w[i] = m.ReadCHR(uint16(i) * 0x400)
	}
	return w
}

func TestMMC3_PowerOn(t *testing.T) {
	m, _ := newMMC3(t)

	assert.Equal(t, [4]uint8{0, 1, 14, 15}, prgWindows(m))
	assert.Equal(t, [8]uint8{0, 1, 2, 3, 4, 5, 6, 7}, chrWindows(m))
}

func TestMMC3_BankData_ShouldUpdateOneSlot(t *testing.T) {
	m, _ := newMMC3(t)
	chrBefore := chrWindows(m)

	m.Write8(0x8000, 0x06)
	m.Write8(0x8001, 0x03)

	assert.Equal(t, [4]uint8{3, 1, 14, 15}, prgWindows(m))
	assert.Equal(t, chrBefore, chrWindows(m))
	assert.Equal(t, [8]uint8{0, 2, 4, 5, 6, 7, 3, 1}, m.regs.Banks)

	m.Write8(0x8000, 0x02)
	m.Write8(0x8001, 0x09)
	assert.Equal(t, [8]uint8{0, 1, 2, 3, 9, 5, 6, 7}, chrWindows(m))
	assert.Equal(t, [4]uint8{3, 1, 14, 15}, prgWindows(m))
}

func TestMMC3_PRGInvert(t *testing.T) {
	m, _ := newMMC3(t)
	m.Write8(0x8000, 0x06)
	m.Write8(0x8001, 0x03)

	m.Write8(0x8000, 0x46)
	assert.Equal(t, [4]uint8{14, 1, 3, 15}, prgWindows(m))
	assert.Equal(t, [8]uint8{0, 1, 2, 3, 4, 5, 6, 7}, chrWindows(m), "bit 6 must not move CHR")
}

func TestMMC3_CHRInvert(t *testing.T) {
	m, host := newMMC3(t)
	triggers := host.triggers

	m.Write8(0x8000, 0x80)
	assert.Equal(t, [8]uint8{4, 5, 6, 7, 0, 1, 2, 3}, chrWindows(m))
	assert.Equal(t, [4]uint8{0, 1, 14, 15}, prgWindows(m), "bit 7 must not move PRG")
	assert.Greater(t, host.triggers, triggers)
}

func TestMMC3_RegisterMirrors(t *testing.T) {
	m, _ := newMMC3(t)

	m.Write8(0x9FFE, 0x07)
	m.Write8(0x9FFF, 0x05)
	assert.Equal(t, uint8(5), m.Load(0xA000))
}

func TestMMC3_Mirroring(t *testing.T) {
	m, host := newMMC3(t)

	m.Write8(0xA000, 0x00)
	assert.Equal(t, MirrorVertical, host.mirroring)
	m.Write8(0xA000, 0x01)
	assert.Equal(t, MirrorHorizontal, host.mirroring)

	four, fourHost := newTestMapper(t, NewTestROM().WithMapper(4).WithPRGBanks(8).WithMirroring(MirrorFourScreen))
	four.Write8(0xA000, 0x01)
	assert.Equal(t, MirrorFourScreen, fourHost.mirroring)
}

func TestMMC3_PRGRAMProtect(t *testing.T) {
	m, _ := newMMC3(t)

	m.Write8(0x6000, 0x5A)
	assert.Equal(t, uint8(0x5A), m.Load(0x6000))

	m.Write8(0xA001, 0xC0)
	m.Write8(0x6000, 0x11)
	assert.Equal(t, uint8(0x5A), m.Load(0x6000), "write-protected")

	m.Write8(0xA001, 0x00)
	assert.Equal(t, uint8(0), m.Load(0x6000), "chip disabled")

	m.Write8(0xA001, 0x80)
	assert.Equal(t, uint8(0x5A), m.Load(0x6000))
}

// clockIRQs clocks the counter n times and returns the 1-based clocks on
// which an IRQ was requested.
func clockIRQs(m *MMC3, n int) []int {
	host := m.host.(*fakeHost)
	var fired []int
	for i := 1; i <= n; i++ {
		before := host.irqs
		m.ClockIrqCounter()
		if host.irqs != before {
			fired = append(fired, i)
		}
	}
	return fired
}

func TestMMC3_IRQ_ShouldFireOnClockAfterLatch(t *testing.T) {
	m, _ := newMMC3(t)
	var _ ScanlineCounter = m

	m.Write8(0xC000, 20)
	m.Write8(0xC001, 0)
	m.Write8(0xE001, 0)

	assert.Equal(t, []int{21}, clockIRQs(m, 30))
}

func TestMMC3_IRQ_ShouldRepeatEveryLatchPlusOne(t *testing.T) {
	m, _ := newMMC3(t)

	m.Write8(0xC000, 4)
	m.Write8(0xC001, 0)
	m.Write8(0xE001, 0)

	assert.Equal(t, []int{5, 10, 15}, clockIRQs(m, 16))
}

func TestMMC3_IRQ_DisabledAtPowerOn(t *testing.T) {
	m, _ := newMMC3(t)

	m.Write8(0xC000, 2)
	m.Write8(0xC001, 0)

	assert.Empty(t, clockIRQs(m, 10))
}

func TestMMC3_IRQ_DisableShouldStopRequests(t *testing.T) {
	m, _ := newMMC3(t)

	m.Write8(0xC000, 1)
	m.Write8(0xC001, 0)
	m.Write8(0xE001, 0)
	assert.Equal(t, []int{2}, clockIRQs(m, 2))

	m.Write8(0xE000, 0)
	assert.Equal(t, 1, m.host.(*fakeHost).acks)
	assert.Empty(t, clockIRQs(m, 8))
}

func TestMMC3_StateRoundTrip(t *testing.T) {
	m, _ := newMMC3(t)
	m.Write8(0x8000, 0xC6)
	m.Write8(0x8001, 0x09)
	m.Write8(0xA000, 0x01)
	m.Write8(0xC000, 7)
	m.Write8(0xC001, 0)
	m.Write8(0xE001, 0)
	m.ClockIrqCounter()
	m.ClockIrqCounter()
	m.Write8(0x7000, 0x3C)

	s, err := m.MarshalState()
	require.NoError(t, err)
	assert.Equal(t, 4, s.ID)
	assert.Equal(t, "MMC3", s.Name)
	assert.NotEmpty(t, s.Ext)

	fresh, host := newMMC3(t)
	require.NoError(t, fresh.RestoreState(s))

	assert.Equal(t, m.regs, fresh.regs)
	assert.Equal(t, prgWindows(m), prgWindows(fresh))
	assert.Equal(t, chrWindows(m), chrWindows(fresh))
	assert.Equal(t, uint8(0x3C), fresh.Load(0x7000))
	assert.Equal(t, MirrorHorizontal, host.mirroring)

	// Both continue identically.
	assert.Equal(t, clockIRQs(m, 20), clockIRQs(fresh, 20))
}

func TestMMC3_RestoreCorruptExtension_ShouldFailUnchanged(t *testing.T) {
	m, _ := newMMC3(t)
	m.Write8(0xC000, 9)
	s, err := m.MarshalState()
	require.NoError(t, err)

	s.Ext = []byte(`{"banks":"nope"}`)
	fresh, _ := newMMC3(t)
	before := fresh.regs
	assert.ErrorIs(t, fresh.RestoreState(s), ErrMapperMismatch)
	assert.Equal(t, before, fresh.regs)
}
