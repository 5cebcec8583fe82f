package cartridge

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeHost struct {
	mirroring MirrorMode
	triggers  int
	irqs      int
	acks      int
	battery   []uint16
}

func (h *fakeHost) SetMirroring(mode MirrorMode) { h.mirroring = mode }
func (h *fakeHost) TriggerRendering()            { h.triggers++ }
func (h *fakeHost) RequestIRQ()                  { h.irqs++ }
func (h *fakeHost) AcknowledgeIRQ()              { h.acks++ }

func (h *fakeHost) BatteryRAMWritten(address uint16, value uint8) {
	h.battery = append(h.battery, address)
}

// newTestMapper decodes the builder's image and constructs its mapper.
func newTestMapper(t *testing.T, b *TestROM) (Mapper, *fakeHost) {
	t.Helper()
	rom, err := Decode(b.Build())
	require.NoError(t, err)
	host := &fakeHost{mirroring: rom.Mirroring}
	m, err := New(rom, host)
	require.NoError(t, err)
	return m, host
}
