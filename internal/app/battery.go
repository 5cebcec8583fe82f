package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	batteryBase = 0x6000
	batterySize = 0x2000
)

// BatteryStore holds battery-backed PRG RAM for the loaded ROM and keeps
// it in <dir>/<rom>.sav. It is the machine's BatterySink and BatteryLoader.
type BatteryStore struct {
	mu      sync.Mutex
	dir     string
	romPath string
	data    []uint8
	dirty   bool
}

// NewBatteryStore creates a store writing into dir.
func NewBatteryStore(dir string) *BatteryStore {
	return &BatteryStore{dir: dir}
}

// SetROM switches to romPath and reads its save file, if any. Unsaved
// writes for the previous ROM are discarded; call Flush first.
func (b *BatteryStore) SetROM(romPath string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.romPath = romPath
	b.data = nil
	b.dirty = false

	data, err := os.ReadFile(b.path())
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read battery RAM: %w", err)
	}
	if len(data) > batterySize {
		data = data[:batterySize]
	}
	b.data = make([]uint8, batterySize)
	copy(b.data, data)
	return nil
}

// LoadBatteryRAM returns a copy of the saved RAM, or nil when there is none.
func (b *BatteryStore) LoadBatteryRAM() []uint8 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.data == nil {
		return nil
	}
	return append([]uint8(nil), b.data...)
}

// WriteBatteryRAM records a write to $6000-$7FFF.
func (b *BatteryStore) WriteBatteryRAM(address uint16, value uint8) {
	if address < batteryBase || int(address) >= batteryBase+batterySize {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.data == nil {
		b.data = make([]uint8, batterySize)
	}
	b.data[address-batteryBase] = value
	b.dirty = true
}

// Dirty reports whether there are writes not yet flushed.
func (b *BatteryStore) Dirty() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dirty
}

// Flush writes the save file if anything changed.
func (b *BatteryStore) Flush() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.dirty || b.romPath == "" {
		return nil
	}
	if err := os.MkdirAll(b.dir, 0755); err != nil {
		return fmt.Errorf("create battery directory: %w", err)
	}
	if err := os.WriteFile(b.path(), b.data, 0644); err != nil {
		return fmt.Errorf("write battery RAM: %w", err)
	}
	b.dirty = false
	return nil
}

// Path returns the save file for the current ROM.
func (b *BatteryStore) Path() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.path()
}

func (b *BatteryStore) path() string {
	name := strings.TrimSuffix(filepath.Base(b.romPath), filepath.Ext(b.romPath))
	return filepath.Join(b.dir, name+".sav")
}
