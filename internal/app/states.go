package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"nescore/internal/machine"
)

// DefaultSlots is the number of save slots per ROM.
const DefaultSlots = 10

// StateManager stores machine savestates in numbered slots, one file per
// slot and ROM.
type StateManager struct {
	saveDirectory string
	maxSlots      int
}

// StateSlotInfo contains information about a save state slot
type StateSlotInfo struct {
	SlotNumber int       `json:"slot_number"`
	Used       bool      `json:"used"`
	Timestamp  time.Time `json:"timestamp"`
	FilePath   string    `json:"file_path"`
	FileSize   int64     `json:"file_size"`
}

// NewStateManager creates a state manager writing below saveDirectory.
// The directory is created on the first save.
func NewStateManager(saveDirectory string) *StateManager {
	return &StateManager{
		saveDirectory: saveDirectory,
		maxSlots:      DefaultSlots,
	}
}

func (sm *StateManager) checkSlot(slot int) error {
	if slot < 0 || slot >= sm.maxSlots {
		return fmt.Errorf("invalid save slot: %d (must be 0-%d)", slot, sm.maxSlots-1)
	}
	return nil
}

// SaveState writes the machine's savestate to a slot.
func (sm *StateManager) SaveState(m *machine.Machine, slot int, romPath string) error {
	if err := sm.checkSlot(slot); err != nil {
		return err
	}
	return sm.ExportState(m, sm.slotFilePath(slot, romPath))
}

// LoadState restores the machine from a slot.
func (sm *StateManager) LoadState(m *machine.Machine, slot int, romPath string) error {
	if err := sm.checkSlot(slot); err != nil {
		return err
	}
	err := sm.ImportState(m, sm.slotFilePath(slot, romPath))
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("save state not found in slot %d", slot)
	}
	return err
}

// ExportState writes the machine's savestate to filePath.
func (sm *StateManager) ExportState(m *machine.Machine, filePath string) error {
	data, err := m.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// Written beside the target, then renamed over it.
	tmp := filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmp, filePath); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// ImportState restores the machine from filePath.
func (sm *StateManager) ImportState(m *machine.Machine, filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read state: %w", err)
	}
	if err := m.FromJSON(data); err != nil {
		return fmt.Errorf("failed to restore state: %w", err)
	}
	return nil
}

// slotFilePath generates the file path for a save slot
func (sm *StateManager) slotFilePath(slot int, romPath string) string {
	romName := filepath.Base(romPath)
	romName = strings.TrimSuffix(romName, filepath.Ext(romName))
	return filepath.Join(sm.saveDirectory, fmt.Sprintf("%s_slot_%d.json", romName, slot))
}

// SlotInfo returns information about all save slots
func (sm *StateManager) SlotInfo(romPath string) []StateSlotInfo {
	slots := make([]StateSlotInfo, sm.maxSlots)
	for i := range slots {
		slots[i].SlotNumber = i
		filePath := sm.slotFilePath(i, romPath)
		if stat, err := os.Stat(filePath); err == nil {
			slots[i].Used = true
			slots[i].FilePath = filePath
			slots[i].FileSize = stat.Size()
			slots[i].Timestamp = stat.ModTime()
		}
	}
	return slots
}

// DeleteState deletes a save state from a slot
func (sm *StateManager) DeleteState(slot int, romPath string) error {
	if err := sm.checkSlot(slot); err != nil {
		return err
	}
	err := os.Remove(sm.slotFilePath(slot, romPath))
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("save state not found in slot %d", slot)
	}
	if err != nil {
		return fmt.Errorf("failed to delete save state: %w", err)
	}
	return nil
}

// HasSaveState checks if a save state exists in a slot
func (sm *StateManager) HasSaveState(slot int, romPath string) bool {
	if sm.checkSlot(slot) != nil {
		return false
	}
	_, err := os.Stat(sm.slotFilePath(slot, romPath))
	return err == nil
}

// MaxSlots returns the maximum number of save slots
func (sm *StateManager) MaxSlots() int {
	return sm.maxSlots
}

// SetMaxSlots sets the maximum number of save slots
func (sm *StateManager) SetMaxSlots(slots int) {
	if slots > 0 {
		sm.maxSlots = slots
	}
}

// SaveDirectory returns the save directory path
func (sm *StateManager) SaveDirectory() string {
	return sm.saveDirectory
}
