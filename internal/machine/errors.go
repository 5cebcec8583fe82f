package machine

import (
	"errors"
	"fmt"
)

var (
	// ErrNoROM is returned by operations that need a loaded image.
	ErrNoROM = errors.New("no ROM loaded")
	// ErrPaused is returned by Frame while the machine is paused.
	ErrPaused = errors.New("machine is paused")
	// ErrStateMismatch marks a savestate that does not fit this machine:
	// another version, another mapper, or malformed component state.
	ErrStateMismatch = errors.New("savestate mismatch")
)

// StateError reports which part of a savestate was rejected.
type StateError struct {
	Field string
	Err   error
}

func (e *StateError) Error() string {
	return fmt.Sprintf("savestate %s: %v", e.Field, e.Err)
}

func (e *StateError) Unwrap() error {
	return e.Err
}

func mismatch(field string, format string, args ...any) *StateError {
	return &StateError{
		Field: field,
		Err:   fmt.Errorf("%w: %s", ErrStateMismatch, fmt.Sprintf(format, args...)),
	}
}
