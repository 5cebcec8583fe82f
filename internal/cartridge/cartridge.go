// Package cartridge decodes iNES images and implements the cartridge mappers
// that bank-switch PRG and CHR memory for the NES.
package cartridge

import (
	"errors"
	"fmt"
)

// MirrorMode represents nametable mirroring mode
type MirrorMode uint8

const (
	MirrorHorizontal MirrorMode = iota
	MirrorVertical
	MirrorSingleScreen0
	MirrorSingleScreen1
	MirrorFourScreen
)

func (m MirrorMode) String() string {
	switch m {
	case MirrorHorizontal:
		return "horizontal"
	case MirrorVertical:
		return "vertical"
	case MirrorSingleScreen0:
		return "single-screen-lower"
	case MirrorSingleScreen1:
		return "single-screen-upper"
	case MirrorFourScreen:
		return "four-screen"
	}
	return fmt.Sprintf("mirror(%d)", uint8(m))
}

const (
	headerSize  = 16
	trainerSize = 512
	prgBankSize = 0x4000
	chrBankSize = 0x2000
)

// Decoding errors. Every error returned by Decode wraps one of these in a
// *ROMError.
var (
	ErrInvalidHeader     = errors.New("invalid iNES header")
	ErrTruncated         = errors.New("truncated ROM image")
	ErrUnsupportedMapper = errors.New("unsupported mapper")
)

// ROMError describes why an image was rejected.
type ROMError struct {
	Field string
	Err   error
}

func (e *ROMError) Error() string {
	return fmt.Sprintf("rom %s: %v", e.Field, e.Err)
}

func (e *ROMError) Unwrap() error {
	return e.Err
}
