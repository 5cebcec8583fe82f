package cartridge

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// iNES header structure
type iNESHeader struct {
	Magic      [4]uint8
	PRGROMSize uint8 // in 16KB units
	CHRROMSize uint8 // in 8KB units
	Flags6     uint8
	Flags7     uint8
	PRGRAMSize uint8
	TVSystem1  uint8
	TVSystem2  uint8
	Padding    [5]uint8
}

// ROM is a decoded cartridge image: the classified mapper id plus the PRG
// and CHR byte buffers the mapper serves from.
type ROM struct {
	MapperID  int
	PRG       []uint8
	CHR       []uint8 // nil when the board carries CHR RAM
	Mirroring MirrorMode
	Battery   bool
	Trainer   []uint8

	// Raw is the undecoded image kept for savestates and reloads.
	Raw []byte
}

// HasCHRRAM reports whether pattern memory is writable RAM.
func (r *ROM) HasCHRRAM() bool {
	return len(r.CHR) == 0
}

// LoadFromFile reads and decodes an iNES file.
func LoadFromFile(filename string) (*ROM, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// LoadFromReader decodes an iNES image from r.
func LoadFromReader(r io.Reader) (*ROM, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// Decode parses an iNES image. The returned ROM owns copies of the PRG and
// CHR data, so data may be reused by the caller.
func Decode(data []byte) (*ROM, error) {
	var header iNESHeader
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &header); err != nil {
		return nil, &ROMError{Field: "header", Err: ErrTruncated}
	}
	if string(header.Magic[:]) != "NES\x1A" {
		return nil, &ROMError{Field: "magic", Err: ErrInvalidHeader}
	}
	if header.PRGROMSize == 0 {
		return nil, &ROMError{Field: "prg size", Err: ErrInvalidHeader}
	}

	rom := &ROM{
		MapperID: int((header.Flags6 >> 4) | (header.Flags7 & 0xF0)),
		Battery:  (header.Flags6 & 0x02) != 0,
		Raw:      append([]byte(nil), data...),
	}

	switch {
	case (header.Flags6 & 0x08) != 0:
		rom.Mirroring = MirrorFourScreen
	case (header.Flags6 & 0x01) != 0:
		rom.Mirroring = MirrorVertical
	default:
		rom.Mirroring = MirrorHorizontal
	}

	offset := headerSize
	if (header.Flags6 & 0x04) != 0 {
		if len(data) < offset+trainerSize {
			return nil, &ROMError{Field: "trainer", Err: ErrTruncated}
		}
		rom.Trainer = append([]uint8(nil), data[offset:offset+trainerSize]...)
		offset += trainerSize
	}

	prgSize := int(header.PRGROMSize) * prgBankSize
	if len(data) < offset+prgSize {
		return nil, &ROMError{Field: "prg", Err: ErrTruncated}
	}
	rom.PRG = append([]uint8(nil), data[offset:offset+prgSize]...)
	offset += prgSize

	chrSize := int(header.CHRROMSize) * chrBankSize
	if chrSize > 0 {
		if len(data) < offset+chrSize {
			return nil, &ROMError{Field: "chr", Err: ErrTruncated}
		}
		rom.CHR = append([]uint8(nil), data[offset:offset+chrSize]...)
	}

	if !Supported(rom.MapperID) {
		return nil, &ROMError{Field: fmt.Sprintf("mapper %d", rom.MapperID), Err: ErrUnsupportedMapper}
	}
	return rom, nil
}
