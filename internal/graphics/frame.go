package graphics

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/image/draw"

	"nescore/internal/ppu"
)

// FrameBuffer is the hand-off point between the emulation loop and the
// renderer. It implements machine.FrameSink.
type FrameBuffer struct {
	mu     sync.Mutex
	frame  Frame
	count  uint64
	latest uint64 // count at the last Latest call
}

// WriteFrame copies frame in.
func (fb *FrameBuffer) WriteFrame(frame *[ppu.ScreenWidth * ppu.ScreenHeight]uint32) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.frame = *frame
	fb.count++
}

// Latest copies the newest frame into dst and reports whether it arrived
// since the previous call.
func (fb *FrameBuffer) Latest(dst *Frame) bool {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	*dst = fb.frame
	fresh := fb.count != fb.latest
	fb.latest = fb.count
	return fresh
}

// Count returns the number of frames written.
func (fb *FrameBuffer) Count() uint64 {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.count
}

// ToRGBA converts a frame to an image. Alpha is forced opaque.
func ToRGBA(frame *Frame) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, ppu.ScreenWidth, ppu.ScreenHeight))
	fillRGBA(img.Pix, frame)
	return img
}

// fillRGBA writes frame into pix, which must hold 256*240*4 bytes.
func fillRGBA(pix []uint8, frame *Frame) {
	for i, c := range frame {
		pix[i*4] = uint8(c >> 16)
		pix[i*4+1] = uint8(c >> 8)
		pix[i*4+2] = uint8(c)
		pix[i*4+3] = 0xFF
	}
}

// WritePNG encodes frame as a PNG, scaled up by an integer factor with
// nearest-neighbour sampling.
func WritePNG(w io.Writer, frame *Frame, scale int) error {
	src := ToRGBA(frame)
	if scale <= 1 {
		return png.Encode(w, src)
	}
	dst := image.NewRGBA(image.Rect(0, 0, ppu.ScreenWidth*scale, ppu.ScreenHeight*scale))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return png.Encode(w, dst)
}

// SavePNG writes a screenshot to path, creating its directory.
func SavePNG(path string, frame *Frame, scale int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create screenshot directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := WritePNG(f, frame, scale); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return f.Close()
}
