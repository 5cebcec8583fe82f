// Package debug holds development aids: periodic frame dumps, the runtime
// statistics dashboard and savestate graphs.
package debug

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"

	"nescore/internal/graphics"
	"nescore/internal/ppu"
)

// FrameDumper writes every Nth frame it receives as a PNG. It implements
// machine.FrameSink.
type FrameDumper struct {
	outputDir    string
	frameCount   uint64
	dumps        int
	maxDumps     int
	dumpInterval int // Dump every N frames
	scale        int
	err          error
}

// NewFrameDumper creates a dumper writing to outputDir.
func NewFrameDumper(outputDir string) *FrameDumper {
	return &FrameDumper{
		outputDir:    outputDir,
		maxDumps:     10,
		dumpInterval: 60,
		scale:        1,
	}
}

// SetMaxDumps sets the maximum number of frames to dump; 0 means no limit.
func (fd *FrameDumper) SetMaxDumps(max int) {
	fd.maxDumps = max
}

// SetDumpInterval sets the interval between frame dumps
func (fd *FrameDumper) SetDumpInterval(interval int) {
	if interval > 0 {
		fd.dumpInterval = interval
	}
}

// SetScale sets the PNG magnification.
func (fd *FrameDumper) SetScale(scale int) {
	fd.scale = scale
}

// WriteFrame dumps the frame when it falls on the interval. The first error
// stops further dumps and is kept for Err.
func (fd *FrameDumper) WriteFrame(frame *[ppu.ScreenWidth * ppu.ScreenHeight]uint32) {
	fd.frameCount++
	if fd.err != nil || fd.frameCount%uint64(fd.dumpInterval) != 0 {
		return
	}
	if fd.maxDumps > 0 && fd.dumps >= fd.maxDumps {
		return
	}

	path := filepath.Join(fd.outputDir, fmt.Sprintf("frame_%06d.png", fd.frameCount))
	if err := graphics.SavePNG(path, frame, fd.scale); err != nil {
		fd.err = err
		return
	}
	fd.dumps++
}

// Dumps returns the number of files written.
func (fd *FrameDumper) Dumps() int {
	return fd.dumps
}

// Err returns the error that stopped dumping, if any.
func (fd *FrameDumper) Err() error {
	return fd.err
}

// ColorCount is one line of a colour histogram.
type ColorCount struct {
	Color uint32
	Count int
}

// ColorHistogram counts the colours of a frame, most frequent first.
func ColorHistogram(frame *[ppu.ScreenWidth * ppu.ScreenHeight]uint32) []ColorCount {
	freq := make(map[uint32]int)
	for _, c := range frame {
		freq[c]++
	}
	out := make([]ColorCount, 0, len(freq))
	for c, n := range freq {
		out = append(out, ColorCount{Color: c, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Color < out[j].Color
	})
	return out
}

// WriteHistogram prints the colour histogram of a frame.
func WriteHistogram(w io.Writer, frame *[ppu.ScreenWidth * ppu.ScreenHeight]uint32) {
	const total = ppu.ScreenWidth * ppu.ScreenHeight
	fmt.Fprintf(w, "Color      | Count | Percentage\n")
	fmt.Fprintf(w, "-----------|-------|----------\n")
	for _, cc := range ColorHistogram(frame) {
		fmt.Fprintf(w, "#%06X    | %5d | %6.2f%%\n", cc.Color&0xFFFFFF, cc.Count, float64(cc.Count)/total*100)
	}
}
