// Package audio carries APU samples to the host: a live ebiten player and a
// WAV file recorder. Both implement machine.AudioSink.
package audio

import (
	"encoding/binary"
	"io"
	"math"
	"sync"
)

// Ring is a bounded sample FIFO shared by the emulation loop, which writes,
// and the audio driver, which reads. When full, the oldest samples are
// overwritten.
type Ring struct {
	mu      sync.Mutex
	buf     []float32
	head    int // next read
	size    int
	dropped uint64
	volume  float32
}

// NewRing returns a ring holding capacity samples.
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = 4096
	}
	return &Ring{buf: make([]float32, capacity), volume: 1}
}

// WriteSample appends one sample.
func (r *Ring) WriteSample(sample float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tail := (r.head + r.size) % len(r.buf)
	r.buf[tail] = sample
	if r.size == len(r.buf) {
		r.head = (r.head + 1) % len(r.buf)
		r.dropped++
	} else {
		r.size++
	}
}

// SetVolume scales samples on the way out.
func (r *Ring) SetVolume(v float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.volume = v
}

// Len returns the number of buffered samples.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.size
}

// Dropped returns the number of samples overwritten before they were read.
func (r *Ring) Dropped() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}

// Read implements io.Reader as an endless stream of 16-bit little-endian
// stereo frames. An empty ring yields silence, so the stream never ends.
func (r *Ring) Read(p []byte) (int, error) {
	const frameSize = 4
	n := len(p) / frameSize * frameSize
	if n == 0 {
		return 0, io.ErrShortBuffer
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for i := 0; i < n; i += frameSize {
		var s int16
		if r.size > 0 {
			s = toPCM16(r.buf[r.head] * r.volume)
			r.head = (r.head + 1) % len(r.buf)
			r.size--
		}
		binary.LittleEndian.PutUint16(p[i:], uint16(s))
		binary.LittleEndian.PutUint16(p[i+2:], uint16(s))
	}
	return n, nil
}

func toPCM16(s float32) int16 {
	if s > 1 {
		s = 1
	} else if s < -1 {
		s = -1
	}
	return int16(math.Round(float64(s) * math.MaxInt16))
}
