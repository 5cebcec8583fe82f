package audio

import (
	"fmt"
	"io"
	"os"
	"sync"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WAVSink collects samples and writes them as a 16-bit mono WAV file on
// Close.
type WAVSink struct {
	mu         sync.Mutex
	sampleRate int
	samples    []int
}

// NewWAVSink returns a recorder for sampleRate.
func NewWAVSink(sampleRate int) *WAVSink {
	return &WAVSink{sampleRate: sampleRate}
}

// WriteSample implements machine.AudioSink.
func (s *WAVSink) WriteSample(sample float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples = append(s.samples, int(toPCM16(sample)))
}

// Len returns the number of recorded samples.
func (s *WAVSink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.samples)
}

// Encode writes the recording to ws.
func (s *WAVSink) Encode(ws io.WriteSeeker) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	enc := wav.NewEncoder(ws, s.sampleRate, 16, 1, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: s.sampleRate},
		Data:           s.samples,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("wav encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("wav encode: %w", err)
	}
	return nil
}

// Save writes the recording to path.
func (s *WAVSink) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("wav: %w", err)
	}
	if err := s.Encode(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
