//go:build headless

package audio

import "errors"

// Player stub for headless builds
type Player struct {
	*Ring
}

// NewPlayer always fails in headless builds.
func NewPlayer(sampleRate, bufferSamples int, volume float32) (*Player, error) {
	return nil, errors.New("audio output not available in headless build")
}

func (p *Player) Close() error { return nil }
