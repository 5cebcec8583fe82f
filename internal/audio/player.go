//go:build !headless

package audio

import (
	"fmt"
	"time"

	"github.com/hajimehoshi/ebiten/v2/audio"
)

// Player plays machine samples through ebiten's audio context.
type Player struct {
	*Ring
	ctx    *audio.Context
	player *audio.Player
}

// NewPlayer opens an audio context at sampleRate. Only one context may
// exist per process.
func NewPlayer(sampleRate, bufferSamples int, volume float32) (*Player, error) {
	ring := NewRing(bufferSamples)
	ring.SetVolume(volume)

	ctx := audio.NewContext(sampleRate)
	p, err := ctx.NewPlayer(ring)
	if err != nil {
		return nil, fmt.Errorf("audio player: %w", err)
	}
	p.SetBufferSize(50 * time.Millisecond)
	p.Play()

	return &Player{Ring: ring, ctx: ctx, player: p}, nil
}

// Close stops playback.
func (p *Player) Close() error {
	p.player.Pause()
	return p.player.Close()
}
