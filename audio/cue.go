// Package audio plays short synthesized feedback cues. Speaker
// initialization failure is non-fatal: the simulation runs silent and
// every Play call becomes a no-op.
package audio

import (
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"

	"github.com/veldtgame/veldt/logger"
)

const sampleRate = beep.SampleRate(44100)

// Player owns the speaker and synthesizes cue tones on demand.
type Player struct {
	ready bool
}

// NewPlayer initializes the speaker. On failure the returned player is
// silent but usable.
func NewPlayer() *Player {
	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
		logger.Log.WithError(err).Warn("audio initialization failed, running silent")
		return &Player{}
	}
	return &Player{ready: true}
}

// Arrival plays the unit-arrived cue.
func (p *Player) Arrival() {
	p.tone(660, 60*time.Millisecond)
}

// Spawn plays the unit-spawned cue.
func (p *Player) Spawn() {
	p.tone(440, 40*time.Millisecond)
}

func (p *Player) tone(freq float64, duration time.Duration) {
	if !p.ready {
		return
	}
	sine, err := generators.SineTone(sampleRate, freq)
	if err != nil {
		return
	}
	speaker.Play(beep.Take(sampleRate.N(duration), sine))
}

// Close releases the speaker.
func (p *Player) Close() {
	if p.ready {
		speaker.Close()
	}
}
