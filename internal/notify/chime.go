// Package notify plays short audio cues. Everything here is cosmetic and
// fire-and-forget: playback is queued on the speaker and never awaited,
// and a failed cue is silently dropped.
package notify

import (
	"log/slog"
	"os"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/generators"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
)

const outputRate = beep.SampleRate(44100)

type note struct {
	freq     float64
	duration time.Duration
}

// Cue melodies, gentle and short.
var (
	listeningCue = []note{{294, 50 * time.Millisecond}}
	thinkingCue  = []note{{349, 60 * time.Millisecond}, {330, 60 * time.Millisecond}, {294, 60 * time.Millisecond}}
	speakingCue  = []note{{330, 40 * time.Millisecond}, {392, 50 * time.Millisecond}}
	startCue     = []note{{262, 70 * time.Millisecond}, {330, 70 * time.Millisecond}, {392, 90 * time.Millisecond}}
	endCue       = []note{{392, 80 * time.Millisecond}, {330, 90 * time.Millisecond}, {262, 120 * time.Millisecond}}
	readyCue     = []note{{330, 80 * time.Millisecond}}
	startupCue   = []note{{262, 80 * time.Millisecond}, {330, 80 * time.Millisecond}, {392, 90 * time.Millisecond}, {523, 120 * time.Millisecond}}
)

type Chimes struct {
	enabled bool
	asset   string // optional mp3 override for the startup cue
}

func New(enabled bool, assetPath string) *Chimes {
	return &Chimes{enabled: enabled, asset: assetPath}
}

// Init readies the output device. Must run once before any cue plays.
func (c *Chimes) Init() error {
	if !c.enabled {
		return nil
	}
	return speaker.Init(outputRate, outputRate.N(time.Second/10))
}

func (c *Chimes) Listening()    { c.play(listeningCue) }
func (c *Chimes) Thinking()     { c.play(thinkingCue) }
func (c *Chimes) Speaking()     { c.play(speakingCue) }
func (c *Chimes) SessionStart() { c.play(startCue) }
func (c *Chimes) SessionEnd()   { c.play(endCue) }
func (c *Chimes) Ready()        { c.play(readyCue) }

// Startup plays the boot melody, or the configured mp3 asset when set.
func (c *Chimes) Startup() {
	if !c.enabled {
		return
	}
	if c.asset != "" && c.playAsset() {
		return
	}
	c.play(startupCue)
}

func (c *Chimes) play(cue []note) {
	if !c.enabled {
		return
	}

	gap := outputRate.N(20 * time.Millisecond)
	streamers := make([]beep.Streamer, 0, len(cue)*2)
	for i, n := range cue {
		tone, err := generators.SineTone(outputRate, n.freq)
		if err != nil {
			return
		}
		streamers = append(streamers, beep.Take(outputRate.N(n.duration), tone))
		if i < len(cue)-1 {
			streamers = append(streamers, beep.Silence(gap))
		}
	}

	speaker.Play(beep.Seq(streamers...))
}

func (c *Chimes) playAsset() bool {
	f, err := os.Open(c.asset)
	if err != nil {
		slog.Debug("chime asset unavailable", "path", c.asset, "err", err)
		return false
	}

	streamer, format, err := mp3.Decode(f)
	if err != nil {
		f.Close()
		slog.Debug("chime asset decode failed", "path", c.asset, "err", err)
		return false
	}

	resampled := beep.Resample(4, format.SampleRate, outputRate, streamer)
	speaker.Play(beep.Seq(resampled, beep.Callback(func() {
		streamer.Close()
	})))
	return true
}
