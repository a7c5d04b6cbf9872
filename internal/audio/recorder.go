package audio

import (
	"errors"
	"math"
	"time"

	"github.com/gordonklaus/portaudio"
)

// Config carries the capture tuning. Thresholds come from config defaults
// and Calibrate may replace SilenceThreshold with a measured value.
type Config struct {
	SampleRate        int
	SilenceThreshold  float64
	SilenceDuration   time.Duration
	MinSpeechDuration time.Duration
	MaxRecordDuration time.Duration
}

const frameSize = 320 // 20ms @ 16kHz

var ErrNoAudio = errors.New("no audio recorded")

// Recorder captures mono float32 PCM from the default input device.
// Every capture is spilled to a secure temp wav so a crash mid-turn
// leaves an artifact the teardown path can scrub.
type Recorder struct {
	cfg   Config
	spill *TempStore
}

func NewRecorder(cfg Config, spill *TempStore) *Recorder {
	return &Recorder{cfg: cfg, spill: spill}
}

func (r *Recorder) Init() error {
	return portaudio.Initialize()
}

func (r *Recorder) Close() {
	portaudio.Terminate()
}

// Calibrate samples ambient levels for d and sets the silence threshold
// to 0.3x the average, so quiet rooms do not require shouting.
func (r *Recorder) Calibrate(d time.Duration) error {
	buf := make([]float32, frameSize)

	stream, err := portaudio.OpenDefaultStream(1, 0, float64(r.cfg.SampleRate), len(buf), buf)
	if err != nil {
		return err
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return err
	}
	defer stream.Stop()

	frames := int(d.Seconds()) * r.cfg.SampleRate / frameSize
	var sum float64
	for i := 0; i < frames; i++ {
		if err := stream.Read(); err != nil {
			return err
		}
		sum += frameRMS(buf)
	}
	if frames > 0 {
		r.cfg.SilenceThreshold = sum / float64(frames) * 0.3
	}
	return nil
}

// RecordWindow captures a fixed-length window, used for wake checks.
func (r *Recorder) RecordWindow(d time.Duration) ([]float32, error) {
	buf := make([]float32, frameSize)
	out := make([]float32, 0, r.cfg.SampleRate*int(d.Seconds()))

	stream, err := portaudio.OpenDefaultStream(1, 0, float64(r.cfg.SampleRate), len(buf), buf)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, err
	}
	defer stream.Stop()

	frames := int(d.Seconds()) * r.cfg.SampleRate / frameSize
	for i := 0; i < frames; i++ {
		if err := stream.Read(); err != nil {
			return nil, err
		}
		out = append(out, buf...)
	}

	r.spillPCM(out, "steve_wake_")
	return out, nil
}

// RecordCommand captures until the speaker stops: it waits for speech,
// requires it to last MinSpeechDuration, then ends after SilenceDuration
// of quiet or at MaxRecordDuration.
func (r *Recorder) RecordCommand() ([]float32, error) {
	buf := make([]float32, frameSize)
	out := make([]float32, 0, r.cfg.SampleRate*3)

	stream, err := portaudio.OpenDefaultStream(1, 0, float64(r.cfg.SampleRate), len(buf), buf)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, err
	}
	defer stream.Stop()

	framesPerSec := r.cfg.SampleRate / frameSize
	maxFrames := int(r.cfg.MaxRecordDuration.Seconds()) * framesPerSec
	minSpeechFrames := int(r.cfg.MinSpeechDuration.Seconds() * float64(framesPerSec))
	silenceFramesNeeded := int(r.cfg.SilenceDuration.Seconds() * float64(framesPerSec))

	var (
		speaking      bool
		speechFrames  int
		silenceFrames int
	)

	for i := 0; i < maxFrames; i++ {
		if err := stream.Read(); err != nil {
			return nil, err
		}
		out = append(out, buf...)

		if frameRMS(buf) > r.cfg.SilenceThreshold {
			speaking = true
			speechFrames++
			silenceFrames = 0
			continue
		}
		if speaking && speechFrames >= minSpeechFrames {
			silenceFrames++
			if silenceFrames >= silenceFramesNeeded {
				break
			}
		}
	}

	if !speaking {
		return nil, ErrNoAudio
	}

	r.spillPCM(out, "steve_cmd_")
	return out, nil
}

// Cleanup scrubs any spilled recordings. Runs on every session exit.
func (r *Recorder) Cleanup() {
	if r.spill != nil {
		r.spill.Cleanup()
	}
}

// spillPCM is best effort; a failed spill never fails the capture.
func (r *Recorder) spillPCM(pcm []float32, prefix string) {
	if r.spill == nil || len(pcm) == 0 {
		return
	}
	r.spill.ReplaceWAV(prefix, pcm, r.cfg.SampleRate)
}

func frameRMS(f []float32) float64 {
	var s float64
	for _, x := range f {
		s += float64(x * x)
	}
	return math.Sqrt(s / float64(len(f)))
}
