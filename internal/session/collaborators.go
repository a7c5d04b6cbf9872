package session

import (
	"context"
	"time"

	"steve/internal/bus"
)

// Narrow collaborator contracts. Everything the turn loop touches comes
// in through these, so tests run against fakes and the loop never sees a
// platform.

// AudioDevice records mono float32 PCM. Cleanup scrubs any temporary
// artifacts a capture left behind.
type AudioDevice interface {
	RecordWindow(d time.Duration) ([]float32, error)
	RecordCommand() ([]float32, error)
	Cleanup()
}

// Transcriber turns PCM into text. Garbage input yields an empty string;
// an error means the engine failed.
type Transcriber interface {
	Transcribe(ctx context.Context, pcm []float32) (string, error)
}

// Completer is the hosted language model. A single failure surfaces to
// the caller; the loop does not retry.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Speaker renders text to audio. Failures are logged, never fatal.
type Speaker interface {
	Speak(text string) error
}

// Notifier plays cosmetic cues; implementations must not block the loop.
type Notifier interface {
	Listening()
	Thinking()
	Speaking()
	SessionStart()
	SessionEnd()
	Ready()
}

// ResourceGate is checked before each recording. shrink runs as recovery
// when memory is tight, before the gate fails hard.
type ResourceGate interface {
	Check(shrink func()) error
}

// EventSink mirrors session events; best effort only.
type EventSink interface {
	Publish(e bus.Event) error
}
