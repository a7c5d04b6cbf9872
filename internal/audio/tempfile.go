package audio

import (
	"crypto/rand"
	"fmt"
	"os"
	"sync"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"steve/internal/audit"
)

// TempStore tracks temporary audio artifacts and scrubs them with a
// multi-pass random overwrite before deletion. Files are owner-only.
type TempStore struct {
	mu    sync.Mutex
	paths map[string]string // prefix -> current file
	audit *audit.Logger
}

func NewTempStore(a *audit.Logger) *TempStore {
	return &TempStore{paths: make(map[string]string), audit: a}
}

// ReplaceWAV writes pcm to a fresh 0600 temp wav under prefix, scrubbing
// the previous spill for that prefix first.
func (t *TempStore) ReplaceWAV(prefix string, pcm []float32, sampleRate int) (string, error) {
	t.mu.Lock()
	prev := t.paths[prefix]
	t.mu.Unlock()
	if prev != "" {
		t.SecureDelete(prev)
	}

	f, err := os.CreateTemp("", prefix+"*.wav")
	if err != nil {
		return "", fmt.Errorf("create temp: %w", err)
	}
	path := f.Name()

	if err := os.Chmod(path, 0o600); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("chmod temp: %w", err)
	}

	if err := writeWAV(f, pcm, sampleRate); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close temp: %w", err)
	}

	t.mu.Lock()
	t.paths[prefix] = path
	t.mu.Unlock()
	return path, nil
}

// SecureDelete overwrites the file with random data (3 passes) before
// removing it. Falls back to a plain remove when overwriting fails.
func (t *TempStore) SecureDelete(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.forget(path)
		return nil
	}
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err == nil {
		noise := make([]byte, info.Size())
		for pass := 0; pass < 3; pass++ {
			if _, err := rand.Read(noise); err != nil {
				break
			}
			if _, err := f.WriteAt(noise, 0); err != nil {
				break
			}
			f.Sync()
		}
		f.Close()
	}

	if err := os.Remove(path); err != nil {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	t.forget(path)
	return nil
}

// Cleanup scrubs every tracked artifact. Safe to call repeatedly.
func (t *TempStore) Cleanup() {
	t.mu.Lock()
	paths := make([]string, 0, len(t.paths))
	for _, p := range t.paths {
		paths = append(paths, p)
	}
	t.mu.Unlock()

	for _, p := range paths {
		if err := t.SecureDelete(p); err != nil {
			t.audit.Failure("temp file cleanup failed", err)
		}
	}
}

func (t *TempStore) forget(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for prefix, p := range t.paths {
		if p == path {
			delete(t.paths, prefix)
		}
	}
}

func writeWAV(f *os.File, pcm []float32, sampleRate int) error {
	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)

	ints := make([]int, len(pcm))
	for i, v := range pcm {
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		ints[i] = int(v * 32767)
	}

	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           ints,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalize wav: %w", err)
	}
	return nil
}
