package history

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// plainCipher reverses the string so ciphertext differs from plaintext but
// round-trips without real crypto.
type plainCipher struct{ failDecrypt bool }

func (c plainCipher) Encrypt(text string) (string, error) {
	return reverse(text), nil
}

func (c plainCipher) Decrypt(opaque string) (string, error) {
	if c.failDecrypt {
		return "", errors.New("bad payload")
	}
	return reverse(opaque), nil
}

func reverse(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}

func newTestStore(opts Options) *Store {
	return NewStore(plainCipher{}, nil, opts)
}

func TestAppendAndRender(t *testing.T) {
	s := newTestStore(Options{Enabled: true, MaxTokens: 8000, MaxTurns: 20})

	s.Append("hello", "hi there", 0.01)
	s.Append("how are you", "fine", 0.02)

	got := s.RenderForPrompt()
	require.Len(t, got, 2)
	assert.Equal(t, Exchange{User: "hello", Assistant: "hi there"}, got[0])
	assert.Equal(t, Exchange{User: "how are you", Assistant: "fine"}, got[1])
}

func TestDisabledStoreIsSink(t *testing.T) {
	s := newTestStore(Options{Enabled: false, MaxTokens: 8000, MaxTurns: 20})

	for i := 0; i < 5; i++ {
		s.Append("user", "assistant", 0)
	}

	assert.Zero(t, s.Len())
	assert.Empty(t, s.RenderForPrompt())
}

func TestEnforceBounds_TurnLimit(t *testing.T) {
	s := newTestStore(Options{Enabled: true, MaxTokens: 1e9, MaxTurns: 3})

	for i := 0; i < 10; i++ {
		s.Append(fmt.Sprintf("question %d", i), "answer", 0)
		s.EnforceBounds()
		assert.LessOrEqual(t, s.Len(), 3)
	}

	got := s.RenderForPrompt()
	require.Len(t, got, 3)
	assert.Equal(t, "question 7", got[0].User, "oldest turns evicted first")
}

func TestEnforceBounds_TokenLimit(t *testing.T) {
	// each turn is ~100 chars => ~25 tokens; cap at 60 tokens => 2 turns
	s := newTestStore(Options{Enabled: true, MaxTokens: 60, MaxTurns: 20})

	big := strings.Repeat("x", 50)
	for i := 0; i < 5; i++ {
		s.Append(big, big, 0)
	}
	s.EnforceBounds()

	assert.Equal(t, 2, s.Len())
}

func TestEnforceBounds_KeepsLastTurn(t *testing.T) {
	s := newTestStore(Options{Enabled: true, MaxTokens: 1, MaxTurns: 1})

	s.Append(strings.Repeat("y", 400), strings.Repeat("y", 400), 0)
	s.EnforceBounds()

	assert.Equal(t, 1, s.Len(), "a single oversized turn survives")
}

func TestRender_DecryptFailurePassesThrough(t *testing.T) {
	s := NewStore(plainCipher{failDecrypt: true}, nil, Options{Enabled: true, MaxTokens: 8000, MaxTurns: 20})

	s.Append("secret question", "secret answer", 0)

	got := s.RenderForPrompt()
	require.Len(t, got, 1)
	// opaque payloads pass through unchanged instead of aborting
	assert.Equal(t, reverse("secret question"), got[0].User)
	assert.Equal(t, reverse("secret answer"), got[0].Assistant)
}

func TestReset(t *testing.T) {
	s := newTestStore(Options{Enabled: true, MaxTokens: 8000, MaxTurns: 20})

	s.Append("a", "b", 0)
	s.Reset()

	assert.Zero(t, s.Len())
	assert.Empty(t, s.RenderForPrompt())
}
