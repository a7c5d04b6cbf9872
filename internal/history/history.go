// Package history holds the encrypted conversation turns for the active
// session. Turns are immutable once appended; eviction is oldest-first and
// driven by the token and turn-count bounds.
package history

import (
	"time"

	"steve/internal/audit"
	"steve/internal/usage"
)

// Cipher is the narrow contract the store needs. Decrypt errors degrade to
// opaque passthrough inside the store; they never abort a render.
type Cipher interface {
	Encrypt(text string) (string, error)
	Decrypt(opaque string) (string, error)
}

// Turn is one exchange. User and assistant text are opaque payloads.
type Turn struct {
	user      string
	assistant string
	Timestamp time.Time
	Cost      float64
}

// Exchange is a decrypted (user, assistant) pair in chronological order.
type Exchange struct {
	User      string
	Assistant string
}

type Options struct {
	Enabled   bool
	MaxTokens float64
	MaxTurns  int
}

type Store struct {
	cipher Cipher
	audit  *audit.Logger
	opts   Options
	turns  []Turn
}

func NewStore(cipher Cipher, a *audit.Logger, opts Options) *Store {
	return &Store{cipher: cipher, audit: a, opts: opts}
}

// Append encrypts and stores one completed exchange. With history disabled
// the store is a sink and the call is dropped.
func (s *Store) Append(user, assistant string, cost float64) {
	if !s.opts.Enabled {
		return
	}
	s.turns = append(s.turns, Turn{
		user:      s.seal(user),
		assistant: s.seal(assistant),
		Timestamp: time.Now(),
		Cost:      cost,
	})
}

// seal falls back to plaintext when encryption fails; losing history at
// rest protection beats dropping the turn.
func (s *Store) seal(text string) string {
	opaque, err := s.cipher.Encrypt(text)
	if err != nil {
		s.audit.Failure("history encryption failed", err)
		return text
	}
	return opaque
}

// EnforceBounds evicts the oldest turn while the store is over either
// bound, always keeping at least one turn. Run it before building a
// prompt, after the store has had a chance to grow.
func (s *Store) EnforceBounds() {
	for len(s.turns) > 1 && (s.estimatedTokens() > s.opts.MaxTokens || len(s.turns) > s.opts.MaxTurns) {
		reason := "turn_limit_exceeded"
		if s.estimatedTokens() > s.opts.MaxTokens {
			reason = "token_limit_exceeded"
		}
		s.turns = s.turns[1:]
		s.audit.Security("conversation history trimmed",
			"reason", reason,
			"remaining_turns", len(s.turns),
		)
	}
}

func (s *Store) estimatedTokens() float64 {
	var total float64
	for _, t := range s.turns {
		total += usage.EstimateTokens(s.open(t.user))
		total += usage.EstimateTokens(s.open(t.assistant))
	}
	return total
}

// RenderForPrompt decrypts every stored pair in insertion order. A turn
// whose payload fails to decrypt passes through unchanged.
func (s *Store) RenderForPrompt() []Exchange {
	if !s.opts.Enabled || len(s.turns) == 0 {
		return nil
	}
	out := make([]Exchange, 0, len(s.turns))
	for _, t := range s.turns {
		out = append(out, Exchange{
			User:      s.open(t.user),
			Assistant: s.open(t.assistant),
		})
	}
	return out
}

func (s *Store) open(opaque string) string {
	text, err := s.cipher.Decrypt(opaque)
	if err != nil {
		return opaque
	}
	return text
}

// Reset discards all turns. Called when a new wake-triggered session
// starts and as error recovery; never mid-session otherwise.
func (s *Store) Reset() {
	if len(s.turns) > 0 {
		s.audit.Security("conversation history cleared", "turns", len(s.turns))
	}
	s.turns = nil
}

func (s *Store) Len() int {
	return len(s.turns)
}
