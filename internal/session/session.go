// Package session drives the wake-to-goodbye conversation loop. The
// machine has exactly two states: awaiting the wake phrase and running an
// active conversation. A single turn's failure never ends a session; it
// degrades to a spoken generic apology.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync/atomic"
	"time"

	"steve/internal/audit"
	"steve/internal/bus"
	"steve/internal/history"
	"steve/internal/prompt"
	"steve/internal/sanitize"
	"steve/internal/usage"
	"steve/internal/wake"
)

type State string

const (
	StateAwaitingWake State = "awaiting_wake"
	StateActive       State = "active"
)

// Spoken surfaces. Rotations are fixed; the underlying error never
// reaches the user-facing channel.
var (
	greetings = []string{
		"Hello! How can I help you?",
		"Hi there! What can I do for you?",
		"Hey! What's on your mind?",
		"Hello! I'm here to help.",
	}
	farewells = []string{
		"Goodbye! It was nice talking with you.",
		"See you later! Have a great day.",
		"Goodbye! Feel free to talk to me anytime.",
		"Take care! I'll be here when you need me.",
	}
	apologies = []string{
		"I'm having trouble processing that right now.",
		"Sorry, I encountered an issue. Please try again.",
		"I need a moment to think about that.",
		"Let me try that again in a moment.",
		"I'm experiencing some difficulty. Could you rephrase that?",
	}
)

type Config struct {
	WakeWindow        time.Duration
	TranscribeTimeout time.Duration
	RetryDelay        time.Duration // pause after a failed listen, keeps the loop off the CPU
	InlineCommandMin  int           // inline wake commands at or under this length are ignored
	CostWarnThreshold float64
}

type Deps struct {
	Device     AudioDevice
	STT        Transcriber
	LLM        Completer
	Speaker    Speaker
	Notify     Notifier
	Gate       ResourceGate
	Sink       EventSink // optional
	Detector   *wake.Detector
	Sanitizer  *sanitize.Sanitizer
	History    *history.Store
	Ledger     *usage.Ledger
	Audit      *audit.Logger
	Log        *slog.Logger
	RandomPick func(n int) int // optional, defaults to rand.IntN
}

type Session struct {
	cfg   Config
	d     Deps
	state atomic.Value

	turns      int
	costWarned bool
}

func New(cfg Config, d Deps) *Session {
	if d.Log == nil {
		d.Log = slog.Default()
	}
	if d.RandomPick == nil {
		d.RandomPick = rand.IntN
	}
	if cfg.TranscribeTimeout <= 0 {
		cfg.TranscribeTimeout = 60 * time.Second
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	s := &Session{cfg: cfg, d: d}
	s.state.Store(StateAwaitingWake)
	return s
}

func (s *Session) State() State {
	return s.state.Load().(State)
}

// Run is the whole lifecycle. It returns when ctx is canceled; teardown
// executes on every exit path.
func (s *Session) Run(ctx context.Context) error {
	defer s.teardown()

	s.d.Notify.Ready()
	s.d.Log.Info("Listening for wake phrase")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.state.Store(StateAwaitingWake)

		text, err := s.listenWake(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.d.Audit.Failure("wake listening failed", err)
			// a persistent failure (dead device, full disk) would
			// otherwise spin this loop flat out
			if !s.pause(ctx, s.cfg.RetryDelay) {
				return ctx.Err()
			}
			continue
		}

		detected, raw := s.d.Detector.Detect(text)
		if !detected {
			continue
		}

		s.d.Audit.Security("wake phrase detected", "text_length", len(raw))
		s.converse(ctx, raw)

		s.d.Log.Info("Back to listening for wake phrase")
		s.d.Notify.Ready()
	}
}

// listenWake records one fixed wake-check window and transcribes it.
func (s *Session) listenWake(ctx context.Context) (string, error) {
	if err := s.d.Gate.Check(s.d.History.EnforceBounds); err != nil {
		return "", err
	}
	pcm, err := s.d.Device.RecordWindow(s.cfg.WakeWindow)
	if err != nil {
		return "", fmt.Errorf("recording: %w", err)
	}
	return s.transcribe(ctx, pcm)
}

// converse owns one Active period, from wake to goodbye.
func (s *Session) converse(ctx context.Context, wakeText string) {
	s.d.History.Reset()
	s.d.Ledger.ResetSession()
	s.turns = 0
	s.costWarned = false
	s.state.Store(StateActive)
	start := time.Now()

	s.d.Notify.SessionStart()
	s.publish(bus.Event{Kind: "wake"})
	defer func() {
		s.state.Store(StateAwaitingWake)
		s.summarize("conversation ended", start)
		s.d.Notify.SessionEnd()
	}()

	if cmd := wake.ExtractInlineCommand(wakeText); len(cmd) > s.cfg.InlineCommandMin {
		s.d.Log.Info("Inline command from wake phrase", "length", len(cmd))
		s.turn(ctx, cmd)
	} else {
		s.speak(s.pick(greetings))
	}

	for {
		if ctx.Err() != nil {
			return
		}
		s.d.Notify.Listening()

		text, err := s.listenCommand(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.apologize(err)
			if !s.pause(ctx, s.cfg.RetryDelay) {
				return
			}
			continue
		}
		if text == "" {
			s.d.Log.Info("Nothing heard, listening again")
			continue
		}

		if s.d.Detector.IsGoodbye(text) {
			s.speak(s.pick(farewells))
			return
		}

		s.turn(ctx, text)
	}
}

func (s *Session) listenCommand(ctx context.Context) (string, error) {
	if err := s.d.Gate.Check(s.d.History.EnforceBounds); err != nil {
		return "", err
	}
	pcm, err := s.d.Device.RecordCommand()
	if err != nil {
		return "", fmt.Errorf("recording: %w", err)
	}
	return s.transcribe(ctx, pcm)
}

func (s *Session) transcribe(ctx context.Context, pcm []float32) (string, error) {
	tctx, cancel := context.WithTimeout(ctx, s.cfg.TranscribeTimeout)
	defer cancel()

	text, err := s.d.STT.Transcribe(tctx, pcm)
	if err != nil {
		return "", fmt.Errorf("transcription: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// turn runs one exchange. Every failure is absorbed here: audit gets the
// detail, the user gets a rotated apology, the state stays Active.
func (s *Session) turn(ctx context.Context, input string) {
	s.d.Notify.Thinking()

	reply, err := s.exchange(ctx, input)
	if err != nil {
		s.apologize(err)
		return
	}

	s.turns++
	s.speak(reply)
}

// exchange is the guarded pipeline: sanitize, quota, bounds, prompt,
// completion, accounting, history.
func (s *Session) exchange(ctx context.Context, input string) (string, error) {
	sanitized := s.d.Sanitizer.Sanitize(input)

	if err := s.d.Ledger.CheckQuota(); err != nil {
		return "", err
	}

	s.d.History.EnforceBounds()
	p := prompt.Build(sanitized, s.d.History.RenderForPrompt())

	reply, err := s.d.LLM.Complete(ctx, p)
	if err != nil {
		return "", fmt.Errorf("completion service: %w", err)
	}
	reply = strings.TrimSpace(reply)

	cost := s.d.Ledger.RecordCall(usage.EstimateTokens(p), usage.EstimateTokens(reply))
	s.d.Log.Info("Turn completed", "cost", cost, "session_cost", s.d.Ledger.Snapshot().SessionCost)
	s.warnOnCost()

	// history keeps what the user actually said, not the sanitized form
	s.d.History.Append(input, reply, cost)
	s.publish(bus.Event{Kind: "turn", Cost: cost, Turns: s.turns + 1})

	return reply, nil
}

func (s *Session) warnOnCost() {
	if s.costWarned || s.cfg.CostWarnThreshold <= 0 {
		return
	}
	if c := s.d.Ledger.Snapshot().SessionCost; c > s.cfg.CostWarnThreshold {
		s.d.Log.Warn("Session cost passed warning threshold", "cost", c, "threshold", s.cfg.CostWarnThreshold)
		s.costWarned = true
	}
}

// apologize converts any turn-level failure into the generic spoken
// surface. Only the synthetic ID ties the utterance to the audit detail.
func (s *Session) apologize(err error) {
	id := s.d.Audit.Failure("turn failed", err)
	s.d.Log.Warn("Turn degraded to apology", "error_id", id)
	s.speak(s.pick(apologies))
}

func (s *Session) speak(text string) {
	s.d.Log.Info("Steve speaking", "length", len(text))
	s.d.Notify.Speaking()
	if err := s.d.Speaker.Speak(text); err != nil {
		s.d.Log.Warn("Speech output failed", "err", err)
	}
}

func (s *Session) summarize(event string, start time.Time) {
	snap := s.d.Ledger.Snapshot()
	s.d.Log.Info(event,
		"duration", time.Since(start).Round(time.Second),
		"turns", s.turns,
		"cost", snap.SessionCost,
		"input_tokens", snap.InputTokens,
		"output_tokens", snap.OutputTokens,
	)
	s.publish(bus.Event{Kind: "summary", Turns: s.turns, Cost: snap.SessionCost})
}

// teardown runs on every exit path, normal or interrupted.
func (s *Session) teardown() {
	s.d.History.Reset()
	s.d.Device.Cleanup()

	snap := s.d.Ledger.Snapshot()
	s.d.Log.Info("Session runner stopped",
		"daily_calls", snap.DailyCalls,
		"session_cost", snap.SessionCost,
	)
	s.publish(bus.Event{Kind: "shutdown", Cost: snap.SessionCost})
	s.d.Audit.Security("teardown completed")
}

func (s *Session) publish(e bus.Event) {
	if s.d.Sink == nil {
		return
	}
	e.Source = "steve"
	if err := s.d.Sink.Publish(e); err != nil {
		s.d.Log.Debug("Event mirror failed", "kind", e.Kind, "err", err)
	}
}

// pause sleeps for d or until ctx is done, reporting whether the caller
// should keep going.
func (s *Session) pause(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (s *Session) pick(list []string) string {
	return list[s.d.RandomPick(len(list))]
}
