// Package usage tracks API call counters and session cost. Counters roll
// over lazily: a date or hour boundary is only observed when CheckQuota
// runs, never on a timer. Cost figures are estimates, not billing data.
package usage

import (
	"fmt"
	"sync"
	"time"

	"steve/internal/audit"
)

type QuotaKind string

const (
	QuotaDaily       QuotaKind = "daily"
	QuotaHourly      QuotaKind = "hourly"
	QuotaSessionCost QuotaKind = "session_cost"
)

// QuotaError reports which ceiling was hit. It aborts the current turn
// only; the session keeps running.
type QuotaError struct {
	Kind  QuotaKind
	Limit float64
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("%s quota exceeded (limit %g)", e.Kind, e.Limit)
}

type Limits struct {
	MaxDailyCalls   int
	MaxHourlyCalls  int
	MaxSessionCost  float64
	CostInputPer1M  float64
	CostOutputPer1M float64
}

// EstimateTokens is the chars/4 heuristic every quota limit is tuned
// against. Swapping in a real tokenizer would silently change those limits.
func EstimateTokens(text string) float64 {
	return float64(len(text)) / 4
}

// Ledger is shared between the session goroutine and the IPC status
// handlers; the mutex guards every counter.
type Ledger struct {
	limits Limits
	audit  *audit.Logger
	now    func() time.Time

	mu            sync.Mutex
	dailyCalls    int
	hourlyCalls   int
	lastResetDate time.Time
	lastResetHour int

	sessionInputTokens  float64
	sessionOutputTokens float64
	sessionCost         float64
	sessionCalls        int
	sessionStart        time.Time
}

func NewLedger(limits Limits, a *audit.Logger) *Ledger {
	return newLedger(limits, a, time.Now)
}

func newLedger(limits Limits, a *audit.Logger, now func() time.Time) *Ledger {
	t := now()
	return &Ledger{
		limits:        limits,
		audit:         a,
		now:           now,
		lastResetDate: t,
		lastResetHour: t.Hour(),
		sessionStart:  t,
	}
}

// CheckQuota performs the lazy rollover, then fails on the first exceeded
// ceiling. Call it before every outbound completion request.
func (l *Ledger) CheckQuota() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	t := l.now()

	if !sameDate(t, l.lastResetDate) {
		l.dailyCalls = 0
		l.lastResetDate = t
		l.audit.Security("daily API usage counter reset")
	}
	if t.Hour() != l.lastResetHour {
		l.hourlyCalls = 0
		l.lastResetHour = t.Hour()
	}

	if l.dailyCalls >= l.limits.MaxDailyCalls {
		return &QuotaError{Kind: QuotaDaily, Limit: float64(l.limits.MaxDailyCalls)}
	}
	if l.hourlyCalls >= l.limits.MaxHourlyCalls {
		return &QuotaError{Kind: QuotaHourly, Limit: float64(l.limits.MaxHourlyCalls)}
	}
	if l.sessionCost >= l.limits.MaxSessionCost {
		return &QuotaError{Kind: QuotaSessionCost, Limit: l.limits.MaxSessionCost}
	}
	return nil
}

// RecordCall accumulates one completed completion call and returns its
// cost.
func (l *Ledger) RecordCall(inputTokens, outputTokens float64) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	cost := inputTokens/1e6*l.limits.CostInputPer1M + outputTokens/1e6*l.limits.CostOutputPer1M

	l.sessionInputTokens += inputTokens
	l.sessionOutputTokens += outputTokens
	l.sessionCost += cost
	l.sessionCalls++
	l.dailyCalls++
	l.hourlyCalls++

	l.audit.Security("API call recorded",
		"daily_calls", l.dailyCalls,
		"hourly_calls", l.hourlyCalls,
		"session_cost", l.sessionCost,
	)
	return cost
}

// ResetSession starts a fresh per-session window. Daily and hourly
// counters persist process-wide.
func (l *Ledger) ResetSession() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.sessionInputTokens = 0
	l.sessionOutputTokens = 0
	l.sessionCost = 0
	l.sessionCalls = 0
	l.sessionStart = l.now()
}

type Snapshot struct {
	DailyCalls   int
	HourlyCalls  int
	SessionCalls int
	InputTokens  float64
	OutputTokens float64
	SessionCost  float64
	SessionStart time.Time
}

func (l *Ledger) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	return Snapshot{
		DailyCalls:   l.dailyCalls,
		HourlyCalls:  l.hourlyCalls,
		SessionCalls: l.sessionCalls,
		InputTokens:  l.sessionInputTokens,
		OutputTokens: l.sessionOutputTokens,
		SessionCost:  l.sessionCost,
		SessionStart: l.sessionStart,
	}
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
