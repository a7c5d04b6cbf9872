package usage

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLimits() Limits {
	return Limits{
		MaxDailyCalls:   3,
		MaxHourlyCalls:  2,
		MaxSessionCost:  5.00,
		CostInputPer1M:  3.50,
		CostOutputPer1M: 10.50,
	}
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestLedger(limits Limits) (*Ledger, *clock) {
	c := &clock{t: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)}
	return newLedger(limits, nil, c.now), c
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, float64(0), EstimateTokens(""))
	assert.Equal(t, float64(1), EstimateTokens("four"))
	assert.Equal(t, 2.5, EstimateTokens("ten chars!"))
}

func TestRecordCall_CostMath(t *testing.T) {
	l, _ := newTestLedger(testLimits())

	assert.InDelta(t, 3.50, l.RecordCall(1_000_000, 0), 1e-9)
	assert.InDelta(t, 10.50, l.RecordCall(0, 1_000_000), 1e-9)

	snap := l.Snapshot()
	assert.Equal(t, 2, snap.DailyCalls)
	assert.Equal(t, 2, snap.HourlyCalls)
	assert.InDelta(t, 14.00, snap.SessionCost, 1e-9)
}

func TestCheckQuota_DailyLimit(t *testing.T) {
	l, _ := newTestLedger(testLimits())

	// stay under the hourly limit while filling the daily one
	l.dailyCalls = 3

	err := l.CheckQuota()
	require.Error(t, err)
	var qe *QuotaError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, QuotaDaily, qe.Kind)
}

func TestCheckQuota_DateRolloverResets(t *testing.T) {
	l, c := newTestLedger(testLimits())
	l.dailyCalls = 3

	require.Error(t, l.CheckQuota())

	c.t = c.t.Add(24 * time.Hour)
	require.NoError(t, l.CheckQuota())
	assert.Equal(t, 0, l.Snapshot().DailyCalls)
}

func TestCheckQuota_HourRolloverResets(t *testing.T) {
	l, c := newTestLedger(testLimits())
	l.hourlyCalls = 2

	err := l.CheckQuota()
	var qe *QuotaError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, QuotaHourly, qe.Kind)

	c.t = c.t.Add(time.Hour)
	require.NoError(t, l.CheckQuota())
}

func TestCheckQuota_SessionCost(t *testing.T) {
	l, _ := newTestLedger(testLimits())
	l.RecordCall(2_000_000, 0) // 7.00 > 5.00 limit

	err := l.CheckQuota()
	var qe *QuotaError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, QuotaSessionCost, qe.Kind)
}

func TestResetSession_KeepsProcessCounters(t *testing.T) {
	l, c := newTestLedger(testLimits())
	l.RecordCall(1_000_000, 1_000_000)

	c.t = c.t.Add(time.Minute)
	l.ResetSession()

	snap := l.Snapshot()
	assert.Equal(t, 1, snap.DailyCalls, "daily counter persists across sessions")
	assert.Equal(t, 0, snap.SessionCalls)
	assert.Zero(t, snap.SessionCost)
	assert.Zero(t, snap.InputTokens)
	assert.Equal(t, c.t, snap.SessionStart)
}

func TestCheckQuota_LazyOnly(t *testing.T) {
	l, c := newTestLedger(testLimits())
	l.dailyCalls = 3

	// time passes while idle; nothing resets until the next check
	c.t = c.t.Add(48 * time.Hour)
	assert.Equal(t, 3, l.Snapshot().DailyCalls)

	require.NoError(t, l.CheckQuota())
	assert.Equal(t, 0, l.Snapshot().DailyCalls)
}

// The ledger is read by IPC status handlers while the session goroutine
// records calls; this is only meaningful under the race detector.
func TestConcurrentRecordAndSnapshot(t *testing.T) {
	l, _ := newTestLedger(Limits{
		MaxDailyCalls:   1_000_000,
		MaxHourlyCalls:  1_000_000,
		MaxSessionCost:  1e9,
		CostInputPer1M:  3.50,
		CostOutputPer1M: 10.50,
	})

	const writes = 200
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < writes; i++ {
			_ = l.CheckQuota()
			l.RecordCall(100, 50)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < writes; i++ {
			_ = l.Snapshot()
		}
	}()
	wg.Wait()

	snap := l.Snapshot()
	assert.Equal(t, writes, snap.DailyCalls)
	assert.Equal(t, writes, snap.SessionCalls)
}
