package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefault(t *testing.T) {
	c := Default()

	assert.Equal(t, "hey steve", c.WakePhrase)
	assert.Equal(t, "goodbye steve", c.GoodbyePhrase)
	assert.Equal(t, 200, c.MaxDailyAPICalls)
	assert.Equal(t, 30, c.MaxHourlyAPICalls)
	assert.Equal(t, 5.00, c.MaxSessionCost)
	assert.Equal(t, 3.50, c.CostInputPer1M)
	assert.Equal(t, 10.50, c.CostOutputPer1M)
	assert.Equal(t, float64(8000), c.MaxHistoryTokens)
	assert.Equal(t, 20, c.MaxConversationTurns)
	assert.True(t, c.EnableHistory)
	assert.Equal(t, uint64(100), c.MinDiskSpaceMB)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("STEVE_WAKE_PHRASE", "hey jarvis")
	t.Setenv("STEVE_MAX_DAILY_API_CALLS", "50")
	t.Setenv("STEVE_MAX_SESSION_COST", "1.25")
	t.Setenv("STEVE_ENABLE_HISTORY", "false")
	t.Setenv("STEVE_SILENCE_DURATION", "2s")

	c := FromEnv()

	assert.Equal(t, "hey jarvis", c.WakePhrase)
	assert.Equal(t, 50, c.MaxDailyAPICalls)
	assert.Equal(t, 1.25, c.MaxSessionCost)
	assert.False(t, c.EnableHistory)
	assert.Equal(t, 2*time.Second, c.SilenceDuration)
}

func TestFromEnv_IgnoresMalformed(t *testing.T) {
	t.Setenv("STEVE_MAX_DAILY_API_CALLS", "lots")
	t.Setenv("STEVE_MAX_SESSION_COST", "five dollars")

	c := FromEnv()

	assert.Equal(t, 200, c.MaxDailyAPICalls)
	assert.Equal(t, 5.00, c.MaxSessionCost)
}
