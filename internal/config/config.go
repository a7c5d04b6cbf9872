// Package config holds the daemon settings. Defaults match the shipped
// assistant; everything is overridable through STEVE_-prefixed environment
// variables (an .env file is loaded by the daemon before FromEnv runs).
package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Phrases
	WakePhrase    string
	GoodbyePhrase string

	// Completion service
	Model string

	// API quotas and cost tracking
	MaxDailyAPICalls  int
	MaxHourlyAPICalls int
	MaxSessionCost    float64
	CostWarnThreshold float64
	CostInputPer1M    float64
	CostOutputPer1M   float64

	// History bounds
	EnableHistory        bool
	MaxHistoryTokens     float64
	MaxConversationTurns int

	// Resource gates
	MinDiskSpaceMB   uint64
	MaxMemoryPercent float64

	// Audio
	SampleRate        int
	SilenceThreshold  float64
	SilenceDuration   time.Duration
	MinSpeechDuration time.Duration
	MaxRecordDuration time.Duration
	WakeWindow        time.Duration
	CalibrateFor      time.Duration

	// Speech output
	SpeechRate int

	// Chimes
	EnableChimes bool
}

func Default() Config {
	return Config{
		WakePhrase:    "hey steve",
		GoodbyePhrase: "goodbye steve",

		Model: "gpt-5-nano",

		MaxDailyAPICalls:  200,
		MaxHourlyAPICalls: 30,
		MaxSessionCost:    5.00,
		CostWarnThreshold: 0.50,
		CostInputPer1M:    3.50,
		CostOutputPer1M:   10.50,

		EnableHistory:        true,
		MaxHistoryTokens:     8000,
		MaxConversationTurns: 20,

		MinDiskSpaceMB:   100,
		MaxMemoryPercent: 85,

		SampleRate:        16000,
		SilenceThreshold:  0.015,
		SilenceDuration:   4 * time.Second,
		MinSpeechDuration: 500 * time.Millisecond,
		MaxRecordDuration: 20 * time.Second,
		WakeWindow:        6 * time.Second,
		CalibrateFor:      5 * time.Second,

		SpeechRate: 175,

		EnableChimes: true,
	}
}

// FromEnv returns Default overridden by any STEVE_* variables present.
func FromEnv() Config {
	c := Default()

	str(&c.WakePhrase, "STEVE_WAKE_PHRASE")
	str(&c.GoodbyePhrase, "STEVE_GOODBYE_PHRASE")
	str(&c.Model, "STEVE_MODEL")

	integer(&c.MaxDailyAPICalls, "STEVE_MAX_DAILY_API_CALLS")
	integer(&c.MaxHourlyAPICalls, "STEVE_MAX_HOURLY_API_CALLS")
	floating(&c.MaxSessionCost, "STEVE_MAX_SESSION_COST")
	floating(&c.CostWarnThreshold, "STEVE_COST_WARN_THRESHOLD")
	floating(&c.CostInputPer1M, "STEVE_COST_INPUT_PER_1M")
	floating(&c.CostOutputPer1M, "STEVE_COST_OUTPUT_PER_1M")

	boolean(&c.EnableHistory, "STEVE_ENABLE_HISTORY")
	floating(&c.MaxHistoryTokens, "STEVE_MAX_HISTORY_TOKENS")
	integer(&c.MaxConversationTurns, "STEVE_MAX_CONVERSATION_TURNS")

	unsigned(&c.MinDiskSpaceMB, "STEVE_MIN_DISK_SPACE_MB")
	floating(&c.MaxMemoryPercent, "STEVE_MAX_MEMORY_PERCENT")

	floating(&c.SilenceThreshold, "STEVE_SILENCE_THRESHOLD")
	duration(&c.SilenceDuration, "STEVE_SILENCE_DURATION")
	duration(&c.MaxRecordDuration, "STEVE_MAX_RECORD_DURATION")
	duration(&c.WakeWindow, "STEVE_WAKE_WINDOW")
	duration(&c.CalibrateFor, "STEVE_CALIBRATE_FOR")

	integer(&c.SpeechRate, "STEVE_SPEECH_RATE")
	boolean(&c.EnableChimes, "STEVE_ENABLE_CHIMES")

	return c
}

func str(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func integer(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func unsigned(dst *uint64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func floating(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func boolean(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func duration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
