// Package audit is the internal sink for security events and error detail.
// Everything user-facing sees at most a synthetic error ID; transcript
// content never reaches the log, only length and counter metadata.
package audit

import (
	"log/slog"

	"github.com/google/uuid"
)

type Logger struct {
	log *slog.Logger
}

func New(log *slog.Logger) *Logger {
	if log == nil {
		log = slog.Default()
	}
	return &Logger{log: log}
}

// Security records a security-relevant event. Attrs must carry metadata
// only (lengths, counters, timestamps), never raw user text.
func (a *Logger) Security(event string, attrs ...any) {
	if a == nil {
		return
	}
	a.log.Info("SECURITY "+event, attrs...)
}

// Failure logs full error detail internally and returns the synthetic
// identifier that the spoken surface is allowed to reference.
func (a *Logger) Failure(msg string, err error) string {
	id := "ERR_" + uuid.NewString()[:8]
	if a != nil {
		a.log.Error(msg, "error_id", id, "err", err)
	}
	return id
}
