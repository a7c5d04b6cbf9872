// Package prompt renders completion-service requests.
package prompt

import (
	"strings"

	"steve/internal/history"
)

// persona is a static constant: user-supplied content never alters who
// the assistant claims to be.
const persona = "You are Steve, a helpful voice assistant. Respond naturally and conversationally in 1-2 sentences."

// Build renders the request for one turn. Without history it is a single
// instruction; with history, labeled pairs in chronological order followed
// by the new input and the assistant cue.
func Build(input string, exchanges []history.Exchange) string {
	if len(exchanges) == 0 {
		return persona + "\n\nUser said: " + input
	}

	var b strings.Builder
	b.WriteString(persona)
	b.WriteString("\n\nConversation history:")
	for _, e := range exchanges {
		b.WriteString("\nUser: ")
		b.WriteString(e.User)
		b.WriteString("\nSteve: ")
		b.WriteString(e.Assistant)
	}
	b.WriteString("\n\nUser: ")
	b.WriteString(input)
	b.WriteString("\nSteve:")
	return b.String()
}
