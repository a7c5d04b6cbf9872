// Package sanitize filters user transcripts before they reach the prompt.
// Suspected injection fragments are replaced, never logged: the audit
// trail records only that filtering happened and the lengths involved.
package sanitize

import (
	"regexp"

	"steve/internal/audit"
)

const (
	// Placeholder replaces every matched fragment.
	Placeholder = "[filtered]"
	// MaxLength caps sanitized input; longer text is truncated with an
	// ellipsis marker.
	MaxLength = 500
)

// Ordered list of suspected prompt-injection fragments: role markers,
// imperative overrides, markup delimiters.
var patterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ignore\s+previous`),
	regexp.MustCompile(`(?i)forget\s+everything`),
	regexp.MustCompile(`(?i)new\s+instructions`),
	regexp.MustCompile(`(?i)system\s*:`),
	regexp.MustCompile(`(?i)assistant\s*:`),
	regexp.MustCompile(`(?i)human\s*:`),
	regexp.MustCompile(`(?i)disregard`),
	regexp.MustCompile(`(?i)override`),
	regexp.MustCompile(`(?i)pretend\s+you\s+are`),
	regexp.MustCompile(`(?i)act\s+as\s+if`),
	regexp.MustCompile(`(?i)</\w+>`),
	regexp.MustCompile(`(?i)<\w+>`),
	regexp.MustCompile(`(?i)\bprompt\b.*\binjection\b`),
	regexp.MustCompile(`(?i)tell\s+me\s+your\s+instructions`),
}

var edgeSpace = regexp.MustCompile(`^\s+|\s+$`)

type Sanitizer struct {
	audit *audit.Logger
}

func New(a *audit.Logger) *Sanitizer {
	return &Sanitizer{audit: a}
}

// Sanitize trims, substitutes suspicious fragments, and truncates. When
// the result differs from the trimmed input, a security event with length
// metadata is emitted.
func (s *Sanitizer) Sanitize(raw string) string {
	if raw == "" {
		return ""
	}

	trimmed := edgeSpace.ReplaceAllString(raw, "")
	sanitized := trimmed
	for _, p := range patterns {
		sanitized = p.ReplaceAllString(sanitized, Placeholder)
	}

	// MaxLength counts characters, not bytes; slicing bytes would split
	// multibyte runes in transcripts with accented words.
	if runes := []rune(sanitized); len(runes) > MaxLength {
		sanitized = string(runes[:MaxLength]) + "..."
	}

	if sanitized != trimmed {
		s.audit.Security("input filtered",
			"original_length", len(raw),
			"sanitized_length", len(sanitized),
		)
	}
	return sanitized
}
