// Package wake decides when a transcript should start or end a session.
// All matching happens over normalized text: lowercased, punctuation
// collapsed to single spaces.
package wake

import (
	"regexp"
	"strings"
)

var (
	punct      = regexp.MustCompile(`[^\w\s]`)
	whitespace = regexp.MustCompile(`\s+`)

	// Greeting prefixes that may carry an inline command after them.
	inlinePrefixes = []*regexp.Regexp{
		regexp.MustCompile(`hey\s*,?\s*steve\s*,?\s*`),
		regexp.MustCompile(`hi\s*,?\s*steve\s*,?\s*`),
	}

	leadingPunct = regexp.MustCompile(`^[,.\s]+`)
)

// Normalize lowercases, strips punctuation to spaces, and collapses runs
// of whitespace.
func Normalize(text string) string {
	t := punct.ReplaceAllString(strings.ToLower(text), " ")
	return strings.TrimSpace(whitespace.ReplaceAllString(t, " "))
}

type Detector struct {
	wake     string
	goodbyes []string
}

func NewDetector(wakePhrase, goodbyePhrase string) *Detector {
	return &Detector{
		wake: Normalize(wakePhrase),
		goodbyes: []string{
			Normalize(goodbyePhrase),
			"goodbye",
			"bye steve",
			"see you later steve",
			"talk to you later steve",
			"end conversation",
		},
	}
}

// Detect reports whether the wake phrase occurs in the transcript and
// returns the raw transcript for inline-command extraction.
func (d *Detector) Detect(text string) (bool, string) {
	return strings.Contains(Normalize(text), d.wake), text
}

// IsGoodbye matches any goodbye variant as an exact substring of the
// normalized transcript.
func (d *Detector) IsGoodbye(text string) bool {
	n := Normalize(text)
	for _, g := range d.goodbyes {
		if strings.Contains(n, g) {
			return true
		}
	}
	return false
}

// ExtractInlineCommand returns whatever follows a greeting prefix in the
// wake utterance, original casing preserved, or "" when no prefix matches.
func ExtractInlineCommand(text string) string {
	lower := strings.ToLower(text)
	for _, p := range inlinePrefixes {
		loc := p.FindStringIndex(lower)
		if loc == nil {
			continue
		}
		rest := text[loc[1]:]
		return leadingPunct.ReplaceAllString(strings.TrimSpace(rest), "")
	}
	return ""
}
