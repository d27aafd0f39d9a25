// Package extract implements the raw-text heuristics used to recover
// bibliographic metadata from the first pages of a PDF.
package extract

import (
	"regexp"
	"strings"
)

var (
	multiSpace = regexp.MustCompile(`\s{2,}`)
	lineBreak  = regexp.MustCompile(`\r\n|\r|\n`)
)

// NormSpaces collapses runs of whitespace into a single space and trims.
func NormSpaces(s string) string {
	return strings.TrimSpace(multiSpace.ReplaceAllString(s, " "))
}

// Lines splits page text into normalized, non-empty lines. Bare carriage
// returns count as line breaks.
func Lines(text string) []string {
	var out []string
	for _, ln := range lineBreak.Split(text, -1) {
		ln = NormSpaces(ln)
		if ln != "" {
			out = append(out, ln)
		}
	}
	return out
}

// wordCount counts whitespace-delimited tokens.
func wordCount(s string) int {
	return len(strings.Fields(s))
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
