package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Labels introducing the author and reviewer blocks on course proceedings.
const (
	AuthorLabel   = "author:"
	ReviewerLabel = "peer reviewed by:"
)

const (
	maxBlockLines   = 12
	maxLabelLineLen = 40
	maxNameTokens   = 5
	minNameLetters  = 4
)

var (
	blockStopKeys = append([]string{"peer reviewed by", "licensed under", "cite as:"}, falseTitlePhrases...)
	nonPersonChar = regexp.MustCompile(`[^a-z\s.\-']`)
)

// NormPerson reduces a name to the key used for de-duplication and reviewer
// matching: lowercase, non-name characters turned into spaces.
func NormPerson(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = nonPersonChar.ReplaceAllString(s, " ")
	return NormSpaces(s)
}

// ExtractBlockAfterLabel returns the lines following the first line that
// starts with label (case-insensitive). Collection stops at a blank line,
// known boilerplate, or something that looks like the next label.
func ExtractBlockAfterLabel(lines []string, label string) []string {
	labelLow := strings.ToLower(label)
	bare := strings.Trim(labelLow, ":")

	idx := -1
	for i, ln := range lines {
		low := strings.ToLower(strings.TrimSpace(ln))
		if strings.HasPrefix(low, labelLow) || low == bare {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}

	var out []string
	for _, ln := range lines[idx+1:] {
		ln = strings.TrimSpace(ln)
		low := strings.ToLower(ln)

		if ln == "" || containsAny(low, blockStopKeys...) {
			break
		}
		if strings.HasSuffix(low, ":") && utf8.RuneCountInString(low) < maxLabelLineLen {
			break
		}

		out = append(out, NormSpaces(ln))
		if len(out) >= maxBlockLines {
			break
		}
	}
	return out
}

// FilterNameLines keeps lines that look like a single person's name and
// drops repeats of the same person.
func FilterNameLines(lines []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, ln := range lines {
		if !looksLikeName(ln) {
			continue
		}
		k := NormPerson(ln)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, ln)
	}
	return out
}

func looksLikeName(ln string) bool {
	if IsNoiseLine(ln) || anyDigit.MatchString(ln) {
		return false
	}
	if strings.Contains(strings.ToLower(ln), "university") || strings.Contains(ln, "@") {
		return false
	}
	if n := wordCount(ln); n < 1 || n > maxNameTokens {
		return false
	}
	return len(nonLetters.ReplaceAllString(ln, "")) >= minNameLetters
}

// ExtractAuthors reads the "Author:" block of a page and removes anyone who
// also appears under "Peer reviewed by:". It reports false when the page
// has no usable author block.
func ExtractAuthors(lines []string) ([]string, bool) {
	authors := FilterNameLines(ExtractBlockAfterLabel(lines, AuthorLabel))
	if len(authors) == 0 {
		return nil, false
	}

	peers := make(map[string]bool)
	for _, p := range FilterNameLines(ExtractBlockAfterLabel(lines, ReviewerLabel)) {
		peers[NormPerson(p)] = true
	}

	var cleaned []string
	for _, a := range authors {
		if !peers[NormPerson(a)] {
			cleaned = append(cleaned, a)
		}
	}
	if len(cleaned) == 0 {
		return authors, true
	}
	return cleaned, true
}
