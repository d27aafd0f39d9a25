package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Title length limits shared by the span search and the quality gate.
const (
	MinTitleWords   = 4
	MaxTitleWords   = 35
	MaxTitleChars   = 220
	maxTitleLines   = 35 // titles sit near the top of page one
	maxScannedLines = 80
	maxSpanLines    = 3
)

// Known false-positive phrases: running series headers that look like titles.
var falseTitlePhrases = []string{"cfd with opensource software"}

var (
	inVenue      = regexp.MustCompile(`(?i)\.\s+in\s+`)
	nonLetters   = regexp.MustCompile(`[^A-Za-z]+`)
	spanStopKeys = []string{"author:", "peer reviewed by:", "licensed under", "cite as:"}
)

const (
	scoreNone       = -1_000_000_000
	scoreNoise      = -1_000_000
	penaltyAllCaps  = 200
	penaltyFalseHit = 500
	bonusColon      = 30
	bonusHyphen     = 15
	maxScoredChars  = 200
	maxScoredWords  = 20
	pointsPerWord   = 20
)

// titleStrategy is one way of finding a title; strategies are tried in order.
type titleStrategy func(lines []string) (string, bool)

var titleStrategies = []titleStrategy{
	TitleFromCiteAs,
	TitleFromSpans,
}

// ExtractTitle returns the best title candidate from first-page lines.
func ExtractTitle(lines []string) (string, bool) {
	for _, strategy := range titleStrategies {
		if t, ok := strategy(lines); ok {
			return t, true
		}
	}
	return "", false
}

// TitleFromCiteAs reads the title out of a "Cite as: Surname, X.: Title. In ..."
// line, as printed on course and workshop proceedings.
func TitleFromCiteAs(lines []string) (string, bool) {
	for _, ln := range lines {
		if !strings.Contains(strings.ToLower(ln), "cite as:") {
			continue
		}

		_, s, _ := strings.Cut(ln, ":")
		s = strings.TrimSpace(s)

		if loc := inVenue.FindStringIndex(s); loc != nil {
			s = strings.TrimSpace(s[:loc[0]])
		}
		if i := strings.LastIndex(s, ".:"); i >= 0 {
			s = strings.TrimSpace(s[i+2:])
		}
		s = strings.Trim(s, " .;-")

		if wordCount(s) >= MinTitleWords && !IsNoiseLine(s) {
			return s, true
		}
	}
	return "", false
}

// titleRegion keeps the top of the page: everything before the first
// Abstract/Keywords label, capped at maxTitleLines lines.
func titleRegion(lines []string) []string {
	if len(lines) > maxScannedLines {
		lines = lines[:maxScannedLines]
	}
	var out []string
	for _, ln := range lines {
		ln = NormSpaces(ln)
		if ln == "" {
			continue
		}
		if isAnySectionLabel(ln, sectionLabels...) {
			break
		}
		out = append(out, ln)
		if len(out) >= maxTitleLines {
			break
		}
	}
	return out
}

// TitleFromSpans scores every run of one to three consecutive lines near
// the top of the page and returns the best one. The first candidate wins
// ties, so document order breaks them.
func TitleFromSpans(lines []string) (string, bool) {
	region := titleRegion(lines)

	best, bestScore := "", scoreNone
	for i := range region {
		if IsNoiseLine(region[i]) {
			continue
		}
		for span := 1; span <= maxSpanLines && i+span <= len(region); span++ {
			chunk := NormSpaces(strings.Join(region[i:i+span], " "))
			if !spanCandidate(chunk) {
				continue
			}
			if sc := titleScore(chunk); sc > bestScore {
				best, bestScore = chunk, sc
			}
		}
	}
	return best, best != ""
}

func spanCandidate(chunk string) bool {
	if containsAny(strings.ToLower(chunk), spanStopKeys...) {
		return false
	}
	if isAnySectionLabel(chunk, "abstract", "keywords") {
		return false
	}
	n := wordCount(chunk)
	if n < MinTitleWords || n > MaxTitleWords {
		return false
	}
	return utf8.RuneCountInString(chunk) <= MaxTitleChars
}

// titleScore favours long, multi-word lines and penalizes running headers.
func titleScore(s string) int {
	s = NormSpaces(s)
	if s == "" {
		return scoreNone
	}
	if IsNoiseLine(s) {
		return scoreNoise
	}

	score := min(utf8.RuneCountInString(s), maxScoredChars)
	score += pointsPerWord * min(wordCount(s), maxScoredWords)

	if letters := nonLetters.ReplaceAllString(s, ""); letters != "" && strings.ToUpper(letters) == letters {
		score -= penaltyAllCaps
	}
	if isFalseTitle(s) {
		score -= penaltyFalseHit
	}
	if strings.Contains(s, ":") {
		score += bonusColon
	}
	if strings.Contains(s, "-") {
		score += bonusHyphen
	}
	return score
}

func isFalseTitle(s string) bool {
	return containsAny(strings.ToLower(s), falseTitlePhrases...)
}

// IsGoodTitle is the quality gate a title must pass before it may replace
// one reported by the structured extraction service.
func IsGoodTitle(s string) bool {
	s = NormSpaces(s)
	switch {
	case s == "":
		return false
	case IsNoiseLine(s):
		return false
	case isFalseTitle(s):
		return false
	case isAnySectionLabel(s, sectionLabels...):
		return false
	case strings.Count(s, ",") >= 3:
		return false
	case wordCount(s) > MaxTitleWords, utf8.RuneCountInString(s) > MaxTitleChars:
		return false
	}
	return true
}
