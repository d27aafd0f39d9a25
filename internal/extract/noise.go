package extract

import (
	"regexp"
	"strings"
	"sync"
)

// noiseRule is one boilerplate test. Rules are evaluated in order and the
// first match classifies the line, so the slice order is significant.
type noiseRule struct {
	name  string
	match func(s, low string) bool
}

var (
	sectionStart    = regexp.MustCompile(`^(abstract|keywords?|key words)\b`)
	sectionInline   = regexp.MustCompile(`\b(abstract|keywords?)\b\s*[:,-]`)
	postalEU        = regexp.MustCompile(`\b\d{3}\s?\d{2}\b`)
	postalUS        = regexp.MustCompile(`\b\d{5}(?:-\d{4})?\b`)
	streetAddress   = regexp.MustCompile(`\b\d{1,5}\s+[A-Za-z]{2,}\b`)
	anyDigit        = regexp.MustCompile(`\d`)
	affiliationKeys = []string{"university", "department", "faculty", "institute", "laboratory", "centre", "center"}
	countryWords    = []string{
		"republic", "usa", "u.s.", "uk", "germany", "france", "italy", "spain", "china",
		"japan", "canada", "australia", "turkey", "türkiye", "poland",
	}
)

var noiseRules = []noiseRule{
	{"empty", func(s, low string) bool { return s == "" }},
	{"url", func(s, low string) bool { return containsAny(low, "http", "doi") }},
	{"license", func(s, low string) bool { return containsAny(low, "licensed under", "creativecommons") }},
	{"copyright", func(s, low string) bool { return containsAny(low, "copyright", "rights reserved") }},
	{"editorial", func(s, low string) bool { return containsAny(low, "proceedings", "edited by") }},
	{"peer-review", func(s, low string) bool { return strings.Contains(low, "peer reviewed") }},
	{"author-label", func(s, low string) bool { return strings.Contains(low, "author:") }},
	{"descriptor", func(s, low string) bool {
		return strings.HasPrefix(low, "programming language") || strings.HasPrefix(low, "nature of problem")
	}},
	{"contribution", func(s, low string) bool { return strings.Contains(low, "these authors contributed equally") }},
	{"section-start", func(s, low string) bool { return sectionStart.MatchString(low) }},
	{"section-inline", func(s, low string) bool {
		loc := sectionInline.FindStringIndex(low)
		return loc != nil && loc[0] < sectionLabelWindow
	}},
	{"email", func(s, low string) bool { return strings.Contains(s, "@") }},
	{"postal-code", func(s, low string) bool { return postalEU.MatchString(s) || postalUS.MatchString(s) }},
	{"street", func(s, low string) bool { return streetAddress.MatchString(s) && strings.Contains(s, ",") }},
	{"author-list", func(s, low string) bool { return strings.Count(s, ",") >= 3 && wordCount(s) > 8 }},
	{"affiliation-number", func(s, low string) bool {
		return containsAny(low, affiliationKeys...) && anyDigit.MatchString(s)
	}},
	// Country names only count on comma-separated address lines.
	{"affiliation-country", func(s, low string) bool {
		return containsAny(low, affiliationKeys...) && strings.Contains(s, ",") && containsAny(low, countryWords...)
	}},
}

// sectionLabelWindow is how far into a line a section label may start and
// still mark the line as a section header.
const sectionLabelWindow = 30

// IsNoiseLine reports whether a raw text line looks like boilerplate: URLs,
// licenses, affiliations, addresses, section labels, editorial notes.
// Title and author extraction both rely on it.
func IsNoiseLine(line string) bool {
	return matchNoiseRule(line) != ""
}

// matchNoiseRule returns the name of the first rule that flags line, or "".
func matchNoiseRule(line string) string {
	s := NormSpaces(line)
	low := strings.ToLower(s)
	for _, r := range noiseRules {
		if r.match(s, low) {
			return r.name
		}
	}
	return ""
}

// IsSectionLabelLine reports whether line starts a labelled block such as
// "Abstract" or "Keywords". It accepts the label at the start of the line or
// followed by a delimiter near the start (an affiliation line running into
// "Abstract: ...").
func IsSectionLabelLine(line, label string) bool {
	low := strings.ToLower(strings.TrimSpace(line))
	if low == "" {
		return false
	}
	p := labelPatternsFor(label)
	if p.start.MatchString(low) {
		return true
	}
	loc := p.inline.FindStringIndex(low)
	return loc != nil && loc[0] < sectionLabelWindow
}

type labelPatterns struct {
	start, inline *regexp.Regexp
}

var labelCache sync.Map // label -> labelPatterns

func labelPatternsFor(label string) labelPatterns {
	label = strings.ToLower(label)
	if p, ok := labelCache.Load(label); ok {
		return p.(labelPatterns)
	}
	q := regexp.QuoteMeta(label)
	p := labelPatterns{
		start:  regexp.MustCompile(`^` + q + `\b`),
		inline: regexp.MustCompile(`\b` + q + `\b\s*[:,-]`),
	}
	labelCache.Store(label, p)
	return p
}

// sectionLabels are the block labels that end the title region of a page.
var sectionLabels = []string{"abstract", "keywords", "key words"}

func isAnySectionLabel(line string, labels ...string) bool {
	for _, l := range labels {
		if IsSectionLabelLine(line, l) {
			return true
		}
	}
	return false
}
