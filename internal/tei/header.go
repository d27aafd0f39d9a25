package tei

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/matsen/bibscan/internal/extract"
)

// Scope weights: how much a year found in each part of the header is trusted.
const (
	ScoreImprintWhen = 100
	ScoreImprintText = 95
	ScoreHeaderWhen  = 90
	ScoreHeaderText  = 85
	ScoreMonogrText  = 75
	ScoreBiblScope   = 70
	ScoreMeeting     = 40
	ScoreWholeHeader = 20
)

// Header is what the structured extraction service told us about a document.
type Header struct {
	Title   string
	Authors []string
	Year    *int
}

// ParseHeader decodes a TEI header document.
func ParseHeader(teiXML string) (Header, error) {
	root, err := parseTree(strings.NewReader(teiXML))
	if err != nil {
		return Header{}, err
	}

	h := Header{
		Title:   root.find("teiHeader", "fileDesc", "titleStmt", "title").text(),
		Authors: authors(root),
	}
	if y, ok := extract.PickBestYear(scoredYears(root)); ok {
		h.Year = &y
	}
	return h, nil
}

// authors reads persName entries of the analytic part. Affiliation and
// address elements are ignored because they are never under persName.
func authors(root *node) []string {
	var names []string
	for _, a := range root.findAll("teiHeader", "sourceDesc", "biblStruct", "analytic", "author") {
		pers := a.find("persName")
		if pers == nil {
			continue
		}

		var parts []string
		for _, f := range pers.findAll("forename") {
			if t := f.text(); t != "" {
				parts = append(parts, t)
			}
		}
		parts = append(parts, pers.find("surname").text())

		if name := normName(strings.TrimSpace(strings.Join(parts, " "))); name != "" {
			names = append(names, name)
		}
	}
	return dedupeFold(names)
}

var (
	nameJunk = []string{"university", "department", "republic", "rights", "permission", "http", "www"}
	hasDigit = regexp.MustCompile(`\d`)
)

const maxNameWords = 6

// normName returns s cleaned up, or "" when it does not look like a name.
func normName(s string) string {
	s = extract.NormSpaces(s)
	if s == "" {
		return ""
	}
	low := strings.ToLower(s)
	for _, j := range nameJunk {
		if strings.Contains(low, j) {
			return ""
		}
	}
	if hasDigit.MatchString(s) || len(strings.Fields(s)) > maxNameWords {
		return ""
	}
	return s
}

// dedupeFold drops case-insensitive repeats, keeping first occurrences.
func dedupeFold(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		k := strings.ToLower(n)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, n)
	}
	return out
}

// whenYear returns the year prefix of a normalized date attribute such as
// when="2021-03-01".
func whenYear(n *node) (int, bool) {
	when := strings.TrimSpace(n.attr("when"))
	if len(when) < 4 {
		return 0, false
	}
	y, err := strconv.Atoi(when[:4])
	if err != nil || when[0] == '+' || when[0] == '-' || !extract.ValidYear(y) {
		return 0, false
	}
	return y, true
}

// ScoredYears returns the year candidate pool of a TEI document.
func ScoredYears(teiXML string) ([]extract.ScoredYear, error) {
	root, err := parseTree(strings.NewReader(teiXML))
	if err != nil {
		return nil, err
	}
	return scoredYears(root), nil
}

// scoredYears collects every year mentioned in the header, weighted by the
// scope it appeared in. The same year may appear many times.
func scoredYears(root *node) []extract.ScoredYear {
	var pool []extract.ScoredYear
	add := func(score int, years ...int) {
		for _, y := range years {
			pool = append(pool, extract.ScoredYear{Year: y, Score: score})
		}
	}
	dated := func(dates []*node, whenScore, textScore int) {
		for _, d := range dates {
			if y, ok := whenYear(d); ok {
				add(whenScore, y)
			}
			add(textScore, extract.YearCandidates(d.text())...)
		}
	}

	dated(root.findAll("teiHeader", "sourceDesc", "biblStruct", "monogr", "imprint", "date"),
		ScoreImprintWhen, ScoreImprintText)
	dated(root.findAll("teiHeader", "date"), ScoreHeaderWhen, ScoreHeaderText)

	if monogr := root.find("teiHeader", "sourceDesc", "biblStruct", "monogr"); monogr != nil {
		add(ScoreMonogrText, extract.YearCandidates(monogr.text())...)
	}
	for _, bs := range root.findAll("teiHeader", "biblScope") {
		add(ScoreBiblScope, extract.YearCandidates(bs.text())...)
	}
	if meeting := root.find("teiHeader", "meeting"); meeting != nil {
		add(ScoreMeeting, extract.YearCandidates(meeting.text())...)
	}
	if header := root.find("teiHeader"); header != nil {
		add(ScoreWholeHeader, extract.YearCandidates(header.text())...)
	}
	return pool
}
