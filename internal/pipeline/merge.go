package pipeline

import (
	"github.com/matsen/bibscan/internal/extract"
	"github.com/matsen/bibscan/internal/tei"
)

// Candidates are the metadata recovered from raw page text.
type Candidates struct {
	Year    *int
	Title   string
	Authors []string
}

// Merged is the reconciled metadata of one document.
type Merged struct {
	Title   string
	Authors []string
	Year    *int
}

// Merge reconciles the structured header with the text-derived fallbacks:
//   - year: the fallback only fills a missing structured year;
//   - title: the fallback replaces the structured title only when the
//     structured one fails the quality gate and the fallback passes it;
//   - authors: a non-empty label-anchored author block always wins.
func Merge(h tei.Header, fb Candidates) Merged {
	m := Merged{Title: h.Title, Authors: h.Authors, Year: h.Year}

	if m.Year == nil && fb.Year != nil {
		y := *fb.Year
		m.Year = &y
	}

	if fb.Title != "" && !extract.IsGoodTitle(m.Title) && extract.IsGoodTitle(fb.Title) {
		m.Title = fb.Title
	}

	if len(fb.Authors) > 0 {
		m.Authors = fb.Authors
	}
	if m.Authors == nil {
		m.Authors = []string{}
	}
	return m
}
