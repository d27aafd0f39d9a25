// Package export renders extracted documents as BibTeX and spreadsheets.
package export

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/matsen/bibscan/internal/reference"
)

// entryRule maps keywords found in the folded title (or a match on the
// file name) to an entry type. Rules are tried in order.
type entryRule struct {
	entryType reference.EntryType
	keywords  []string
	fileName  *regexp.Regexp
}

var reportNumber = regexp.MustCompile(`\b(tm|tp|tr)[-_]?\d{3,}\b`)

var entryRules = []entryRule{
	{entryType: reference.PhDThesis, keywords: []string{"phd", "dissertation", "doctoral"}},
	{entryType: reference.MastersThesis, keywords: []string{"master", "msc", "m.sc"}},
	{entryType: reference.PhDThesis, keywords: []string{"thesis"}},
	{entryType: reference.InProceedings, keywords: []string{"proceedings", "conference", "symposium", "workshop"}},
	{entryType: reference.TechReport, keywords: []string{"technical report", "tech report", "nasa/tm", "nasa/tp"}},
	{entryType: reference.TechReport, keywords: []string{"report"}, fileName: reportNumber},
}

// GuessEntryType picks a BibTeX entry type from the title and file name.
// Anything unrecognized is misc.
func GuessEntryType(title, fileName string) reference.EntryType {
	t := FoldASCII(strings.ToLower(title))
	fn := FoldASCII(strings.ToLower(fileName))

	for _, r := range entryRules {
		if r.fileName != nil && r.fileName.MatchString(fn) {
			return r.entryType
		}
		for _, kw := range r.keywords {
			if strings.Contains(t, kw) {
				return r.entryType
			}
		}
	}
	return reference.Misc
}

// fieldOrder lists the fields rendered first, per entry type. Remaining
// fields follow alphabetically.
var fieldOrder = map[reference.EntryType][]string{
	reference.Article:       {"author", "title", "journal", "year", "volume", "number", "pages", "doi", "url", "note"},
	reference.InProceedings: {"author", "title", "booktitle", "year", "pages", "doi", "url", "note"},
	reference.TechReport:    {"author", "title", "institution", "number", "year", "doi", "url", "note"},
	reference.PhDThesis:     {"author", "title", "school", "year", "url", "note"},
	reference.MastersThesis: {"author", "title", "school", "year", "url", "note"},
	reference.Misc:          {"author", "title", "year", "howpublished", "url", "note"},
}

var bibtexEscaper = strings.NewReplacer(
	`\`, `\\`,
	"{", `\{`,
	"}", `\}`,
	"%", `\%`,
	"$", `\$`,
	"&", `\&`,
	"#", `\#`,
	"_", `\_`,
	"~", `\~{}`,
	"^", `\^{}`,
)

// EscapeBibTeX escapes characters that are special inside a braced field.
func EscapeBibTeX(s string) string {
	return bibtexEscaper.Replace(s)
}

// Format renders one entry. Empty fields are omitted and the last field
// carries no trailing comma.
func Format(entryType reference.EntryType, key string, fields map[string]string) string {
	order, ok := fieldOrder[entryType]
	if !ok {
		order = fieldOrder[reference.Misc]
	}

	lines := []string{"@" + string(entryType) + "{" + key + ","}
	used := make(map[string]bool, len(fields))
	emit := func(k string) {
		v := strings.TrimSpace(fields[k])
		if v == "" || used[k] {
			return
		}
		used[k] = true
		lines = append(lines, "  "+k+" = {"+EscapeBibTeX(v)+"},")
	}

	for _, k := range order {
		emit(k)
	}
	extra := make([]string, 0, len(fields))
	for k := range fields {
		extra = append(extra, k)
	}
	sort.Strings(extra)
	for _, k := range extra {
		emit(k)
	}

	if last := len(lines) - 1; last > 0 {
		lines[last] = strings.TrimSuffix(lines[last], ",")
	}
	lines = append(lines, "}")
	return strings.Join(lines, "\n")
}

// authorField joins the non-blank author names the way BibTeX expects.
func authorField(authors []string) string {
	var cleaned []string
	for _, a := range authors {
		if a = strings.TrimSpace(a); a != "" {
			cleaned = append(cleaned, a)
		}
	}
	return strings.Join(cleaned, " and ")
}

// MakeCitation synthesizes the BibTeX record of one document, claiming its
// key in reg.
func MakeCitation(doc reference.Document, reg *KeyRegistry) reference.Citation {
	doc.Title = strings.TrimSpace(doc.Title)
	doc.FileName = strings.TrimSpace(doc.FileName)
	doc.FilePath = strings.TrimSpace(doc.FilePath)
	if doc.Authors == nil {
		doc.Authors = []string{}
	}

	entryType := GuessEntryType(doc.Title, doc.FileName)
	key := BuildKey(doc, reg)

	fields := make(map[string]string)
	if a := authorField(doc.Authors); a != "" {
		fields["author"] = a
	}
	if doc.Title != "" {
		fields["title"] = doc.Title
	}
	if doc.Year != nil {
		fields["year"] = strconv.Itoa(*doc.Year)
	}
	if doc.DOI != "" {
		fields["doi"] = doc.DOI
	}
	fields["note"] = "Local PDF"
	if doc.FileName != "" {
		fields["note"] = "Local PDF: " + doc.FileName
	}
	if doc.FilePath != "" {
		fields["file"] = doc.FilePath
	}
	if entryType == reference.Misc {
		fields["howpublished"] = "PDF"
	}

	return reference.Citation{
		FilePath:  doc.FilePath,
		FileName:  doc.FileName,
		Title:     doc.Title,
		Authors:   doc.Authors,
		Year:      doc.Year,
		EntryType: entryType,
		Key:       key,
		BibTeX:    Format(entryType, key, fields),
		Fields:    fields,
	}
}

// MakeCitations synthesizes records for a batch in order. Keys are unique
// across the returned slice.
func MakeCitations(docs []reference.Document) []reference.Citation {
	reg := NewKeyRegistry()
	out := make([]reference.Citation, 0, len(docs))
	for _, doc := range docs {
		out = append(out, MakeCitation(doc, reg))
	}
	return out
}

// BibFile joins rendered entries into the contents of a .bib file.
func BibFile(citations []reference.Citation) string {
	if len(citations) == 0 {
		return ""
	}
	entries := make([]string, 0, len(citations))
	for _, c := range citations {
		entries = append(entries, c.BibTeX)
	}
	return strings.Join(entries, "\n\n") + "\n"
}
