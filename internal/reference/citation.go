package reference

// EntryType is a BibTeX entry type.
type EntryType string

// Entry types produced by the synthesizer.
const (
	Article       EntryType = "article"
	InProceedings EntryType = "inproceedings"
	TechReport    EntryType = "techreport"
	PhDThesis     EntryType = "phdthesis"
	MastersThesis EntryType = "mastersthesis"
	Misc          EntryType = "misc"
)

// Citation is a BibTeX record derived from a Document.
type Citation struct {
	FilePath  string            `json:"file_path"`
	FileName  string            `json:"file_name"`
	Title     string            `json:"title"`
	Authors   []string          `json:"authors"`
	Year      *int              `json:"year"`
	EntryType EntryType         `json:"bibtex_type"`
	Key       string            `json:"bibtex_key"`
	BibTeX    string            `json:"bibtex"`
	Fields    map[string]string `json:"-"` // non-empty values only
}

// CitationBatch is the BibTeX output for one root directory.
type CitationBatch struct {
	RootPath         string     `json:"root_path"`
	SourceParsedJSON string     `json:"source_parsed_json"`
	GeneratedAt      string     `json:"generated_at"`
	Count            int        `json:"bibtex_count"`
	Entries          []Citation `json:"entries"`
}
