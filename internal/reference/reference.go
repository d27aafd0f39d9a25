// Package reference defines the core domain types: the metadata extracted
// from one PDF and the citation records synthesized from it.
package reference

import "fmt"

// Document is the metadata extracted from one source PDF.
type Document struct {
	FilePath string   `json:"file_path"`
	FileName string   `json:"file_name"`
	Title    string   `json:"title"`
	Authors  []string `json:"authors"`       // extraction order, no case-insensitive repeats
	Year     *int     `json:"year"`          // nil when no plausible year was found
	DOI      string   `json:"doi,omitempty"` // first DOI printed on the opening pages
	Error    string   `json:"error,omitempty"`
}

// Batch is the parsed output for one root directory.
type Batch struct {
	RunID       string     `json:"run_id,omitempty"`
	RootPath    string     `json:"root_path"`
	GeneratedAt string     `json:"generated_at"`
	PDFCount    int        `json:"pdf_count"`
	PDFs        []Document `json:"pdfs"`
}

// Result is the outcome of processing one document. Err is set when a
// collaborator failed; Document still holds whatever was extracted before.
type Result struct {
	Document Document
	Err      error
	ErrKind  string // short failure class, e.g. "NetworkError"
}

// Record returns the persisted form of the result, with any failure folded
// into the document's error field.
func (r Result) Record() Document {
	doc := r.Document
	if doc.Authors == nil {
		doc.Authors = []string{}
	}
	if r.Err != nil {
		kind := r.ErrKind
		if kind == "" {
			kind = "Error"
		}
		doc.Error = fmt.Sprintf("%s: %v", kind, r.Err)
	}
	return doc
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}
