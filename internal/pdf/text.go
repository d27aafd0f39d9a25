// Package pdf reads raw text from the first pages of PDF files.
package pdf

import (
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/matsen/bibscan/internal/extract"
)

// LineSource yields normalized text lines for the first pages of a PDF.
// Implementations are best-effort: any failure yields no lines.
type LineSource interface {
	TextLines(path string, pages int) []string
}

// FileText extracts text with github.com/ledongthuc/pdf.
type FileText struct{}

// TextLines returns the non-empty, whitespace-normalized lines of pages
// 1..pages. Unreadable pages are skipped; an unreadable file yields nil.
func (FileText) TextLines(path string, pages int) (lines []string) {
	// The PDF library panics on some malformed streams.
	defer func() {
		if recover() != nil {
			lines = nil
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	if pages <= 0 || pages > r.NumPage() {
		pages = r.NumPage()
	}

	var parts []string
	for i := 1; i <= pages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		parts = append(parts, text)
	}

	return extract.Lines(strings.Join(parts, "\n"))
}
