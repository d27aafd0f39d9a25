// Package pipeline turns PDFs into bibliographic records: it asks the
// structured extraction service for a header, cross-checks it against the
// raw first-page text, and merges the two per field.
package pipeline

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/matsen/bibscan/internal/extract"
	"github.com/matsen/bibscan/internal/grobid"
	"github.com/matsen/bibscan/internal/pdf"
	"github.com/matsen/bibscan/internal/reference"
	"github.com/matsen/bibscan/internal/tei"
)

// Page counts read for the text fallbacks.
const (
	YearPages  = 2
	TitlePages = 1
)

// TimestampFormat is the layout of generated_at fields.
const TimestampFormat = "2006-01-02T15:04:05"

// HeaderSource returns the TEI header of a PDF.
type HeaderSource interface {
	ProcessHeader(ctx context.Context, pdfPath string) (string, error)
}

// Parser extracts metadata from PDFs.
type Parser struct {
	Headers HeaderSource
	Text    pdf.LineSource
	Logger  *zap.Logger
	Workers int // documents parsed concurrently; <= 1 means sequential
	Now     func() time.Time
}

// NewParser creates a parser with the default text source.
func NewParser(headers HeaderSource, logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{
		Headers: headers,
		Text:    pdf.FileText{},
		Logger:  logger,
		Workers: 1,
		Now:     time.Now,
	}
}

// ParseDocument extracts and merges the metadata of one PDF. A failure of
// the structured service is reported in the result, never returned, so the
// caller can carry on with the next document.
func (p *Parser) ParseDocument(ctx context.Context, path string) (res reference.Result) {
	res.Document = reference.Document{
		FilePath: path,
		FileName: filepath.Base(path),
		Authors:  []string{},
	}
	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("%v", r)
			res.ErrKind = "Panic"
		}
	}()

	raw, err := p.Headers.ProcessHeader(ctx, path)
	if err != nil {
		res.Err, res.ErrKind = err, grobid.Kind(err)
		return res
	}
	header, err := tei.ParseHeader(raw)
	if err != nil {
		res.Err, res.ErrKind = err, "ParseError"
		return res
	}

	leading := p.Text.TextLines(path, YearPages)
	firstPage := p.Text.TextLines(path, TitlePages)

	merged := Merge(header, p.fallbacks(header, leading, firstPage))
	res.Document.Title = merged.Title
	res.Document.Authors = merged.Authors
	res.Document.Year = merged.Year
	res.Document.DOI = pdf.FindDOI(leading)
	return res
}

// fallbacks derives text-based candidates. The year is only searched for
// when the header has none, since it can never override a structured year.
func (p *Parser) fallbacks(h tei.Header, leading, firstPage []string) Candidates {
	var fb Candidates
	if h.Year == nil {
		if y, ok := extract.FallbackYear(leading); ok {
			fb.Year = &y
		}
	}
	if t, ok := extract.ExtractTitle(firstPage); ok {
		fb.Title = t
	}
	if a, ok := extract.ExtractAuthors(firstPage); ok {
		fb.Authors = a
	}
	return fb
}

// FindPDFs returns every .pdf file below root, sorted by path.
func FindPDFs(root string) ([]string, error) {
	var pdfs []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(d.Name()), ".pdf") {
			pdfs = append(pdfs, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	sort.Strings(pdfs)
	return pdfs, nil
}

// ProcessRoot parses every PDF below root. Records keep sorted-path order
// regardless of how many workers run.
func (p *Parser) ProcessRoot(ctx context.Context, root string) (reference.Batch, error) {
	paths, err := FindPDFs(root)
	if err != nil {
		return reference.Batch{}, err
	}

	records := make([]reference.Document, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(p.Workers, 1))
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			res := p.ParseDocument(gctx, path)
			if res.Err != nil {
				p.Logger.Warn("document failed",
					zap.String("path", path),
					zap.String("kind", res.ErrKind),
					zap.Error(res.Err))
			} else {
				p.Logger.Debug("document parsed",
					zap.String("path", path),
					zap.String("title", res.Document.Title),
					zap.Int("authors", len(res.Document.Authors)))
			}
			records[i] = res.Record()
			return nil
		})
	}
	// Workers never return errors; failures live in the records.
	_ = g.Wait()

	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	return reference.Batch{
		RunID:       uuid.NewString(),
		RootPath:    root,
		GeneratedAt: now().Format(TimestampFormat),
		PDFCount:    len(paths),
		PDFs:        records,
	}, nil
}
