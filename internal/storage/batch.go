// Package storage persists batch results as JSON files next to the PDFs
// and caches structured headers in SQLite.
package storage

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/matsen/bibscan/internal/reference"
)

// Default file names written into each root directory.
const (
	ParsedName    = "parsed_pdfs.json"
	CitationsName = "bibtex_pdfs.json"
)

var (
	// ErrMissingBatch is returned when a root has no parsed output yet.
	ErrMissingBatch = errors.New("parsed batch not found")
	// ErrMalformedBatch is returned when a parsed file is not a batch object.
	ErrMalformedBatch = errors.New("malformed parsed batch")
)

//go:embed batch.schema.json
var batchSchemaJSON []byte

var batchSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("batch.schema.json", bytes.NewReader(batchSchemaJSON)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	return compiler.Compile("batch.schema.json")
})

// WriteJSON writes v as indented JSON. The file is replaced atomically so a
// crash never leaves a half-written batch behind.
func WriteJSON(path string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}
	return WriteFile(path, buf.Bytes())
}

// WriteFile writes data to a temporary sibling file and renames it over path.
func WriteFile(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}

// ReadBatch loads a parsed batch. Entries of pdfs that are not objects are
// skipped, and fields of the wrong type read as empty.
func ReadBatch(path string) (reference.Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return reference.Batch{}, fmt.Errorf("%w: %s", ErrMissingBatch, path)
		}
		return reference.Batch{}, fmt.Errorf("reading %s: %w", path, err)
	}

	var raw any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return reference.Batch{}, fmt.Errorf("%w: %s: %v", ErrMalformedBatch, path, err)
	}
	schema, err := batchSchema()
	if err != nil {
		return reference.Batch{}, err
	}
	if err := schema.Validate(raw); err != nil {
		return reference.Batch{}, fmt.Errorf("%w: %s: %v", ErrMalformedBatch, path, err)
	}

	obj := raw.(map[string]any)
	batch := reference.Batch{
		RunID:       str(obj["run_id"]),
		RootPath:    str(obj["root_path"]),
		GeneratedAt: str(obj["generated_at"]),
		PDFs:        []reference.Document{},
	}
	items, _ := obj["pdfs"].([]any)
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			batch.PDFs = append(batch.PDFs, documentFrom(m))
		}
	}
	batch.PDFCount = len(batch.PDFs)
	return batch, nil
}

func documentFrom(m map[string]any) reference.Document {
	doc := reference.Document{
		FilePath: str(m["file_path"]),
		FileName: str(m["file_name"]),
		Title:    str(m["title"]),
		DOI:      str(m["doi"]),
		Error:    str(m["error"]),
		Authors:  []string{},
	}
	if list, ok := m["authors"].([]any); ok {
		for _, a := range list {
			if s, ok := a.(string); ok {
				doc.Authors = append(doc.Authors, s)
			}
		}
	}
	if n, ok := m["year"].(json.Number); ok {
		if y, err := n.Int64(); err == nil {
			doc.Year = reference.IntPtr(int(y))
		}
	}
	return doc
}

func str(v any) string {
	s, _ := v.(string)
	return s
}
