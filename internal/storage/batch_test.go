package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matsen/bibscan/internal/reference"
)

func TestWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), ParsedName)
	batch := reference.Batch{
		RootPath:    "/data",
		GeneratedAt: "2025-03-04T05:06:07",
		PDFCount:    1,
		PDFs: []reference.Document{{
			FilePath: "/data/a&b.pdf",
			FileName: "a&b.pdf",
			Title:    "Flows <in> pipes",
			Authors:  []string{"Jörg Schmidt"},
			Year:     reference.IntPtr(2021),
		}},
	}

	if err := WriteJSON(path, batch); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	got := string(data)
	for _, want := range []string{`"file_name": "a&b.pdf"`, `"title": "Flows <in> pipes"`, `"Jörg Schmidt"`, "\n  \"root_path\""} {
		if !strings.Contains(got, want) {
			t.Errorf("WriteJSON() output missing %q:\n%s", want, got)
		}
	}
	if _, err := os.Stat(path + ".tmp"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("temporary file left behind: %v", err)
	}
}

func TestReadBatch_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ParsedName)
	want := reference.Batch{
		RunID:       "run-1",
		RootPath:    "/data",
		GeneratedAt: "2025-03-04T05:06:07",
		PDFCount:    2,
		PDFs: []reference.Document{
			{FilePath: "/data/a.pdf", FileName: "a.pdf", Title: "Flows", Authors: []string{"Elin Harvey"}, Year: reference.IntPtr(2021), DOI: "10.1234/abc"},
			{FilePath: "/data/b.pdf", FileName: "b.pdf", Authors: []string{}, Error: "NetworkError: refused"},
		},
	}
	if err := WriteJSON(path, want); err != nil {
		t.Fatal(err)
	}

	got, err := ReadBatch(path)
	if err != nil {
		t.Fatalf("ReadBatch() error = %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ReadBatch() mismatch (-want +got):\n%s", diff)
	}
}

func TestReadBatch_Lenient(t *testing.T) {
	path := filepath.Join(t.TempDir(), ParsedName)
	content := `{
  "root_path": "/data",
  "pdfs": [
    "not a record",
    {"file_name": "a.pdf", "year": "2021", "authors": ["Elin Harvey", 3]},
    {"file_name": "b.pdf", "year": 2020.5, "authors": "Elin Harvey"},
    {"file_name": "c.pdf", "year": 1999}
  ]
}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := ReadBatch(path)
	if err != nil {
		t.Fatalf("ReadBatch() error = %v", err)
	}
	if got.PDFCount != 3 {
		t.Fatalf("PDFCount = %d, want 3", got.PDFCount)
	}
	if got.PDFs[0].Year != nil {
		t.Errorf("string year read as %d", *got.PDFs[0].Year)
	}
	if diff := cmp.Diff([]string{"Elin Harvey"}, got.PDFs[0].Authors); diff != "" {
		t.Errorf("authors mismatch (-want +got):\n%s", diff)
	}
	if got.PDFs[1].Year != nil || len(got.PDFs[1].Authors) != 0 {
		t.Errorf("b.pdf = %+v, want no year and no authors", got.PDFs[1])
	}
	if got.PDFs[2].Year == nil || *got.PDFs[2].Year != 1999 {
		t.Errorf("c.pdf year = %v, want 1999", got.PDFs[2].Year)
	}
}

func TestReadBatch_NoRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), ParsedName)
	if err := os.WriteFile(path, []byte(`{"root_path": "/data"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := ReadBatch(path)
	if err != nil {
		t.Fatalf("ReadBatch() error = %v", err)
	}
	if got.PDFs == nil || len(got.PDFs) != 0 {
		t.Errorf("PDFs = %v, want empty slice", got.PDFs)
	}
}

func TestReadBatch_Errors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		want    error
	}{
		{"missing", "", ErrMissingBatch},
		{"not json", "{", ErrMalformedBatch},
		{"list", `[]`, ErrMalformedBatch},
		{"pdfs not a list", `{"pdfs": {"a": 1}}`, ErrMalformedBatch},
		{"bad count", `{"pdf_count": "two", "pdfs": []}`, ErrMalformedBatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".json")
			if tt.content != "" {
				if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
					t.Fatal(err)
				}
			}
			_, err := ReadBatch(path)
			if !errors.Is(err, tt.want) {
				t.Errorf("ReadBatch() error = %v, want %v", err, tt.want)
			}
		})
	}
}
