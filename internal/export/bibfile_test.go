package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matsen/bibscan/internal/reference"
)

func TestReadBibIndex_Missing(t *testing.T) {
	idx, err := ReadBibIndex(filepath.Join(t.TempDir(), "none.bib"))
	if err != nil {
		t.Fatalf("ReadBibIndex() error = %v", err)
	}
	if len(idx.Keys) != 0 || len(idx.DOIs) != 0 {
		t.Errorf("ReadBibIndex() = %+v, want empty", idx)
	}
}

func TestReadBibIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "refs.bib")
	content := "@article{smith2020flow,\n  title = {Flow},\n  doi = {https://doi.org/10.1234/ABC}\n}\n\n@misc{other,\n}\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	idx, err := ReadBibIndex(path)
	if err != nil {
		t.Fatalf("ReadBibIndex() error = %v", err)
	}
	if !idx.Keys["smith2020flow"] || !idx.Keys["other"] {
		t.Errorf("Keys = %v", idx.Keys)
	}
	if idx.DOIs["10.1234/abc"] != "smith2020flow" {
		t.Errorf("DOIs = %v", idx.DOIs)
	}
}

func TestAppendBibFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "refs.bib")
	reg := NewKeyRegistry()
	cites := []reference.Citation{
		MakeCitation(reference.Document{Title: "Flows", Authors: []string{"Elin Harvey"}}, reg),
		MakeCitation(reference.Document{Title: "Meshes", Authors: []string{"Elin Harvey"}, DOI: "10.1234/xyz"}, reg),
	}

	n, err := AppendBibFile(path, cites)
	if err != nil {
		t.Fatalf("AppendBibFile() error = %v", err)
	}
	if n != 2 {
		t.Errorf("AppendBibFile() wrote %d, want 2", n)
	}

	// Same keys again, and a new key that shares a DOI.
	dup := MakeCitation(reference.Document{Title: "Renamed", Authors: []string{"Mary Smith"}, DOI: "10.1234/XYZ"}, reg)
	n, err = AppendBibFile(path, append(cites, dup))
	if err != nil {
		t.Fatalf("AppendBibFile() second call error = %v", err)
	}
	if n != 0 {
		t.Errorf("AppendBibFile() second call wrote %d, want 0", n)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Count(string(data), "@misc{"); got != 2 {
		t.Errorf("file has %d entries, want 2:\n%s", got, data)
	}
}
