package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/matsen/bibscan/internal/grobid"
	"github.com/matsen/bibscan/internal/pipeline"
	"github.com/matsen/bibscan/internal/storage"
)

const testTEI = `<TEI xmlns="http://www.tei-c.org/ns/1.0"><teiHeader><fileDesc>
<titleStmt><title>Numerical study of cavitating flow around a hydrofoil</title></titleStmt>
<sourceDesc><biblStruct>
  <analytic><author><persName><forename>Elin</forename><surname>Harvey</surname></persName></author></analytic>
  <monogr><imprint><date when="2019"/></imprint></monogr>
</biblStruct></sourceDesc>
</fileDesc></teiHeader></TEI>`

type stubHeaders map[string]error

func (s stubHeaders) ProcessHeader(_ context.Context, path string) (string, error) {
	if err := s[filepath.Base(path)]; err != nil {
		return "", err
	}
	return testTEI, nil
}

type noText struct{}

func (noText) TextLines(string, int) []string { return nil }

func writePDF(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestParseThenCite(t *testing.T) {
	root := t.TempDir()
	writePDF(t, root, "a.pdf")
	writePDF(t, root, "b.pdf")
	writePDF(t, root, "c.pdf")

	p := pipeline.NewParser(stubHeaders{"b.pdf": grobid.ErrNetworkError}, zap.NewNop())
	p.Text = noText{}

	parsed := parseRoot(context.Background(), p, root, storage.ParsedName, zap.NewNop())
	if parsed.Skipped != "" {
		t.Fatalf("parseRoot() skipped: %s", parsed.Skipped)
	}
	if parsed.Count != 3 || parsed.Failed != 1 {
		t.Errorf("parseRoot() = %+v, want 3 pdfs with 1 failure", parsed)
	}

	opts := citeOptions{ParsedName: storage.ParsedName, OutputName: storage.CitationsName, Bib: true, XLSX: true}
	now := time.Date(2025, 3, 4, 5, 6, 7, 0, time.Local)
	cited, cites := citeRoot(root, opts, now, zap.NewNop())
	if cited.Skipped != "" {
		t.Fatalf("citeRoot() skipped: %s", cited.Skipped)
	}
	if cited.Count != 3 || len(cites) != 3 {
		t.Errorf("citeRoot() count = %d/%d, want 3", cited.Count, len(cites))
	}

	data, err := os.ReadFile(filepath.Join(root, storage.CitationsName))
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		`"source_parsed_json": "parsed_pdfs.json"`,
		`"generated_at": "2025-03-04T05:06:07"`,
		`"bibtex_key": "harvey2019numerical"`,
		`"bibtex_key": "harvey2019numerical2"`,
		`"bibtex_key": "anonnodatework"`,
	} {
		if !strings.Contains(string(data), want) {
			t.Errorf("citations file missing %s", want)
		}
	}

	for _, ext := range []string{".bib", ".xlsx"} {
		if _, err := os.Stat(filepath.Join(root, "bibtex_pdfs"+ext)); err != nil {
			t.Errorf("%s not written: %v", ext, err)
		}
	}
}

func TestParseRoot_NotADirectory(t *testing.T) {
	p := pipeline.NewParser(stubHeaders{}, zap.NewNop())
	res := parseRoot(context.Background(), p, filepath.Join(t.TempDir(), "missing"), storage.ParsedName, zap.NewNop())
	if res.Skipped == "" || res.Output != "" {
		t.Errorf("parseRoot() = %+v, want skipped", res)
	}
}

func TestCiteRoot_Skips(t *testing.T) {
	opts := citeOptions{ParsedName: storage.ParsedName, OutputName: storage.CitationsName}

	missing := t.TempDir()
	if res, _ := citeRoot(missing, opts, time.Now(), zap.NewNop()); !strings.HasPrefix(res.Skipped, "missing parsed file") {
		t.Errorf("citeRoot() missing = %+v", res)
	}

	malformed := t.TempDir()
	if err := os.WriteFile(filepath.Join(malformed, storage.ParsedName), []byte(`{"pdfs": {}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if res, cites := citeRoot(malformed, opts, time.Now(), zap.NewNop()); !strings.HasPrefix(res.Skipped, "bad format") || cites != nil {
		t.Errorf("citeRoot() malformed = %+v", res)
	}
	if _, err := os.Stat(filepath.Join(malformed, storage.CitationsName)); err == nil {
		t.Error("citations written for a malformed batch")
	}
}

func TestRunResponse_Written(t *testing.T) {
	resp := newRunResponse()
	resp.add(RootResult{Root: "/a", Skipped: "not a directory"})
	resp.add(RootResult{Root: "/b", Output: "/b/out.json", Count: 2})
	if resp.Written != 1 || len(resp.Roots) != 2 {
		t.Errorf("RunResponse = %+v", resp)
	}
}

func TestSiblingPath(t *testing.T) {
	if got := siblingPath("/r/bibtex_pdfs.json", ".bib"); got != "/r/bibtex_pdfs.bib" {
		t.Errorf("siblingPath() = %q", got)
	}
}
