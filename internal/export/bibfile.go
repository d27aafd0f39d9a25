package export

import (
	"bufio"
	"errors"
	"io/fs"
	"os"
	"regexp"
	"strings"

	"github.com/matsen/bibscan/internal/reference"
)

// BibIndex records the keys and DOIs already present in a .bib file.
type BibIndex struct {
	Keys map[string]bool
	DOIs map[string]string // normalized DOI -> key
}

// NewBibIndex creates an empty index.
func NewBibIndex() *BibIndex {
	return &BibIndex{
		Keys: make(map[string]bool),
		DOIs: make(map[string]string),
	}
}

// Has reports whether c is already in the file. A DOI match wins; the key
// is only compared when c has no DOI.
func (idx *BibIndex) Has(c reference.Citation) bool {
	if doi := c.Fields["doi"]; doi != "" {
		if _, ok := idx.DOIs[normalizeDOI(doi)]; ok {
			return true
		}
	}
	return idx.Keys[c.Key]
}

func (idx *BibIndex) add(c reference.Citation) {
	idx.Keys[c.Key] = true
	if doi := c.Fields["doi"]; doi != "" {
		idx.DOIs[normalizeDOI(doi)] = c.Key
	}
}

var (
	entryStart = regexp.MustCompile(`@\w+\{([^,]+),`)
	doiField   = regexp.MustCompile(`(?i)^\s*doi\s*=\s*[\{"]([^\}"]+)[\}"]`)
)

// ReadBibIndex indexes an existing .bib file. A missing file yields an
// empty index.
func ReadBibIndex(path string) (*BibIndex, error) {
	idx := NewBibIndex()

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return idx, nil
		}
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	var key string
	for scanner.Scan() {
		line := scanner.Text()
		if m := entryStart.FindStringSubmatch(line); m != nil {
			key = strings.TrimSpace(m[1])
			idx.Keys[key] = true
		}
		if m := doiField.FindStringSubmatch(line); m != nil && key != "" {
			if doi := normalizeDOI(m[1]); doi != "" {
				idx.DOIs[doi] = key
			}
		}
	}
	return idx, scanner.Err()
}

func normalizeDOI(doi string) string {
	doi = strings.TrimSpace(doi)
	for _, prefix := range []string{"https://doi.org/", "http://doi.org/", "doi.org/", "DOI:", "doi:"} {
		doi = strings.TrimPrefix(doi, prefix)
	}
	return strings.ToLower(doi)
}

// AppendBibFile appends the citations not yet present in the .bib file at
// path, creating it if needed, and returns how many were written.
func AppendBibFile(path string, citations []reference.Citation) (int, error) {
	idx, err := ReadBibIndex(path)
	if err != nil {
		return 0, err
	}

	var fresh []reference.Citation
	for _, c := range citations {
		if idx.Has(c) {
			continue
		}
		idx.add(c)
		fresh = append(fresh, c)
	}
	if len(fresh) == 0 {
		return 0, nil
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0o644)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	if _, err := f.WriteString("\n" + BibFile(fresh)); err != nil {
		return 0, err
	}
	return len(fresh), nil
}
