package pdf

import (
	"path/filepath"
	"testing"
)

func TestFindDOI(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  string
	}{
		{"plain", []string{"Title", "doi: 10.1038/nature12373."}, "10.1038/nature12373"},
		{"url", []string{"https://doi.org/10.1016/j.cell.2020.01.001"}, "10.1016/j.cell.2020.01.001"},
		{"in parens", []string{"(10.1145/3290605.3300233)"}, "10.1145/3290605.3300233"},
		{"none", []string{"No identifier here", "10.12/short"}, ""},
		{"first wins", []string{"10.1000/first1", "10.1000/second"}, "10.1000/first1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FindDOI(tt.lines); got != tt.want {
				t.Errorf("FindDOI(%q) = %q, want %q", tt.lines, got, tt.want)
			}
		})
	}
}

func TestFileText_MissingFile(t *testing.T) {
	if got := (FileText{}).TextLines(filepath.Join(t.TempDir(), "missing.pdf"), 1); got != nil {
		t.Errorf("TextLines() = %q, want nil", got)
	}
}
