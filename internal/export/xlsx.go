package export

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/matsen/bibscan/internal/reference"
)

// XLSXSheet is the name of the worksheet holding the citations.
const XLSXSheet = "Citations"

var xlsxHeaders = []string{"Key", "Type", "Title", "Authors", "Year", "File"}

var xlsxWidths = []struct {
	col   string
	width float64
}{
	{"A", 24}, {"B", 14}, {"C", 60}, {"D", 40}, {"E", 8}, {"F", 60},
}

// CitationsXLSX returns a workbook listing one citation per row.
func CitationsXLSX(citations []reference.Citation) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), XLSXSheet); err != nil {
		return nil, err
	}

	for i, h := range xlsxHeaders {
		if err := setCell(f, i+1, 1, h); err != nil {
			return nil, err
		}
	}

	for r, c := range citations {
		row := []any{c.Key, string(c.EntryType), c.Title, strings.Join(c.Authors, "; "), nil, c.FilePath}
		if c.Year != nil {
			row[4] = *c.Year
		}
		for col, v := range row {
			if v == nil {
				continue
			}
			if err := setCell(f, col+1, r+2, v); err != nil {
				return nil, err
			}
		}
	}

	for _, w := range xlsxWidths {
		if err := f.SetColWidth(XLSXSheet, w.col, w.col, w.width); err != nil {
			return nil, fmt.Errorf("xlsx column %s: %w", w.col, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func setCell(f *excelize.File, col, row int, v any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("xlsx cell: %w", err)
	}
	if err := f.SetCellValue(XLSXSheet, cell, v); err != nil {
		return fmt.Errorf("xlsx cell %s: %w", cell, err)
	}
	return nil
}
