package source

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/agingmap/internal/core"
)

// XLSX reads one worksheet of an Excel workbook. The first non-empty row is
// the header; blank cells are left out of the row. Cell values are read raw,
// so a percentage-formatted 0.15 arrives as "0.15" rather than "15%".
type XLSX struct {
	Sheet string // empty means the first sheet

	open opener
	uri  string
}

// Describe implements core.RowSource.
func (x *XLSX) Describe() string { return "xlsx:" + x.uri }

// Rows implements core.RowSource.
func (x *XLSX) Rows(ctx context.Context) ([]core.RawRow, error) {
	rc, err := x.open(ctx)
	if err != nil {
		return nil, unavailable(x.Describe(), err)
	}
	defer rc.Close()

	f, err := excelize.OpenReader(rc)
	if err != nil {
		return nil, unavailable(x.Describe(), fmt.Errorf("decode rows: %w", err))
	}
	defer f.Close()

	rows, err := x.readSheet(f)
	if err != nil {
		return nil, unavailable(x.Describe(), err)
	}
	return rows, nil
}

func (x *XLSX) readSheet(f *excelize.File) ([]core.RawRow, error) {
	sheet := x.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.New("decode rows: workbook has no sheets")
		}
		sheet = sheets[0]
	}

	grid, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("decode rows: sheet %q: %w", sheet, err)
	}

	start := 0
	for start < len(grid) && isBlankRow(grid[start]) {
		start++
	}
	if start == len(grid) {
		return nil, fmt.Errorf("decode rows: sheet %q has no header row", sheet)
	}
	columns := makeHeader(grid[start])

	rows := make([]core.RawRow, 0, len(grid)-start-1)
	for _, cells := range grid[start+1:] {
		row := make(core.RawRow, len(columns))
		for i, cell := range cells {
			if i >= len(columns) || columns[i] == "" || strings.TrimSpace(cell) == "" {
				continue
			}
			if _, dup := row[columns[i]]; dup {
				continue
			}
			row[columns[i]] = cell
		}
		if len(row) == 0 {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func isBlankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
