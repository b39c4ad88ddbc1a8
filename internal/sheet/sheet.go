// Package sheet reads and writes the spreadsheet files the taggers work on.
// Excel workbooks go through excelize; CSV files through encoding/csv.
package sheet

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Veraticus/kwtag/internal/common"
	"github.com/Veraticus/kwtag/internal/model"
)

// Format is a supported file format.
type Format int

// Supported formats.
const (
	FormatXLSX Format = iota
	FormatCSV
)

func (f Format) String() string {
	switch f {
	case FormatCSV:
		return "csv"
	default:
		return "xlsx"
	}
}

// FormatOf picks the format from the file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".csv":
		return FormatCSV, nil
	default:
		return 0, &common.FileError{Path: path, Err: common.ErrUnsupportedFormat}
	}
}

// ReadTable loads the first sheet of a workbook, or a CSV file, treating the
// first row as the header.
func ReadTable(path string) (*model.Table, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	var rows [][]string
	switch format {
	case FormatCSV:
		rows, err = readCSV(path)
	default:
		rows, err = readXLSX(path)
	}
	if err != nil {
		return nil, &common.FileError{Path: path, Err: err}
	}
	if len(rows) == 0 {
		return nil, &common.FileError{Path: path, Err: common.ErrEmptyInput}
	}
	return tableFromRows(tableName(path), rows), nil
}

// ReadReferenceColumns returns the first n columns of a reference file, every
// row included. Blank cells are dropped, so the columns may differ in length.
func ReadReferenceColumns(path string, n int) ([][]string, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	var rows [][]string
	switch format {
	case FormatCSV:
		rows, err = readCSV(path)
	default:
		rows, err = readXLSX(path)
	}
	if err != nil {
		return nil, &common.FileError{Path: path, Err: err}
	}

	cols := make([][]string, n)
	for _, row := range rows {
		for i := 0; i < n && i < len(row); i++ {
			if v := strings.TrimSpace(row[i]); v != "" {
				cols[i] = append(cols[i], v)
			}
		}
	}
	return cols, nil
}

// TaggedPath returns the output path for a processed copy of src:
// <dir>/<name>_tagged<ext>. An empty dir keeps the source directory.
func TaggedPath(dir, src string) string {
	if dir == "" {
		dir = filepath.Dir(src)
	}
	base := filepath.Base(src)
	ext := filepath.Ext(base)
	return filepath.Join(dir, strings.TrimSuffix(base, ext)+"_tagged"+ext)
}

func tableName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// tableFromRows builds a table from a header row and string records. Blank
// headers become "Column N"; repeated headers get a numeric suffix.
func tableFromRows(name string, rows [][]string) *model.Table {
	header := make([]string, 0, len(rows[0]))
	seen := make(map[string]int)
	for i, h := range rows[0] {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("Column %d", i+1)
		}
		if n := seen[h]; n > 0 {
			seen[h]++
			h = fmt.Sprintf("%s.%d", h, n)
		} else {
			seen[h] = 1
		}
		header = append(header, h)
	}
	width := len(header)
	for _, r := range rows[1:] {
		if len(r) > width {
			width = len(r)
		}
	}
	for i := len(header); i < width; i++ {
		header = append(header, fmt.Sprintf("Column %d", i+1))
	}

	records := make([][]any, 0, len(rows)-1)
	for _, r := range rows[1:] {
		rec := make([]any, len(r))
		for i, v := range r {
			rec[i] = v
		}
		records = append(records, rec)
	}
	return model.NewTable(name, header, records)
}

// cells renders a table row in column order.
func cells(t *model.Table, row model.Row) []any {
	out := make([]any, len(t.Columns))
	for i, col := range t.Columns {
		out[i] = row.Value(col)
	}
	return out
}
