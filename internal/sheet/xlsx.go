package sheet

import (
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/Veraticus/kwtag/internal/common"
	"github.com/Veraticus/kwtag/internal/model"
)

var errNoSheets = errors.New("workbook has no sheets")

func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errNoSheets
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

// WriteTagged writes t as a sheet named sheetName into dst. For workbooks,
// dst is a copy of src with every original sheet kept and any previous sheet
// of the same name replaced. For CSV, dst holds t alone.
func WriteTagged(src, dst, sheetName string, t *model.Table) error {
	format, err := FormatOf(dst)
	if err != nil {
		return err
	}
	if format == FormatCSV {
		return WriteTable(dst, sheetName, t)
	}

	f, err := excelize.OpenFile(src)
	if err != nil {
		return &common.FileError{Path: src, Err: fmt.Errorf("failed to open workbook: %w", err)}
	}
	defer func() { _ = f.Close() }()

	if idx, _ := f.GetSheetIndex(sheetName); idx >= 0 {
		if err := f.DeleteSheet(sheetName); err != nil {
			return &common.FileError{Path: src, Err: err}
		}
	}
	if _, err := f.NewSheet(sheetName); err != nil {
		return &common.FileError{Path: src, Err: err}
	}
	if err := writeRows(f, sheetName, t); err != nil {
		return &common.FileError{Path: dst, Err: err}
	}
	if err := f.SaveAs(dst); err != nil {
		return &common.FileError{Path: dst, Err: fmt.Errorf("failed to save workbook: %w", err)}
	}
	return nil
}

// WriteTable writes t to a new file at path. Workbooks get a single sheet
// named sheetName.
func WriteTable(path, sheetName string, t *model.Table) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	if format == FormatCSV {
		if err := writeCSV(path, t); err != nil {
			return &common.FileError{Path: path, Err: err}
		}
		return nil
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), sheetName); err != nil {
		return &common.FileError{Path: path, Err: err}
	}
	if err := writeRows(f, sheetName, t); err != nil {
		return &common.FileError{Path: path, Err: err}
	}
	if err := f.SaveAs(path); err != nil {
		return &common.FileError{Path: path, Err: fmt.Errorf("failed to save workbook: %w", err)}
	}
	return nil
}

func writeRows(f *excelize.File, sheetName string, t *model.Table) error {
	header := make([]any, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, row := range t.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := cells(t, row)
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}
	return nil
}
