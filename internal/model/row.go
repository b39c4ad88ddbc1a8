package model

import "fmt"

// Row is one record of an input table. Fields are addressed by column name.
type Row struct {
	Fields map[string]any
	Index  int
}

// Value returns the raw value of a column, or nil when absent.
func (r Row) Value(column string) any {
	if r.Fields == nil {
		return nil
	}
	return r.Fields[column]
}

// Table is an in-memory tabular dataset with named columns.
type Table struct {
	Name    string
	Columns []string
	Rows    []Row
}

// NewTable builds a table from a header and positional records. Short
// records leave the trailing columns unset.
func NewTable(name string, columns []string, records [][]any) *Table {
	t := &Table{
		Name:    name,
		Columns: append([]string(nil), columns...),
		Rows:    make([]Row, 0, len(records)),
	}
	for i, rec := range records {
		fields := make(map[string]any, len(columns))
		for c, col := range columns {
			if c < len(rec) {
				fields[col] = rec[c]
			}
		}
		t.Rows = append(t.Rows, Row{Index: i, Fields: fields})
	}
	return t
}

// HasColumn reports whether the table declares the column.
func (t *Table) HasColumn(column string) bool {
	for _, c := range t.Columns {
		if c == column {
			return true
		}
	}
	return false
}

// MissingColumns returns the required columns the table does not declare,
// in the order they were requested.
func (t *Table) MissingColumns(required ...string) []string {
	var missing []string
	for _, col := range required {
		if !t.HasColumn(col) {
			missing = append(missing, col)
		}
	}
	return missing
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// RenameColumn renames the column at a 1-based position and rekeys every
// row. It reports false when the table has no such position. A different
// column already called name is moved aside to "name (position)" so the
// positional column owns the name and no values are overwritten.
func (t *Table) RenameColumn(position int, name string) bool {
	if position < 1 || position > len(t.Columns) {
		return false
	}
	old := t.Columns[position-1]
	if old == name {
		return true
	}
	for i, c := range t.Columns {
		if c == name && i != position-1 {
			t.rekey(i, t.freeName(fmt.Sprintf("%s (%d)", name, i+1)))
		}
	}
	t.rekey(position-1, name)
	return true
}

func (t *Table) rekey(idx int, name string) {
	old := t.Columns[idx]
	t.Columns[idx] = name
	for i := range t.Rows {
		if v, ok := t.Rows[i].Fields[old]; ok {
			delete(t.Rows[i].Fields, old)
			t.Rows[i].Fields[name] = v
		}
	}
}

// freeName returns name, or name with a numeric suffix, such that no column
// uses it.
func (t *Table) freeName(name string) string {
	candidate := name
	for n := 2; t.HasColumn(candidate); n++ {
		candidate = fmt.Sprintf("%s #%d", name, n)
	}
	return candidate
}
