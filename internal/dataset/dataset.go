package dataset

import (
	"errors"
	"fmt"
)

var (
	ErrEmpty          = errors.New("dataset has no rows")
	ErrUnknownColumn  = errors.New("unknown column")
	ErrSchemaMismatch = errors.New("datasets do not share the same columns")
)

// Dataset is an immutable in-memory table of raw cells. Cells are kept as
// strings exactly as they were read; interpretation (categorical code vs
// numeric value) happens in the encoding layer.
type Dataset struct {
	columns []string
	index   map[string]int
	rows    [][]string
}

// New builds a dataset from column names and rows. Every row must have
// exactly one cell per column.
func New(columns []string, rows [][]string) (*Dataset, error) {
	if len(rows) == 0 {
		return nil, ErrEmpty
	}

	index := make(map[string]int, len(columns))
	for i, c := range columns {
		if _, dup := index[c]; dup {
			return nil, fmt.Errorf("duplicate column %q", c)
		}
		index[c] = i
	}

	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("row %d has %d cells, want %d", i, len(row), len(columns))
		}
	}

	return &Dataset{columns: columns, index: index, rows: rows}, nil
}

// Columns returns the column names in table order.
func (d *Dataset) Columns() []string {
	out := make([]string, len(d.columns))
	copy(out, d.columns)
	return out
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	return len(d.rows)
}

// HasColumn reports whether the dataset has the named column.
func (d *Dataset) HasColumn(name string) bool {
	_, ok := d.index[name]
	return ok
}

// Column returns all cells of the named column in row order.
func (d *Dataset) Column(name string) ([]string, error) {
	j, ok := d.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}

	col := make([]string, len(d.rows))
	for i, row := range d.rows {
		col[i] = row[j]
	}
	return col, nil
}

// Select returns a row-subset dataset containing the rows at the given
// indices, in the given order. Indices out of range are an error.
func (d *Dataset) Select(indices []int) (*Dataset, error) {
	rows := make([][]string, len(indices))
	for k, i := range indices {
		if i < 0 || i >= len(d.rows) {
			return nil, fmt.Errorf("row index %d out of range", i)
		}
		rows[k] = d.rows[i]
	}
	return New(d.columns, rows)
}

// Drop returns a dataset without the named column.
func (d *Dataset) Drop(name string) (*Dataset, error) {
	j, ok := d.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}

	columns := make([]string, 0, len(d.columns)-1)
	columns = append(columns, d.columns[:j]...)
	columns = append(columns, d.columns[j+1:]...)

	rows := make([][]string, len(d.rows))
	for i, row := range d.rows {
		out := make([]string, 0, len(row)-1)
		out = append(out, row[:j]...)
		out = append(out, row[j+1:]...)
		rows[i] = out
	}
	return New(columns, rows)
}

// Concat appends the rows of other to d. Both datasets must have identical
// column lists.
func (d *Dataset) Concat(other *Dataset) (*Dataset, error) {
	if len(d.columns) != len(other.columns) {
		return nil, ErrSchemaMismatch
	}
	for i, c := range d.columns {
		if other.columns[i] != c {
			return nil, ErrSchemaMismatch
		}
	}

	rows := make([][]string, 0, len(d.rows)+len(other.rows))
	rows = append(rows, d.rows...)
	rows = append(rows, other.rows...)
	return New(d.columns, rows)
}
