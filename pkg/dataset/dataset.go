package dataset

import (
	"database/sql"
)

// Row is a single record. An invalid sql.NullString is a missing value.
type Row []sql.NullString

// Dataset is an in-memory tabular snapshot.
type Dataset struct {
	Columns []string
	Rows    []Row
}

func New(columns []string, rows ...Row) *Dataset {
	return &Dataset{Columns: columns, Rows: rows}
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Rows)
}

// Empty is true when the dataset has no rows.
func (d *Dataset) Empty() bool {
	return d.Len() == 0
}

// ColumnIndex returns the position of the column or -1.
func (d *Dataset) ColumnIndex(name string) int {
	for i, c := range d.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Values returns the non-missing values of a column in row order.
func (d *Dataset) Values(column string) []string {
	idx := d.ColumnIndex(column)
	if idx < 0 {
		return nil
	}
	values := make([]string, 0, len(d.Rows))
	for _, r := range d.Rows {
		if idx < len(r) && r[idx].Valid {
			values = append(values, r[idx].String)
		}
	}
	return values
}

// Subset returns a dataset holding the rows at the given positions.
// Rows are shared, not copied.
func (d *Dataset) Subset(indices []int) *Dataset {
	rows := make([]Row, 0, len(indices))
	for _, i := range indices {
		rows = append(rows, d.Rows[i])
	}
	return &Dataset{Columns: d.Columns, Rows: rows}
}

// Value builds a present value.
func Value(s string) sql.NullString {
	return sql.NullString{String: s, Valid: true}
}

// Missing is the canonical missing value.
func Missing() sql.NullString {
	return sql.NullString{}
}
