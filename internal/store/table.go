package store

import (
	"context"
	"fmt"

	"github.com/fraudguard/fraud-pipeline/pkg/dataset"
	"gorm.io/gorm"
)

// Table reads whole tables from the source database.
type Table interface {
	Scan(ctx context.Context, name string) (*dataset.Dataset, error)
}

type TableStore struct {
	db *gorm.DB
}

// Make sure we conform to Table interface
var _ Table = (*TableStore)(nil)

func NewTableStore(db *gorm.DB) Table {
	return &TableStore{db: db}
}

// Scan runs SELECT * over the table. Every value is read as text; NULLs come
// back as missing values.
func (t *TableStore) Scan(ctx context.Context, name string) (*dataset.Dataset, error) {
	if err := ping(ctx, t.db); err != nil {
		return nil, NewErrSourceUnavailable(t.db.Dialector.Name(), err)
	}

	rows, err := t.db.WithContext(ctx).Table(name).Rows()
	if err != nil {
		return nil, fmt.Errorf("scanning table %s: %w", name, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading columns of %s: %w", name, err)
	}

	ds := dataset.New(columns)
	dest := make([]any, len(columns))
	for rows.Next() {
		row := make(dataset.Row, len(columns))
		for i := range row {
			dest[i] = &row[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("reading row %d of %s: %w", ds.Len()+1, name, err)
		}
		ds.Rows = append(ds.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scanning table %s: %w", name, err)
	}

	return ds, nil
}
