package dataset

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// WriteCSV writes the dataset with a header row to path, creating parent
// directories as needed. An existing file is truncated. Missing values are
// written as empty fields.
func (d *Dataset) WriteCSV(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	return d.writeFile(f, path)
}

type syncWriteCloser interface {
	io.WriteCloser
	Sync() error
}

// writeFile encodes the dataset to f and closes it. The first error wins.
func (d *Dataset) writeFile(f syncWriteCloser, path string) (err error) {
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing %s: %w", path, cerr)
		}
	}()

	w := bufio.NewWriter(f)
	if err := d.Encode(w); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("syncing %s: %w", path, err)
	}
	return nil
}

// Encode writes the dataset as CSV to w.
func (d *Dataset) Encode(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(d.Columns); err != nil {
		return err
	}

	record := make([]string, len(d.Columns))
	for _, r := range d.Rows {
		for i := range record {
			record[i] = ""
			if i < len(r) && r[i].Valid {
				record[i] = r[i].String
			}
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV loads a CSV file whose first row is the header. Empty fields are
// read back as missing values.
func ReadCSV(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	d, err := Decode(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return d, nil
}

// Decode reads a CSV stream whose first record is the header.
func Decode(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("missing header row")
		}
		return nil, err
	}

	d := &Dataset{Columns: append([]string(nil), header...)}
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		row := make(Row, len(rec))
		for i, s := range rec {
			if s == "" {
				row[i] = Missing()
				continue
			}
			row[i] = Value(s)
		}
		d.Rows = append(d.Rows, row)
	}
	return d, nil
}
