package validation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fraudguard/fraud-pipeline/pkg/dataset"
	"github.com/thoas/go-funk"
)

// Issue codes
const (
	CodeColumnCountMismatch      = "COLUMN_COUNT_MISMATCH"
	CodeMissingColumn            = "MISSING_COLUMN"
	CodeUnexpectedColumn         = "UNEXPECTED_COLUMN"
	CodeTypeMismatch             = "TYPE_MISMATCH"
	CodeMissingNumericalColumn   = "MISSING_NUMERICAL_COLUMN"
	CodeMissingCategoricalColumn = "MISSING_CATEGORICAL_COLUMN"
	CodeNonNumericColumn         = "NON_NUMERIC_COLUMN"
	CodeDatasetDrift             = "DATASET_DRIFT"
)

// Dataset names used in issues
const (
	DatasetTrain = "train"
	DatasetTest  = "test"
)

// Issue represents a single validation problem.
type Issue struct {
	Code    string // Machine-readable code (e.g., "MISSING_COLUMN")
	Dataset string // train or test
	Column  string // Affected column name (if applicable)
	Message string // Human-readable description
}

// Result collects every issue found; checks never stop at the first one.
type Result struct {
	Issues []Issue
}

func (r Result) IsValid() bool {
	return len(r.Issues) == 0
}

// Message lists the issues one per line, empty when there are none.
func (r Result) Message() string {
	lines := make([]string, 0, len(r.Issues))
	for _, i := range r.Issues {
		lines = append(lines, fmt.Sprintf("[%s] %s", i.Code, i.Message))
	}
	return strings.Join(lines, "\n")
}

func (r *Result) add(code, ds, column, format string, args ...any) {
	r.Issues = append(r.Issues, Issue{
		Code:    code,
		Dataset: ds,
		Column:  column,
		Message: fmt.Sprintf("%s: ", ds) + fmt.Sprintf(format, args...),
	})
}

// CheckSchema compares one dataset with the schema and appends every
// mismatch to the result.
func (r *Result) CheckSchema(s *Schema, name string, ds *dataset.Dataset) {
	if len(ds.Columns) != len(s.Columns) {
		r.add(CodeColumnCountMismatch, name, "", "expected %d columns, found %d", len(s.Columns), len(ds.Columns))
	}

	for _, c := range s.Columns {
		if !funk.ContainsString(ds.Columns, c.Name) {
			r.add(CodeMissingColumn, name, c.Name, "column %s is missing", c.Name)
			continue
		}

		expected, _ := ParseColumnType(c.Type)
		actual, ok := InferType(ds.Values(c.Name))
		if ok && !expected.Accepts(actual) {
			r.add(CodeTypeMismatch, name, c.Name, "column %s expected %s, found %s", c.Name, c.Type, actual)
		}
	}

	for _, col := range ds.Columns {
		if _, ok := s.Column(col); !ok {
			r.add(CodeUnexpectedColumn, name, col, "column %s is not declared in the schema", col)
		}
	}

	for _, col := range s.NumericalColumns {
		if !funk.ContainsString(ds.Columns, col) {
			r.add(CodeMissingNumericalColumn, name, col, "numerical column %s is missing", col)
			continue
		}
		if actual, ok := InferType(ds.Values(col)); ok && actual == TypeObject {
			r.add(CodeNonNumericColumn, name, col, "numerical column %s has non numeric values", col)
		}
	}

	for _, col := range s.CategoricalColumns {
		if !funk.ContainsString(ds.Columns, col) {
			r.add(CodeMissingCategoricalColumn, name, col, "categorical column %s is missing", col)
		}
	}
}

// InferType returns the narrowest type holding every value. It returns false
// when there is no value to infer from.
func InferType(values []string) (ColumnType, bool) {
	if len(values) == 0 {
		return "", false
	}

	t := TypeInteger
	for _, v := range values {
		v = strings.TrimSpace(v)
		if t == TypeInteger {
			if _, err := strconv.ParseInt(v, 10, 64); err == nil {
				continue
			}
			t = TypeFloat
		}
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			return TypeObject, true
		}
	}
	return t, true
}
