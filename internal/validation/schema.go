package validation

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"sigs.k8s.io/yaml"
)

type ColumnType string

const (
	TypeInteger ColumnType = "integer"
	TypeFloat   ColumnType = "float"
	TypeObject  ColumnType = "object"
)

var typeAliases = map[string]ColumnType{
	"int":      TypeInteger,
	"int64":    TypeInteger,
	"integer":  TypeInteger,
	"float":    TypeFloat,
	"float64":  TypeFloat,
	"double":   TypeFloat,
	"number":   TypeFloat,
	"object":   TypeObject,
	"string":   TypeObject,
	"str":      TypeObject,
	"category": TypeObject,
}

// ParseColumnType resolves the type names accepted in schema files.
func ParseColumnType(name string) (ColumnType, bool) {
	t, ok := typeAliases[strings.ToLower(strings.TrimSpace(name))]
	return t, ok
}

// Accepts reports whether a column inferred as actual satisfies t.
func (t ColumnType) Accepts(actual ColumnType) bool {
	switch t {
	case TypeObject:
		return true
	case TypeFloat:
		return actual == TypeFloat || actual == TypeInteger
	default:
		return actual == t
	}
}

type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type Schema struct {
	Columns            []Column `json:"columns"`
	NumericalColumns   []string `json:"numerical_columns"`
	CategoricalColumns []string `json:"categorical_columns"`
}

// LoadSchema reads and checks a schema file.
func LoadSchema(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read schema %s", path)
	}

	var s Schema
	if err := yaml.UnmarshalStrict(data, &s); err != nil {
		return nil, errors.Wrapf(err, "failed to parse schema %s", path)
	}

	if err := s.Validate(); err != nil {
		return nil, errors.Wrapf(err, "malformed schema %s", path)
	}

	return &s, nil
}

// Validate rejects a schema that cannot be checked against: no columns, an
// unnamed or duplicate column, an unknown type, or a numerical or categorical
// column missing from the declared columns.
func (s *Schema) Validate() error {
	if len(s.Columns) == 0 {
		return errors.New("schema declares no columns")
	}

	seen := make(map[string]struct{}, len(s.Columns))
	for i, c := range s.Columns {
		if strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("column %d has no name", i)
		}
		if _, ok := seen[c.Name]; ok {
			return fmt.Errorf("column %s is declared twice", c.Name)
		}
		seen[c.Name] = struct{}{}
		if _, ok := ParseColumnType(c.Type); !ok {
			return fmt.Errorf("column %s has unknown type %q", c.Name, c.Type)
		}
	}

	for _, name := range s.NumericalColumns {
		if _, ok := seen[name]; !ok {
			return fmt.Errorf("numerical column %s is not declared in columns", name)
		}
	}
	for _, name := range s.CategoricalColumns {
		if _, ok := seen[name]; !ok {
			return fmt.Errorf("categorical column %s is not declared in columns", name)
		}
	}

	return nil
}

// Column returns the declared column with the given name.
func (s *Schema) Column(name string) (Column, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}
