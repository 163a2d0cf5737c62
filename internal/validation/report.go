package validation

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"sigs.k8s.io/yaml"
)

type DriftReport struct {
	GeneratedAt   time.Time     `json:"generated_at"`
	Reference     string        `json:"reference"`
	Current       string        `json:"current"`
	DriftDetected bool          `json:"drift_detected"`
	Columns       []ColumnDrift `json:"columns"`
}

func NewDriftReport(reference, current string, columns []ColumnDrift) DriftReport {
	r := DriftReport{
		GeneratedAt: time.Now().UTC(),
		Reference:   reference,
		Current:     current,
		Columns:     columns,
	}
	r.DriftDetected = len(r.Drifted()) > 0
	return r
}

// Drifted returns the names of the drifted columns.
func (r DriftReport) Drifted() []string {
	var names []string
	for _, c := range r.Columns {
		if c.Drift {
			names = append(names, c.Column)
		}
	}
	return names
}

// Write stores the report as YAML at path, creating parent directories.
func (r DriftReport) Write(path string) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return errors.Wrap(err, "failed to encode drift report")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrapf(err, "failed to create %s", filepath.Dir(path))
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, "failed to write drift report %s", path)
	}
	return nil
}

func ReadDriftReport(path string) (*DriftReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read drift report %s", path)
	}
	var r DriftReport
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, errors.Wrapf(err, "failed to parse drift report %s", path)
	}
	return &r, nil
}
