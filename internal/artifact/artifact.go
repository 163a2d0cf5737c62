package artifact

import (
	"errors"
	"fmt"
	"os"
)

// Ingestion is produced once by the ingestion stage and consumed by validation.
type Ingestion struct {
	TrainedFilePath string `json:"trained_file_path"`
	TestFilePath    string `json:"test_file_path"`
}

// Verify checks that both files exist and are not empty.
func (a Ingestion) Verify() error {
	var errs []error
	for _, p := range []string{a.TrainedFilePath, a.TestFilePath} {
		if err := checkNonEmptyFile(p); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (a Ingestion) String() string {
	return fmt.Sprintf("train=%s test=%s", a.TrainedFilePath, a.TestFilePath)
}

// Validation is the outcome of the validation stage.
type Validation struct {
	ValidationStatus bool   `json:"validation_status"`
	Message          string `json:"message"`
	DriftReportPath  string `json:"drift_report_path,omitempty"`
}

// PassedValidation builds a successful artifact. The message is informational.
func PassedValidation(message, driftReportPath string) Validation {
	return Validation{ValidationStatus: true, Message: message, DriftReportPath: driftReportPath}
}

// FailedValidation builds a failed artifact. An empty message is replaced so
// that a failure always carries a diagnostic.
func FailedValidation(message, driftReportPath string) Validation {
	if message == "" {
		message = "validation failed without diagnostic"
	}
	return Validation{ValidationStatus: false, Message: message, DriftReportPath: driftReportPath}
}

// Verify enforces that a failed validation carries a message.
func (a Validation) Verify() error {
	if !a.ValidationStatus && a.Message == "" {
		return errors.New("failed validation artifact has no message")
	}
	return nil
}

func checkNonEmptyFile(path string) error {
	if path == "" {
		return errors.New("artifact path is empty")
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("artifact %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("artifact %s is a directory", path)
	}
	if info.Size() == 0 {
		return fmt.Errorf("artifact %s is empty", path)
	}
	return nil
}
