package ingestion

import (
	"fmt"
)

const StageName = "data_ingestion"

type ErrEmptyResult struct {
	error
}

func NewErrEmptyResult(table string) *ErrEmptyResult {
	return &ErrEmptyResult{fmt.Errorf("table %s returned no rows", table)}
}

// IngestionError wraps the first failure of a run with the step it happened in.
type IngestionError struct {
	Step string
	Err  error
}

func NewIngestionError(step string, err error) *IngestionError {
	return &IngestionError{Step: step, Err: err}
}

func (e *IngestionError) Error() string {
	return fmt.Sprintf("%s: %s: %v", StageName, e.Step, e.Err)
}

func (e *IngestionError) Unwrap() error {
	return e.Err
}
