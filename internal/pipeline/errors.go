package pipeline

import (
	"errors"
	"fmt"
)

var ErrAlreadyStarted = errors.New("pipeline already started")

// StageError is an infrastructure failure of a stage.
type StageError struct {
	Stage string
	Err   error
}

func NewStageError(stage string, err error) *StageError {
	return &StageError{Stage: stage, Err: err}
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// ErrPipelineFailed means the data did not pass validation.
type ErrPipelineFailed struct {
	error
	Message string
}

func NewErrPipelineFailed(message string) *ErrPipelineFailed {
	return &ErrPipelineFailed{
		error:   fmt.Errorf("pipeline failed validation:\n%s", message),
		Message: message,
	}
}
