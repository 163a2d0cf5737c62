package validation

import (
	"github.com/pkg/errors"
)

const StageName = "data_validation"

// ErrValidationInfra reports that validation could not be performed at all.
// A dataset that does not match the schema is not an error.
type ErrValidationInfra struct {
	error
}

func NewErrValidationInfra(err error, reason string) *ErrValidationInfra {
	return &ErrValidationInfra{errors.Wrap(err, reason)}
}

func (e *ErrValidationInfra) Unwrap() error {
	return e.error
}
