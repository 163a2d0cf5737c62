package store

import (
	"errors"
	"fmt"
)

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrDuplicateKey   = errors.New("already exists")
)

type ErrSourceUnavailable struct {
	error
}

func NewErrSourceUnavailable(source string, cause error) *ErrSourceUnavailable {
	return &ErrSourceUnavailable{fmt.Errorf("source database %q unavailable: %w", source, cause)}
}

func (e *ErrSourceUnavailable) Unwrap() error {
	return errors.Unwrap(e.error)
}
