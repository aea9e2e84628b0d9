package service

import (
	"errors"
	"fmt"
)

// ErrNotFound is matched by every error that reports a missing referent
var ErrNotFound = errors.New("not found")

// ErrPersistence marks failures of the underlying store
var ErrPersistence = errors.New("persistence failure")

// ReferentialError reports an unknown article or an unusable parent comment
type ReferentialError struct {
	Field   string
	Message string
}

func (e *ReferentialError) Error() string {
	return e.Message
}

func (e *ReferentialError) Unwrap() error {
	return ErrNotFound
}

func persistenceError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}
