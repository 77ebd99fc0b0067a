package core

import (
	"fmt"

	"github.com/pkg/errors"
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// NotFoundError is returned when a lookup yields nothing.
// Domain packages declare their own values so callers can compare them with errors.Cause.
type NotFoundError struct {
	message string
}

func NewNotFoundError(msg string) *NotFoundError {
	return &NotFoundError{message: msg}
}

func (err NotFoundError) Error() string {
	return err.message
}

func IsNotFound(err error) bool {
	_, ok := errors.Cause(err).(*NotFoundError)
	return ok
}

type ConstraintKind string

const (
	ConstraintUnique     ConstraintKind = "unique"
	ConstraintForeignKey ConstraintKind = "foreign_key"
)

// ConstraintError is returned when the store rejects a write because of a schema constraint.
type ConstraintError struct {
	Kind  ConstraintKind
	Field string // optional
	Err   error
}

func (err ConstraintError) Error() string {
	return fmt.Sprintf("%s constraint violated: %v", err.Kind, err.Err)
}

// IsConstraint reports whether err was caused by a ConstraintError of any of the given kinds (any kind if none).
func IsConstraint(err error, kinds ...ConstraintKind) bool {
	cErr, ok := errors.Cause(err).(*ConstraintError)
	if !ok {
		return false
	}
	if len(kinds) == 0 {
		return true
	}
	for _, kind := range kinds {
		if cErr.Kind == kind {
			return true
		}
	}
	return false
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
