package core

import "github.com/pkg/errors"

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

// NotFoundError indicates that the requested entity does not exist. 404.
type NotFoundError struct{ message string }

func NewNotFoundError(msg string) error { return &NotFoundError{message: msg} }

func (err NotFoundError) Error() string { return err.message }

// ForbiddenError indicates a role, ownership or membership violation. 403.
type ForbiddenError struct{ message string }

func NewForbiddenError(msg string) error { return &ForbiddenError{message: msg} }

func (err ForbiddenError) Error() string { return err.message }

// ConflictError indicates a duplicate entity or an already-settled request. 409.
type ConflictError struct{ message string }

func NewConflictError(msg string) error { return &ConflictError{message: msg} }

func (err ConflictError) Error() string { return err.message }

// CapacityError indicates a classroom at its maxStudents limit. 400.
type CapacityError struct{ message string }

func NewCapacityError(msg string) error { return &CapacityError{message: msg} }

func (err CapacityError) Error() string { return err.message }

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
