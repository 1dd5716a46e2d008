package models

import "errors"

var (
	ErrValidation   = errors.New("validation failed")
	ErrAuth         = errors.New("invalid username or password")
	ErrAuthRequired = errors.New("authentication required")
	ErrConflict     = errors.New("already exists")
	ErrNotFound     = errors.New("not found")
)

// ValidationError names the offending request field. errors.Is(err,
// ErrValidation) holds for every ValidationError.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
