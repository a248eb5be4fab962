package store

import "errors"

var (
	// ErrValidation matches every *ValidationError.
	ErrValidation = errors.New("validation failed")

	ErrNotFound     = errors.New("not found")
	ErrNotConfirmed = errors.New("not confirmed")

	// ErrUnsupported is returned by tag operations on a categories store.
	ErrUnsupported = errors.New("not supported by this variant")

	// ErrPersist wraps a failed write. The in-memory mutation is kept and
	// written again on the next successful persist.
	ErrPersist = errors.New("persist failed")

	// ErrCorrupt wraps stored data that is not valid JSON.
	ErrCorrupt = errors.New("stored data is corrupt")
)

// ValidationError reports user input that was rejected
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
