// Package apperr defines the error taxonomy shared between the data-access
// layer and the HTTP handlers. Backend causes stay server-side: handlers log
// them and answer with a generic message.
package apperr

import (
	"errors"
	"fmt"
)

// ErrNotFound reports that a file id did not resolve in the document store.
var ErrNotFound = errors.New("not found")

// ValidationError carries a user-facing message. It is the only error type
// whose text is echoed to the client verbatim.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func Validation(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// StorageError wraps a failed call against the document store backend.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("storage: %s: %v", e.Op, e.Err) }

func (e *StorageError) Unwrap() error { return e.Err }

func Storage(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

// Status maps a taxonomy error to its HTTP status code.
func Status(err error) int {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		return 400
	case errors.Is(err, ErrNotFound):
		return 404
	default:
		return 500
	}
}
