package triggers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Static error variables for linter compliance.
var (
	// ErrMissingCallback is returned by Subscribe when no callback is given.
	ErrMissingCallback = errors.New("subscribe requires a callback")

	// ErrTransportUnavailable is returned when the realtime channel for a
	// client identity could not be established.
	ErrTransportUnavailable = errors.New("realtime transport unavailable")

	ErrInvalidRequest    = errors.New("invalid request")
	ErrMissingInstanceID = errors.New("trigger instance ID is required")
)

// ValidationError reports malformed caller input, detected before any
// network call. Fields carries the offending field paths.
type ValidationError struct {
	Op     string
	Fields []string
	Err    error
}

func (e *ValidationError) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("%s: %v: fields [%s]", e.Op, e.Err, strings.Join(e.Fields, ", "))
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError builds a ValidationError from a validator result,
// collecting the namespaced field paths that failed.
func NewValidationError(op string, err error) *ValidationError {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return &ValidationError{Op: op, Err: err}
	}

	fields := make([]string, 0, len(validationErrors))
	for _, fieldError := range validationErrors {
		fields = append(fields, fieldError.Namespace())
	}

	return &ValidationError{Op: op, Fields: fields, Err: ErrInvalidRequest}
}

// IsValidationError checks if an error originates from caller input
// validation.
func IsValidationError(err error) bool {
	var validationError *ValidationError

	return errors.As(err, &validationError)
}

// IsTransportUnavailable checks if an error means the realtime channel could
// not be established.
func IsTransportUnavailable(err error) bool {
	return errors.Is(err, ErrTransportUnavailable)
}
