package services

import (
	"errors"
	"fmt"
)

// Sentinel errors for the preview workflow. Handlers map these onto the
// response package's HTTP error taxonomy.
var (
	ErrProjectNotFound = errors.New("project not found")
	ErrVersionNotFound = errors.New("version not found")

	// ErrInvalidLink means a client link failed to decode. Distinct from
	// ErrProjectNotFound: a well-formed link may still point at a deleted
	// project, and user-facing messaging must not conflate the two.
	ErrInvalidLink = errors.New("invalid preview link")
)

// ValidationError reports a missing or malformed required field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

func newValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}
