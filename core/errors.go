package core

import (
	"errors"
	"fmt"
)

// ErrCollaboratorUnavailable is matched (errors.Is) by every CollaboratorError.
var ErrCollaboratorUnavailable = errors.New("collaborator unavailable")

// ErrRoutingAmbiguity reports a trigger table without a default agent set.
var ErrRoutingAmbiguity = errors.New("routing ambiguity: no default agent set")

// ErrNamespaceViolation reports an agent returning output for a foreign namespace.
var ErrNamespaceViolation = errors.New("namespace violation")

// ValidationError describes malformed input detected before any outbound call.
type ValidationError struct {
	Table      string `json:"table,omitempty"` // Table the record targets (empty for request input)
	Field      string `json:"field"`           // Field that failed validation
	Constraint string `json:"constraint"`      // Expected constraint, e.g. "required" or "one of [a b]"
	Value      any    `json:"value,omitempty"` // Offending value, if any
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("validation error for %s.%s: %s", e.Table, e.Field, e.Constraint)
	}
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Constraint)
}

// IsValidation reports whether err wraps a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// CollaboratorError wraps a failed call to an external collaborator
// (scraper, persistence sink, model provider).
type CollaboratorError struct {
	Collaborator string
	Op           string
	Err          error
}

// NewCollaboratorError wraps err for the named collaborator operation.
func NewCollaboratorError(collaborator, op string, err error) *CollaboratorError {
	return &CollaboratorError{Collaborator: collaborator, Op: op, Err: err}
}

// Error implements the error interface for CollaboratorError.
func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Collaborator, e.Op, e.Err)
}

// Unwrap exposes the underlying cause.
func (e *CollaboratorError) Unwrap() error { return e.Err }

// Is makes every CollaboratorError match ErrCollaboratorUnavailable.
func (e *CollaboratorError) Is(target error) bool { return target == ErrCollaboratorUnavailable }
