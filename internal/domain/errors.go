package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist in the database.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned when an input field is malformed or out of range.
// Wrap it via NewValidationError so the field, offending value, and violated
// rule travel with the error. Handlers should map this to HTTP 422.
var ErrValidation = errors.New("validation error")

// ErrInvalidTransition is returned when a trip operation is attempted from a
// status that does not allow it. Handlers should map this to HTTP 409.
var ErrInvalidTransition = errors.New("invalid transition")

// ErrMissingResource is returned when an operation requires a driver or
// vehicle that has not been assigned to the trip.
var ErrMissingResource = errors.New("missing resource")

// ErrResourceUnavailable is returned when a driver or vehicle is already
// committed to another active trip. Handlers should map this to HTTP 409.
var ErrResourceUnavailable = errors.New("resource unavailable")

// ErrEligibility is returned when a driver's license class does not authorize
// the vehicle's category, or when either resource's documentation is expired.
var ErrEligibility = errors.New("eligibility error")

// ErrComputation is returned when a fare cannot be computed, e.g. because no
// vehicle is assigned to the trip.
var ErrComputation = errors.New("computation error")

// ValidationError carries the field name, the offending value, and the rule
// that was violated. It unwraps to ErrValidation, so callers keep branching
// with errors.Is(err, domain.ErrValidation).
type ValidationError struct {
	Field string
	Value string
	Rule  string
}

// NewValidationError builds a ValidationError for the given field.
func NewValidationError(field, value, rule string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Rule: rule}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: %s %q: %s", ErrValidation, e.Field, e.Value, e.Rule)
}

// Unwrap makes errors.Is(err, ErrValidation) hold for every ValidationError.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
