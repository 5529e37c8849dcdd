package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Structural errors raised before any processing
	ErrNotFound    = errors.New("resource not found")
	ErrEmptyCohort = fmt.Errorf("%w: no responses in cohort directory", ErrNotFound)

	// Generation errors
	ErrInvalidPhase      = errors.New("invalid cycle phase")
	ErrInvalidParameters = errors.New("invalid cohort parameters")
)

// NewNotFoundError reports a missing resource with its location.
func NewNotFoundError(resource, location string) error {
	return fmt.Errorf("%w: %s at %s", ErrNotFound, resource, location)
}

// NewInvalidPhaseError reports an unrecognized phase label.
func NewInvalidPhaseError(label string) error {
	return fmt.Errorf("%w: %q (want follicular or luteal)", ErrInvalidPhase, label)
}

// NewValidationError reports a structural parameter problem.
func NewValidationError(field, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidParameters, field, reason)
}

// IsNotFoundError checks for missing-resource errors.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}
