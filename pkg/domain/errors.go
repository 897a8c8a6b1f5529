package domain

import (
	"errors"
	"fmt"
)

// Common domain errors
var (
	// ErrNotFound is returned when a requested resource is not found
	ErrNotFound = errors.New("resource not found")
	// ErrAlreadyExists is returned when trying to create a resource that already exists
	ErrAlreadyExists = errors.New("resource already exists")
	// ErrValidation is returned when input validation fails
	ErrValidation = errors.New("validation error")
	// ErrPluginNotFound is returned when no plugin is registered under an identifier
	ErrPluginNotFound = errors.New("plugin not found")
)

// TaxError reports a failure from an external tax service that must be
// surfaced to the caller, e.g. rejected credentials during order creation.
type TaxError struct {
	Reason string
}

func (e *TaxError) Error() string {
	return fmt.Sprintf("tax error: %s", e.Reason)
}

// NewTaxError creates a TaxError with the given reason.
func NewTaxError(reason string) *TaxError {
	return &TaxError{Reason: reason}
}
