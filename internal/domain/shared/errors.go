// Package shared contains common domain types, errors, and value objects
// that are used across all analytics domain packages. This package has zero
// external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")

	// Validation errors: the caller sent missing or malformed input and can
	// correct the request. Never retried.
	ErrValidation      = errors.New("validation error")
	ErrMissingField    = errors.New("required field missing")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrNegativeValue   = errors.New("value cannot be negative")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrUnknownCategory = errors.New("unknown activity category")
	ErrUnknownSkill    = errors.New("unknown skill level")

	// Computation errors: an unexpected fault inside feature extraction or
	// scoring. Always wraps the underlying cause.
	ErrComputation = errors.New("computation error")

	// Model artifact errors
	ErrModelNotReady  = errors.New("model artifact not ready")
	ErrModelCorrupted = errors.New("model artifact corrupted")

	// Infrastructure errors
	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "risk", "forecast", "recommend", "cluster"
	Op      string // Operation that failed, e.g., "Score", "Forecast"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// NewValidationError creates a caller-correctable validation error naming the
// offending field.
func NewValidationError(domain, op, field string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    ErrValidation,
		Message: fmt.Sprintf("%s is required", field),
	}
}

// NewComputationError wraps an unexpected engine fault. The cause is never
// swallowed; it travels with the error for logging at the transport boundary.
func NewComputationError(domain, op string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    ErrComputation,
		Message: "unexpected fault during scoring",
		Err:     err,
	}
}

// Risk engine errors
var (
	ErrSnapshotRequired = NewDomainError("risk", "Score", ErrValidation, "student_data is required")
)

// Forecast engine errors
var (
	ErrRecordsRequired = NewDomainError("forecast", "Forecast", ErrValidation, "performance_data is required")
)

// Recommender errors
var (
	ErrStudentIDRequired = NewDomainError("recommend", "Recommend", ErrValidation, "student_id is required")
)

// Clusterer errors
var (
	ErrCohortRequired = NewDomainError("cluster", "Cluster", ErrValidation, "student_data is required and must not be empty")
)

// Metrics repository errors
var (
	ErrEnrollmentNotFound = NewDomainError("metrics", "Find", ErrNotFound, "no active enrollment found")
	ErrStudentNotFound    = NewDomainError("metrics", "Find", ErrNotFound, "student not found")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrMissingField) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrNegativeValue) ||
		errors.Is(err, ErrValueOutOfRange) ||
		errors.Is(err, ErrUnknownCategory) ||
		errors.Is(err, ErrUnknownSkill)
}

// IsComputation checks if the error is an engine computation fault.
func IsComputation(err error) bool {
	return errors.Is(err, ErrComputation)
}

// IsExternalService checks if the error is from an external service.
func IsExternalService(err error) bool {
	return errors.Is(err, ErrExternalService) ||
		errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout)
}
