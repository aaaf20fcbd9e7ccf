// Package errors provides custom error types for pricing failures.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrInvalidProbability = errors.New("probability must lie in the open interval (0, 1)")
	ErrUnknownOptionKind  = errors.New("unknown option kind")
	ErrUnknownBarrierKind = errors.New("unknown barrier kind")
	ErrMissingCostOfCarry = errors.New("cost of carry cannot be determined")
	ErrInvalidParameter   = errors.New("invalid parameter")
	ErrConfigInvalid      = errors.New("invalid configuration")
	ErrDatabaseError      = errors.New("database error")
)

// ValidationError represents a rejected input value.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

// Unwrap lets errors.Is match ErrInvalidParameter.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidParameter
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// PricingError represents a failure of one pricing method.
type PricingError struct {
	Method string
	Err    error
}

func (e *PricingError) Error() string {
	return fmt.Sprintf("pricing error [%s]: %v", e.Method, e.Err)
}

func (e *PricingError) Unwrap() error {
	return e.Err
}

// NewPricingError creates a new PricingError.
func NewPricingError(method string, err error) *PricingError {
	return &PricingError{
		Method: method,
		Err:    err,
	}
}

// DataError represents a persistence failure.
type DataError struct {
	Operation string
	Message   string
	Err       error
}

func (e *DataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("data error [%s]: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("data error [%s]: %s", e.Operation, e.Message)
}

func (e *DataError) Unwrap() error {
	if e.Err == nil {
		return ErrDatabaseError
	}
	return e.Err
}

// NewDataError creates a new DataError.
func NewDataError(operation, message string, err error) *DataError {
	return &DataError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
