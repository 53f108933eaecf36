// Package errors holds the failure taxonomy of a filtering invocation. Every
// failure surfaced to the platform wraps exactly one of the kind sentinels so
// that callers can tell them apart with Is.
package errors

import (
	"errors"
	"fmt"
)

// Failure kinds
var (
	// ErrConfigurationMissing is returned when a required event field is absent.
	ErrConfigurationMissing = errors.New("configuration missing")
	// ErrFetchFailure is returned when the source could not be retrieved.
	ErrFetchFailure = errors.New("fetch failure")
	// ErrStreamFailure is returned when the source stream broke mid-transfer.
	ErrStreamFailure = errors.New("stream failure")
	// ErrDecodeFailure marks a candidate line that is not valid text. It is
	// absorbed by the filter and never surfaces to the platform.
	ErrDecodeFailure = errors.New("decode failure")
	// ErrSinkFailure is returned when writing to the destination failed.
	ErrSinkFailure = errors.New("sink failure")
)

// General errors
var (
	ErrInvalidConfig   = errors.New("invalid configuration")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrUnsupportedURL  = errors.New("unsupported source url")
)

var kinds = []error{
	ErrConfigurationMissing,
	ErrFetchFailure,
	ErrStreamFailure,
	ErrDecodeFailure,
	ErrSinkFailure,
}

// Wrap wraps an error with additional context
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf wraps an error with formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Kind tags err with the failure kind unless it already carries one. The
// original error stays reachable through Is and As.
func Kind(kind, err error) error {
	if err == nil {
		return nil
	}
	if KindOf(err) != nil {
		return err
	}
	return fmt.Errorf("%w: %w", kind, err)
}

// KindOf returns the failure kind carried by err, or nil.
func KindOf(err error) error {
	for _, kind := range kinds {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// New creates a new error with formatted message
func New(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}

// Is checks if an error is of a specific type
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As attempts to extract a specific error type
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Unwrap returns the wrapped error
func Unwrap(err error) error {
	return errors.Unwrap(err)
}

// MultiError represents multiple errors, e.g. one per source of a grep run.
type MultiError struct {
	errors []error
}

// NewMultiError creates a new MultiError
func NewMultiError() *MultiError {
	return &MultiError{
		errors: make([]error, 0),
	}
}

// Add adds an error to the MultiError
func (m *MultiError) Add(err error) {
	if err != nil {
		m.errors = append(m.errors, err)
	}
}

// HasErrors returns true if there are any errors
func (m *MultiError) HasErrors() bool {
	return len(m.errors) > 0
}

// Error implements the error interface
func (m *MultiError) Error() string {
	if len(m.errors) == 0 {
		return ""
	}
	if len(m.errors) == 1 {
		return m.errors[0].Error()
	}
	return fmt.Sprintf("multiple errors occurred: %v", m.errors)
}

// Unwrap exposes all collected errors to errors.Is and errors.As.
func (m *MultiError) Unwrap() []error {
	return m.errors
}

// Errors returns all collected errors
func (m *MultiError) Errors() []error {
	return m.errors
}

// ErrorOrNil returns nil if no errors, otherwise returns the MultiError
func (m *MultiError) ErrorOrNil() error {
	if m.HasErrors() {
		return m
	}
	return nil
}
