// Package errors provides the error taxonomy shared by the Jet reader packages.
//
// Every typed error unwraps to one of the sentinels below, so callers can
// branch on the failure class with errors.Is while still getting the
// structural detail from errors.As.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for each failure class
var (
	// ErrFormat indicates unrecognized or corrupt on-disk structure
	ErrFormat = errors.New("format error")
	// ErrRange indicates an offset, page, or slot outside structural bounds
	ErrRange = errors.New("out of range")
	// ErrNotImplemented indicates an extension point without an implementation
	ErrNotImplemented = errors.New("not implemented")
	// ErrNotFound indicates a named lookup miss
	ErrNotFound = errors.New("not found")
)

// FormatError reports a structure the reader refuses to interpret.
type FormatError struct {
	Structure string // Structure being parsed (e.g., "page", "usage map", "signature")
	Message   string // Error details
	Err       error  // Underlying error, if any
}

func (e *FormatError) Error() string {
	if e.Structure != "" {
		return fmt.Sprintf("invalid %s: %s", e.Structure, e.Message)
	}
	return fmt.Sprintf("invalid format: %s", e.Message)
}

func (e *FormatError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrFormat
}

// RangeError reports an index that falls outside the buffer or structure it addresses.
type RangeError struct {
	What  string // What was addressed (e.g., "page", "slot")
	Index int64  // Requested index
	Limit int64  // Exclusive upper bound that was violated, or -1 if unknown
}

func (e *RangeError) Error() string {
	if e.Limit >= 0 {
		return fmt.Sprintf("%s %d out of range (limit %d)", e.What, e.Index, e.Limit)
	}
	return fmt.Sprintf("%s %d out of range", e.What, e.Index)
}

func (e *RangeError) Unwrap() error {
	return ErrRange
}

// NotImplementedError reports a declared operation with no implementation behind it.
type NotImplementedError struct {
	Operation string
}

func (e *NotImplementedError) Error() string {
	return fmt.Sprintf("%s: not implemented", e.Operation)
}

func (e *NotImplementedError) Unwrap() error {
	return ErrNotImplemented
}

// NotFoundError represents a lookup miss with context
type NotFoundError struct {
	Resource string // Type of resource (e.g., "column", "table")
	ID       string // Identifier of the resource
	Err      error  // Underlying error, if any
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrNotFound
}

// Helper functions for creating common errors

// NewFormat creates a FormatError
func NewFormat(structure, message string) *FormatError {
	return &FormatError{
		Structure: structure,
		Message:   message,
	}
}

// NewFormatf creates a FormatError with a formatted message
func NewFormatf(structure, format string, args ...interface{}) *FormatError {
	return NewFormat(structure, fmt.Sprintf(format, args...))
}

// NewRange creates a RangeError. Pass limit -1 when the bound is not a single number.
func NewRange(what string, index, limit int64) *RangeError {
	return &RangeError{
		What:  what,
		Index: index,
		Limit: limit,
	}
}

// NewNotImplemented creates a NotImplementedError
func NewNotImplemented(operation string) *NotImplementedError {
	return &NotImplementedError{Operation: operation}
}

// NewNotFound creates a NotFoundError
func NewNotFound(resource, id string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		ID:       id,
	}
}

// Wrap adds context to an error. If err is nil, returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf adds formatted context to an error. If err is nil, returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// Is wraps errors.Is for convenience
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
