// Package errors provides standardized error types for dataset operations.
// This package defines DatasetError for consistent error handling across
// all public APIs, with operation context and error wrapping support.
package errors

import (
	"fmt"
)

// DatasetError represents standardized errors across all dataset operations
type DatasetError struct {
	Op      string // Operation name (e.g., "Map", "Filter", "Iter")
	Column  string // Column name if applicable
	Message string // Human-readable error description
	Cause   error  // Underlying error cause
}

// Error implements the error interface
func (e *DatasetError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s operation failed on column '%s': %s", e.Op, e.Column, e.Message)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Op, e.Message)
}

// Unwrap returns the underlying cause for error wrapping support
func (e *DatasetError) Unwrap() error {
	return e.Cause
}

// Is implements error equality checking for errors.Is()
func (e *DatasetError) Is(target error) bool {
	if de, ok := target.(*DatasetError); ok {
		return e.Op == de.Op && e.Column == de.Column && e.Message == de.Message
	}
	return false
}

// Common error constructors for consistent error creation

// NewColumnNotFoundError creates an error for operations on non-existent columns
func NewColumnNotFoundError(op, column string) *DatasetError {
	return &DatasetError{
		Op:      op,
		Column:  column,
		Message: "column does not exist",
	}
}

// NewInvalidInputError creates an error for invalid operation inputs
func NewInvalidInputError(op, message string) *DatasetError {
	return &DatasetError{
		Op:      op,
		Message: message,
	}
}

// NewUnsupportedTypeError creates an error for unsupported data types
func NewUnsupportedTypeError(op, typeName string) *DatasetError {
	return &DatasetError{
		Op:      op,
		Message: fmt.Sprintf("unsupported type: %s", typeName),
	}
}

// NewSchemaMismatchError creates an error for batches that disagree on schema
func NewSchemaMismatchError(op, message string) *DatasetError {
	return &DatasetError{
		Op:      op,
		Message: fmt.Sprintf("schema mismatch: %s", message),
	}
}

// NewInternalError creates an error for internal operation failures
func NewInternalError(op string, cause error) *DatasetError {
	return &DatasetError{
		Op:      op,
		Message: "internal error occurred",
		Cause:   cause,
	}
}

// Predefined error variables for common cases
var (
	// ErrEmptyDataset indicates operations on empty datasets
	ErrEmptyDataset = &DatasetError{
		Op:      "validation",
		Message: "operation not supported on empty dataset",
	}

	// ErrMismatchedLength indicates length mismatches in operations
	ErrMismatchedLength = &DatasetError{
		Op:      "validation",
		Message: "arrays must have the same length",
	}

	// ErrInvalidIndex indicates out-of-bounds index access
	ErrInvalidIndex = &DatasetError{
		Op:      "indexing",
		Message: "index out of bounds",
	}

	// ErrIteratorClosed indicates access to a closed batch iterator
	ErrIteratorClosed = &DatasetError{
		Op:      "Iter",
		Message: "iterator is closed",
	}
)
