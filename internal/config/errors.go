package config

import (
	"errors"
	"fmt"

	"github.com/dshills/reconfig/internal/config/schema"
)

// Errors returned by reconciliation operations.
var (
	// ErrUnrecoverable indicates no recovery layer produced a valid document.
	ErrUnrecoverable = errors.New("configuration unrecoverable")

	// ErrValidationFailed indicates the document fails schema validation.
	ErrValidationFailed = errors.New("validation failed")
)

// SchemaViolation reports that a document failed structural validation.
// It carries the full list of path-qualified messages.
type SchemaViolation struct {
	// Path is the file the document came from, if any.
	Path string
	// Errors holds every validation failure found in one pass.
	Errors *schema.ValidationErrors
}

// Error implements the error interface.
func (e *SchemaViolation) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("schema violation: %s", e.Errors.Error())
	}
	return fmt.Sprintf("schema violation in %s: %s", e.Path, e.Errors.Error())
}

// Unwrap returns the underlying validation errors.
func (e *SchemaViolation) Unwrap() error {
	return e.Errors
}

// Is implements error matching for SchemaViolation.
func (e *SchemaViolation) Is(target error) bool {
	return target == ErrValidationFailed
}

// IOError reports a file system failure during a reconciliation step.
type IOError struct {
	// Op is the operation that failed (read, copy, write, rename, delete).
	Op string
	// Path is the file involved.
	Path string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *IOError) Unwrap() error {
	return e.Err
}
