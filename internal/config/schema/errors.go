package schema

import (
	"fmt"
	"strings"
)

// ValidationError is a single validation failure at a dot-separated
// document path.
type ValidationError struct {
	Path    string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return e.Path + ": " + e.Message
}

// ValidationErrors collects every failure found in one validation pass.
type ValidationErrors struct {
	Errors []*ValidationError
}

func (e *ValidationErrors) Error() string {
	switch len(e.Errors) {
	case 0:
		return "no validation errors"
	case 1:
		return e.Errors[0].Error()
	}

	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("%d validation errors:\n  - %s", len(e.Errors), strings.Join(msgs, "\n  - "))
}

// Add records a failure at path.
func (e *ValidationErrors) Add(path, message string) {
	e.Errors = append(e.Errors, &ValidationError{Path: path, Message: message})
}

// AddError records an existing failure.
func (e *ValidationErrors) AddError(err *ValidationError) {
	e.Errors = append(e.Errors, err)
}

// Merge appends all failures from another collection.
func (e *ValidationErrors) Merge(other *ValidationErrors) {
	if other == nil {
		return
	}
	e.Errors = append(e.Errors, other.Errors...)
}

// HasErrors reports whether any failure was recorded.
func (e *ValidationErrors) HasErrors() bool {
	return len(e.Errors) > 0
}

// Len returns the number of recorded failures.
func (e *ValidationErrors) Len() int {
	return len(e.Errors)
}

// AsError returns nil when the collection is empty, otherwise itself.
func (e *ValidationErrors) AsError() error {
	if !e.HasErrors() {
		return nil
	}
	return e
}

// Paths returns the distinct failing paths, in report order.
func (e *ValidationErrors) Paths() []string {
	var paths []string
	seen := make(map[string]bool, len(e.Errors))
	for _, err := range e.Errors {
		if !seen[err.Path] {
			paths = append(paths, err.Path)
			seen[err.Path] = true
		}
	}
	return paths
}

// NewTypeError reports a value of the wrong type.
func NewTypeError(path string, expected string, actual any) *ValidationError {
	return &ValidationError{
		Path:    path,
		Message: fmt.Sprintf("expected %s, got %T", expected, actual),
	}
}

// NewEnumError reports a value outside the allowed set.
func NewEnumError(path string, value any, allowed []any) *ValidationError {
	return &ValidationError{
		Path:    path,
		Message: fmt.Sprintf("value %v is not one of allowed values: %v", value, allowed),
	}
}

// NewRangeError reports a number outside its declared bounds.
func NewRangeError(path string, value any, min, max *float64) *ValidationError {
	var bounds string
	switch {
	case min != nil && max != nil:
		bounds = fmt.Sprintf("must be between %v and %v", *min, *max)
	case min != nil:
		bounds = fmt.Sprintf("must be >= %v", *min)
	case max != nil:
		bounds = fmt.Sprintf("must be <= %v", *max)
	default:
		bounds = "is out of range"
	}
	return &ValidationError{
		Path:    path,
		Message: fmt.Sprintf("value %v %s", value, bounds),
	}
}

// NewPatternError reports a string that fails its declared pattern.
func NewPatternError(path string, value, pattern string) *ValidationError {
	return &ValidationError{
		Path:    path,
		Message: fmt.Sprintf("value %q does not match pattern %s", value, pattern),
	}
}

// NewRequiredError reports a missing required field.
func NewRequiredError(path string) *ValidationError {
	return &ValidationError{Path: path, Message: "required field is missing"}
}

// NewUnknownPropertyError reports a property the schema does not declare.
func NewUnknownPropertyError(path string) *ValidationError {
	return &ValidationError{Path: path, Message: "unknown property"}
}
