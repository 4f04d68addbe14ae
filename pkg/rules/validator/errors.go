package validator

import (
	"fmt"
	"strings"
)

// ErrorType categorizes a validation error.
type ErrorType string

const (
	ErrorTypeStructural ErrorType = "structural" // Missing or malformed field
	ErrorTypeReference  ErrorType = "reference"  // Unknown or inconsistent ID
	ErrorTypeLimit      ErrorType = "limit"      // Configured size limit exceeded
)

// Error is a single validation failure.
type Error struct {
	Type       ErrorType
	Path       string // e.g. "rule high-value/condition c2"
	Message    string
	Suggestion string
}

// Error implements the error interface.
func (e *Error) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] ", e.Type)
	if e.Path != "" {
		sb.WriteString(e.Path)
		sb.WriteString(": ")
	}
	sb.WriteString(e.Message)
	if e.Suggestion != "" {
		fmt.Fprintf(&sb, " (%s)", e.Suggestion)
	}
	return sb.String()
}

// ErrorList accumulates validation errors instead of failing on the first.
type ErrorList struct {
	Errors []*Error
}

// NewErrorList creates an empty error list.
func NewErrorList() *ErrorList {
	return &ErrorList{Errors: make([]*Error, 0)}
}

// Add appends an error.
func (el *ErrorList) Add(err *Error) {
	el.Errors = append(el.Errors, err)
}

// AddError creates and appends an error.
func (el *ErrorList) AddError(errType ErrorType, path, message string) {
	el.Add(&Error{Type: errType, Path: path, Message: message})
}

// AddErrorWithSuggestion creates and appends an error with a suggested fix.
func (el *ErrorList) AddErrorWithSuggestion(errType ErrorType, path, message, suggestion string) {
	el.Add(&Error{Type: errType, Path: path, Message: message, Suggestion: suggestion})
}

// HasErrors returns true if the list is non-empty.
func (el *ErrorList) HasErrors() bool {
	return len(el.Errors) > 0
}

// Count returns the number of errors.
func (el *ErrorList) Count() int {
	return len(el.Errors)
}

// Error implements the error interface, one error per line.
func (el *ErrorList) Error() string {
	if !el.HasErrors() {
		return ""
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "rule set has %d error(s):", el.Count())
	for _, err := range el.Errors {
		sb.WriteString("\n  ")
		sb.WriteString(err.Error())
	}
	return sb.String()
}

// ToError returns nil for an empty list and the list itself otherwise.
func (el *ErrorList) ToError() error {
	if !el.HasErrors() {
		return nil
	}
	return el
}

// ByType returns the errors of the given type.
func (el *ErrorList) ByType(errType ErrorType) []*Error {
	var result []*Error
	for _, err := range el.Errors {
		if err.Type == errType {
			result = append(result, err)
		}
	}
	return result
}

// HasErrorType returns true if at least one error has the given type.
func (el *ErrorList) HasErrorType(errType ErrorType) bool {
	for _, err := range el.Errors {
		if err.Type == errType {
			return true
		}
	}
	return false
}
