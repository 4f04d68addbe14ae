package engine

import (
	"errors"
	"fmt"

	"orderdesk/automation/pkg/rules/validator"
)

// Common sentinel errors
var (
	// ErrInvalidRuleSet indicates the rule set failed structural validation.
	ErrInvalidRuleSet = errors.New("invalid rule set")

	// ErrInvalidConfig indicates invalid engine configuration.
	ErrInvalidConfig = errors.New("invalid engine configuration")
)

// ValidationError is returned by Simulate when the rule set is structurally
// broken. Nothing has been evaluated when it is returned.
type ValidationError struct {
	Version string
	Cause   error
}

// Error returns the error message.
func (e *ValidationError) Error() string {
	if e.Version != "" {
		return fmt.Sprintf("rule set %s: %v", e.Version, e.Cause)
	}
	return e.Cause.Error()
}

// Unwrap returns the underlying cause.
func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// Is reports ErrInvalidRuleSet as a match.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidRuleSet
}

// Problems returns the individual validation failures, if the cause carries
// them.
func (e *ValidationError) Problems() []*validator.Error {
	var list *validator.ErrorList
	if errors.As(e.Cause, &list) {
		return list.Errors
	}
	return nil
}
