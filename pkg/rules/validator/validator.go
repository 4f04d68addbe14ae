package validator

import (
	"orderdesk/automation/pkg/rules"
)

// Options bounds the size of an accepted rule set. Zero means unlimited.
type Options struct {
	MaxGroups        int
	MaxRulesPerGroup int
}

// Validator runs the structural and reference passes over a rule set.
type Validator struct {
	opts Options
}

// New creates a validator.
func New(opts Options) *Validator {
	return &Validator{opts: opts}
}

// Validate runs every pass and returns an *ErrorList, or nil if the rule set
// is well formed.
func (v *Validator) Validate(set *rules.RuleSet) error {
	list := NewErrorList()
	if set == nil {
		list.AddError(ErrorTypeStructural, "", "rule set is nil")
		return list.ToError()
	}

	for _, g := range set.Groups {
		if g == nil {
			list.AddError(ErrorTypeStructural, "", "group is nil")
			continue
		}
		v.validateGroup(list, g)
	}
	for _, r := range set.Rules {
		if r == nil {
			list.AddError(ErrorTypeStructural, "", "rule is nil")
			continue
		}
		v.validateRule(list, r)
	}

	// Reference checks on a malformed set only produce noise.
	if !list.HasErrors() {
		v.validateReferences(list, set)
	}

	return list.ToError()
}

// Validate checks a rule set without size limits.
func Validate(set *rules.RuleSet) error {
	return New(Options{}).Validate(set)
}
