package validator

import (
	"fmt"
	"strings"

	"orderdesk/automation/pkg/rules"
)

// validateGroup checks a group in isolation.
func (v *Validator) validateGroup(list *ErrorList, g *rules.RuleGroup) {
	path := "group " + g.ID
	if strings.TrimSpace(g.ID) == "" {
		path = "group <unnamed>"
		list.AddError(ErrorTypeStructural, path, "missing required field 'id'")
	}
	if g.ExecutionMode != "" && !g.ExecutionMode.IsValid() {
		list.AddErrorWithSuggestion(ErrorTypeStructural, path,
			fmt.Sprintf("unknown execution mode %q", g.ExecutionMode),
			"valid modes: FIRST_MATCH, ALL_MATCH, CHAIN")
	}
	if g.PrimaryActionBehavior != "" && !g.PrimaryActionBehavior.IsValid() {
		list.AddErrorWithSuggestion(ErrorTypeStructural, path,
			fmt.Sprintf("unknown primary action behavior %q", g.PrimaryActionBehavior),
			"valid behaviors: OVERRIDE, ADDITIVE")
	}
}

// validateRule checks a rule, its conditions and its actions in isolation.
// Missing action parameters are left to conflict detection.
func (v *Validator) validateRule(list *ErrorList, r *rules.Rule) {
	path := "rule " + r.ID
	if strings.TrimSpace(r.ID) == "" {
		path = "rule <unnamed>"
		list.AddError(ErrorTypeStructural, path, "missing required field 'id'")
	}
	if strings.TrimSpace(r.GroupID) == "" {
		list.AddError(ErrorTypeStructural, path, "missing required field 'group_id'")
	}
	if r.ConditionLogic != "" && !r.ConditionLogic.IsValid() {
		list.AddErrorWithSuggestion(ErrorTypeStructural, path,
			fmt.Sprintf("unknown condition logic %q", r.ConditionLogic),
			"valid values: AND, OR")
	}

	seen := make(map[string]bool)
	for i, c := range r.Conditions {
		cpath := fmt.Sprintf("%s/condition %s", path, conditionLabel(c, i))
		if c.ID != "" {
			if seen[c.ID] {
				list.AddError(ErrorTypeStructural, cpath, "duplicate condition id")
			}
			seen[c.ID] = true
		}
		v.validateCondition(list, cpath, c)
	}

	for i, a := range r.Actions {
		apath := fmt.Sprintf("%s/action %d", path, i+1)
		if a == nil {
			list.AddError(ErrorTypeStructural, apath, "action is nil")
			continue
		}
		if !a.Kind().IsValid() {
			list.AddError(ErrorTypeStructural, apath, fmt.Sprintf("unknown action type %q", a.Kind()))
		}
	}
}

// validateCondition rejects operators outside the enumeration. Operand
// shape problems are advisory and surface through conflict detection.
func (v *Validator) validateCondition(list *ErrorList, path string, c rules.Condition) {
	if !c.Operator.IsValid() {
		list.AddErrorWithSuggestion(ErrorTypeStructural, path,
			fmt.Sprintf("unknown operator %q", c.Operator),
			"valid operators: "+operatorNames())
		return
	}
	if c.Logic != "" && !c.Logic.IsValid() {
		list.AddError(ErrorTypeStructural, path, fmt.Sprintf("unknown condition logic %q", c.Logic))
	}
}

func conditionLabel(c rules.Condition, i int) string {
	if c.ID != "" {
		return c.ID
	}
	return fmt.Sprintf("#%d", i+1)
}

func operatorNames() string {
	names := make([]string, len(rules.Operators))
	for i, op := range rules.Operators {
		names[i] = string(op)
	}
	return strings.Join(names, ", ")
}
