package rules

import (
	"sort"
	"strings"
)

// Rule is a named, prioritized bundle of conditions and the actions it
// contributes when matched. A rule with no conditions always matches.
type Rule struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	Description    string      `json:"description,omitempty"`
	GroupID        string      `json:"group_id"`
	Priority       int         `json:"priority"`
	Enabled        bool        `json:"enabled"`
	Conditions     []Condition `json:"conditions"`
	ConditionLogic Logic       `json:"condition_logic"`
	Actions        []Action    `json:"-"`
}

// IsEnabled returns true if the rule is enabled.
func (r *Rule) IsEnabled() bool {
	return r.Enabled
}

// HasConditions returns true if the rule has at least one condition.
func (r *Rule) HasConditions() bool {
	return len(r.Conditions) > 0
}

// DisplayName returns the rule name, falling back to the ID.
func (r *Rule) DisplayName() string {
	if r.Name != "" {
		return r.Name
	}
	return r.ID
}

// HasActionKind returns true if the rule emits at least one action of kind.
func (r *Rule) HasActionKind(kind ActionKind) bool {
	for _, action := range r.Actions {
		if action.Kind() == kind {
			return true
		}
	}
	return false
}

// ActionKinds returns the distinct action kinds the rule emits, in first
// occurrence order.
func (r *Rule) ActionKinds() []ActionKind {
	var kinds []ActionKind
	seen := make(map[ActionKind]bool)
	for _, action := range r.Actions {
		if !seen[action.Kind()] {
			seen[action.Kind()] = true
			kinds = append(kinds, action.Kind())
		}
	}
	return kinds
}

// ConditionSignature identifies the rule's predicate independent of
// condition IDs and ordering. Two rules with equal signatures match exactly
// the same facts.
func (r *Rule) ConditionSignature() string {
	parts := make([]string, len(r.Conditions))
	for i, c := range r.Conditions {
		parts[i] = c.signature()
	}
	sort.Strings(parts)
	logic := r.ConditionLogic
	if logic == "" {
		logic = LogicAnd
	}
	return string(logic) + "\x01" + strings.Join(parts, "\x01")
}

// SortRulesByPriority orders rules by ascending priority. The sort is stable
// so equal priorities keep their insertion order.
func SortRulesByPriority(rules []*Rule) {
	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].Priority < rules[j].Priority
	})
}
