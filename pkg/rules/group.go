package rules

import (
	"fmt"
	"sort"
	"strings"
)

// ExecutionMode controls how a group walks its rules.
type ExecutionMode string

const (
	// ModeFirstMatch stops at the first matched rule.
	ModeFirstMatch ExecutionMode = "FIRST_MATCH"
	// ModeAllMatch collects every matched rule.
	ModeAllMatch ExecutionMode = "ALL_MATCH"
	// ModeChain collects every matched rule; later rules supersede earlier
	// OVERRIDE actions of the same kind within the group.
	ModeChain ExecutionMode = "CHAIN"
)

// IsValid reports whether the mode is one of the three execution modes.
func (m ExecutionMode) IsValid() bool {
	return m == ModeFirstMatch || m == ModeAllMatch || m == ModeChain
}

// ParseExecutionMode parses a mode name. An empty string means FIRST_MATCH.
func ParseExecutionMode(s string) (ExecutionMode, error) {
	m := ExecutionMode(strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_")))
	if m == "" {
		return ModeFirstMatch, nil
	}
	if !m.IsValid() {
		return "", fmt.Errorf("unknown execution mode %q", s)
	}
	return m, nil
}

// RuleGroup partitions rules by business concern. PrimaryActionBehavior is a
// hint for conflict analysis only; each action kind's own behavior decides
// resolution.
type RuleGroup struct {
	ID                    string        `json:"id"`
	Name                  string        `json:"name"`
	Description           string        `json:"description,omitempty"`
	Priority              int           `json:"priority"`
	Enabled               bool          `json:"enabled"`
	ExecutionMode         ExecutionMode `json:"execution_mode"`
	PrimaryActionBehavior Behavior      `json:"primary_action_behavior"`
	RuleIDs               []string      `json:"rule_ids,omitempty"`
}

// IsEnabled returns true if the group is enabled.
func (g *RuleGroup) IsEnabled() bool {
	return g.Enabled
}

// DisplayName returns the group name, falling back to the ID.
func (g *RuleGroup) DisplayName() string {
	if g.Name != "" {
		return g.Name
	}
	return g.ID
}

// SortGroupsByPriority orders groups by ascending priority, keeping
// insertion order for ties.
func SortGroupsByPriority(groups []*RuleGroup) {
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Priority < groups[j].Priority
	})
}

// GroupAnnotation carries presentation metadata for a group. The engine
// never reads it.
type GroupAnnotation struct {
	Color string `json:"color,omitempty"`
	Icon  string `json:"icon,omitempty"`
	Label string `json:"label,omitempty"`
}
