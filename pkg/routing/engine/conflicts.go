package engine

import (
	"fmt"
	"strings"

	"orderdesk/automation/pkg/rules"
)

// Severity grades a conflict warning.
type Severity string

const (
	SeverityError   Severity = "ERROR"
	SeverityWarning Severity = "WARNING"
	SeverityInfo    Severity = "INFO"
)

// ConflictCode identifies the kind of authoring hazard.
type ConflictCode string

const (
	// ConflictUnreachableRule: in FIRST_MATCH, an unconditional rule that is
	// not the last enabled rule shadows every rule after it.
	ConflictUnreachableRule ConflictCode = "unreachable_rule"
	// ConflictDuplicateConditions: in FIRST_MATCH, a rule whose conditions
	// equal an earlier rule's can never fire.
	ConflictDuplicateConditions ConflictCode = "duplicate_conditions"
	// ConflictPriorityCollision: enabled rules share a priority.
	ConflictPriorityCollision ConflictCode = "priority_collision"
	// ConflictOverrideClash: several enabled rules of an ALL_MATCH or CHAIN
	// group emit the same OVERRIDE kind.
	ConflictOverrideClash ConflictCode = "override_clash"
	// ConflictBehaviorHintMismatch: an ADDITIVE group contains rules that
	// emit OVERRIDE kinds.
	ConflictBehaviorHintMismatch ConflictCode = "behavior_hint_mismatch"
	// ConflictDisabledGroup: a disabled group still holds rules.
	ConflictDisabledGroup ConflictCode = "disabled_group"
	// ConflictCrossGroupOverride: several enabled groups emit the same
	// OVERRIDE kind, so the later group wins when both match.
	ConflictCrossGroupOverride ConflictCode = "cross_group_override"
	// ConflictMalformedCondition: a condition's operand does not fit its
	// operator, so it never matches.
	ConflictMalformedCondition ConflictCode = "malformed_condition"
	// ConflictIncompleteAction: an action lacks a required parameter.
	ConflictIncompleteAction ConflictCode = "incomplete_action"
)

// ConflictWarning is an advisory diagnostic about a rule set.
type ConflictWarning struct {
	ID         string       `json:"id"`
	Code       ConflictCode `json:"code"`
	Severity   Severity     `json:"severity"`
	GroupID    string       `json:"group_id,omitempty"`
	RuleIDs    []string     `json:"rule_ids,omitempty"`
	Message    string       `json:"message"`
	Suggestion string       `json:"suggestion,omitempty"`
}

// ConflictSummary counts warnings by severity.
type ConflictSummary struct {
	Total    int `json:"total"`
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
	Info     int `json:"info"`
}

// HasErrors reports whether any warning is ERROR severity.
func (s ConflictSummary) HasErrors() bool {
	return s.Errors > 0
}

func newWarning(code ConflictCode, sev Severity, groupID string, ruleIDs []string, msg, suggestion string) ConflictWarning {
	id := string(code)
	if groupID != "" {
		id += ":" + groupID
	}
	if len(ruleIDs) > 0 {
		id += ":" + strings.Join(ruleIDs, ",")
	}
	return ConflictWarning{
		ID:         id,
		Code:       code,
		Severity:   sev,
		GroupID:    groupID,
		RuleIDs:    ruleIDs,
		Message:    msg,
		Suggestion: suggestion,
	}
}

// DetectGroupConflicts analyzes one group. rs may hold rules of other
// groups; only those whose GroupID matches are considered. Inputs are never
// modified.
func DetectGroupConflicts(group *rules.RuleGroup, rs []*rules.Rule) []ConflictWarning {
	members := rules.RulesForGroup(group.ID, rs)
	var warnings []ConflictWarning

	if !group.IsEnabled() && len(members) > 0 {
		warnings = append(warnings, newWarning(ConflictDisabledGroup, SeverityInfo, group.ID, nil,
			fmt.Sprintf("group %q is disabled but holds %d rule(s)", group.DisplayName(), len(members)),
			"enable the group or remove its rules"))
	}
	warnings = append(warnings, malformedRules(group, members)...)

	var enabled []*rules.Rule
	for _, r := range members {
		if r.IsEnabled() {
			enabled = append(enabled, r)
		}
	}

	mode := group.ExecutionMode
	if mode == "" {
		mode = rules.ModeFirstMatch
	}

	if mode == rules.ModeFirstMatch {
		warnings = append(warnings, unreachableRules(group, enabled)...)
		warnings = append(warnings, duplicateConditions(group, enabled)...)
	}
	warnings = append(warnings, priorityCollisions(group, enabled)...)
	if mode == rules.ModeAllMatch || mode == rules.ModeChain {
		warnings = append(warnings, overrideClashes(group, mode, enabled)...)
	}
	if group.PrimaryActionBehavior == rules.BehaviorAdditive {
		warnings = append(warnings, behaviorHintMismatch(group, enabled)...)
	}

	return warnings
}

func unreachableRules(group *rules.RuleGroup, enabled []*rules.Rule) []ConflictWarning {
	for i, r := range enabled {
		if r.HasConditions() || i == len(enabled)-1 {
			continue
		}
		ids := []string{r.ID}
		for _, shadowed := range enabled[i+1:] {
			ids = append(ids, shadowed.ID)
		}
		return []ConflictWarning{newWarning(ConflictUnreachableRule, SeverityError, group.ID, ids,
			fmt.Sprintf("rule %q has no conditions and always matches; %d later rule(s) can never run",
				r.DisplayName(), len(enabled)-i-1),
			"move the catch-all rule to the lowest priority or give it conditions")}
	}
	return nil
}

func duplicateConditions(group *rules.RuleGroup, enabled []*rules.Rule) []ConflictWarning {
	var warnings []ConflictWarning
	first := make(map[string]*rules.Rule)
	for _, r := range enabled {
		if !r.HasConditions() {
			continue
		}
		sig := r.ConditionSignature()
		if prev, ok := first[sig]; ok {
			warnings = append(warnings, newWarning(ConflictDuplicateConditions, SeverityWarning, group.ID,
				[]string{prev.ID, r.ID},
				fmt.Sprintf("rule %q has the same conditions as %q and can never fire in first-match mode",
					r.DisplayName(), prev.DisplayName()),
				"merge the rules or make their conditions distinct"))
			continue
		}
		first[sig] = r
	}
	return warnings
}

func priorityCollisions(group *rules.RuleGroup, enabled []*rules.Rule) []ConflictWarning {
	var order []int
	byPriority := make(map[int][]string)
	for _, r := range enabled {
		if _, ok := byPriority[r.Priority]; !ok {
			order = append(order, r.Priority)
		}
		byPriority[r.Priority] = append(byPriority[r.Priority], r.ID)
	}

	var warnings []ConflictWarning
	for _, p := range order {
		ids := byPriority[p]
		if len(ids) < 2 {
			continue
		}
		warnings = append(warnings, newWarning(ConflictPriorityCollision, SeverityWarning, group.ID, ids,
			fmt.Sprintf("rules %s share priority %d; their order depends on definition order",
				strings.Join(ids, ", "), p),
			"give each rule a distinct priority"))
	}
	return warnings
}

func overrideClashes(group *rules.RuleGroup, mode rules.ExecutionMode, enabled []*rules.Rule) []ConflictWarning {
	sev := SeverityWarning
	if mode == rules.ModeChain {
		sev = SeverityInfo
	}

	var warnings []ConflictWarning
	for _, kind := range rules.ActionKinds {
		if kind.Behavior() != rules.BehaviorOverride {
			continue
		}
		var emitters []*rules.Rule
		for _, r := range enabled {
			if r.HasActionKind(kind) {
				emitters = append(emitters, r)
			}
		}
		if len(emitters) < 2 {
			continue
		}
		ids := make([]string, len(emitters))
		for i, r := range emitters {
			ids[i] = r.ID
		}
		last := emitters[len(emitters)-1]
		warnings = append(warnings, newWarning(ConflictOverrideClash, sev, group.ID, ids,
			fmt.Sprintf("%d rules emit %s; when several match only %q takes effect",
				len(emitters), kind, last.DisplayName()),
			"switch the group to FIRST_MATCH or keep a single rule per override action"))
	}
	return warnings
}

func behaviorHintMismatch(group *rules.RuleGroup, enabled []*rules.Rule) []ConflictWarning {
	var ids []string
	for _, r := range enabled {
		for _, kind := range r.ActionKinds() {
			if kind.Behavior() == rules.BehaviorOverride {
				ids = append(ids, r.ID)
				break
			}
		}
	}
	if len(ids) == 0 {
		return nil
	}
	return []ConflictWarning{newWarning(ConflictBehaviorHintMismatch, SeverityInfo, group.ID, ids,
		fmt.Sprintf("group %q is marked ADDITIVE but %d rule(s) emit override actions",
			group.DisplayName(), len(ids)),
		"mark the group OVERRIDE or move the override actions to another group")}
}

// malformedRules flags conditions and actions that load fine but cannot do
// what their author intended. Disabled rules are included.
func malformedRules(group *rules.RuleGroup, members []*rules.Rule) []ConflictWarning {
	var warnings []ConflictWarning
	for _, r := range members {
		for i, c := range r.Conditions {
			if err := c.CheckOperand(); err != nil {
				label := c.ID
				if label == "" {
					label = fmt.Sprintf("#%d", i+1)
				}
				w := newWarning(ConflictMalformedCondition, SeverityWarning, group.ID, []string{r.ID},
					fmt.Sprintf("rule %q condition %s: %v; it never matches", r.DisplayName(), label, err),
					"fix the operand or change the operator")
				w.ID += "/" + label
				warnings = append(warnings, w)
			}
		}
		for i, a := range r.Actions {
			if a == nil {
				continue
			}
			if err := a.Validate(); err != nil {
				w := newWarning(ConflictIncompleteAction, SeverityWarning, group.ID, []string{r.ID},
					fmt.Sprintf("rule %q action %d (%s): %v", r.DisplayName(), i+1, a.Kind(), err),
					"fill in the action parameters")
				w.ID += fmt.Sprintf("/%d", i+1)
				warnings = append(warnings, w)
			}
		}
	}
	return warnings
}

// DetectConflicts analyzes every group of the set in priority order and then
// flags OVERRIDE kinds emitted by more than one enabled group.
func DetectConflicts(set *rules.RuleSet) []ConflictWarning {
	groups := set.SortedGroups()

	var warnings []ConflictWarning
	for _, g := range groups {
		warnings = append(warnings, DetectGroupConflicts(g, set.Rules)...)
	}

	for _, kind := range rules.ActionKinds {
		if kind.Behavior() != rules.BehaviorOverride {
			continue
		}
		var groupIDs, ruleIDs []string
		for _, g := range groups {
			if !g.IsEnabled() {
				continue
			}
			emitted := false
			for _, r := range set.RulesInGroup(g.ID) {
				if r.IsEnabled() && r.HasActionKind(kind) {
					ruleIDs = append(ruleIDs, r.ID)
					emitted = true
				}
			}
			if emitted {
				groupIDs = append(groupIDs, g.ID)
			}
		}
		if len(groupIDs) < 2 {
			continue
		}
		w := newWarning(ConflictCrossGroupOverride, SeverityInfo, "", ruleIDs,
			fmt.Sprintf("%s is emitted by groups %s; group %q is evaluated last and wins when several match",
				kind, strings.Join(groupIDs, ", "), groupIDs[len(groupIDs)-1]),
			"")
		w.ID = fmt.Sprintf("%s:%s", ConflictCrossGroupOverride, kind)
		warnings = append(warnings, w)
	}

	return warnings
}

// GetConflictSummary counts warnings by severity.
func GetConflictSummary(warnings []ConflictWarning) ConflictSummary {
	s := ConflictSummary{Total: len(warnings)}
	for _, w := range warnings {
		switch w.Severity {
		case SeverityError:
			s.Errors++
		case SeverityWarning:
			s.Warnings++
		case SeverityInfo:
			s.Info++
		}
	}
	return s
}
