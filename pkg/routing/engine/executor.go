package engine

import (
	"orderdesk/automation/pkg/rules"
)

// ExecuteGroup runs the group's rules against the fact. Rules are taken from
// rs by GroupID and visited in ascending priority, insertion order for ties.
//
//   - FIRST_MATCH stops at the first matched rule; every later rule is
//     reported with the first-match skip reason.
//   - ALL_MATCH and CHAIN evaluate every enabled rule and contribute the
//     actions of each matched one.
//
// A disabled group yields a result with the group-disabled skip reason, no
// rule results and no contributions.
func ExecuteGroup(fact rules.Fact, group *rules.RuleGroup, rs []*rules.Rule) GroupExecution {
	mode := group.ExecutionMode
	if mode == "" {
		mode = rules.ModeFirstMatch
	}

	exec := GroupExecution{
		Result: GroupResult{
			GroupID:       group.ID,
			GroupName:     group.DisplayName(),
			Priority:      group.Priority,
			ExecutionMode: mode,
			Enabled:       group.IsEnabled(),
			Rules:         []RuleResult{},
		},
	}

	if !group.IsEnabled() {
		exec.Result.SkippedReason = SkipGroupDisabled
		return exec
	}

	stopped := false
	for _, rule := range rules.RulesForGroup(group.ID, rs) {
		result := RuleResult{
			RuleID:            rule.ID,
			RuleName:          rule.DisplayName(),
			Priority:          rule.Priority,
			MatchedConditions: []string{},
		}

		if stopped {
			result.SkippedReason = SkipFirstMatch
			exec.Result.Rules = append(exec.Result.Rules, result)
			continue
		}

		match := MatchRule(fact, rule)
		result.Matched = match.Matched
		result.MatchedConditions = match.MatchedConditions
		result.SkippedReason = match.SkippedReason
		exec.Result.Rules = append(exec.Result.Rules, result)

		if !match.Matched {
			continue
		}

		idx := len(exec.Result.Rules) - 1
		for _, action := range rule.Actions {
			exec.Contributions = append(exec.Contributions, Contribution{
				Action:        action,
				RuleID:        rule.ID,
				RuleName:      rule.DisplayName(),
				GroupID:       group.ID,
				GroupPriority: group.Priority,
				RulePriority:  rule.Priority,
			})
			exec.ruleIndex = append(exec.ruleIndex, idx)
		}

		if mode == rules.ModeFirstMatch {
			stopped = true
		}
	}

	return exec
}
