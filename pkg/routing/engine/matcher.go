package engine

import (
	"orderdesk/automation/pkg/rules"
)

// MatchRule evaluates every condition of the rule against the fact. Under
// AND all conditions must hold, under OR at least one. MatchedConditions
// lists the IDs of the conditions that held, in rule order. A rule without
// conditions always matches; a disabled rule never does.
func MatchRule(fact rules.Fact, rule *rules.Rule) RuleMatch {
	if !rule.IsEnabled() {
		return RuleMatch{MatchedConditions: []string{}, SkippedReason: SkipRuleDisabled}
	}
	if !rule.HasConditions() {
		return RuleMatch{Matched: true, MatchedConditions: []string{}}
	}

	held := make([]string, 0, len(rule.Conditions))
	for _, cond := range rule.Conditions {
		if EvaluateCondition(fact, cond) {
			held = append(held, cond.ID)
		}
	}

	var matched bool
	switch rule.ConditionLogic {
	case rules.LogicOr:
		matched = len(held) > 0
	default:
		matched = len(held) == len(rule.Conditions)
	}

	return RuleMatch{Matched: matched, MatchedConditions: held}
}
