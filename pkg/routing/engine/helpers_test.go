package engine

import (
	"orderdesk/automation/pkg/rules"
)

func cond(id, field string, op rules.Operator, value interface{}) rules.Condition {
	c := rules.Condition{ID: id, Field: field, Operator: op}
	switch v := value.(type) {
	case nil:
	case []interface{}:
		for _, item := range v {
			c.Values = append(c.Values, rules.MustValueOf(item))
		}
	default:
		c.Value = rules.MustValueOf(v)
	}
	return c
}

func group(id string, priority int, mode rules.ExecutionMode) *rules.RuleGroup {
	return &rules.RuleGroup{
		ID:                    id,
		Name:                  id,
		Priority:              priority,
		Enabled:               true,
		ExecutionMode:         mode,
		PrimaryActionBehavior: rules.BehaviorOverride,
	}
}

func rule(id, groupID string, priority int, conds []rules.Condition, actions ...rules.Action) *rules.Rule {
	return &rules.Rule{
		ID:             id,
		Name:           "Rule " + id,
		GroupID:        groupID,
		Priority:       priority,
		Enabled:        true,
		ConditionLogic: rules.LogicAnd,
		Conditions:     conds,
		Actions:        actions,
	}
}

func workflow(id string) rules.Action { return rules.SetWorkflow{WorkflowID: id} }

func tag(tags ...string) rules.Action { return rules.AddTag{Tags: tags} }
