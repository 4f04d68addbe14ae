package engine

import (
	"orderdesk/automation/pkg/rules"
)

// ResolveActions resolves contributions given in evaluation order: group
// priority, then rule priority, then action order within a rule.
//
// Each ADDITIVE action is kept. For each OVERRIDE kind only the last
// contribution survives; earlier ones stay in All with OverriddenBy naming
// the winning rule. Because groups are evaluated in ascending priority, a
// later group overrides an earlier group's action of the same kind.
func ResolveActions(contributions []Contribution) Resolution {
	winner := make(map[rules.ActionKind]int)
	for i, c := range contributions {
		if c.Action.Kind().Behavior() == rules.BehaviorOverride {
			winner[c.Action.Kind()] = i
		}
	}

	res := Resolution{
		All:   make([]ResolvedAction, 0, len(contributions)),
		Final: make([]ResolvedAction, 0, len(contributions)),
	}

	for i, c := range contributions {
		kind := c.Action.Kind()
		ra := ResolvedAction{
			Kind:     kind,
			Behavior: kind.Behavior(),
			Detail:   c.Action.Describe(),
			Action:   c.Action,
			RuleID:   c.RuleID,
			RuleName: c.RuleName,
			GroupID:  c.GroupID,
		}
		if w, ok := winner[kind]; ok && w != i {
			ra.OverriddenBy = contributions[w].RuleName
			ra.OverriddenByRuleID = contributions[w].RuleID
		}
		res.All = append(res.All, ra)
		if !ra.Overridden() {
			res.Final = append(res.Final, ra)
		}
	}

	res.Decision = decide(res.Final)
	return res
}

// decide summarizes the surviving actions. Tags are unioned in first-seen
// order.
func decide(final []ResolvedAction) Decision {
	var d Decision
	seenTag := make(map[string]bool)

	for _, ra := range final {
		switch a := ra.Action.(type) {
		case rules.SetWorkflow:
			d.Workflow = a.WorkflowID
		case rules.SetWarehouse:
			d.Warehouse = a.WarehouseID
		case rules.SetPriority:
			d.Priority = a.Level
		case rules.HoldOrder:
			d.Hold = true
			d.HoldReason = a.Reason
		case rules.SplitOrder:
			d.SplitStrategy = a.Strategy
		case rules.AddTag:
			for _, tag := range a.Tags {
				if !seenTag[tag] {
					seenTag[tag] = true
					d.Tags = append(d.Tags, tag)
				}
			}
		case rules.Notify:
			d.Notifications = append(d.Notifications, a)
		}
	}

	return d
}
