package validator

import (
	"fmt"
	"sort"

	"orderdesk/automation/pkg/rules"
)

// validateReferences checks IDs across the whole rule set.
func (v *Validator) validateReferences(list *ErrorList, set *rules.RuleSet) {
	groups := make(map[string]*rules.RuleGroup, len(set.Groups))
	groupIDs := make([]string, 0, len(set.Groups))
	for _, g := range set.Groups {
		if _, dup := groups[g.ID]; dup {
			list.AddError(ErrorTypeReference, "group "+g.ID, "duplicate group id")
			continue
		}
		groups[g.ID] = g
		groupIDs = append(groupIDs, g.ID)
	}
	sort.Strings(groupIDs)

	ruleGroup := make(map[string]string, len(set.Rules))
	perGroup := make(map[string]int)
	for _, r := range set.Rules {
		if _, dup := ruleGroup[r.ID]; dup {
			list.AddError(ErrorTypeReference, "rule "+r.ID, "duplicate rule id")
			continue
		}
		ruleGroup[r.ID] = r.GroupID
		if _, ok := groups[r.GroupID]; !ok {
			list.AddErrorWithSuggestion(ErrorTypeReference, "rule "+r.ID,
				fmt.Sprintf("unknown group %q", r.GroupID),
				suggestID(r.GroupID, groupIDs))
			continue
		}
		perGroup[r.GroupID]++
	}

	for _, g := range set.Groups {
		for _, id := range g.RuleIDs {
			owner, ok := ruleGroup[id]
			switch {
			case !ok:
				list.AddError(ErrorTypeReference, "group "+g.ID,
					fmt.Sprintf("rule_ids lists unknown rule %q", id))
			case owner != g.ID:
				list.AddError(ErrorTypeReference, "group "+g.ID,
					fmt.Sprintf("rule_ids lists rule %q whose group_id is %q", id, owner))
			}
		}
	}

	if v.opts.MaxGroups > 0 && len(set.Groups) > v.opts.MaxGroups {
		list.AddError(ErrorTypeLimit, "",
			fmt.Sprintf("%d groups exceeds the limit of %d", len(set.Groups), v.opts.MaxGroups))
	}
	if v.opts.MaxRulesPerGroup > 0 {
		for _, id := range groupIDs {
			if n := perGroup[id]; n > v.opts.MaxRulesPerGroup {
				list.AddError(ErrorTypeLimit, "group "+id,
					fmt.Sprintf("%d rules exceeds the limit of %d", n, v.opts.MaxRulesPerGroup))
			}
		}
	}
}
