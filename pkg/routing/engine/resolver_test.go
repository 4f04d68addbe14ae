package engine

import (
	"reflect"
	"testing"

	"orderdesk/automation/pkg/rules"
)

func contribution(a rules.Action, ruleID, groupID string, groupPriority, rulePriority int) Contribution {
	return Contribution{
		Action:        a,
		RuleID:        ruleID,
		RuleName:      "Rule " + ruleID,
		GroupID:       groupID,
		GroupPriority: groupPriority,
		RulePriority:  rulePriority,
	}
}

func TestResolveActions_Empty(t *testing.T) {
	res := ResolveActions(nil)
	if len(res.All) != 0 || len(res.Final) != 0 {
		t.Errorf("empty input resolved to %d/%d actions", len(res.All), len(res.Final))
	}
	if !reflect.DeepEqual(res.Decision, Decision{}) {
		t.Errorf("Decision = %+v, want zero", res.Decision)
	}
}

func TestResolveActions_OverrideLastWins(t *testing.T) {
	res := ResolveActions([]Contribution{
		contribution(workflow("wf-a"), "a", "g", 1, 1),
		contribution(workflow("wf-b"), "b", "g", 1, 2),
	})

	if len(res.Final) != 1 {
		t.Fatalf("len(Final) = %d, want 1", len(res.Final))
	}
	if res.Final[0].RuleID != "b" {
		t.Errorf("surviving action from %s, want b", res.Final[0].RuleID)
	}
	if len(res.All) != 2 {
		t.Fatalf("len(All) = %d, want 2", len(res.All))
	}
	loser := res.All[0]
	if loser.OverriddenBy != "Rule b" || loser.OverriddenByRuleID != "b" {
		t.Errorf("loser OverriddenBy = %q (%q), want Rule b (b)", loser.OverriddenBy, loser.OverriddenByRuleID)
	}
	if res.All[1].Overridden() {
		t.Error("winner marked as overridden")
	}
	if res.Decision.Workflow != "wf-b" {
		t.Errorf("Decision.Workflow = %q, want wf-b", res.Decision.Workflow)
	}
}

// A later group's OVERRIDE action replaces an earlier group's action of the
// same kind even when the earlier group has the more specific rule.
func TestResolveActions_LaterGroupOverridesEarlierGroup(t *testing.T) {
	res := ResolveActions([]Contribution{
		contribution(workflow("wf-specific"), "specific", "routing", 1, 1),
		contribution(rules.SetWarehouse{WarehouseID: "wh-1"}, "specific", "routing", 1, 1),
		contribution(workflow("wf-fallback"), "fallback", "global", 2, 1),
	})

	if res.Decision.Workflow != "wf-fallback" {
		t.Errorf("Decision.Workflow = %q, want wf-fallback", res.Decision.Workflow)
	}
	if res.Decision.Warehouse != "wh-1" {
		t.Errorf("Decision.Warehouse = %q, want wh-1", res.Decision.Warehouse)
	}
	if got := res.All[0].OverriddenByRuleID; got != "fallback" {
		t.Errorf("routing workflow overridden by %q, want fallback", got)
	}
	if len(res.Final) != 2 {
		t.Errorf("len(Final) = %d, want 2", len(res.Final))
	}
}

func TestResolveActions_AdditiveAccumulation(t *testing.T) {
	notify := rules.Notify{Channel: "email", Recipients: []string{"ops@example.com"}}
	res := ResolveActions([]Contribution{
		contribution(tag("vip", "eu"), "a", "g", 1, 1),
		contribution(tag("eu", "rush"), "b", "g", 1, 2),
		contribution(notify, "a", "g", 1, 1),
		contribution(notify, "b", "g", 1, 2),
	})

	if len(res.Final) != 4 {
		t.Fatalf("len(Final) = %d, want 4", len(res.Final))
	}
	for _, a := range res.All {
		if a.Overridden() {
			t.Errorf("additive action from %s was overridden", a.RuleID)
		}
	}
	if want := []string{"vip", "eu", "rush"}; !reflect.DeepEqual(res.Decision.Tags, want) {
		t.Errorf("Decision.Tags = %v, want %v", res.Decision.Tags, want)
	}
	if len(res.Decision.Notifications) != 2 {
		t.Errorf("len(Decision.Notifications) = %d, want 2", len(res.Decision.Notifications))
	}
}

func TestResolveActions_Decision(t *testing.T) {
	res := ResolveActions([]Contribution{
		contribution(rules.SetPriority{Level: "high"}, "a", "g", 1, 1),
		contribution(rules.HoldOrder{Reason: "credit check"}, "a", "g", 1, 1),
		contribution(rules.SplitOrder{Strategy: "by-warehouse"}, "b", "g", 1, 2),
	})

	want := Decision{
		Priority:      "high",
		Hold:          true,
		HoldReason:    "credit check",
		SplitStrategy: "by-warehouse",
	}
	if !reflect.DeepEqual(res.Decision, want) {
		t.Errorf("Decision = %+v, want %+v", res.Decision, want)
	}
}
