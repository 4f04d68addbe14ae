package engine

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"orderdesk/automation/pkg/rules"
	"orderdesk/automation/pkg/rules/validator"
)

func named(r *rules.Rule, name string) *rules.Rule {
	r.Name = name
	return r
}

// scenarioRuleSet is a four-group rule set covering every execution mode,
// a disabled group, and a cross-group override of SET_WORKFLOW.
func scenarioRuleSet() *rules.RuleSet {
	workflowGroup := group("workflow", 1, rules.ModeFirstMatch)
	workflowGroup.Name = "Workflow routing"

	tagging := group("tagging", 2, rules.ModeAllMatch)
	tagging.Name = "Tagging"
	tagging.PrimaryActionBehavior = rules.BehaviorAdditive

	overrides := group("overrides", 3, rules.ModeChain)
	overrides.Name = "Late overrides"

	archive := group("archive", 4, rules.ModeAllMatch)
	archive.Name = "Archive"
	archive.Enabled = false

	rush := named(rule("tag-rush", "tagging", 2, []rules.Condition{
		cond("c1", "rush", rules.OperatorEquals, true),
		cond("c2", "shipBy", rules.OperatorBefore, "2024-04-01"),
	}, tag("rush"), rules.Notify{Channel: "email", Recipients: []string{"ops@example.com"}}), "Rush tag")
	rush.ConditionLogic = rules.LogicOr

	return &rules.RuleSet{
		Version: "2024-06-01",
		Groups:  []*rules.RuleGroup{archive, overrides, workflowGroup, tagging},
		Rules: []*rules.Rule{
			named(rule("factory-direct", "workflow", 1, []rules.Condition{
				cond("c1", "poType", rules.OperatorEquals, "FACTORY_DIRECT"),
			}, workflow("wf-direct")), "Factory direct"),
			named(rule("big-order", "workflow", 2, []rules.Condition{
				cond("c1", "totalAmount", rules.OperatorGreaterThan, 1000),
			}, workflow("wf-review"), rules.HoldOrder{Reason: "manual review"}), "Big order review"),
			named(rule("default-workflow", "workflow", 3, nil, workflow("wf-standard")), "Standard workflow"),

			named(rule("tag-eu", "tagging", 1, []rules.Condition{
				cond("c1", "region", rules.OperatorIn, []interface{}{"EU", "UK"}),
			}, tag("eu")), "EU tag"),
			rush,
			named(rule("tag-us", "tagging", 3, []rules.Condition{
				cond("c1", "region", rules.OperatorEquals, "US"),
			}, tag("us")), "US tag"),

			named(rule("rush-warehouse", "overrides", 1, []rules.Condition{
				cond("c1", "rush", rules.OperatorEquals, true),
			}, rules.SetWarehouse{WarehouseID: "wh-express"}), "Rush warehouse"),
			named(rule("vip-workflow", "overrides", 2, []rules.Condition{
				cond("c1", "customerTier", rules.OperatorEquals, "VIP"),
			}, workflow("wf-vip")), "VIP workflow"),

			named(rule("archive-all", "archive", 1, nil, tag("archived")), "Archive everything"),
		},
	}
}

func scenarioFact() rules.Fact {
	return rules.Fact{
		"poType":       rules.String("FACTORY_DIRECT"),
		"totalAmount":  rules.Number(1500),
		"region":       rules.String("EU"),
		"rush":         rules.Bool(true),
		"customerTier": rules.String("VIP"),
	}
}

func TestSimulate_Scenario(t *testing.T) {
	result, err := NewSimulator(nil, nil).Simulate(scenarioFact(), scenarioRuleSet())
	if err != nil {
		t.Fatalf("Simulate() error = %v", err)
	}

	if result.TotalRulesEvaluated != 8 {
		t.Errorf("TotalRulesEvaluated = %d, want 8", result.TotalRulesEvaluated)
	}
	if result.TotalRulesMatched != 5 {
		t.Errorf("TotalRulesMatched = %d, want 5", result.TotalRulesMatched)
	}
	if result.TotalActionsExecuted != 5 || len(result.FinalActions) != 5 {
		t.Errorf("TotalActionsExecuted = %d (final %d), want 5", result.TotalActionsExecuted, len(result.FinalActions))
	}
	if len(result.AllActions) != 6 {
		t.Errorf("len(AllActions) = %d, want 6", len(result.AllActions))
	}

	wantGroups := []string{"workflow", "tagging", "overrides", "archive"}
	for i, id := range wantGroups {
		if result.Groups[i].GroupID != id {
			t.Errorf("Groups[%d] = %s, want %s", i, result.Groups[i].GroupID, id)
		}
	}
	if result.Groups[3].SkippedReason != SkipGroupDisabled {
		t.Errorf("archive SkippedReason = %q", result.Groups[3].SkippedReason)
	}

	// The per-rule trace carries the overridden action.
	factory := result.Groups[0].Rules[0]
	if len(factory.Actions) != 1 || factory.Actions[0].OverriddenBy != "VIP workflow" {
		t.Errorf("factory-direct actions = %+v, want one overridden by VIP workflow", factory.Actions)
	}

	want := Decision{
		Workflow:      "wf-vip",
		Warehouse:     "wh-express",
		Tags:          []string{"eu", "rush"},
		Notifications: []rules.Notify{{Channel: "email", Recipients: []string{"ops@example.com"}}},
	}
	if diff := cmp.Diff(want, result.Decision); diff != "" {
		t.Errorf("Decision mismatch (-want +got):\n%s", diff)
	}
}

// A field-name mismatch is a missing-field case: nothing matches.
func TestSimulate_FieldNameMismatch(t *testing.T) {
	fact := rules.Fact{"poType": rules.String("FACTORY_DIRECT")}
	groups := []*rules.RuleGroup{group("g", 1, rules.ModeFirstMatch)}
	rs := []*rules.Rule{
		rule("r1", "g", 1, []rules.Condition{
			cond("c1", "purchaseType", rules.OperatorEquals, "FACTORY_DIRECT"),
		}, workflow("wf-direct")),
	}

	result, err := Simulate(fact, groups, rs)
	if err != nil {
		t.Fatalf("Simulate() error = %v", err)
	}
	if result.Groups[0].Rules[0].Matched {
		t.Error("rule matched on a field the fact does not have")
	}
	if result.TotalRulesMatched != 0 {
		t.Errorf("TotalRulesMatched = %d, want 0", result.TotalRulesMatched)
	}
	if len(result.FinalActions) != 0 || !result.NoActions() {
		t.Errorf("FinalActions = %+v, want none", result.FinalActions)
	}
}

func TestSimulate_NumericCoercion(t *testing.T) {
	fact := rules.Fact{"totalAmount": rules.Number(1500)}
	groups := []*rules.RuleGroup{group("g", 1, rules.ModeFirstMatch)}
	rs := []*rules.Rule{
		rule("r1", "g", 1, []rules.Condition{
			cond("c1", "totalAmount", rules.OperatorGreaterThan, "1000"),
		}, rules.HoldOrder{Reason: "large order"}),
	}

	result, err := Simulate(fact, groups, rs)
	if err != nil {
		t.Fatalf("Simulate() error = %v", err)
	}
	if !result.Groups[0].Rules[0].Matched {
		t.Fatal("rule did not match")
	}
	if len(result.FinalActions) != 1 || result.FinalActions[0].Kind != rules.ActionHoldOrder {
		t.Errorf("FinalActions = %+v, want one HOLD_ORDER", result.FinalActions)
	}
	if !result.Decision.Hold {
		t.Error("Decision.Hold = false, want true")
	}
}

func TestSimulate_AllMatchOverrideLastWins(t *testing.T) {
	fact := rules.Fact{}
	groups := []*rules.RuleGroup{group("g", 1, rules.ModeAllMatch)}
	rs := []*rules.Rule{
		rule("second", "g", 2, nil, workflow("wf-2")),
		rule("first", "g", 1, nil, workflow("wf-1")),
	}

	result, err := Simulate(fact, groups, rs)
	if err != nil {
		t.Fatalf("Simulate() error = %v", err)
	}

	if len(result.FinalActions) != 1 {
		t.Fatalf("len(FinalActions) = %d, want 1", len(result.FinalActions))
	}
	if got := result.FinalActions[0].RuleID; got != "second" {
		t.Errorf("surviving SET_WORKFLOW from %s, want second", got)
	}

	first := result.Groups[0].Rules[0]
	if first.RuleID != "first" {
		t.Fatalf("Rules[0] = %s, want first", first.RuleID)
	}
	if len(first.Actions) != 1 || first.Actions[0].OverriddenBy != "Rule second" {
		t.Errorf("first rule actions = %+v, want overridden by Rule second", first.Actions)
	}
}

func TestSimulate_ChainLaterRuleOverrides(t *testing.T) {
	fact := rules.Fact{"rush": rules.Bool(true)}
	groups := []*rules.RuleGroup{group("g", 1, rules.ModeChain)}
	rs := []*rules.Rule{
		named(rule("p2", "g", 2, []rules.Condition{
			cond("c1", "rush", rules.OperatorEquals, true),
		}, rules.SetWarehouse{WarehouseID: "wh-express"}), "Express warehouse"),
		named(rule("p1", "g", 1, nil, rules.SetWarehouse{WarehouseID: "wh-main"}), "Main warehouse"),
	}

	result, err := Simulate(fact, groups, rs)
	if err != nil {
		t.Fatalf("Simulate() error = %v", err)
	}

	if result.TotalRulesMatched != 2 {
		t.Errorf("TotalRulesMatched = %d, want 2", result.TotalRulesMatched)
	}
	if len(result.FinalActions) != 1 {
		t.Fatalf("len(FinalActions) = %d, want 1", len(result.FinalActions))
	}
	final := result.FinalActions[0]
	if final.RuleID != "p2" {
		t.Errorf("surviving SET_WAREHOUSE from %s, want p2", final.RuleID)
	}
	if result.Decision.Warehouse != "wh-express" {
		t.Errorf("Decision.Warehouse = %q, want wh-express", result.Decision.Warehouse)
	}

	p1 := result.Groups[0].Rules[0]
	if p1.RuleID != "p1" || !p1.Matched {
		t.Fatalf("Rules[0] = %s (matched %v), want matched p1", p1.RuleID, p1.Matched)
	}
	if len(p1.Actions) != 1 || p1.Actions[0].OverriddenBy != "Express warehouse" {
		t.Errorf("p1 actions = %+v, want overridden by Express warehouse", p1.Actions)
	}
	if p2 := result.Groups[0].Rules[1]; len(p2.Actions) != 1 || p2.Actions[0].OverriddenBy != "" {
		t.Errorf("p2 actions = %+v, want one surviving action", p2.Actions)
	}
}

// An operand that does not fit its operator loads with a warning and the
// condition evaluates as not matched; the rest of the set still runs.
func TestSimulate_MalformedConditionNotMatched(t *testing.T) {
	fact := rules.Fact{"totalAmount": rules.Number(1500)}
	set := &rules.RuleSet{
		Groups: []*rules.RuleGroup{group("g", 1, rules.ModeAllMatch)},
		Rules: []*rules.Rule{
			rule("good", "g", 1, []rules.Condition{
				cond("c1", "totalAmount", rules.OperatorGreaterThan, "1000"),
			}, workflow("wf-review")),
			rule("bad", "g", 2, []rules.Condition{
				{ID: "c2", Field: "totalAmount", Operator: rules.OperatorEquals},
			}, tag("bad")),
		},
	}

	result, err := NewSimulator(nil, nil).Simulate(fact, set)
	if err != nil {
		t.Fatalf("Simulate() error = %v", err)
	}

	got := result.Groups[0].Rules
	if len(got) != 2 {
		t.Fatalf("len(Rules) = %d, want 2", len(got))
	}
	if got[0].RuleID != "good" || !got[0].Matched {
		t.Errorf("Rules[0] = %s (matched %v), want matched good", got[0].RuleID, got[0].Matched)
	}
	if got[1].RuleID != "bad" || got[1].Matched {
		t.Errorf("Rules[1] = %s (matched %v), want unmatched bad", got[1].RuleID, got[1].Matched)
	}
	if result.Decision.Workflow != "wf-review" {
		t.Errorf("Decision.Workflow = %q, want wf-review", result.Decision.Workflow)
	}
	if len(result.Decision.Tags) != 0 {
		t.Errorf("Decision.Tags = %v, want none", result.Decision.Tags)
	}

	found := codes(DetectGroupConflicts(set.Groups[0], set.Rules))
	if _, ok := found[ConflictMalformedCondition]; !ok {
		t.Errorf("no %s warning in %v", ConflictMalformedCondition, found)
	}
}

func TestSimulate_Deterministic(t *testing.T) {
	sim := NewSimulator(nil, nil)
	first, err := sim.Simulate(scenarioFact(), scenarioRuleSet())
	if err != nil {
		t.Fatal(err)
	}
	firstJSON, err := json.Marshal(first)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 20; i++ {
		again, err := sim.Simulate(scenarioFact(), scenarioRuleSet())
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(first, again); diff != "" {
			t.Fatalf("run %d differs (-first +again):\n%s", i, diff)
		}
		againJSON, err := json.Marshal(again)
		if err != nil {
			t.Fatal(err)
		}
		if string(againJSON) != string(firstJSON) {
			t.Fatalf("run %d JSON differs", i)
		}
	}
}

func TestSimulate_ConflictDetectionDoesNotInterfere(t *testing.T) {
	set := scenarioRuleSet()
	sim := NewSimulator(nil, nil)

	before, err := sim.Simulate(scenarioFact(), set)
	if err != nil {
		t.Fatal(err)
	}
	DetectConflicts(set)
	for _, g := range set.Groups {
		DetectGroupConflicts(g, set.Rules)
	}
	after, err := sim.Simulate(scenarioFact(), set)
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff(before, after); diff != "" {
		t.Errorf("conflict detection changed the simulation (-before +after):\n%s", diff)
	}
}

func TestSimulate_ValidationFailsFast(t *testing.T) {
	set := scenarioRuleSet()
	set.Rules[0].GroupID = "missing"
	set.Rules[1].Conditions[0].Operator = "roughly"

	result, err := NewSimulator(nil, nil).Simulate(scenarioFact(), set)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if result != nil {
		t.Error("result returned alongside validation error")
	}
	if !errors.Is(err, ErrInvalidRuleSet) {
		t.Errorf("errors.Is(err, ErrInvalidRuleSet) = false for %v", err)
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error type = %T, want *ValidationError", err)
	}
	if len(verr.Problems()) == 0 {
		t.Error("ValidationError carries no problems")
	}
	var list *validator.ErrorList
	if !errors.As(err, &list) {
		t.Error("cause is not a *validator.ErrorList")
	}
}

func TestSimulate_RespectsLimits(t *testing.T) {
	sim := NewSimulator(nil, &EngineConfig{MaxGroups: 2, BatchWorkers: 1})
	if _, err := sim.Simulate(scenarioFact(), scenarioRuleSet()); !errors.Is(err, ErrInvalidRuleSet) {
		t.Errorf("Simulate() error = %v, want ErrInvalidRuleSet", err)
	}
}

type countingObserver struct {
	simulations int
	failures    int
}

func (o *countingObserver) ObserveSimulation(*ExecutionSimulationResult, time.Duration) {
	o.simulations++
}
func (o *countingObserver) ObserveValidationFailure() { o.failures++ }

func TestSimulator_Observer(t *testing.T) {
	obs := &countingObserver{}
	sim := NewSimulator(nil, nil)
	sim.SetObserver(obs)

	if _, err := sim.Simulate(scenarioFact(), scenarioRuleSet()); err != nil {
		t.Fatal(err)
	}
	bad := scenarioRuleSet()
	bad.Rules[0].GroupID = "missing"
	if _, err := sim.Simulate(scenarioFact(), bad); err == nil {
		t.Fatal("expected validation error")
	}

	if obs.simulations != 1 || obs.failures != 1 {
		t.Errorf("observer saw %d simulations and %d failures, want 1 and 1", obs.simulations, obs.failures)
	}
}

func TestEngineConfig_Validate(t *testing.T) {
	if err := DefaultEngineConfig().Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
	if err := (&EngineConfig{BatchWorkers: 0}).Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Validate() = %v, want ErrInvalidConfig", err)
	}
}
