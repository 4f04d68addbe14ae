package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"orderdesk/automation/pkg/rules"
)

func TestSimulateBatch(t *testing.T) {
	set := scenarioRuleSet()
	var facts []rules.NamedFact
	for i := 0; i < 25; i++ {
		fact := scenarioFact()
		if i%2 == 1 {
			fact["poType"] = rules.String("DROPSHIP")
			fact["customerTier"] = rules.String("STANDARD")
		}
		facts = append(facts, rules.NamedFact{Name: fmt.Sprintf("order-%02d", i), Fact: fact})
	}

	sim := NewSimulator(nil, &EngineConfig{BatchWorkers: 4})
	items, err := sim.SimulateBatch(context.Background(), set, facts)
	if err != nil {
		t.Fatalf("SimulateBatch() error = %v", err)
	}
	if len(items) != len(facts) {
		t.Fatalf("len(items) = %d, want %d", len(items), len(facts))
	}

	for i, item := range items {
		if item.Name != facts[i].Name {
			t.Errorf("items[%d].Name = %s, want %s", i, item.Name, facts[i].Name)
		}
		want, err := sim.Simulate(facts[i].Fact, set)
		if err != nil {
			t.Fatal(err)
		}
		if got := item.Result.Decision.Workflow; got != want.Decision.Workflow {
			t.Errorf("%s workflow = %q, want %q", item.Name, got, want.Decision.Workflow)
		}
	}

	if got := items[1].Result.Decision.Workflow; got != "wf-review" {
		t.Errorf("dropship workflow = %q, want wf-review", got)
	}
}

func TestSimulateBatch_InvalidRuleSet(t *testing.T) {
	set := scenarioRuleSet()
	set.Rules[0].GroupID = "missing"

	_, err := NewSimulator(nil, nil).SimulateBatch(context.Background(), set, []rules.NamedFact{{Name: "x", Fact: scenarioFact()}})
	if !errors.Is(err, ErrInvalidRuleSet) {
		t.Errorf("SimulateBatch() error = %v, want ErrInvalidRuleSet", err)
	}
}

func TestSimulateBatch_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	facts := []rules.NamedFact{{Name: "a", Fact: scenarioFact()}, {Name: "b", Fact: scenarioFact()}}
	_, err := NewSimulator(nil, nil).SimulateBatch(ctx, scenarioRuleSet(), facts)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("SimulateBatch() error = %v, want context.Canceled", err)
	}
}
