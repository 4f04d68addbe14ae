package engine

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"orderdesk/automation/pkg/rules"
)

func TestRenderTrace_Golden(t *testing.T) {
	result, err := NewSimulator(nil, nil).Simulate(scenarioFact(), scenarioRuleSet())
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := RenderTrace(&buf, result); err != nil {
		t.Fatalf("RenderTrace() error = %v", err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "scenario_trace", buf.Bytes())
}

func TestRenderTrace_NoActions(t *testing.T) {
	result, err := Simulate(rules.Fact{}, []*rules.RuleGroup{group("g", 1, rules.ModeFirstMatch)}, nil)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := RenderTrace(&buf, result); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"(no rules)", "no actions executed"} {
		if !strings.Contains(out, want) {
			t.Errorf("trace missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Decision:") {
		t.Errorf("empty decision rendered:\n%s", out)
	}
}
