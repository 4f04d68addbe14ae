package metrics

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"orderdesk/automation/pkg/config"
	"orderdesk/automation/pkg/routing/engine"
	"orderdesk/automation/pkg/rules"
)

func testConfig() *config.MetricsConfig {
	return &config.MetricsConfig{
		Enabled:         true,
		Namespace:       "test",
		Subsystem:       "engine",
		DurationBuckets: []float64{0.001, 0.01, 0.1},
	}
}

// overrideRuleSet has two ALL_MATCH rules that both set the workflow, so the
// first one is overridden, plus an unconditional tag.
func overrideRuleSet() *rules.RuleSet {
	g := &rules.RuleGroup{
		ID:            "routing",
		Name:          "Routing",
		Priority:      1,
		Enabled:       true,
		ExecutionMode: rules.ModeAllMatch,
	}
	rs := []*rules.Rule{
		{
			ID: "standard", GroupID: "routing", Priority: 1, Enabled: true,
			Actions: []rules.Action{rules.SetWorkflow{WorkflowID: "wf-standard"}},
		},
		{
			ID: "express", GroupID: "routing", Priority: 2, Enabled: true,
			Conditions: []rules.Condition{{
				ID: "c1", Field: "shipping", Operator: rules.OperatorEquals, Value: rules.String("express"),
			}},
			Actions: []rules.Action{rules.SetWorkflow{WorkflowID: "wf-express"}, rules.AddTag{Tags: []string{"rush"}}},
		},
	}
	return rules.NewRuleSet([]*rules.RuleGroup{g}, rs)
}

func newSimulator(m *EngineMetrics) *engine.Simulator {
	sim := engine.NewSimulator(slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
	sim.SetObserver(m)
	return sim
}

func TestNewEngineMetrics_Defaults(t *testing.T) {
	m := NewEngineMetrics(nil, nil)
	if m.Registry() == nil {
		t.Fatal("Registry() is nil")
	}
	if m.config.Namespace != config.DefaultMetricsNS || m.config.Subsystem != config.DefaultMetricsSub {
		t.Errorf("namespace/subsystem = %q/%q", m.config.Namespace, m.config.Subsystem)
	}
}

func TestEngineMetrics_ObserveSimulation(t *testing.T) {
	m := NewEngineMetrics(testConfig(), prometheus.NewRegistry())
	sim := newSimulator(m)
	set := overrideRuleSet()

	if _, err := sim.Simulate(rules.Fact{"shipping": rules.String("express")}, set); err != nil {
		t.Fatalf("Simulate() error = %v", err)
	}
	if _, err := sim.Simulate(rules.Fact{"shipping": rules.String("ground")}, set); err != nil {
		t.Fatalf("Simulate() error = %v", err)
	}

	if got := testutil.ToFloat64(m.simulationsTotal.WithLabelValues("actions")); got != 2 {
		t.Errorf("simulations_total{actions} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.rulesEvaluated); got != 4 {
		t.Errorf("rules_evaluated_total = %v, want 4", got)
	}
	if got := testutil.ToFloat64(m.rulesMatched); got != 3 {
		t.Errorf("rules_matched_total = %v, want 3", got)
	}
	if got := testutil.ToFloat64(m.ruleMatches.WithLabelValues("routing", "standard")); got != 2 {
		t.Errorf("rule_matches_total{standard} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.ruleMatches.WithLabelValues("routing", "express")); got != 1 {
		t.Errorf("rule_matches_total{express} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.actionsTotal.WithLabelValues(string(rules.ActionSetWorkflow), "overridden")); got != 1 {
		t.Errorf("actions_total{SET_WORKFLOW,overridden} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.actionsTotal.WithLabelValues(string(rules.ActionSetWorkflow), "final")); got != 2 {
		t.Errorf("actions_total{SET_WORKFLOW,final} = %v, want 2", got)
	}
	if got := testutil.CollectAndCount(m.simulationDuration); got != 1 {
		t.Errorf("simulation_duration_seconds series = %d, want 1", got)
	}
}

func TestEngineMetrics_NoActionsOutcome(t *testing.T) {
	m := NewEngineMetrics(testConfig(), nil)
	sim := newSimulator(m)

	if _, err := sim.Simulate(rules.Fact{}, rules.NewRuleSet(nil, nil)); err != nil {
		t.Fatalf("Simulate() error = %v", err)
	}
	if got := testutil.ToFloat64(m.simulationsTotal.WithLabelValues("no_actions")); got != 1 {
		t.Errorf("simulations_total{no_actions} = %v, want 1", got)
	}
}

func TestEngineMetrics_ValidationFailure(t *testing.T) {
	m := NewEngineMetrics(testConfig(), nil)
	sim := newSimulator(m)

	set := overrideRuleSet()
	set.Rules = append(set.Rules, set.Rules[0])
	if _, err := sim.Simulate(rules.Fact{}, set); !errors.Is(err, engine.ErrInvalidRuleSet) {
		t.Fatalf("Simulate() error = %v, want ErrInvalidRuleSet", err)
	}
	if got := testutil.ToFloat64(m.validationFailures); got != 1 {
		t.Errorf("validation_failures_total = %v, want 1", got)
	}
}

func TestEngineMetrics_Reloads(t *testing.T) {
	m := NewEngineMetrics(testConfig(), nil)

	m.ObserveReload(nil, 5*time.Millisecond)
	m.ObserveReload(errors.New("parse failure"), time.Millisecond)
	m.ObserveConflicts(engine.ConflictSummary{Total: 3, Errors: 1, Warnings: 2})

	if got := testutil.ToFloat64(m.reloadsTotal.WithLabelValues("success")); got != 1 {
		t.Errorf("reloads_total{success} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.reloadsTotal.WithLabelValues("error")); got != 1 {
		t.Errorf("reloads_total{error} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.conflictWarnings.WithLabelValues("ERROR")); got != 1 {
		t.Errorf("conflict_warnings{ERROR} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.conflictWarnings.WithLabelValues("WARNING")); got != 2 {
		t.Errorf("conflict_warnings{WARNING} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.lastReload); got <= 0 {
		t.Errorf("last_reload_timestamp_seconds = %v, want > 0", got)
	}
}

func TestEngineMetrics_History(t *testing.T) {
	m := NewEngineMetrics(testConfig(), nil)

	m.ObserveRecordStored()
	m.ObserveRecordStored()
	m.ObserveRecordsPruned(5)
	m.ObserveRecordsPruned(0)

	if got := testutil.ToFloat64(m.historyRecords.WithLabelValues("stored")); got != 2 {
		t.Errorf("history_records_total{stored} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.historyRecords.WithLabelValues("pruned")); got != 5 {
		t.Errorf("history_records_total{pruned} = %v, want 5", got)
	}
}

func TestEngineMetrics_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	m := NewEngineMetrics(cfg, nil)

	m.ObserveValidationFailure()
	m.ObserveReload(nil, time.Millisecond)
	m.ObserveRecordStored()

	if got := testutil.ToFloat64(m.validationFailures); got != 0 {
		t.Errorf("validation_failures_total = %v, want 0 when disabled", got)
	}
	if got := testutil.CollectAndCount(m.reloadsTotal); got != 0 {
		t.Errorf("reloads_total series = %d, want 0 when disabled", got)
	}
}

func TestEngineMetrics_Handler(t *testing.T) {
	m := NewEngineMetrics(testConfig(), nil)
	m.ObserveValidationFailure()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "test_engine_validation_failures_total 1") {
		t.Errorf("body missing validation counter:\n%s", rec.Body.String())
	}
}

func TestCardinalityLimiter(t *testing.T) {
	cl := NewCardinalityLimiter(3)

	for i := 0; i < 3; i++ {
		if !cl.Allow(fmt.Sprintf("rule-%d", i)) {
			t.Errorf("Allow(rule-%d) = false under limit", i)
		}
	}
	if cl.Allow("rule-3") {
		t.Error("Allow(rule-3) = true over limit")
	}
	if !cl.Allow("rule-0") {
		t.Error("Allow(rule-0) = false for a known label set")
	}
	if cl.Count() != 3 {
		t.Errorf("Count() = %d, want 3", cl.Count())
	}
}
