package tracing

import (
	"go.opentelemetry.io/otel/attribute"

	"orderdesk/automation/pkg/rules"
)

// Span attribute keys.
const (
	AttrRuleSetVersion = "orderdesk.ruleset.version"
	AttrGroups         = "orderdesk.ruleset.groups"
	AttrRules          = "orderdesk.ruleset.rules"

	AttrConflictsTotal  = "orderdesk.conflicts.total"
	AttrConflictsErrors = "orderdesk.conflicts.errors"

	AttrFacts   = "orderdesk.batch.facts"
	AttrWorkers = "orderdesk.batch.workers"

	AttrRulesEvaluated  = "orderdesk.simulation.rules_evaluated"
	AttrRulesMatched    = "orderdesk.simulation.rules_matched"
	AttrActionsExecuted = "orderdesk.simulation.actions_executed"
	AttrWorkflow        = "orderdesk.decision.workflow"
	AttrWarehouse       = "orderdesk.decision.warehouse"
	AttrHold            = "orderdesk.decision.hold"

	AttrSource = "orderdesk.source"
	AttrRunID  = "orderdesk.run_id"
)

// Span names.
const (
	SpanLoad          = "orderdesk.rules.load"
	SpanSimulate      = "orderdesk.simulate"
	SpanSimulateBatch = "orderdesk.simulate_batch"
)

// RuleSetAttributes describes the size and version of set.
func RuleSetAttributes(set *rules.RuleSet) []attribute.KeyValue {
	if set == nil {
		return nil
	}
	return []attribute.KeyValue{
		attribute.String(AttrRuleSetVersion, set.Version),
		attribute.Int(AttrGroups, len(set.Groups)),
		attribute.Int(AttrRules, set.RuleCount()),
	}
}

// ConflictAttributes records conflict counts.
func ConflictAttributes(total, errors int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(AttrConflictsTotal, total),
		attribute.Int(AttrConflictsErrors, errors),
	}
}

// BatchAttributes records the shape of a batch run.
func BatchAttributes(facts, workers int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(AttrFacts, facts),
		attribute.Int(AttrWorkers, workers),
	}
}
