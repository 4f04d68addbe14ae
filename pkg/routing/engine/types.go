package engine

import (
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"orderdesk/automation/pkg/rules"
	"orderdesk/automation/pkg/telemetry/tracing"
)

// Skip reasons reported in rule and group results.
const (
	SkipRuleDisabled  = "rule disabled"
	SkipFirstMatch    = "earlier rule matched (first-match mode)"
	SkipGroupDisabled = "group disabled"
)

// RuleMatch is the verdict of MatchRule for one rule.
type RuleMatch struct {
	Matched           bool     `json:"matched"`
	MatchedConditions []string `json:"matched_conditions"`
	SkippedReason     string   `json:"skipped_reason,omitempty"`
}

// RuleResult is one rule's line in the trace.
type RuleResult struct {
	RuleID            string           `json:"rule_id"`
	RuleName          string           `json:"rule_name"`
	Priority          int              `json:"priority"`
	Matched           bool             `json:"matched"`
	MatchedConditions []string         `json:"matched_conditions"`
	SkippedReason     string           `json:"skipped_reason,omitempty"`
	Actions           []ResolvedAction `json:"actions,omitempty"`
}

// Skipped reports whether the rule was not evaluated.
func (r RuleResult) Skipped() bool {
	return r.SkippedReason != ""
}

// GroupResult is one group's subtree in the trace. A disabled group has a
// skip reason and no rule results.
type GroupResult struct {
	GroupID       string              `json:"group_id"`
	GroupName     string              `json:"group_name"`
	Priority      int                 `json:"priority"`
	ExecutionMode rules.ExecutionMode `json:"execution_mode"`
	Enabled       bool                `json:"enabled"`
	SkippedReason string              `json:"skipped_reason,omitempty"`
	Rules         []RuleResult        `json:"rules"`
}

// MatchedCount returns the number of matched rules in the group.
func (g GroupResult) MatchedCount() int {
	n := 0
	for _, r := range g.Rules {
		if r.Matched {
			n++
		}
	}
	return n
}

// Contribution is an action emitted by a matched rule, tagged with where it
// came from.
type Contribution struct {
	Action        rules.Action
	RuleID        string
	RuleName      string
	GroupID       string
	GroupPriority int
	RulePriority  int
}

// GroupExecution is the outcome of running one group.
type GroupExecution struct {
	Result        GroupResult
	Contributions []Contribution
	// ruleIndex maps each contribution to its position in Result.Rules.
	ruleIndex []int
}

// ResolvedAction is a contributed action after resolution. Overridden actions
// stay in the trace with OverriddenBy set.
type ResolvedAction struct {
	Kind               rules.ActionKind `json:"kind"`
	Behavior           rules.Behavior   `json:"behavior"`
	Detail             string           `json:"detail"`
	Action             rules.Action     `json:"params"`
	RuleID             string           `json:"rule_id"`
	RuleName           string           `json:"rule_name"`
	GroupID            string           `json:"group_id"`
	OverriddenBy       string           `json:"overridden_by,omitempty"`
	OverriddenByRuleID string           `json:"overridden_by_rule_id,omitempty"`
}

// UnmarshalJSON rebuilds the typed action from its kind and params, so
// stored traces decode back into results.
func (a *ResolvedAction) UnmarshalJSON(data []byte) error {
	type plain ResolvedAction
	var aux struct {
		plain
		Action map[string]interface{} `json:"params"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*a = ResolvedAction(aux.plain)
	if aux.Action != nil {
		action, err := rules.NewAction(a.Kind, aux.Action)
		if err != nil {
			return fmt.Errorf("decode %s params: %w", a.Kind, err)
		}
		a.Action = action
	}
	return nil
}

// Overridden reports whether a later action of the same kind superseded
// this one.
func (a ResolvedAction) Overridden() bool {
	return a.OverriddenByRuleID != ""
}

// Resolution is the output of ResolveActions.
type Resolution struct {
	// All holds every contribution in evaluation order.
	All []ResolvedAction
	// Final holds the actions to execute: All minus overridden entries.
	Final []ResolvedAction
	// Decision summarizes Final for consumers.
	Decision Decision
}

// Decision is the consumer-facing summary of the final actions.
type Decision struct {
	Workflow      string         `json:"workflow,omitempty"`
	Warehouse     string         `json:"warehouse,omitempty"`
	Priority      string         `json:"priority,omitempty"`
	Hold          bool           `json:"hold"`
	HoldReason    string         `json:"hold_reason,omitempty"`
	SplitStrategy string         `json:"split_strategy,omitempty"`
	Tags          []string       `json:"tags,omitempty"`
	Notifications []rules.Notify `json:"notifications,omitempty"`
}

// ExecutionSimulationResult is the full trace of one simulation.
type ExecutionSimulationResult struct {
	RuleSetVersion       string           `json:"rule_set_version,omitempty"`
	TotalRulesEvaluated  int              `json:"total_rules_evaluated"`
	TotalRulesMatched    int              `json:"total_rules_matched"`
	TotalActionsExecuted int              `json:"total_actions_executed"`
	Groups               []GroupResult    `json:"groups"`
	FinalActions         []ResolvedAction `json:"final_actions"`
	AllActions           []ResolvedAction `json:"all_actions"`
	Decision             Decision         `json:"decision"`
}

// NoActions reports whether the simulation produced nothing to execute.
func (r *ExecutionSimulationResult) NoActions() bool {
	return len(r.FinalActions) == 0
}

// OverriddenCount returns the number of superseded actions.
func (r *ExecutionSimulationResult) OverriddenCount() int {
	return len(r.AllActions) - len(r.FinalActions)
}

// SpanAttributes summarizes the result for a trace span.
func (r *ExecutionSimulationResult) SpanAttributes() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(tracing.AttrRuleSetVersion, r.RuleSetVersion),
		attribute.Int(tracing.AttrRulesEvaluated, r.TotalRulesEvaluated),
		attribute.Int(tracing.AttrRulesMatched, r.TotalRulesMatched),
		attribute.Int(tracing.AttrActionsExecuted, r.TotalActionsExecuted),
		attribute.String(tracing.AttrWorkflow, r.Decision.Workflow),
		attribute.String(tracing.AttrWarehouse, r.Decision.Warehouse),
		attribute.Bool(tracing.AttrHold, r.Decision.Hold),
	}
}
