package engine

import (
	"fmt"
	"io"
	"strings"
)

// RenderTrace writes a human-readable tree of the simulation: each group
// with its rule results and their actions, then the full action list where
// overridden actions are struck through and annotated with the rule that
// superseded them, then the decision summary. The output depends only on
// the result, so it is stable enough for golden files.
func RenderTrace(w io.Writer, result *ExecutionSimulationResult) error {
	tw := &traceWriter{w: w}

	if result.RuleSetVersion != "" {
		tw.printf("Rule set %s\n", result.RuleSetVersion)
	}
	tw.printf("Simulation: %d rule(s) evaluated, %d matched, %d action(s) executed\n",
		result.TotalRulesEvaluated, result.TotalRulesMatched, result.TotalActionsExecuted)

	for i, g := range result.Groups {
		tw.printf("\n[%d] %s (%s) %s, priority %d", i+1, g.GroupName, g.GroupID, g.ExecutionMode, g.Priority)
		if g.SkippedReason != "" {
			tw.printf(": %s\n", g.SkippedReason)
			continue
		}
		tw.printf("\n")
		if len(g.Rules) == 0 {
			tw.printf("    (no rules)\n")
		}
		for _, r := range g.Rules {
			renderRule(tw, r)
		}
	}

	tw.printf("\nActions:\n")
	if len(result.AllActions) == 0 {
		tw.printf("  no actions executed\n")
	}
	for _, a := range result.AllActions {
		tw.printf("  %s\n", formatAction(a))
	}

	if lines := decisionLines(result.Decision); len(lines) > 0 {
		tw.printf("\nDecision:\n")
		for _, line := range lines {
			tw.printf("  %s\n", line)
		}
	}

	return tw.err
}

func renderRule(tw *traceWriter, r RuleResult) {
	status := "miss"
	switch {
	case r.Skipped():
		status = "skip"
	case r.Matched:
		status = "match"
	}
	tw.printf("    [%-5s] %s (%s, priority %d)", status, r.RuleName, r.RuleID, r.Priority)

	switch {
	case r.Skipped():
		tw.printf(": %s", r.SkippedReason)
	case r.Matched && len(r.MatchedConditions) == 0:
		tw.printf(" always")
	case len(r.MatchedConditions) > 0:
		tw.printf(" held: %s", strings.Join(r.MatchedConditions, ", "))
	}
	tw.printf("\n")

	for _, a := range r.Actions {
		tw.printf("        %s\n", formatAction(a))
	}
}

func formatAction(a ResolvedAction) string {
	text := fmt.Sprintf("%s %s [%s]", a.Kind, a.Detail, a.RuleName)
	if a.Overridden() {
		return fmt.Sprintf("~~%s~~ (overridden by %s)", text, a.OverriddenBy)
	}
	return text
}

func decisionLines(d Decision) []string {
	var lines []string
	add := func(label, value string) {
		if value != "" {
			lines = append(lines, label+": "+value)
		}
	}
	add("workflow", d.Workflow)
	add("warehouse", d.Warehouse)
	add("priority", d.Priority)
	if d.Hold {
		reason := d.HoldReason
		if reason == "" {
			reason = "no reason given"
		}
		lines = append(lines, "hold: "+reason)
	}
	add("split", d.SplitStrategy)
	add("tags", strings.Join(d.Tags, ", "))
	for _, n := range d.Notifications {
		lines = append(lines, "notify: "+n.Describe())
	}
	return lines
}

// traceWriter keeps the first write error so rendering code stays linear.
type traceWriter struct {
	w   io.Writer
	err error
}

func (tw *traceWriter) printf(format string, args ...interface{}) {
	if tw.err != nil {
		return
	}
	_, tw.err = fmt.Fprintf(tw.w, format, args...)
}
