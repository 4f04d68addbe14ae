// Package rules defines the data model evaluated by the order automation
// routing engine.
//
// The model is a plain, immutable snapshot of what rule authors configured:
//
// Fact: the order document being evaluated, as a map of field name to Value
//
// Condition: a single predicate over one fact field
//
// Rule: a prioritized bundle of conditions combined with AND or OR, plus the
// actions it contributes when matched
//
// RuleGroup: a bundle of rules sharing one execution mode
//
// Action: a closed set of action variants, each declaring whether it
// overrides earlier instances of its kind or accumulates with them
//
// RuleSet: the groups and rules of one evaluation, plus presentation-only
// annotations that the engine never reads
//
// Nothing in this package evaluates rules. See package
// orderdesk/automation/pkg/routing/engine for evaluation and
// orderdesk/automation/pkg/rules/validator for structural checks.
package rules
