// Package engine decides which automated actions apply to an order.
//
// The engine is a single-pass, single-fact evaluator built from six layers,
// leaf to root:
//
//   - EvaluateCondition compares one fact field against one condition and
//     fails closed: a missing field or an unparsable number or date is simply
//     "not matched". Only is_empty matches a missing field.
//   - MatchRule combines a rule's conditions with its AND/OR logic. Every
//     condition is evaluated so the trace lists all satisfied conditions.
//   - ExecuteGroup walks a group's rules in ascending priority and applies
//     the group's execution mode (FIRST_MATCH, ALL_MATCH or CHAIN).
//   - ResolveActions receives every contributed action once, in group
//     priority then rule priority order. ADDITIVE kinds accumulate. For each
//     OVERRIDE kind only the last contribution survives, and earlier ones are
//     marked with the name of the rule that superseded them. A later group
//     therefore overrides an earlier group's action of the same kind.
//   - DetectGroupConflicts and DetectConflicts statically flag authoring
//     hazards. They are advisory and never affect evaluation.
//   - Simulate validates the rule set, runs the layers above and returns a
//     deterministic ExecutionSimulationResult that RenderTrace turns into a
//     readable tree.
//
// # Usage
//
//	sim := engine.NewSimulator(logger, engine.DefaultEngineConfig())
//	result, err := sim.Simulate(fact, set)
//	if errors.Is(err, engine.ErrInvalidRuleSet) {
//		// the rule set is structurally broken; nothing was evaluated
//	}
//	engine.RenderTrace(os.Stdout, result)
//
// # Concurrency
//
// Evaluation is pure. A *rules.RuleSet may be shared by any number of
// concurrent simulations as long as nobody mutates it. SimulateBatch fans a
// list of facts out over a bounded worker pool against one snapshot.
package engine
