// Package metrics exposes Prometheus metrics for the rule engine.
//
// EngineMetrics implements engine.Observer and manager.ReloadObserver, so
// wiring it is a matter of installing it on both:
//
//	m := metrics.NewEngineMetrics(&cfg.Telemetry.Metrics, nil)
//	sim.SetObserver(m)
//	mgr := manager.New(src, sim, logger, manager.WithObserver(m))
//	http.Handle(cfg.Telemetry.Metrics.Path, m.Handler())
//
// # Metrics
//
//   - simulations_total{outcome}: simulations by outcome ("actions", "no_actions")
//   - simulation_duration_seconds: wall time of one simulation
//   - rules_evaluated_total, rules_matched_total: summed over simulations
//   - rule_matches_total{group_id, rule_id}: per-rule match counts
//   - actions_total{kind, outcome}: actions by kind, "final" or "overridden"
//   - validation_failures_total: rule sets rejected before evaluation
//   - reloads_total{status}, reload_duration_seconds: rule-set reloads
//   - conflict_warnings{severity}: warnings in the active rule set
//   - last_reload_timestamp_seconds: time of the last successful reload
//   - history_records_total{operation}: run history records stored or pruned
//
// Per-rule labels are bounded by a CardinalityLimiter; label sets beyond the
// limit are folded into rule_id="other".
package metrics
