package engine

import (
	"log/slog"
	"time"

	"orderdesk/automation/pkg/rules"
	"orderdesk/automation/pkg/rules/validator"
)

// Observer receives simulation outcomes, typically to record metrics.
type Observer interface {
	ObserveSimulation(result *ExecutionSimulationResult, duration time.Duration)
	ObserveValidationFailure()
}

// Simulator runs simulations against rule set snapshots.
type Simulator struct {
	logger    *slog.Logger
	config    *EngineConfig
	validator *validator.Validator
	observer  Observer
}

// NewSimulator creates a simulator. A nil logger uses slog.Default and a nil
// config uses DefaultEngineConfig.
func NewSimulator(logger *slog.Logger, config *EngineConfig) *Simulator {
	if logger == nil {
		logger = slog.Default()
	}
	if config == nil {
		config = DefaultEngineConfig()
	}
	return &Simulator{
		logger: logger,
		config: config,
		validator: validator.New(validator.Options{
			MaxGroups:        config.MaxGroups,
			MaxRulesPerGroup: config.MaxRulesPerGroup,
		}),
	}
}

// SetObserver installs an observer. It must be called before the simulator
// is shared between goroutines.
func (s *Simulator) SetObserver(o Observer) {
	s.observer = o
}

// Validate checks the rule set and wraps any failure in a *ValidationError.
func (s *Simulator) Validate(set *rules.RuleSet) error {
	if err := s.validator.Validate(set); err != nil {
		version := ""
		if set != nil {
			version = set.Version
		}
		return &ValidationError{Version: version, Cause: err}
	}
	return nil
}

// Simulate validates the rule set and evaluates the fact against it. The
// only error returned is a *ValidationError, before anything is evaluated.
func (s *Simulator) Simulate(fact rules.Fact, set *rules.RuleSet) (*ExecutionSimulationResult, error) {
	if err := s.Validate(set); err != nil {
		s.logger.Warn("rule set rejected", "error", err)
		if s.observer != nil {
			s.observer.ObserveValidationFailure()
		}
		return nil, err
	}
	return s.run(fact, set), nil
}

// run evaluates an already validated rule set.
func (s *Simulator) run(fact rules.Fact, set *rules.RuleSet) *ExecutionSimulationResult {
	start := time.Now()

	result := &ExecutionSimulationResult{
		RuleSetVersion: set.Version,
		Groups:         make([]GroupResult, 0, len(set.Groups)),
	}

	// Each contribution remembers the rule result it belongs to so the
	// resolved actions can be attached back to the trace.
	type origin struct{ group, rule int }
	var contributions []Contribution
	var origins []origin

	for gi, group := range set.SortedGroups() {
		exec := ExecuteGroup(fact, group, set.Rules)
		result.Groups = append(result.Groups, exec.Result)

		result.TotalRulesEvaluated += len(exec.Result.Rules)
		result.TotalRulesMatched += exec.Result.MatchedCount()

		contributions = append(contributions, exec.Contributions...)
		for _, ri := range exec.ruleIndex {
			origins = append(origins, origin{group: gi, rule: ri})
		}

		s.logger.Debug("group executed",
			"group", group.ID,
			"mode", exec.Result.ExecutionMode,
			"enabled", exec.Result.Enabled,
			"rules", len(exec.Result.Rules),
			"matched", exec.Result.MatchedCount(),
		)
	}

	res := ResolveActions(contributions)
	for i, ra := range res.All {
		o := origins[i]
		rr := &result.Groups[o.group].Rules[o.rule]
		rr.Actions = append(rr.Actions, ra)
	}

	result.AllActions = res.All
	result.FinalActions = res.Final
	result.Decision = res.Decision
	result.TotalActionsExecuted = len(res.Final)

	duration := time.Since(start)
	s.logger.Info("simulation completed",
		"version", set.Version,
		"rules_evaluated", result.TotalRulesEvaluated,
		"rules_matched", result.TotalRulesMatched,
		"actions_executed", result.TotalActionsExecuted,
		"actions_overridden", result.OverriddenCount(),
		"duration", duration,
	)
	if s.observer != nil {
		s.observer.ObserveSimulation(result, duration)
	}

	return result
}

// Simulate evaluates fact against groups and rules with a default
// simulator.
func Simulate(fact rules.Fact, groups []*rules.RuleGroup, rs []*rules.Rule) (*ExecutionSimulationResult, error) {
	return NewSimulator(nil, nil).Simulate(fact, rules.NewRuleSet(groups, rs))
}
