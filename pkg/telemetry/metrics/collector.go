package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"orderdesk/automation/pkg/config"
	"orderdesk/automation/pkg/routing/engine"
)

// EngineMetrics records simulation, reload and history metrics.
type EngineMetrics struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	simulationsTotal   *prometheus.CounterVec
	simulationDuration prometheus.Histogram
	rulesEvaluated     prometheus.Counter
	rulesMatched       prometheus.Counter
	ruleMatches        *prometheus.CounterVec
	actionsTotal       *prometheus.CounterVec
	validationFailures prometheus.Counter

	reloadsTotal     *prometheus.CounterVec
	reloadDuration   prometheus.Histogram
	conflictWarnings *prometheus.GaugeVec
	lastReload       prometheus.Gauge

	historyRecords *prometheus.CounterVec

	cardinality *CardinalityLimiter
}

// NewEngineMetrics creates and registers the engine metrics. A nil registry
// gets a fresh one; zero config fields take the config package defaults.
func NewEngineMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *EngineMetrics {
	if cfg == nil {
		cfg = &config.MetricsConfig{Enabled: true}
	}
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNS
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = config.DefaultMetricsSub
	}
	if len(cfg.DurationBuckets) == 0 {
		cfg.DurationBuckets = config.DefaultDurationBuckets
	}

	ns, sub := cfg.Namespace, cfg.Subsystem
	m := &EngineMetrics{
		config:   cfg,
		registry: registry,

		simulationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub,
			Name: "simulations_total",
			Help: "Total number of simulations by outcome",
		}, []string{"outcome"}),
		simulationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: ns, Subsystem: sub,
			Name:    "simulation_duration_seconds",
			Help:    "Wall time of a single simulation in seconds",
			Buckets: cfg.DurationBuckets,
		}),
		rulesEvaluated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub,
			Name: "rules_evaluated_total",
			Help: "Total number of rules evaluated across simulations",
		}),
		rulesMatched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub,
			Name: "rules_matched_total",
			Help: "Total number of rules matched across simulations",
		}),
		ruleMatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub,
			Name: "rule_matches_total",
			Help: "Number of times a rule matched",
		}, []string{"group_id", "rule_id"}),
		actionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub,
			Name: "actions_total",
			Help: "Actions produced by matched rules, by kind and outcome",
		}, []string{"kind", "outcome"}),
		validationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub,
			Name: "validation_failures_total",
			Help: "Rule sets rejected by validation before evaluation",
		}),

		reloadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub,
			Name: "reloads_total",
			Help: "Rule-set load attempts by status",
		}, []string{"status"}),
		reloadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: ns, Subsystem: sub,
			Name:    "reload_duration_seconds",
			Help:    "Duration of rule-set loads in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		conflictWarnings: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: ns, Subsystem: sub,
			Name: "conflict_warnings",
			Help: "Conflict warnings in the active rule set by severity",
		}, []string{"severity"}),
		lastReload: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ns, Subsystem: sub,
			Name: "last_reload_timestamp_seconds",
			Help: "Unix time of the last successful rule-set load",
		}),

		historyRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub,
			Name: "history_records_total",
			Help: "Run history records by operation",
		}, []string{"operation"}),

		cardinality: NewCardinalityLimiter(10000),
	}

	registry.MustRegister(
		m.simulationsTotal,
		m.simulationDuration,
		m.rulesEvaluated,
		m.rulesMatched,
		m.ruleMatches,
		m.actionsTotal,
		m.validationFailures,
		m.reloadsTotal,
		m.reloadDuration,
		m.conflictWarnings,
		m.lastReload,
		m.historyRecords,
	)

	return m
}

// ObserveSimulation records one completed simulation.
func (m *EngineMetrics) ObserveSimulation(result *engine.ExecutionSimulationResult, duration time.Duration) {
	if !m.config.Enabled || result == nil {
		return
	}

	outcome := "actions"
	if result.NoActions() {
		outcome = "no_actions"
	}
	m.simulationsTotal.WithLabelValues(outcome).Inc()
	m.simulationDuration.Observe(duration.Seconds())
	m.rulesEvaluated.Add(float64(result.TotalRulesEvaluated))
	m.rulesMatched.Add(float64(result.TotalRulesMatched))

	for _, g := range result.Groups {
		for _, r := range g.Rules {
			if !r.Matched {
				continue
			}
			ruleID := r.RuleID
			if !m.cardinality.Allow(g.GroupID + "/" + ruleID) {
				ruleID = "other"
			}
			m.ruleMatches.WithLabelValues(g.GroupID, ruleID).Inc()
		}
	}

	for _, a := range result.AllActions {
		state := "final"
		if a.Overridden() {
			state = "overridden"
		}
		m.actionsTotal.WithLabelValues(string(a.Kind), state).Inc()
	}
}

// ObserveValidationFailure counts a rejected rule set.
func (m *EngineMetrics) ObserveValidationFailure() {
	if !m.config.Enabled {
		return
	}
	m.validationFailures.Inc()
}

// ObserveReload records a rule-set load attempt.
func (m *EngineMetrics) ObserveReload(err error, duration time.Duration) {
	if !m.config.Enabled {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.reloadsTotal.WithLabelValues(status).Inc()
	m.reloadDuration.Observe(duration.Seconds())
	if err == nil {
		m.lastReload.SetToCurrentTime()
	}
}

// ObserveConflicts publishes the conflict counts of the active rule set.
func (m *EngineMetrics) ObserveConflicts(summary engine.ConflictSummary) {
	if !m.config.Enabled {
		return
	}
	m.conflictWarnings.WithLabelValues(string(engine.SeverityError)).Set(float64(summary.Errors))
	m.conflictWarnings.WithLabelValues(string(engine.SeverityWarning)).Set(float64(summary.Warnings))
	m.conflictWarnings.WithLabelValues(string(engine.SeverityInfo)).Set(float64(summary.Info))
}

// ObserveRecordStored counts a run history record written.
func (m *EngineMetrics) ObserveRecordStored() {
	if !m.config.Enabled {
		return
	}
	m.historyRecords.WithLabelValues("stored").Inc()
}

// ObserveRecordsPruned counts run history records removed by retention.
func (m *EngineMetrics) ObserveRecordsPruned(n int64) {
	if !m.config.Enabled || n <= 0 {
		return
	}
	m.historyRecords.WithLabelValues("pruned").Add(float64(n))
}

// Registry returns the Prometheus registry used by these metrics.
func (m *EngineMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// CardinalityLimiter caps the number of distinct label sets recorded.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a limiter admitting up to maxCardinality
// distinct label sets.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow reports whether labelSet is known or still fits under the limit.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	_, exists := cl.current[labelSet]
	cl.mu.RUnlock()
	if exists {
		return true
	}

	cl.mu.Lock()
	defer cl.mu.Unlock()

	if _, exists := cl.current[labelSet]; exists {
		return true
	}
	if len(cl.current) >= cl.maxCardinality {
		return false
	}
	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
