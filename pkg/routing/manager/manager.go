package manager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"

	"orderdesk/automation/pkg/routing/engine"
	"orderdesk/automation/pkg/routing/source"
	"orderdesk/automation/pkg/rules"
	"orderdesk/automation/pkg/telemetry/tracing"
)

// ErrNotLoaded is returned when a snapshot is requested before the first
// successful load.
var ErrNotLoaded = errors.New("no rule set loaded")

// ReloadObserver is notified after every load attempt.
type ReloadObserver interface {
	ObserveReload(err error, duration time.Duration)
	ObserveConflicts(summary engine.ConflictSummary)
}

// Snapshot is an immutable view of a loaded rule set.
type Snapshot struct {
	RuleSet   *rules.RuleSet
	Conflicts []engine.ConflictWarning
	LoadedAt  time.Time
}

// Summary counts the snapshot's conflicts by severity.
func (s *Snapshot) Summary() engine.ConflictSummary {
	return engine.GetConflictSummary(s.Conflicts)
}

// Manager owns the active rule set snapshot.
type Manager struct {
	src      source.Source
	sim      *engine.Simulator
	logger   *slog.Logger
	observer ReloadObserver

	mu            sync.RWMutex
	current       *Snapshot
	lastLoadTime  time.Time
	lastLoadError error
	reloads       int
}

// Option configures a Manager.
type Option func(*Manager)

// WithObserver installs a reload observer.
func WithObserver(o ReloadObserver) Option {
	return func(m *Manager) {
		m.observer = o
	}
}

// New creates a manager. A nil simulator uses the default engine config and
// a nil logger uses slog.Default.
func New(src source.Source, sim *engine.Simulator, logger *slog.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if sim == nil {
		sim = engine.NewSimulator(logger, nil)
	}
	m := &Manager{
		src:    src,
		sim:    sim,
		logger: logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Load fetches the rule set from the source, validates it and makes it the
// active snapshot. On failure the previous snapshot stays active and the
// error is recorded for LastLoadError.
func (m *Manager) Load(ctx context.Context) error {
	start := time.Now()

	ctx, span := otel.Tracer(tracing.InstrumentationName).Start(ctx, tracing.SpanLoad)
	defer span.End()

	snap, err := m.build(ctx)
	tracing.SetStatus(span, err)

	m.mu.Lock()
	m.lastLoadTime = time.Now()
	m.lastLoadError = err
	if err == nil {
		m.current = snap
		m.reloads++
	}
	m.mu.Unlock()

	if m.observer != nil {
		m.observer.ObserveReload(err, time.Since(start))
	}

	if err != nil {
		m.logger.Error("rule set load failed, keeping previous snapshot",
			"error", err,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return err
	}

	summary := snap.Summary()
	span.SetAttributes(tracing.RuleSetAttributes(snap.RuleSet)...)
	span.SetAttributes(tracing.ConflictAttributes(summary.Total, summary.Errors)...)
	if m.observer != nil {
		m.observer.ObserveConflicts(summary)
	}
	m.logger.Info("rule set loaded",
		"version", snap.RuleSet.Version,
		"groups", len(snap.RuleSet.Groups),
		"rules", snap.RuleSet.RuleCount(),
		"conflicts", summary.Total,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	for _, w := range snap.Conflicts {
		if w.Severity == engine.SeverityInfo {
			continue
		}
		m.logger.Warn("rule set conflict",
			"code", w.Code,
			"severity", w.Severity,
			"group", w.GroupID,
			"rules", w.RuleIDs,
			"message", w.Message,
		)
	}
	return nil
}

func (m *Manager) build(ctx context.Context) (*Snapshot, error) {
	set, err := m.src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load rule set: %w", err)
	}
	if err := m.sim.Validate(set); err != nil {
		return nil, err
	}
	return &Snapshot{
		RuleSet:   set,
		Conflicts: engine.DetectConflicts(set),
		LoadedAt:  time.Now(),
	}, nil
}

// Snapshot returns the active snapshot, or ErrNotLoaded.
func (m *Manager) Snapshot() (*Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return nil, ErrNotLoaded
	}
	return m.current, nil
}

// Simulate evaluates fact against the active snapshot.
func (m *Manager) Simulate(fact rules.Fact) (*engine.ExecutionSimulationResult, error) {
	snap, err := m.Snapshot()
	if err != nil {
		return nil, err
	}
	return m.sim.Simulate(fact, snap.RuleSet)
}

// SimulateBatch evaluates every fact against the same active snapshot.
func (m *Manager) SimulateBatch(ctx context.Context, facts []rules.NamedFact) ([]engine.BatchItem, error) {
	snap, err := m.Snapshot()
	if err != nil {
		return nil, err
	}
	return m.sim.SimulateBatch(ctx, snap.RuleSet, facts)
}

// Watch reloads the rule set whenever the source reports a change. It
// blocks until ctx is cancelled or the source closes its event channel.
// Reload failures are logged and do not stop the watch.
func (m *Manager) Watch(ctx context.Context) error {
	events, err := m.src.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watch rule source: %w", err)
	}

	m.logger.Info("watching rule source for changes")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			m.logger.Debug("rule source changed",
				"type", ev.Type,
				"path", ev.Path,
				"revision", ev.Revision,
			)
			_ = m.Load(ctx)
		}
	}
}

// LastLoadTime returns the time of the last load attempt.
func (m *Manager) LastLoadTime() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastLoadTime
}

// LastLoadError returns the error of the last load attempt, nil on success.
func (m *Manager) LastLoadError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastLoadError
}

// Reloads returns the number of successful loads.
func (m *Manager) Reloads() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.reloads
}
