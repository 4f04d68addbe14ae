package history

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"orderdesk/automation/pkg/routing/engine"
)

// StoreObserver is notified after each stored record.
type StoreObserver interface {
	ObserveRecordStored()
}

// Recorder turns simulation results into stored records.
type Recorder struct {
	storage  Storage
	logger   *slog.Logger
	observer StoreObserver
	now      func() time.Time
}

// NewRecorder creates a recorder writing to storage. A nil logger uses
// slog.Default.
func NewRecorder(storage Storage, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		storage: storage,
		logger:  logger.With("component", "history.recorder"),
		now:     time.Now,
	}
}

// SetObserver installs an observer for stored records.
func (r *Recorder) SetObserver(o StoreObserver) {
	r.observer = o
}

// NewRecord builds a record for result without storing it.
func NewRecord(factName string, result *engine.ExecutionSimulationResult, createdAt time.Time) (*Record, error) {
	if result == nil {
		return nil, fmt.Errorf("nil simulation result")
	}
	decision, err := json.Marshal(result.Decision)
	if err != nil {
		return nil, fmt.Errorf("marshal decision: %w", err)
	}
	trace, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("marshal trace: %w", err)
	}
	return &Record{
		ID:                uuid.NewString(),
		CreatedAt:         createdAt.UTC(),
		FactName:          factName,
		RuleSetVersion:    result.RuleSetVersion,
		RulesEvaluated:    result.TotalRulesEvaluated,
		RulesMatched:      result.TotalRulesMatched,
		ActionsExecuted:   result.TotalActionsExecuted,
		ActionsOverridden: result.OverriddenCount(),
		Workflow:          result.Decision.Workflow,
		Decision:          decision,
		Trace:             trace,
	}, nil
}

// Record stores result under factName and returns the stored record.
func (r *Recorder) Record(ctx context.Context, factName string, result *engine.ExecutionSimulationResult) (*Record, error) {
	rec, err := NewRecord(factName, result, r.now())
	if err != nil {
		return nil, err
	}
	if err := r.storage.Store(ctx, rec); err != nil {
		r.logger.Error("failed to store run", "fact", factName, "error", err)
		return nil, err
	}
	if r.observer != nil {
		r.observer.ObserveRecordStored()
	}
	r.logger.Debug("run recorded",
		"id", rec.ID,
		"fact", factName,
		"version", rec.RuleSetVersion,
	)
	return rec, nil
}

// RecordBatch stores every item of a batch run. It stops at the first
// storage failure.
func (r *Recorder) RecordBatch(ctx context.Context, items []engine.BatchItem) ([]*Record, error) {
	records := make([]*Record, 0, len(items))
	for _, item := range items {
		rec, err := r.Record(ctx, item.Name, item.Result)
		if err != nil {
			return records, fmt.Errorf("record %q: %w", item.Name, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// Result decodes the stored trace back into a simulation result.
func (rec *Record) Result() (*engine.ExecutionSimulationResult, error) {
	var result engine.ExecutionSimulationResult
	if err := json.Unmarshal(rec.Trace, &result); err != nil {
		return nil, fmt.Errorf("decode trace of %s: %w", rec.ID, err)
	}
	return &result, nil
}
