package history

import (
	"context"
	"encoding/json"
	"time"
)

// Record is one stored simulation run.
type Record struct {
	ID                string          `json:"id"`
	CreatedAt         time.Time       `json:"created_at"`
	FactName          string          `json:"fact_name"`
	RuleSetVersion    string          `json:"rule_set_version"`
	RulesEvaluated    int             `json:"rules_evaluated"`
	RulesMatched      int             `json:"rules_matched"`
	ActionsExecuted   int             `json:"actions_executed"`
	ActionsOverridden int             `json:"actions_overridden"`
	Workflow          string          `json:"workflow,omitempty"`
	Decision          json.RawMessage `json:"decision"`
	Trace             json.RawMessage `json:"trace"`
}

// Query filters records. Zero fields do not filter. Results are ordered
// newest first.
type Query struct {
	FactName       string
	RuleSetVersion string
	Since          *time.Time
	Until          *time.Time

	// Limit caps the number of results; 0 means no limit.
	Limit int

	// Offset skips this many results.
	Offset int
}

// Matches reports whether r satisfies the query filters. Since is
// inclusive and Until exclusive.
func (q *Query) Matches(r *Record) bool {
	if q == nil {
		return true
	}
	if q.FactName != "" && r.FactName != q.FactName {
		return false
	}
	if q.RuleSetVersion != "" && r.RuleSetVersion != q.RuleSetVersion {
		return false
	}
	if q.Since != nil && r.CreatedAt.Before(*q.Since) {
		return false
	}
	if q.Until != nil && !r.CreatedAt.Before(*q.Until) {
		return false
	}
	return true
}

// Storage persists run records.
type Storage interface {
	// Store writes a record. Storing an existing ID fails.
	Store(ctx context.Context, record *Record) error

	// Get returns the record with id, or ErrNotFound.
	Get(ctx context.Context, id string) (*Record, error)

	// List returns records matching query, newest first.
	List(ctx context.Context, query *Query) ([]*Record, error)

	// Count returns the number of records matching query, ignoring Limit
	// and Offset.
	Count(ctx context.Context, query *Query) (int64, error)

	// DeleteBefore removes records created before cutoff.
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// DeleteOldest removes all but the newest keep records.
	DeleteOldest(ctx context.Context, keep int64) (int64, error)

	// Close releases the backend.
	Close() error
}
