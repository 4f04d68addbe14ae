package source

import (
	"context"
	"time"

	"orderdesk/automation/pkg/rules"
)

// EventType describes why a source changed.
type EventType string

const (
	// EventModified means rule files were created, written or renamed.
	EventModified EventType = "modified"
	// EventRemoved means a watched rule file was deleted.
	EventRemoved EventType = "removed"
	// EventRevision means a new upstream revision was fetched.
	EventRevision EventType = "revision"
)

// Event is emitted by Watch when the underlying rule set may have changed.
type Event struct {
	Type     EventType
	Path     string
	Revision string
	Time     time.Time
}

// Source loads rule sets and reports changes to them.
type Source interface {
	// Load returns the current rule set.
	Load(ctx context.Context) (*rules.RuleSet, error)

	// Watch returns a channel of change events. The channel is closed when
	// ctx is cancelled.
	Watch(ctx context.Context) (<-chan Event, error)
}
