package source

import (
	"context"
	"sync"
	"time"

	"orderdesk/automation/pkg/rules"
)

// MemorySource is an in-memory rule-set source.
type MemorySource struct {
	mu       sync.RWMutex
	set      *rules.RuleSet
	watchers []chan Event
}

// NewMemorySource creates a source holding set.
func NewMemorySource(set *rules.RuleSet) *MemorySource {
	return &MemorySource{set: set}
}

// Load returns the stored rule set.
func (s *MemorySource) Load(ctx context.Context) (*rules.RuleSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.set == nil {
		return &rules.RuleSet{}, nil
	}
	return s.set, nil
}

// Watch returns a channel that receives an event for every Set call.
func (s *MemorySource) Watch(ctx context.Context) (<-chan Event, error) {
	ch := make(chan Event, 1)

	s.mu.Lock()
	s.watchers = append(s.watchers, ch)
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, w := range s.watchers {
			if w == ch {
				s.watchers = append(s.watchers[:i], s.watchers[i+1:]...)
				break
			}
		}
		close(ch)
	}()

	return ch, nil
}

// Set replaces the rule set and notifies watchers. A watcher that has not
// consumed the previous event is not sent a second one.
func (s *MemorySource) Set(set *rules.RuleSet) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.set = set
	ev := Event{Type: EventModified, Path: "memory", Revision: set.Version, Time: time.Now()}
	for _, w := range s.watchers {
		select {
		case w <- ev:
		default:
		}
	}
}
