package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"orderdesk/automation/pkg/history"
)

// MemoryStorage implements history.Storage in memory.
type MemoryStorage struct {
	records map[string]*history.Record
	mu      sync.RWMutex
}

// NewMemoryStorage creates an empty in-memory backend.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{records: make(map[string]*history.Record)}
}

// Store keeps a copy of record.
func (s *MemoryStorage) Store(ctx context.Context, record *history.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[record.ID]; exists {
		return history.NewStorageError("memory", "store", history.ErrDuplicateID)
	}
	c := *record
	s.records[record.ID] = &c
	return nil
}

// Get returns a copy of the record with id.
func (s *MemoryStorage) Get(ctx context.Context, id string) (*history.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[id]
	if !ok {
		return nil, history.ErrNotFound
	}
	c := *r
	return &c, nil
}

// List returns matching records, newest first.
func (s *MemoryStorage) List(ctx context.Context, query *history.Query) ([]*history.Record, error) {
	s.mu.RLock()
	matched := s.matching(query)
	s.mu.RUnlock()

	if query == nil {
		return matched, nil
	}
	if query.Offset >= len(matched) {
		return []*history.Record{}, nil
	}
	matched = matched[query.Offset:]
	if query.Limit > 0 && query.Limit < len(matched) {
		matched = matched[:query.Limit]
	}
	return matched, nil
}

// Count returns the number of matching records.
func (s *MemoryStorage) Count(ctx context.Context, query *history.Query) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.matching(query))), nil
}

// DeleteBefore removes records created before cutoff.
func (s *MemoryStorage) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, r := range s.records {
		if r.CreatedAt.Before(cutoff) {
			delete(s.records, id)
			deleted++
		}
	}
	return deleted, nil
}

// DeleteOldest keeps the newest keep records.
func (s *MemoryStorage) DeleteOldest(ctx context.Context, keep int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.matching(nil)
	if int64(len(all)) <= keep {
		return 0, nil
	}
	var deleted int64
	for _, r := range all[keep:] {
		delete(s.records, r.ID)
		deleted++
	}
	return deleted, nil
}

// Close is a no-op.
func (s *MemoryStorage) Close() error {
	return nil
}

// matching returns copies of the records satisfying query, newest first.
// The caller holds s.mu.
func (s *MemoryStorage) matching(query *history.Query) []*history.Record {
	out := make([]*history.Record, 0, len(s.records))
	for _, r := range s.records {
		if query.Matches(r) {
			c := *r
			out = append(out, &c)
		}
	}
	sortNewestFirst(out)
	return out
}

func sortNewestFirst(records []*history.Record) {
	sort.Slice(records, func(i, j int) bool {
		if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].CreatedAt.After(records[j].CreatedAt)
		}
		return records[i].ID > records[j].ID
	})
}
