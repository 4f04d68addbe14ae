package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"orderdesk/automation/pkg/config"
	"orderdesk/automation/pkg/history"
)

var base = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// backends returns a fresh instance of every storage implementation.
func backends(t *testing.T) map[string]history.Storage {
	t.Helper()
	out := map[string]history.Storage{"memory": NewMemoryStorage()}
	for _, driver := range []string{DriverCGO, DriverPureGo} {
		s, err := NewSQLStorage(SQLConfig{
			Driver:      driver,
			Path:        filepath.Join(t.TempDir(), "data", "history.db"),
			JournalMode: "WAL",
		}, discardLogger())
		if err != nil {
			t.Fatalf("NewSQLStorage(%s) error = %v", driver, err)
		}
		out[driver] = s
	}
	for _, s := range out {
		s := s
		t.Cleanup(func() { s.Close() })
	}
	return out
}

func record(id string, age time.Duration, fact, version string) *history.Record {
	return &history.Record{
		ID:              id,
		CreatedAt:       base.Add(-age),
		FactName:        fact,
		RuleSetVersion:  version,
		RulesEvaluated:  4,
		RulesMatched:    2,
		ActionsExecuted: 3,
		Workflow:        "wf-" + id,
		Decision:        []byte(`{"workflow":"wf-` + id + `"}`),
		Trace:           []byte(`{"groups":[]}`),
	}
}

func seed(t *testing.T, s history.Storage) {
	t.Helper()
	ctx := context.Background()
	seeds := []*history.Record{
		record("r1", 4*time.Hour, "order-1", "v1"),
		record("r2", 3*time.Hour, "order-2", "v1"),
		record("r3", 2*time.Hour, "order-1", "v2"),
		record("r4", 1*time.Hour, "order-3", "v2"),
	}
	for _, r := range seeds {
		if err := s.Store(ctx, r); err != nil {
			t.Fatalf("Store(%s) error = %v", r.ID, err)
		}
	}
}

func ids(records []*history.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func TestStorage_StoreAndGet(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			want := record("r1", time.Hour, "order-1", "v1")
			want.ActionsOverridden = 1
			if err := s.Store(ctx, want); err != nil {
				t.Fatalf("Store() error = %v", err)
			}

			got, err := s.Get(ctx, "r1")
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if !got.CreatedAt.Equal(want.CreatedAt) {
				t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, want.CreatedAt)
			}
			if got.FactName != want.FactName || got.RuleSetVersion != want.RuleSetVersion {
				t.Errorf("got %+v", got)
			}
			if got.RulesEvaluated != 4 || got.RulesMatched != 2 || got.ActionsExecuted != 3 || got.ActionsOverridden != 1 {
				t.Errorf("counts = %d/%d/%d/%d", got.RulesEvaluated, got.RulesMatched, got.ActionsExecuted, got.ActionsOverridden)
			}
			if string(got.Decision) != string(want.Decision) || string(got.Trace) != string(want.Trace) {
				t.Errorf("payloads = %s / %s", got.Decision, got.Trace)
			}

			if _, err := s.Get(ctx, "missing"); !errors.Is(err, history.ErrNotFound) {
				t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
			}
			if err := s.Store(ctx, want); !errors.Is(err, history.ErrDuplicateID) {
				t.Errorf("Store(duplicate) error = %v, want ErrDuplicateID", err)
			}
		})
	}
}

func TestStorage_List(t *testing.T) {
	since := base.Add(-150 * time.Minute)
	until := base.Add(-90 * time.Minute)

	tests := []struct {
		name  string
		query *history.Query
		want  []string
	}{
		{"nil query newest first", nil, []string{"r4", "r3", "r2", "r1"}},
		{"by fact", &history.Query{FactName: "order-1"}, []string{"r3", "r1"}},
		{"by version", &history.Query{RuleSetVersion: "v1"}, []string{"r2", "r1"}},
		{"since", &history.Query{Since: &since}, []string{"r4", "r3"}},
		{"since until", &history.Query{Since: &since, Until: &until}, []string{"r3"}},
		{"limit", &history.Query{Limit: 2}, []string{"r4", "r3"}},
		{"offset", &history.Query{Offset: 3}, []string{"r1"}},
		{"limit offset", &history.Query{Limit: 1, Offset: 1}, []string{"r3"}},
		{"offset past end", &history.Query{Offset: 10}, []string{}},
	}

	for name, s := range backends(t) {
		seed(t, s)
		for _, tt := range tests {
			t.Run(fmt.Sprintf("%s/%s", name, tt.name), func(t *testing.T) {
				got, err := s.List(context.Background(), tt.query)
				if err != nil {
					t.Fatalf("List() error = %v", err)
				}
				if fmt.Sprint(ids(got)) != fmt.Sprint(tt.want) {
					t.Errorf("List() = %v, want %v", ids(got), tt.want)
				}
			})
		}
	}
}

func TestStorage_Count(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			seed(t, s)
			ctx := context.Background()

			n, err := s.Count(ctx, nil)
			if err != nil || n != 4 {
				t.Errorf("Count(nil) = %d, %v; want 4", n, err)
			}
			n, err = s.Count(ctx, &history.Query{RuleSetVersion: "v2", Limit: 1})
			if err != nil || n != 2 {
				t.Errorf("Count(v2) = %d, %v; want 2", n, err)
			}
		})
	}
}

func TestStorage_DeleteBefore(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			seed(t, s)
			ctx := context.Background()

			deleted, err := s.DeleteBefore(ctx, base.Add(-150*time.Minute))
			if err != nil {
				t.Fatalf("DeleteBefore() error = %v", err)
			}
			if deleted != 2 {
				t.Errorf("deleted = %d, want 2", deleted)
			}
			left, _ := s.List(ctx, nil)
			if fmt.Sprint(ids(left)) != "[r4 r3]" {
				t.Errorf("remaining = %v", ids(left))
			}
		})
	}
}

func TestStorage_DeleteOldest(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			seed(t, s)
			ctx := context.Background()

			deleted, err := s.DeleteOldest(ctx, 3)
			if err != nil {
				t.Fatalf("DeleteOldest() error = %v", err)
			}
			if deleted != 1 {
				t.Errorf("deleted = %d, want 1", deleted)
			}
			if _, err := s.Get(ctx, "r1"); !errors.Is(err, history.ErrNotFound) {
				t.Errorf("oldest record still present: %v", err)
			}

			deleted, err = s.DeleteOldest(ctx, 10)
			if err != nil || deleted != 0 {
				t.Errorf("DeleteOldest(10) = %d, %v; want 0", deleted, err)
			}
		})
	}
}

func TestSQLStorage_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	cfg := SQLConfig{Driver: DriverPureGo, Path: path}

	s, err := NewSQLStorage(cfg, discardLogger())
	if err != nil {
		t.Fatalf("NewSQLStorage() error = %v", err)
	}
	if err := s.Store(context.Background(), record("r1", 0, "order-1", "v1")); err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	s.Close()

	s, err = NewSQLStorage(cfg, discardLogger())
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer s.Close()
	if _, err := s.Get(context.Background(), "r1"); err != nil {
		t.Errorf("Get() after reopen error = %v", err)
	}
}

func TestNewSQLStorage_Errors(t *testing.T) {
	if _, err := NewSQLStorage(SQLConfig{Driver: "postgres", Path: "x.db"}, nil); err == nil {
		t.Error("unsupported driver accepted")
	}
	if _, err := NewSQLStorage(SQLConfig{Driver: DriverCGO}, nil); err == nil {
		t.Error("empty path accepted")
	}
}

func TestDSN(t *testing.T) {
	tests := []struct {
		cfg  SQLConfig
		want string
	}{
		{
			SQLConfig{Driver: DriverCGO, Path: "h.db", JournalMode: "WAL", BusyTimeout: 2 * time.Second},
			"h.db?_busy_timeout=2000&_journal_mode=WAL",
		},
		{
			SQLConfig{Driver: DriverPureGo, Path: "h.db", JournalMode: "WAL", BusyTimeout: 2 * time.Second},
			"h.db?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)",
		},
		{
			SQLConfig{Driver: DriverPureGo, Path: "h.db", BusyTimeout: time.Second},
			"h.db?_pragma=busy_timeout(1000)",
		},
	}
	for _, tt := range tests {
		if got := dsn(tt.cfg); got != tt.want {
			t.Errorf("dsn(%+v) = %q, want %q", tt.cfg, got, tt.want)
		}
	}
}

func TestOpen(t *testing.T) {
	cfg := config.Default().History

	cfg.Driver = config.DriverMemory
	s, err := Open(&cfg, nil)
	if err != nil {
		t.Fatalf("Open(memory) error = %v", err)
	}
	if _, ok := s.(*MemoryStorage); !ok {
		t.Errorf("Open(memory) = %T", s)
	}

	cfg.Driver = config.DriverSQLite
	cfg.Path = filepath.Join(t.TempDir(), "h.db")
	s, err = Open(&cfg, discardLogger())
	if err != nil {
		t.Fatalf("Open(sqlite) error = %v", err)
	}
	defer s.Close()
	if _, ok := s.(*SQLStorage); !ok {
		t.Errorf("Open(sqlite) = %T", s)
	}

	cfg.Driver = "postgres"
	if _, err := Open(&cfg, nil); err == nil {
		t.Error("Open(postgres) succeeded")
	}
}
