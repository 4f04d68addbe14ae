package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"orderdesk/automation/pkg/history"
)

// Driver names registered by the two SQLite packages.
const (
	DriverCGO    = "sqlite3"
	DriverPureGo = "sqlite"
)

// SQLConfig configures the SQLite backend.
type SQLConfig struct {
	// Driver is DriverCGO or DriverPureGo.
	Driver string

	// Path is the database file. Parent directories are created.
	Path string

	// JournalMode is the SQLite journal mode, e.g. "WAL".
	JournalMode string

	// BusyTimeout is how long to wait on a locked database.
	BusyTimeout time.Duration

	// MaxOpenConns caps the connection pool.
	MaxOpenConns int
}

// SQLStorage implements history.Storage on SQLite.
type SQLStorage struct {
	db     *sql.DB
	config SQLConfig
	logger *slog.Logger
}

// NewSQLStorage opens the database, applies pragmas and creates the schema.
func NewSQLStorage(cfg SQLConfig, logger *slog.Logger) (*SQLStorage, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Driver == "" {
		cfg.Driver = DriverCGO
	}
	if cfg.Driver != DriverCGO && cfg.Driver != DriverPureGo {
		return nil, fmt.Errorf("unsupported sqlite driver %q", cfg.Driver)
	}
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}
	if cfg.MaxOpenConns == 0 {
		cfg.MaxOpenConns = 10
	}

	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, history.NewStorageError(cfg.Driver, "mkdir", err)
		}
	}

	db, err := sql.Open(cfg.Driver, dsn(cfg))
	if err != nil {
		return nil, history.NewStorageError(cfg.Driver, "open", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxOpenConns)

	s := &SQLStorage{
		db:     db,
		config: cfg,
		logger: logger.With("component", "history.storage", "driver", cfg.Driver),
	}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	s.logger.Info("history storage initialized",
		"path", cfg.Path,
		"journal_mode", cfg.JournalMode,
	)
	return s, nil
}

// dsn encodes pragmas the way each driver expects them, so every pooled
// connection gets them.
func dsn(cfg SQLConfig) string {
	busy := cfg.BusyTimeout.Milliseconds()
	if cfg.Driver == DriverPureGo {
		params := []string{fmt.Sprintf("_pragma=busy_timeout(%d)", busy)}
		if cfg.JournalMode != "" {
			params = append(params, fmt.Sprintf("_pragma=journal_mode(%s)", cfg.JournalMode))
		}
		return cfg.Path + "?" + strings.Join(params, "&")
	}
	params := []string{fmt.Sprintf("_busy_timeout=%d", busy)}
	if cfg.JournalMode != "" {
		params = append(params, "_journal_mode="+cfg.JournalMode)
	}
	return cfg.Path + "?" + strings.Join(params, "&")
}

func (s *SQLStorage) initialize() error {
	if _, err := s.db.Exec(Schema); err != nil {
		return history.NewStorageError(s.config.Driver, "create_schema", err)
	}
	if _, err := s.db.Exec(insertSchemaVersion, SchemaVersion, time.Now().UnixNano()); err != nil {
		return history.NewStorageError(s.config.Driver, "insert_schema_version", err)
	}

	var version int
	if err := s.db.QueryRow(getSchemaVersion).Scan(&version); err != nil {
		return history.NewStorageError(s.config.Driver, "get_schema_version", err)
	}
	if version != SchemaVersion {
		return history.NewStorageError(s.config.Driver, "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}
	return nil
}

// Store inserts a record.
func (s *SQLStorage) Store(ctx context.Context, r *history.Record) error {
	decision := string(r.Decision)
	if decision == "" {
		decision = "{}"
	}
	trace := string(r.Trace)
	if trace == "" {
		trace = "{}"
	}

	// Duplicate IDs are detected up front; constraint error text differs
	// between the drivers.
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM runs WHERE id = ?`, r.ID).Scan(&exists)
	if err == nil {
		return history.NewStorageError(s.config.Driver, "store", history.ErrDuplicateID)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return history.NewStorageError(s.config.Driver, "store", err)
	}

	_, err = s.db.ExecContext(ctx, insertRun,
		r.ID, r.CreatedAt.UnixNano(), r.FactName, r.RuleSetVersion,
		r.RulesEvaluated, r.RulesMatched, r.ActionsExecuted, r.ActionsOverridden,
		r.Workflow, decision, trace,
	)
	if err != nil {
		return history.NewStorageError(s.config.Driver, "store", err)
	}
	return nil
}

// Get returns the record with id.
func (s *SQLStorage) Get(ctx context.Context, id string) (*history.Record, error) {
	row := s.db.QueryRowContext(ctx, selectRuns+` WHERE id = ?`, id)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, history.ErrNotFound
	}
	if err != nil {
		return nil, history.NewStorageError(s.config.Driver, "get", err)
	}
	return r, nil
}

// List returns matching records, newest first.
func (s *SQLStorage) List(ctx context.Context, query *history.Query) ([]*history.Record, error) {
	where, args := buildWhere(query)
	stmt := selectRuns + where + ` ORDER BY created_at DESC, id DESC`
	if query != nil && (query.Limit > 0 || query.Offset > 0) {
		limit := query.Limit
		if limit <= 0 {
			limit = -1
		}
		stmt += ` LIMIT ? OFFSET ?`
		args = append(args, limit, query.Offset)
	}

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, history.NewStorageError(s.config.Driver, "list", err)
	}
	defer rows.Close()

	records := []*history.Record{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, history.NewStorageError(s.config.Driver, "list", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, history.NewStorageError(s.config.Driver, "list", err)
	}
	return records, nil
}

// Count returns the number of matching records.
func (s *SQLStorage) Count(ctx context.Context, query *history.Query) (int64, error) {
	where, args := buildWhere(query)
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`+where, args...).Scan(&n); err != nil {
		return 0, history.NewStorageError(s.config.Driver, "count", err)
	}
	return n, nil
}

// DeleteBefore removes records created before cutoff.
func (s *SQLStorage) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE created_at < ?`, cutoff.UnixNano())
	if err != nil {
		return 0, history.NewStorageError(s.config.Driver, "delete_before", err)
	}
	return res.RowsAffected()
}

// DeleteOldest keeps the newest keep records.
func (s *SQLStorage) DeleteOldest(ctx context.Context, keep int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM runs WHERE id NOT IN (
			SELECT id FROM runs ORDER BY created_at DESC, id DESC LIMIT ?
		)`, keep)
	if err != nil {
		return 0, history.NewStorageError(s.config.Driver, "delete_oldest", err)
	}
	return res.RowsAffected()
}

// Close closes the database.
func (s *SQLStorage) Close() error {
	return s.db.Close()
}

func buildWhere(q *history.Query) (string, []interface{}) {
	if q == nil {
		return "", nil
	}
	var conds []string
	var args []interface{}
	if q.FactName != "" {
		conds = append(conds, "fact_name = ?")
		args = append(args, q.FactName)
	}
	if q.RuleSetVersion != "" {
		conds = append(conds, "ruleset_version = ?")
		args = append(args, q.RuleSetVersion)
	}
	if q.Since != nil {
		conds = append(conds, "created_at >= ?")
		args = append(args, q.Since.UnixNano())
	}
	if q.Until != nil {
		conds = append(conds, "created_at < ?")
		args = append(args, q.Until.UnixNano())
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(sc scanner) (*history.Record, error) {
	var (
		r                 history.Record
		createdAt         int64
		decision, traceJS string
	)
	err := sc.Scan(
		&r.ID, &createdAt, &r.FactName, &r.RuleSetVersion,
		&r.RulesEvaluated, &r.RulesMatched, &r.ActionsExecuted, &r.ActionsOverridden,
		&r.Workflow, &decision, &traceJS,
	)
	if err != nil {
		return nil, err
	}
	r.CreatedAt = time.Unix(0, createdAt).UTC()
	r.Decision = []byte(decision)
	r.Trace = []byte(traceJS)
	return &r, nil
}
