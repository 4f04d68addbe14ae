package storage

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema creates the runs table. created_at holds Unix nanoseconds so both
// drivers round-trip it identically.
const Schema = `
CREATE TABLE IF NOT EXISTS runs (
	id                 TEXT PRIMARY KEY,
	created_at         INTEGER NOT NULL,
	fact_name          TEXT NOT NULL,
	ruleset_version    TEXT NOT NULL DEFAULT '',
	rules_evaluated    INTEGER NOT NULL DEFAULT 0,
	rules_matched      INTEGER NOT NULL DEFAULT 0,
	actions_executed   INTEGER NOT NULL DEFAULT 0,
	actions_overridden INTEGER NOT NULL DEFAULT 0,
	workflow           TEXT NOT NULL DEFAULT '',
	decision           TEXT NOT NULL,
	trace              TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
CREATE INDEX IF NOT EXISTS idx_runs_fact_name ON runs(fact_name);
CREATE INDEX IF NOT EXISTS idx_runs_ruleset_version ON runs(ruleset_version);

CREATE TABLE IF NOT EXISTS schema_version (
	version    INTEGER PRIMARY KEY,
	applied_at INTEGER NOT NULL
);
`

const insertSchemaVersion = `INSERT OR IGNORE INTO schema_version (version, applied_at) VALUES (?, ?)`

const getSchemaVersion = `SELECT version FROM schema_version ORDER BY version DESC LIMIT 1`

const insertRun = `
INSERT INTO runs (
	id, created_at, fact_name, ruleset_version,
	rules_evaluated, rules_matched, actions_executed, actions_overridden,
	workflow, decision, trace
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const selectRuns = `
SELECT id, created_at, fact_name, ruleset_version,
	rules_evaluated, rules_matched, actions_executed, actions_overridden,
	workflow, decision, trace
FROM runs`
