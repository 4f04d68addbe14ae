package config

import "time"

// Config is the root configuration structure for orderdesk.
type Config struct {
	// Rules locates the rule set and controls hot reload.
	Rules RulesConfig `yaml:"rules"`

	// Engine bounds rule-set size and batch parallelism.
	Engine EngineConfig `yaml:"engine"`

	// History controls recording of simulation runs.
	History HistoryConfig `yaml:"history"`

	// Telemetry contains logging and metrics configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// RulesConfig locates the rule set.
type RulesConfig struct {
	// Path is a rule file or a directory of .yaml/.yml/.json rule files.
	// When Git.URL is set, Path is relative to the repository root.
	// Default: "./rules"
	Path string `yaml:"path"`

	// Watch enables hot reload when rule files change.
	// Default: false
	Watch bool `yaml:"watch"`

	// DebounceInterval coalesces bursts of file events into one reload.
	// Default: 100ms
	DebounceInterval time.Duration `yaml:"debounce_interval"`

	// Git, when URL is set, loads rules from a git repository.
	Git GitConfig `yaml:"git"`
}

// GitConfig describes a git-hosted rule repository.
type GitConfig struct {
	// URL is the clone URL. Empty disables the git source.
	URL string `yaml:"url"`

	// Branch to track.
	// Default: "main"
	Branch string `yaml:"branch"`

	// CheckoutDir is where the repository is cloned.
	// Default: "data/rules-repo"
	CheckoutDir string `yaml:"checkout_dir"`

	// Token authenticates HTTPS clones. Prefer ORDERDESK_RULES_GIT_TOKEN.
	Token string `yaml:"token"`

	// PollInterval is how often the remote is pulled when watching.
	// Default: 1m
	PollInterval time.Duration `yaml:"poll_interval"`

	// Timeout bounds a single clone or pull.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout"`
}

// EngineConfig bounds the simulation engine.
type EngineConfig struct {
	// MaxGroups is the largest accepted number of groups.
	// Default: 100
	MaxGroups int `yaml:"max_groups"`

	// MaxRulesPerGroup is the largest accepted number of rules in one group.
	// Default: 200
	MaxRulesPerGroup int `yaml:"max_rules_per_group"`

	// BatchWorkers is the number of facts simulated concurrently.
	// Default: number of CPUs
	BatchWorkers int `yaml:"batch_workers"`

	// RejectOnConflictErrors makes lint fail when a conflict of severity
	// ERROR is reported.
	// Default: false
	RejectOnConflictErrors bool `yaml:"reject_on_conflict_errors"`
}

// HistoryConfig controls run history storage.
type HistoryConfig struct {
	// Enabled turns on recording of simulation runs.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Driver selects the storage backend: "sqlite3" (cgo), "sqlite"
	// (pure Go) or "memory".
	// Default: "sqlite3"
	Driver string `yaml:"driver"`

	// Path is the database file for the SQLite drivers.
	// Default: "data/history.db"
	Path string `yaml:"path"`

	// JournalMode is the SQLite journal mode.
	// Default: "WAL"
	JournalMode string `yaml:"journal_mode"`

	// BusyTimeout is how long SQLite waits on a locked database.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`

	// MaxOpenConns caps the connection pool.
	// Default: 10
	MaxOpenConns int `yaml:"max_open_conns"`

	// RetentionDays prunes records older than this many days.
	// Default: 30
	RetentionDays int `yaml:"retention_days"`

	// MaxRecords caps the number of stored records. 0 means unlimited.
	// Default: 0
	MaxRecords int64 `yaml:"max_records"`

	// PruneSchedule is a standard five-field cron expression.
	// Default: "0 3 * * *"
	PruneSchedule string `yaml:"prune_schedule"`

	// ArchivePath, when set, receives a JSON export of every pruned batch
	// of records before they are deleted.
	// Env: ORDERDESK_HISTORY_ARCHIVE_PATH
	ArchivePath string `yaml:"archive_path"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains Prometheus metrics configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains OpenTelemetry tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text", "console"
	// Default: "text"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	AddSource bool `yaml:"add_source"`

	// RedactPII scrubs customer emails and phone numbers from log output.
	RedactPII bool `yaml:"redact_pii"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled turns metric collection and the HTTP endpoint on.
	Enabled bool `yaml:"enabled"`

	// Namespace prefixes every metric name.
	// Default: "orderdesk"
	Namespace string `yaml:"namespace"`

	// Subsystem follows the namespace in metric names.
	// Default: "automation"
	Subsystem string `yaml:"subsystem"`

	// ListenAddress is where the metrics endpoint is served.
	// Default: "127.0.0.1:9090"
	ListenAddress string `yaml:"listen_address"`

	// Path is the HTTP path of the metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// DurationBuckets are the simulation duration histogram buckets in
	// seconds.
	DurationBuckets []float64 `yaml:"duration_buckets"`
}

// TracingConfig contains OpenTelemetry tracing configuration. Spans are
// exported over OTLP/gRPC.
type TracingConfig struct {
	// Enabled turns span export on. When false a no-op tracer is used.
	Enabled bool `yaml:"enabled"`

	// Endpoint is the OTLP collector address.
	// Default: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// Insecure disables TLS towards the collector.
	Insecure bool `yaml:"insecure"`

	// Timeout bounds each export call.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`

	// Sampler selects the sampling strategy.
	// Options: "always", "never", "ratio"
	// Default: "always"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces kept by the "ratio" sampler.
	SampleRatio float64 `yaml:"sample_ratio"`

	// ServiceName is reported as the service.name resource attribute.
	// Default: "orderdesk-automation"
	ServiceName string `yaml:"service_name"`
}
