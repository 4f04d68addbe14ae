package retention

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"orderdesk/automation/pkg/config"
	"orderdesk/automation/pkg/history"
)

// Config contains configuration for the retention pruner.
type Config struct {
	// RetentionDays is the number of days to keep records. 0 disables
	// age-based pruning.
	RetentionDays int

	// MaxRecords is the maximum number of records to keep. 0 means
	// unlimited.
	MaxRecords int64

	// PruneSchedule is a cron expression, e.g. "0 3 * * *".
	PruneSchedule string

	// ArchivePath is a directory that receives pruned records as JSON.
	// Empty disables archiving.
	ArchivePath string
}

// FromHistoryConfig extracts the retention settings of cfg.
func FromHistoryConfig(cfg *config.HistoryConfig) *Config {
	return &Config{
		RetentionDays: cfg.RetentionDays,
		MaxRecords:    cfg.MaxRecords,
		PruneSchedule: cfg.PruneSchedule,
		ArchivePath:   cfg.ArchivePath,
	}
}

// PruneObserver is notified of deleted records.
type PruneObserver interface {
	ObserveRecordsPruned(n int64)
}

// Pruner enforces retention limits on a history store.
type Pruner struct {
	storage   history.Storage
	config    *Config
	logger    *slog.Logger
	observer  PruneObserver
	scheduler *Scheduler
	now       func() time.Time
}

// NewPruner creates a pruner for storage. A nil logger uses slog.Default.
func NewPruner(storage history.Storage, cfg *Config, logger *slog.Logger) *Pruner {
	if cfg == nil {
		cfg = &Config{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pruner{
		storage: storage,
		config:  cfg,
		logger:  logger.With("component", "history.retention"),
		now:     time.Now,
	}
	p.scheduler = NewScheduler(p)
	return p
}

// SetObserver installs an observer for pruned records.
func (p *Pruner) SetObserver(o PruneObserver) {
	p.observer = o
}

// Prune deletes records past the retention period, then trims the store to
// MaxRecords. It returns the total number deleted.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	var total int64

	if p.config.RetentionDays > 0 {
		deleted, err := p.pruneByAge(ctx)
		total += deleted
		if err != nil {
			return total, fmt.Errorf("prune by age: %w", err)
		}
	}

	if p.config.MaxRecords > 0 {
		deleted, err := p.pruneByCount(ctx)
		total += deleted
		if err != nil {
			return total, fmt.Errorf("prune by count: %w", err)
		}
	}

	if total > 0 {
		if p.observer != nil {
			p.observer.ObserveRecordsPruned(total)
		}
		p.logger.Info("history pruned",
			"deleted", total,
			"retention_days", p.config.RetentionDays,
			"max_records", p.config.MaxRecords,
		)
	} else {
		p.logger.Debug("nothing to prune")
	}
	return total, nil
}

func (p *Pruner) pruneByAge(ctx context.Context) (int64, error) {
	cutoff := p.now().AddDate(0, 0, -p.config.RetentionDays)

	if p.config.ArchivePath != "" {
		if err := p.archive(ctx, "age", &history.Query{Until: &cutoff}); err != nil {
			return 0, err
		}
	}
	return p.storage.DeleteBefore(ctx, cutoff)
}

func (p *Pruner) pruneByCount(ctx context.Context) (int64, error) {
	count, err := p.storage.Count(ctx, nil)
	if err != nil {
		return 0, err
	}
	if count <= p.config.MaxRecords {
		return 0, nil
	}

	if p.config.ArchivePath != "" {
		// Records are listed newest first, so everything past MaxRecords
		// is what DeleteOldest removes.
		if err := p.archive(ctx, "count", &history.Query{Offset: int(p.config.MaxRecords)}); err != nil {
			return 0, err
		}
	}
	return p.storage.DeleteOldest(ctx, p.config.MaxRecords)
}

// archive writes the records matching query to a timestamped JSON file.
func (p *Pruner) archive(ctx context.Context, reason string, query *history.Query) error {
	records, err := p.storage.List(ctx, query)
	if err != nil {
		return fmt.Errorf("list records to archive: %w", err)
	}
	if len(records) == 0 {
		return nil
	}

	if err := os.MkdirAll(p.config.ArchivePath, 0o755); err != nil {
		return fmt.Errorf("create archive directory: %w", err)
	}
	name := fmt.Sprintf("history-%s-%s.json", reason, p.now().UTC().Format("20060102-150405.000000000"))
	path := filepath.Join(p.config.ArchivePath, name)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create archive file: %w", err)
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		f.Close()
		return fmt.Errorf("write archive: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close archive: %w", err)
	}

	p.logger.Info("history archived", "file", path, "records", len(records))
	return nil
}

// Start starts scheduled pruning.
func (p *Pruner) Start(ctx context.Context) error {
	return p.scheduler.Start(ctx)
}

// Stop stops scheduled pruning and waits for a running prune to finish.
func (p *Pruner) Stop() {
	p.scheduler.Stop()
}

// NextPruning returns the next scheduled run, or nil when not scheduled.
func (p *Pruner) NextPruning() *time.Time {
	return p.scheduler.NextRun()
}
