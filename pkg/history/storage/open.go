package storage

import (
	"fmt"
	"log/slog"

	"orderdesk/automation/pkg/config"
	"orderdesk/automation/pkg/history"
)

// Open creates the backend selected by cfg.Driver.
func Open(cfg *config.HistoryConfig, logger *slog.Logger) (history.Storage, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return NewMemoryStorage(), nil
	case config.DriverSQLite3, config.DriverSQLite:
		return NewSQLStorage(SQLConfig{
			Driver:       cfg.Driver,
			Path:         cfg.Path,
			JournalMode:  cfg.JournalMode,
			BusyTimeout:  cfg.BusyTimeout,
			MaxOpenConns: cfg.MaxOpenConns,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown history driver %q", cfg.Driver)
	}
}
