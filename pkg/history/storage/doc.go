// Package storage provides run history backends.
//
//   - MemoryStorage keeps records in a map, for tests and one-shot CLI runs.
//   - SQLStorage persists records in SQLite through either the cgo driver
//     (github.com/mattn/go-sqlite3, driver name "sqlite3") or the pure Go
//     driver (modernc.org/sqlite, driver name "sqlite").
//
// Open picks a backend from the history configuration section.
package storage
