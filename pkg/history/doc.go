// Package history records simulation runs for later inspection.
//
// A Record captures who was simulated (the fact name), against which rule
// set version, the counts from the result, the consumer-facing decision and
// the full result as JSON. Records are written through a Storage backend;
// the storage subpackage provides in-memory and SQLite implementations and
// the retention subpackage prunes old records on a cron schedule.
//
//	store, err := storage.Open(&cfg.History, logger)
//	rec := history.NewRecorder(store, logger)
//	if _, err := rec.Record(ctx, "order-1001", result); err != nil {
//		return err
//	}
package history
