// Package retention prunes the run history.
//
// A Pruner applies two limits to a history.Storage:
//
//   - RetentionDays deletes records older than the retention period
//   - MaxRecords keeps only the newest records
//
// Either limit is skipped when zero. When ArchivePath is set, the records
// about to be deleted are exported as JSON first.
//
// Pruning can be triggered directly:
//
//	pruner := retention.NewPruner(store, &retention.Config{RetentionDays: 30}, logger)
//	deleted, err := pruner.Prune(ctx)
//
// or on a cron schedule:
//
//	if err := pruner.Start(ctx); err != nil {
//	    return err
//	}
//	defer pruner.Stop()
//
// An empty PruneSchedule leaves the scheduler idle.
package retention
