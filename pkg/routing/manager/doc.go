// Package manager keeps the active rule set for a long-running process.
//
// A Manager loads rule sets from a source.Source, validates them, runs
// conflict detection and swaps them in atomically. A reload that fails to
// load or validate leaves the previous snapshot active, so simulations keep
// running against the last good rule set.
//
// Basic usage:
//
//	sim := engine.NewSimulator(logger, engine.DefaultEngineConfig())
//	mgr := manager.New(source.NewFileSource("./rules", logger), sim, logger)
//	if err := mgr.Load(ctx); err != nil {
//		return err
//	}
//	go mgr.Watch(ctx)
//
//	result, err := mgr.Simulate(fact)
package manager
