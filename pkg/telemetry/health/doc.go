// Package health serves liveness, readiness and version endpoints for the
// long-running watch process.
//
// Components register named checks; readiness runs them concurrently with
// a per-check timeout and reports 503 when any of them fails:
//
//	checker := health.New(2 * time.Second)
//	checker.RegisterCheck("rules", func(ctx context.Context) error {
//	    _, err := mgr.Snapshot()
//	    return err
//	})
//	health.Register(mux, checker, health.VersionInfo{Version: "1.0.0"})
package health
