package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"orderdesk/automation/pkg/cli"
	"orderdesk/automation/pkg/config"
	"orderdesk/automation/pkg/history/retention"
	"orderdesk/automation/pkg/routing/manager"
	"orderdesk/automation/pkg/routing/source"
	"orderdesk/automation/pkg/telemetry/health"
	"orderdesk/automation/pkg/telemetry/metrics"
)

var watchFlags struct {
	rules  string
	listen string
	reload bool
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep a rule set loaded and serve metrics",
	Long: `Load the rule set, run conflict detection and keep serving until SIGINT or
SIGTERM.

With rules.watch (or --reload) the rule files are watched and reloaded when
they change; a rule set that fails validation is logged and the previous
one stays active. When rules.git.url is set the rules are cloned from git
and the remote is polled instead.

The HTTP listener serves Prometheus metrics on telemetry.metrics.path and
/healthz, /readyz and /version. With history.enabled the retention pruner
runs on history.prune_schedule.

Examples:
  orderdesk watch --config orderdesk.yaml
  orderdesk watch --rules rules/ --reload --listen :9090`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVarP(&watchFlags.rules, "rules", "r", "", "rule file or directory (default: rules.path)")
	watchCmd.Flags().StringVarP(&watchFlags.listen, "listen", "l", "", "override telemetry.metrics.listen_address")
	watchCmd.Flags().BoolVar(&watchFlags.reload, "reload", false, "reload rules on change (default: rules.watch)")
}

// newSource picks the git source when a repository is configured.
func newSource(cfg *config.Config, path string, logger *slog.Logger) (source.Source, error) {
	if cfg.Rules.Git.URL != "" {
		g := cfg.Rules.Git
		return source.NewGitSource(source.GitConfig{
			URL:          g.URL,
			Branch:       g.Branch,
			Path:         path,
			CheckoutDir:  g.CheckoutDir,
			Token:        g.Token,
			PollInterval: g.PollInterval,
			Timeout:      g.Timeout,
		}, logger)
	}
	fs := source.NewFileSource(path, logger)
	fs.SetDebounceInterval(cfg.Rules.DebounceInterval)
	return fs, nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if watchFlags.listen != "" {
		cfg.Telemetry.Metrics.ListenAddress = watchFlags.listen
	}
	logger, err := newLogger(cmd, cfg, slog.LevelDebug)
	if err != nil {
		return err
	}

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	_, stopTracing, err := startTracing(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer stopTracing()

	mc := &cfg.Telemetry.Metrics
	engineMetrics := metrics.NewEngineMetrics(mc, nil)

	src, err := newSource(cfg, rulesPath(cfg, watchFlags.rules), logger)
	if err != nil {
		return cli.NewConfigError("rules.git", err.Error())
	}
	sim := newSimulator(cfg, logger)
	var opts []manager.Option
	if mc.Enabled {
		sim.SetObserver(engineMetrics)
		opts = append(opts, manager.WithObserver(engineMetrics))
	}
	mgr := manager.New(src, sim, logger, opts...)

	if err := mgr.Load(ctx); err != nil {
		return cli.NewCommandError("watch", err)
	}
	snap, _ := mgr.Snapshot()
	summary := snap.Summary()
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Rule set %s loaded (%d groups, %d rules, %d conflicts)\n",
		dash(snap.RuleSet.Version), len(snap.RuleSet.Groups), len(snap.RuleSet.Rules), summary.Total)

	checker := health.New(2 * time.Second)
	checker.RegisterCheck("rules", func(context.Context) error {
		return mgr.LastLoadError()
	})

	g, gctx := errgroup.WithContext(ctx)

	if cfg.History.Enabled {
		store, err := openHistory(cfg, logger)
		if err != nil {
			return err
		}
		defer store.Close()

		checker.RegisterCheck("history", func(ctx context.Context) error {
			_, err := store.Count(ctx, nil)
			return err
		})

		pruner := retention.NewPruner(store, retention.FromHistoryConfig(&cfg.History), logger)
		if mc.Enabled {
			pruner.SetObserver(engineMetrics)
		}
		if err := pruner.Start(gctx); err != nil {
			return cli.NewConfigError("history.prune_schedule", err.Error())
		}
		defer pruner.Stop()
	}

	if mc.Enabled {
		mux := http.NewServeMux()
		mux.Handle(mc.Path, engineMetrics.Handler())
		health.Register(mux, checker, health.VersionInfo{Version: Version, Commit: GitCommit, BuildDate: BuildDate})
		srv := &http.Server{Addr: mc.ListenAddress, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

		g.Go(func() error {
			logger.Info("metrics server listening", "address", mc.ListenAddress, "path", mc.Path)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	if cfg.Rules.Watch || watchFlags.reload {
		g.Go(func() error {
			return mgr.Watch(gctx)
		})
	} else {
		logger.Info("rule reloading disabled")
	}

	g.Go(func() error {
		<-gctx.Done()
		return nil
	})

	err = g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return cli.NewCommandError("watch", err)
	}
	logger.Info("shutting down", "reloads", mgr.Reloads())
	return nil
}
