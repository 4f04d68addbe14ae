package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"orderdesk/automation/pkg/cli"
	"orderdesk/automation/pkg/config"
	"orderdesk/automation/pkg/history"
	"orderdesk/automation/pkg/history/storage"
	"orderdesk/automation/pkg/routing/engine"
	"orderdesk/automation/pkg/routing/source"
	"orderdesk/automation/pkg/rules"
	"orderdesk/automation/pkg/telemetry/logging"
	"orderdesk/automation/pkg/telemetry/tracing"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "orderdesk",
	Short: "Order automation rule simulator",
	Long: `Orderdesk evaluates order automation rules without touching real orders.

Rule groups run in priority order. Each group runs its rules in FIRST_MATCH,
ALL_MATCH or CHAIN mode, and the actions of matched rules are resolved into
a final decision: OVERRIDE actions keep the last writer, ADDITIVE actions
accumulate. Every run produces a trace explaining the outcome.

Configuration is read from --config (YAML) and ORDERDESK_* environment
variables. Without --config the built-in defaults are used.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCode(err, os.Stderr))
	}
}

// exitCode reports err and maps it to a process exit status. An ExitError
// has already been reported by its command.
func exitCode(err error, w io.Writer) int {
	var exit *cli.ExitError
	if errors.As(err, &exit) {
		return exit.Code
	}
	fmt.Fprintln(w, "Error:", err)
	return 1
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default: built-in defaults)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig reads the configuration file and environment overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, cli.NewConfigError("", err.Error())
	}
	return cfg, nil
}

// newLogger builds the process logger on stderr. One-shot commands pass
// slog.LevelWarn as floor so routine simulation logs do not drown their
// output; --verbose lowers the level to debug.
func newLogger(cmd *cobra.Command, cfg *config.Config, floor slog.Level) (*slog.Logger, error) {
	lc := cfg.Telemetry.Logging
	logger, err := logging.New(logging.Config{
		Level:     lc.Level,
		Format:    lc.Format,
		AddSource: lc.AddSource,
		RedactPII: lc.RedactPII,
		Writer:    cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, cli.NewConfigError("telemetry.logging", err.Error())
	}
	if logger.Level() < floor {
		logger.SetLevel(floor)
	}
	if verbose {
		logger.SetLevel(slog.LevelDebug)
	}
	slog.SetDefault(logger.Slog())
	return logger.Slog(), nil
}

// startTracing installs the configured tracer. The returned func flushes
// and stops it.
func startTracing(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*tracing.Tracer, func(), error) {
	tracer, err := tracing.New(ctx, &cfg.Telemetry.Tracing, tracing.WithServiceVersion(Version))
	if err != nil {
		return nil, nil, cli.NewConfigError("telemetry.tracing", err.Error())
	}
	stop := func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracer.Shutdown(sctx); err != nil {
			logger.Warn("tracer shutdown failed", "error", err)
		}
	}
	return tracer, stop, nil
}

func newSimulator(cfg *config.Config, logger *slog.Logger) *engine.Simulator {
	return engine.NewSimulator(logger, &engine.EngineConfig{
		MaxGroups:        cfg.Engine.MaxGroups,
		MaxRulesPerGroup: cfg.Engine.MaxRulesPerGroup,
		BatchWorkers:     cfg.Engine.BatchWorkers,
	})
}

// rulesPath prefers the --rules flag over rules.path.
func rulesPath(cfg *config.Config, flag string) string {
	if flag != "" {
		return flag
	}
	return cfg.Rules.Path
}

func loadRuleSet(ctx context.Context, path string, logger *slog.Logger) (*rules.RuleSet, error) {
	return source.NewFileSource(path, logger).Load(ctx)
}

// openHistory opens the configured run history store.
func openHistory(cfg *config.Config, logger *slog.Logger) (history.Storage, error) {
	store, err := storage.Open(&cfg.History, logger)
	if err != nil {
		return nil, cli.NewConfigError("history", err.Error())
	}
	return store, nil
}

// reportValidation prints each validation problem of err, if any.
func reportValidation(w io.Writer, err error) {
	var verr *engine.ValidationError
	if !errors.As(err, &verr) {
		return
	}
	for _, p := range verr.Problems() {
		fmt.Fprintf(w, "  ✗ %s\n", p.Error())
	}
}
