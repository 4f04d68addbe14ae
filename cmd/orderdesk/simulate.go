package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"

	"orderdesk/automation/pkg/cli"
	"orderdesk/automation/pkg/history"
	"orderdesk/automation/pkg/routing/engine"
	"orderdesk/automation/pkg/rules/parser"
	"orderdesk/automation/pkg/telemetry/tracing"
)

var simulateFlags struct {
	rules  string
	fact   string
	format string
	record bool
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Simulate one order against a rule set",
	Long: `Evaluate a single order fact against a rule set and print the trace.

The fact file is a flat YAML or JSON mapping of field names to values. The
text output lists every group with its matched and skipped rules, the
actions in evaluation order with overridden ones struck through, and the
final decision.

Examples:
  # Simulate against a directory of rule files
  orderdesk simulate --rules rules/ --fact order.yaml

  # Machine-readable result
  orderdesk simulate --rules rules.yaml --fact order.json --format json

  # Store the run in the history database
  orderdesk simulate --rules rules/ --fact order.yaml --record`,
	RunE: runSimulate,
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().StringVarP(&simulateFlags.rules, "rules", "r", "", "rule file or directory (default: rules.path)")
	simulateCmd.Flags().StringVarP(&simulateFlags.fact, "fact", "f", "", "fact file to simulate")
	simulateCmd.Flags().StringVar(&simulateFlags.format, "format", "text", "output format: text, json")
	simulateCmd.Flags().BoolVar(&simulateFlags.record, "record", false, "store the run in the history database")
	_ = simulateCmd.MarkFlagRequired("fact")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(simulateFlags.format, cli.FormatText, cli.FormatJSON)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cmd, cfg, slog.LevelWarn)
	if err != nil {
		return err
	}
	tracer, stopTracing, err := startTracing(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer stopTracing()
	ctx, span := tracer.Start(cmd.Context(), tracing.SpanSimulate)
	defer span.End()

	set, err := loadRuleSet(ctx, rulesPath(cfg, simulateFlags.rules), logger)
	if err != nil {
		tracing.SetStatus(span, err)
		return cli.NewCommandError("simulate", err)
	}
	facts, err := parser.LoadFacts(simulateFlags.fact)
	if err != nil {
		return cli.NewCommandError("simulate", err)
	}
	if len(facts) != 1 {
		return cli.NewCommandError("simulate",
			fmt.Errorf("%s holds %d facts; use batch for more than one", simulateFlags.fact, len(facts)))
	}

	result, err := newSimulator(cfg, logger).Simulate(facts[0].Fact, set)
	tracing.SetStatus(span, err)
	if err != nil {
		reportValidation(cmd.ErrOrStderr(), err)
		return cli.NewCommandError("simulate", err)
	}
	span.SetAttributes(result.SpanAttributes()...)

	if simulateFlags.record {
		store, err := openHistory(cfg, logger)
		if err != nil {
			return err
		}
		defer store.Close()

		rec, err := history.NewRecorder(store, logger).Record(ctx, facts[0].Name, result)
		if err != nil {
			return cli.NewCommandError("simulate", err)
		}
		span.SetAttributes(attribute.String(tracing.AttrRunID, rec.ID))
		fmt.Fprintf(cmd.ErrOrStderr(), "recorded run %s\n", rec.ID)
	}

	out := cmd.OutOrStdout()
	if format == cli.FormatJSON {
		return cli.NewFormatter(format).FormatTo(out, result)
	}
	return engine.RenderTrace(out, result)
}
