package main

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"orderdesk/automation/pkg/cli"
	"orderdesk/automation/pkg/history"
	"orderdesk/automation/pkg/routing/engine"
	"orderdesk/automation/pkg/rules/parser"
)

var batchFlags struct {
	rules   string
	facts   string
	workers int
	format  string
	record  bool
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Simulate many orders against a rule set",
	Long: `Simulate every fact in a file or directory against one rule set.

A fact file may hold a single fact or a list under "facts", each entry with
a name and values. Facts are simulated concurrently; results keep the input
order.

Examples:
  # Summary table
  orderdesk batch --rules rules/ --facts orders.yaml

  # Spreadsheet-friendly output with 8 workers
  orderdesk batch --rules rules/ --facts orders/ --workers 8 --format csv

  # Full traces as JSON
  orderdesk batch --rules rules/ --facts orders.yaml --format json`,
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringVarP(&batchFlags.rules, "rules", "r", "", "rule file or directory (default: rules.path)")
	batchCmd.Flags().StringVar(&batchFlags.facts, "facts", "", "fact file or directory")
	batchCmd.Flags().IntVarP(&batchFlags.workers, "workers", "w", 0, "concurrent simulations (default: engine.batch_workers)")
	batchCmd.Flags().StringVar(&batchFlags.format, "format", "text", "output format: text, json, csv")
	batchCmd.Flags().BoolVar(&batchFlags.record, "record", false, "store every run in the history database")
	_ = batchCmd.MarkFlagRequired("facts")
}

// BatchReport is the outcome of a batch run.
type BatchReport struct {
	RunID          string             `json:"run_id"`
	RuleSetVersion string             `json:"rule_set_version,omitempty"`
	Items          []engine.BatchItem `json:"items"`
}

// Header implements cli.Table.
func (r *BatchReport) Header() []string {
	return []string{
		"fact", "rules_evaluated", "rules_matched", "actions_executed", "actions_overridden",
		"workflow", "warehouse", "priority", "hold", "split", "tags",
	}
}

// Rows implements cli.Table.
func (r *BatchReport) Rows() [][]string {
	rows := make([][]string, len(r.Items))
	for i, item := range r.Items {
		res := item.Result
		d := res.Decision
		rows[i] = []string{
			item.Name,
			strconv.Itoa(res.TotalRulesEvaluated),
			strconv.Itoa(res.TotalRulesMatched),
			strconv.Itoa(res.TotalActionsExecuted),
			strconv.Itoa(res.OverriddenCount()),
			d.Workflow,
			d.Warehouse,
			d.Priority,
			strconv.FormatBool(d.Hold),
			d.SplitStrategy,
			strings.Join(d.Tags, ";"),
		}
	}
	return rows
}

// WriteText renders an aligned summary table.
func (r *BatchReport) WriteText(w io.Writer) error {
	fmt.Fprintf(w, "Batch %s: %d fact(s)", r.RunID, len(r.Items))
	if r.RuleSetVersion != "" {
		fmt.Fprintf(w, " against rule set %s", r.RuleSetVersion)
	}
	fmt.Fprint(w, "\n\n")

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FACT\tMATCHED\tACTIONS\tOVERRIDDEN\tWORKFLOW\tTAGS")
	for _, row := range r.Rows() {
		fmt.Fprintf(tw, "%s\t%s/%s\t%s\t%s\t%s\t%s\n",
			row[0], row[2], row[1], row[3], row[4], dash(row[5]), dash(row[10]))
	}
	return tw.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func runBatch(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(batchFlags.format, cli.FormatText, cli.FormatJSON, cli.FormatCSV)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if batchFlags.workers > 0 {
		cfg.Engine.BatchWorkers = batchFlags.workers
	}
	logger, err := newLogger(cmd, cfg, slog.LevelWarn)
	if err != nil {
		return err
	}
	_, stopTracing, err := startTracing(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer stopTracing()
	ctx := cmd.Context()

	set, err := loadRuleSet(ctx, rulesPath(cfg, batchFlags.rules), logger)
	if err != nil {
		return cli.NewCommandError("batch", err)
	}
	facts, err := parser.LoadFacts(batchFlags.facts)
	if err != nil {
		return cli.NewCommandError("batch", err)
	}

	report := &BatchReport{RunID: uuid.NewString(), RuleSetVersion: set.Version}
	logger.Info("batch started", "run_id", report.RunID, "facts", len(facts), "workers", cfg.Engine.BatchWorkers)

	report.Items, err = newSimulator(cfg, logger).SimulateBatch(ctx, set, facts)
	if err != nil {
		reportValidation(cmd.ErrOrStderr(), err)
		return cli.NewCommandError("batch", err)
	}

	if batchFlags.record {
		store, err := openHistory(cfg, logger)
		if err != nil {
			return err
		}
		defer store.Close()

		records, err := history.NewRecorder(store, logger).RecordBatch(ctx, report.Items)
		if err != nil {
			return cli.NewCommandError("batch", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "recorded %d run(s)\n", len(records))
	}

	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), report)
}
