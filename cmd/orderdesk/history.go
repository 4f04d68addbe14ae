package main

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"orderdesk/automation/pkg/cli"
	"orderdesk/automation/pkg/history"
	"orderdesk/automation/pkg/history/retention"
	"orderdesk/automation/pkg/routing/engine"
)

var historyFlags struct {
	fact    string
	version string
	since   string
	until   string
	limit   int
	offset  int
	format  string

	retentionDays int
	maxRecords    int64
	archive       string
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect and prune recorded simulation runs",
	Long: `Inspect and prune runs stored with --record.

The store is selected by the history section of the configuration
(driver sqlite3, sqlite or memory, and path).`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded runs, newest first",
	Long: `List recorded runs, newest first.

--since and --until accept an RFC 3339 timestamp or a duration relative to
now, e.g. 24h.

Examples:
  orderdesk history list --limit 20
  orderdesk history list --fact order-1001 --since 168h --format csv`,
	RunE: listHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show the trace of a recorded run",
	Args:  cobra.ExactArgs(1),
	RunE:  showHistory,
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Apply the retention limits now",
	Long: `Delete runs older than the retention period and trim the store to the
maximum record count. Flags override history.retention_days,
history.max_records and history.archive_path; 0 disables a limit.`,
	RunE: pruneHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd, historyShowCmd, historyPruneCmd)

	historyListCmd.Flags().StringVar(&historyFlags.fact, "fact", "", "filter by fact name")
	historyListCmd.Flags().StringVar(&historyFlags.version, "version", "", "filter by rule set version")
	historyListCmd.Flags().StringVar(&historyFlags.since, "since", "", "only runs at or after this time")
	historyListCmd.Flags().StringVar(&historyFlags.until, "until", "", "only runs before this time")
	historyListCmd.Flags().IntVar(&historyFlags.limit, "limit", 50, "max results")
	historyListCmd.Flags().IntVar(&historyFlags.offset, "offset", 0, "pagination offset")
	historyListCmd.Flags().StringVar(&historyFlags.format, "format", "text", "output format: text, json, csv")

	historyShowCmd.Flags().StringVar(&historyFlags.format, "format", "text", "output format: text, json")

	historyPruneCmd.Flags().IntVar(&historyFlags.retentionDays, "retention-days", -1, "override history.retention_days")
	historyPruneCmd.Flags().Int64Var(&historyFlags.maxRecords, "max-records", -1, "override history.max_records")
	historyPruneCmd.Flags().StringVar(&historyFlags.archive, "archive", "", "override history.archive_path")
}

// RecordList is a page of history records.
type RecordList struct {
	Total   int64             `json:"total"`
	Records []*history.Record `json:"records"`
}

// Header implements cli.Table.
func (l *RecordList) Header() []string {
	return []string{"id", "created_at", "fact", "rule_set_version", "rules_matched", "actions_executed", "actions_overridden", "workflow"}
}

// Rows implements cli.Table.
func (l *RecordList) Rows() [][]string {
	rows := make([][]string, len(l.Records))
	for i, r := range l.Records {
		rows[i] = []string{
			r.ID,
			r.CreatedAt.Format(time.RFC3339),
			r.FactName,
			r.RuleSetVersion,
			strconv.Itoa(r.RulesMatched),
			strconv.Itoa(r.ActionsExecuted),
			strconv.Itoa(r.ActionsOverridden),
			r.Workflow,
		}
	}
	return rows
}

// WriteText renders an aligned table.
func (l *RecordList) WriteText(w io.Writer) error {
	if len(l.Records) == 0 {
		_, err := fmt.Fprintln(w, "No runs recorded.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tFACT\tVERSION\tMATCHED\tACTIONS\tWORKFLOW")
	for _, r := range l.Records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
			r.ID, r.CreatedAt.Local().Format("2006-01-02 15:04:05"), r.FactName,
			dash(r.RuleSetVersion), r.RulesMatched, r.ActionsExecuted, dash(r.Workflow))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d of %d run(s)\n", len(l.Records), l.Total)
	return err
}

// parseTimeFlag accepts RFC 3339 or a duration before now.
func parseTimeFlag(name, value string, now time.Time) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	if d, err := time.ParseDuration(value); err == nil {
		t := now.Add(-d)
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, fmt.Errorf("--%s: want RFC 3339 time or duration, got %q", name, value)
	}
	return &t, nil
}

func listHistory(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(historyFlags.format, cli.FormatText, cli.FormatJSON, cli.FormatCSV)
	if err != nil {
		return err
	}
	now := time.Now()
	since, err := parseTimeFlag("since", historyFlags.since, now)
	if err != nil {
		return err
	}
	until, err := parseTimeFlag("until", historyFlags.until, now)
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
	store, err := openHistory(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	query := &history.Query{
		FactName:       historyFlags.fact,
		RuleSetVersion: historyFlags.version,
		Since:          since,
		Until:          until,
		Limit:          historyFlags.limit,
		Offset:         historyFlags.offset,
	}
	ctx := cmd.Context()
	list := &RecordList{}
	if list.Records, err = store.List(ctx, query); err != nil {
		return cli.NewCommandError("history list", err)
	}
	if list.Total, err = store.Count(ctx, query); err != nil {
		return cli.NewCommandError("history list", err)
	}
	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), list)
}

func showHistory(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(historyFlags.format, cli.FormatText, cli.FormatJSON)
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
	store, err := openHistory(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	rec, err := store.Get(cmd.Context(), args[0])
	if err != nil {
		return cli.NewCommandError("history show", err)
	}

	out := cmd.OutOrStdout()
	if format == cli.FormatJSON {
		return cli.NewFormatter(format).FormatTo(out, rec)
	}
	result, err := rec.Result()
	if err != nil {
		return cli.NewCommandError("history show", err)
	}
	fmt.Fprintf(out, "Run %s (%s) at %s\n\n", rec.ID, rec.FactName, rec.CreatedAt.Format(time.RFC3339))
	return engine.RenderTrace(out, result)
}

func pruneHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cmd, cfg, slog.LevelWarn)
	if err != nil {
		return err
	}
	store, err := openHistory(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	rc := retention.FromHistoryConfig(&cfg.History)
	if historyFlags.retentionDays >= 0 {
		rc.RetentionDays = historyFlags.retentionDays
	}
	if historyFlags.maxRecords >= 0 {
		rc.MaxRecords = historyFlags.maxRecords
	}
	if historyFlags.archive != "" {
		rc.ArchivePath = historyFlags.archive
	}

	deleted, err := retention.NewPruner(store, rc, logger).Prune(cmd.Context())
	if err != nil {
		return cli.NewCommandError("history prune", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d run(s)\n", deleted)
	return nil
}
