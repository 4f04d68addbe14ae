package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"orderdesk/automation/pkg/cli"
	"orderdesk/automation/pkg/routing/engine"
)

var lintFlags struct {
	rules  string
	format string
	strict bool
}

var lintCmd = &cobra.Command{
	Use:   "lint",
	Short: "Validate a rule set and report conflicts",
	Long: `Validate a rule set and run conflict detection on it.

Validation failures (missing fields, unknown operators, dangling group
references, size limits) make the command exit with status 1. Conflicts
are advisory and reported with a severity; ERROR conflicts also fail the
command when --strict is given or engine.reject_on_conflict_errors is set.

Examples:
  # Lint a directory of rule files
  orderdesk lint --rules rules/

  # Fail CI on ERROR conflicts, JSON output
  orderdesk lint --rules rules/ --strict --format json`,
	RunE: runLint,
}

func init() {
	rootCmd.AddCommand(lintCmd)

	lintCmd.Flags().StringVarP(&lintFlags.rules, "rules", "r", "", "rule file or directory (default: rules.path)")
	lintCmd.Flags().StringVar(&lintFlags.format, "format", "text", "output format: text, json")
	lintCmd.Flags().BoolVar(&lintFlags.strict, "strict", false, "treat ERROR conflicts as failures")
}

// LintReport is the outcome of linting one rule set.
type LintReport struct {
	Path      string                   `json:"path"`
	Version   string                   `json:"version,omitempty"`
	Valid     bool                     `json:"valid"`
	Groups    int                      `json:"groups"`
	Rules     int                      `json:"rules"`
	Problems  []LintProblem            `json:"problems,omitempty"`
	Conflicts []engine.ConflictWarning `json:"conflicts,omitempty"`
	Summary   engine.ConflictSummary   `json:"summary"`
}

// LintProblem is a single validation failure.
type LintProblem struct {
	Type       string `json:"type"`
	Path       string `json:"path,omitempty"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

// WriteText renders the report for terminals.
func (r *LintReport) WriteText(w io.Writer) error {
	fmt.Fprintf(w, "Linting %s", r.Path)
	if r.Version != "" {
		fmt.Fprintf(w, " (version %s)", r.Version)
	}
	fmt.Fprintln(w)

	if !r.Valid {
		fmt.Fprintf(w, "✗ %d problem(s)\n", len(r.Problems))
		for _, p := range r.Problems {
			line := fmt.Sprintf("  [%s] ", p.Type)
			if p.Path != "" {
				line += p.Path + ": "
			}
			line += p.Message
			if p.Suggestion != "" {
				line += " (" + p.Suggestion + ")"
			}
			fmt.Fprintln(w, line)
		}
		return nil
	}

	fmt.Fprintf(w, "✓ %d group(s), %d rule(s) valid\n", r.Groups, r.Rules)
	if len(r.Conflicts) == 0 {
		fmt.Fprintln(w, "✓ No conflicts detected")
		return nil
	}
	fmt.Fprintf(w, "Conflicts: %d error(s), %d warning(s), %d info\n",
		r.Summary.Errors, r.Summary.Warnings, r.Summary.Info)
	for _, c := range r.Conflicts {
		fmt.Fprintf(w, "  %-7s %s: %s\n", c.Severity, c.Code, c.Message)
		if c.Suggestion != "" {
			fmt.Fprintf(w, "          → %s\n", c.Suggestion)
		}
	}
	return nil
}

func runLint(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(lintFlags.format, cli.FormatText, cli.FormatJSON)
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

	report := &LintReport{Path: rulesPath(cfg, lintFlags.rules)}
	set, err := loadRuleSet(cmd.Context(), report.Path, logger)
	if err != nil {
		report.Problems = []LintProblem{{Type: "load", Message: err.Error()}}
	} else {
		report.Version = set.Version
		report.Groups = len(set.Groups)
		report.Rules = len(set.Rules)
		report.Problems = validationProblems(newSimulator(cfg, logger).Validate(set))
	}
	report.Valid = len(report.Problems) == 0

	if report.Valid {
		report.Conflicts = engine.DetectConflicts(set)
		report.Summary = engine.GetConflictSummary(report.Conflicts)
	}

	if err := cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), report); err != nil {
		return err
	}

	switch {
	case !report.Valid:
		return &cli.ExitError{Code: 1, Reason: fmt.Sprintf("%d validation problem(s)", len(report.Problems))}
	case report.Summary.HasErrors() && (lintFlags.strict || cfg.Engine.RejectOnConflictErrors):
		return &cli.ExitError{Code: 1, Reason: fmt.Sprintf("%d ERROR conflict(s)", report.Summary.Errors)}
	}
	return nil
}

func validationProblems(err error) []LintProblem {
	if err == nil {
		return nil
	}
	var verr *engine.ValidationError
	if errors.As(err, &verr) {
		if problems := verr.Problems(); len(problems) > 0 {
			out := make([]LintProblem, len(problems))
			for i, p := range problems {
				out[i] = LintProblem{
					Type:       string(p.Type),
					Path:       p.Path,
					Message:    p.Message,
					Suggestion: p.Suggestion,
				}
			}
			return out
		}
	}
	return []LintProblem{{Type: "validation", Message: err.Error()}}
}
