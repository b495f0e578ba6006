package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/mattn/go-isatty"

	"shelfsync/internal/classify"
	"shelfsync/internal/remediate"
	"shelfsync/internal/report"
)

const (
	ansiReset  = "\033[0m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiRed    = "\033[31m"
	ansiBlue   = "\033[34m"
)

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func tierColor(tier classify.Tier) string {
	switch {
	case tier >= classify.Excellent:
		return ansiGreen
	case tier >= classify.Partial:
		return ansiYellow
	default:
		return ansiRed
	}
}

func statusColor(status remediate.Status) string {
	switch status {
	case remediate.StatusDone:
		return ansiGreen
	case remediate.StatusFailed:
		return ansiRed
	case remediate.StatusPending:
		return ansiBlue
	default:
		return ansiYellow
	}
}

func paint(colorize bool, color, value string) string {
	if !colorize {
		return value
	}
	return color + value + ansiReset
}

// renderMatchSummary prints tier counts followed by the entities that need
// review.
func renderMatchSummary(w io.Writer, rep *report.MatchReport) {
	colorize := shouldColorize(w)
	fmt.Fprintf(w, "Pair %s  run %s  rule set %s\n", rep.Pair, rep.RunID, rep.RuleSet)

	rows := make([][]string, 0, len(classify.Tiers()))
	for _, tier := range classify.Tiers() {
		rows = append(rows, []string{
			paint(colorize, tierColor(tier), tier.String()),
			strconv.Itoa(rep.Summary.Counts[tier.String()]),
		})
	}
	rows = append(rows, []string{"unmatched targets", strconv.Itoa(rep.Summary.UnmatchedTargets)})
	fmt.Fprintln(w, renderTable([]string{"Tier", "Entities"}, rows, []columnAlignment{alignLeft, alignRight}))

	var review [][]string
	for _, tier := range []classify.Tier{classify.Poor, classify.NoMatch} {
		for _, rec := range rep.Tiers[tier.String()] {
			review = append(review, []string{
				paint(colorize, tierColor(tier), tier.String()),
				rec.APath,
				rec.BPath,
				fmt.Sprintf("%.0f%%", rec.MatchPct*100),
				rec.Rationale,
			})
		}
	}
	if len(review) > 0 {
		fmt.Fprintln(w, "Needs review:")
		fmt.Fprintln(w, renderTable([]string{"Tier", "Entity", "Best target", "Match", "Rationale"}, review, nil))
	}
	for store, msg := range rep.ScanErrors {
		fmt.Fprintf(w, "%s scan failed: %s\n", store, msg)
	}
}

// renderExecution prints one row per op plus a status summary line.
func renderExecution(w io.Writer, rep *report.ExecutionReport) {
	colorize := shouldColorize(w)
	rows := make([][]string, 0, len(rep.Ops))
	for _, op := range rep.Ops {
		rows = append(rows, []string{
			strconv.Itoa(op.Seq),
			string(op.Kind),
			op.EntityPath,
			op.Filename,
			paint(colorize, statusColor(op.Status), string(op.Status)),
			op.Reason,
		})
	}
	if len(rows) > 0 {
		fmt.Fprintln(w, renderTable([]string{"#", "Kind", "Entity", "File", "Status", "Reason"}, rows,
			[]columnAlignment{alignRight}))
	}
	mode := "live"
	if rep.DryRun {
		mode = "dry run"
	}
	fmt.Fprintf(w, "Run %s (%s): %d done, %d skipped, %d failed, %d pending\n",
		rep.RunID, mode, rep.Summary["done"], rep.Summary["skipped"], rep.Summary["failed"], rep.Summary["pending"])
}
