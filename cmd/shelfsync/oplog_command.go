package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"shelfsync/internal/oplog"
	"shelfsync/internal/remediate"
)

func newOpLogCommand(ctx *commandContext) *cobra.Command {
	var runID string
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "oplog",
		Short: "Show recorded remediation runs and their operations",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openOpLog()
			if err != nil {
				return err
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			runID = strings.TrimSpace(runID)
			if runID == "" {
				runs, err := store.Runs(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, runs)
				}
				if len(runs) == 0 {
					fmt.Fprintln(out, "No runs recorded")
					return nil
				}
				fmt.Fprintln(out, renderRuns(runs))
				return nil
			}

			entries, err := store.List(cmd.Context(), oplog.Filter{RunID: runID, Limit: limit})
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, entries)
			}
			if len(entries) == 0 {
				fmt.Fprintf(out, "No operations recorded for run %s\n", runID)
				return nil
			}
			colorize := shouldColorize(out)
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{
					strconv.Itoa(e.Seq), e.Kind, e.EntityPath, e.Filename,
					paint(colorize, statusColor(remediate.Status(e.Status)), e.Status), e.Reason,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"#", "Kind", "Entity", "File", "Status", "Reason"}, rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().StringVar(&runID, "run", "", "Show the operations of one run")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum rows to show (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}

func renderRuns(runs []oplog.RunSummary) string {
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			r.RunID,
			r.Started.Local().Format("2006-01-02 15:04:05"),
			r.Finished.Sub(r.Started).Round(time.Millisecond).String(),
			strconv.Itoa(r.Total),
			formatStatusCounts(r.ByStatus),
		})
	}
	return renderTable(
		[]string{"Run", "Started", "Duration", "Ops", "Statuses"}, rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft},
	)
}

func formatStatusCounts(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", k, counts[k]))
	}
	return strings.Join(parts, " ")
}
