package main

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"shelfsync/internal/logging"
	"shelfsync/internal/reconcile"
	"shelfsync/internal/report"
)

func newLedgerCommand(ctx *commandContext) *cobra.Command {
	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect and converge the processing ledger",
	}
	ledgerCmd.AddCommand(newLedgerListCommand(ctx))
	ledgerCmd.AddCommand(newLedgerSyncCommand(ctx))
	return ledgerCmd
}

func newLedgerListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List ledger rows",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openLedger()
			if err != nil {
				return err
			}
			defer store.Close()
			records, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, records)
			}
			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "Ledger is empty")
				return nil
			}
			rows := make([][]string, 0, len(records))
			for _, rec := range records {
				rows = append(rows, []string{
					rec.ID, rec.Artist, rec.Book, rec.Status,
					strconv.Itoa(rec.ItemCount), rec.UpdatedAt.Format("2006-01-02 15:04"),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Artist", "Book", "Status", "Items", "Updated"}, rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print rows as JSON")
	return cmd
}

func newLedgerSyncCommand(ctx *commandContext) *cobra.Command {
	var prune bool
	var dryRun bool
	var yes bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Insert and update ledger rows to match the local tree",
		Long: "Matches local folders against ledger rows, updates drifted rows in place, " +
			"inserts rows for unmatched folders, and with --prune deletes rows no folder matched. " +
			"Without --yes the run is a dry run.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			live := yes && !dryRun && !cfg.Remediation.DryRun
			runCtx := logging.WithRunID(cmd.Context(), uuid.NewString())

			s, err := ctx.openStores(reconcile.LocalLedger)
			if err != nil {
				return err
			}
			defer s.close()
			engine, err := ctx.newEngine(cmd, s)
			if err != nil {
				return err
			}
			res, err := engine.Run(runCtx, reconcile.LocalLedger)
			if err != nil {
				return fmt.Errorf("rescan before sync: %w", err)
			}
			match := report.BuildMatch(res)
			if _, _, err := report.Save(cfg.Paths.ReportDir, reportStem(match), match); err != nil {
				return err
			}

			opts := reconcile.ApplyOptions{
				DryRun:   !live,
				Workers:  cfg.Remediation.Workers,
				Ledger:   s.ledger,
				LockPath: cfg.LockPath(),
				Logger:   ctx.loggerFor(cmd),
			}
			if live {
				log, err := ctx.openOpLog()
				if err != nil {
					return err
				}
				defer log.Close()
				opts.OpLog = log
			}
			out, execErr := reconcile.SyncLedger(runCtx, res, prune, opts)
			if out == nil {
				return execErr
			}
			return finishExecution(cmd, cfg.Paths.ReportDir, "ledger-sync", out, execErr, asJSON)
		},
	}
	cmd.Flags().BoolVar(&prune, "prune", false, "Delete ledger rows that match no local folder")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would change without mutating anything")
	cmd.Flags().BoolVar(&yes, "yes", false, "Perform mutations (required for a live run)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the execution report as JSON")
	return cmd
}
