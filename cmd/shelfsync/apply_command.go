package main

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"shelfsync/internal/logging"
	"shelfsync/internal/reconcile"
	"shelfsync/internal/remediate"
	"shelfsync/internal/report"
)

func newApplyCommand(ctx *commandContext) *cobra.Command {
	var decisionsPath string
	var pairFlag string
	var dryRun bool
	var yes bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply reviewed file decisions between the local tree and the bucket",
		Long: "Rescans both stores, plans the decisions file against the current match, " +
			"and executes it. Without --yes the run is a dry run.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(decisionsPath) == "" {
				return fmt.Errorf("--decisions is required")
			}
			pair, err := reconcile.ParsePair(pairFlag)
			if err != nil {
				return err
			}
			if pair != reconcile.LocalRemote {
				return fmt.Errorf("file decisions apply to %s only; use `shelfsync ledger sync` for the ledger", reconcile.LocalRemote)
			}
			decisions, err := remediate.LoadDecisions(decisionsPath)
			if err != nil {
				return err
			}

			cfg := ctx.configValue()
			logger := ctx.loggerFor(cmd)
			live := yes && !dryRun && !cfg.Remediation.DryRun
			runCtx := logging.WithRunID(cmd.Context(), uuid.NewString())

			s, err := ctx.openStores(pair)
			if err != nil {
				return err
			}
			defer s.close()
			engine, err := ctx.newEngine(cmd, s)
			if err != nil {
				return err
			}
			res, err := engine.Run(runCtx, pair)
			if err != nil {
				return fmt.Errorf("rescan before apply: %w", err)
			}

			opts := reconcile.ApplyOptions{
				DryRun:    !live,
				Workers:   cfg.Remediation.Workers,
				LocalRoot: cfg.Paths.LocalRoot,
				Bucket:    s.bucket,
				LockPath:  cfg.LockPath(),
				Logger:    logger,
			}
			if live {
				log, err := ctx.openOpLog()
				if err != nil {
					return err
				}
				defer log.Close()
				opts.OpLog = log
			}

			out, execErr := reconcile.Apply(runCtx, res, decisions, opts)
			if out == nil {
				return execErr
			}
			return finishExecution(cmd, cfg.Paths.ReportDir, "apply", out, execErr, asJSON)
		},
	}

	cmd.Flags().StringVarP(&decisionsPath, "decisions", "d", "", "Decisions file (.json, .yaml)")
	cmd.Flags().StringVar(&pairFlag, "pair", reconcile.LocalRemote.String(), "Store pair the decisions refer to")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would change without mutating anything")
	cmd.Flags().BoolVar(&yes, "yes", false, "Perform mutations (required for a live run)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the execution report as JSON")
	return cmd
}

// finishExecution saves and prints an execution report and converts op
// failures into a non-zero exit.
func finishExecution(cmd *cobra.Command, reportDir, prefix string, res *remediate.Result, execErr error, asJSON bool) error {
	rep := report.BuildExecution(res)
	jsonPath, csvPath, err := report.Save(reportDir, prefix+"-"+rep.RunID, rep)
	if err != nil {
		return err
	}
	if asJSON {
		if err := writeJSON(cmd, rep); err != nil {
			return err
		}
	} else {
		out := cmd.OutOrStdout()
		renderExecution(out, rep)
		fmt.Fprintf(out, "Reports: %s, %s\n", jsonPath, csvPath)
		if rep.DryRun {
			fmt.Fprintln(out, "Dry run: nothing was changed. Re-run with --yes to apply.")
		}
	}
	if execErr != nil {
		return execErr
	}
	if failed := rep.Summary[string(remediate.StatusFailed)]; failed > 0 {
		return &exitError{code: exitFailure, err: fmt.Errorf("%d operations failed; see %s", failed, csvPath)}
	}
	return nil
}
