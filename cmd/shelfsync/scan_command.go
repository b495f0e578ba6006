package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"shelfsync/internal/logging"
	"shelfsync/internal/reconcile"
	"shelfsync/internal/report"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var pairFlags []string
	var outDir string
	var strict bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan stores, match entities, and write tiered reports (read-only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			pairs, err := parsePairs(pairFlags)
			if err != nil {
				return err
			}
			cfg := ctx.configValue()
			if strings.TrimSpace(outDir) == "" {
				outDir = cfg.Paths.ReportDir
			}

			runCtx := logging.WithRunID(cmd.Context(), uuid.NewString())
			var (
				reports  []*report.MatchReport
				scanErrs []error
				review   int
			)
			for _, pair := range pairs {
				rep, err := runPair(runCtx, cmd, ctx, pair)
				if rep == nil {
					return err
				}
				if err != nil {
					scanErrs = append(scanErrs, err)
				}
				jsonPath, csvPath, saveErr := report.Save(outDir, reportStem(rep), rep)
				if saveErr != nil {
					return saveErr
				}
				review += rep.Summary.NeedsReview
				reports = append(reports, rep)
				if !asJSON {
					out := cmd.OutOrStdout()
					renderMatchSummary(out, rep)
					fmt.Fprintf(out, "Reports: %s, %s\n\n", jsonPath, csvPath)
				}
			}

			if asJSON {
				if err := writeJSON(cmd, reports); err != nil {
					return err
				}
			}
			if len(scanErrs) > 0 {
				return &exitError{code: exitFailure, err: errors.Join(scanErrs...)}
			}
			if strict && review > 0 {
				return &exitError{code: exitNeedsReview, err: fmt.Errorf("%d entities are POOR or NO_MATCH", review)}
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&pairFlags, "pair", []string{reconcile.LocalRemote.String()},
		"Store pair to reconcile (local:remote, local:ledger, remote:ledger); repeatable")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Report directory (defaults to paths.report_dir)")
	cmd.Flags().BoolVar(&strict, "strict", false, "Exit with status 2 when any entity is POOR or NO_MATCH")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print reports as JSON instead of tables")
	return cmd
}

// runPair reconciles one pair. A nil report means nothing usable was
// produced; a report with an error means a store failed to scan.
func runPair(runCtx context.Context, cmd *cobra.Command, ctx *commandContext, pair reconcile.Pair) (*report.MatchReport, error) {
	s, err := ctx.openStores(pair)
	if err != nil {
		return nil, err
	}
	defer s.close()
	engine, err := ctx.newEngine(cmd, s)
	if err != nil {
		return nil, err
	}
	res, err := engine.Run(runCtx, pair)
	if res == nil {
		return nil, err
	}
	return report.BuildMatch(res), err
}

func parsePairs(values []string) ([]reconcile.Pair, error) {
	seen := make(map[reconcile.Pair]struct{}, len(values))
	var pairs []reconcile.Pair
	for _, v := range values {
		p, err := reconcile.ParsePair(v)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		pairs = append(pairs, p)
	}
	if len(pairs) == 0 {
		return nil, fmt.Errorf("at least one --pair is required")
	}
	return pairs, nil
}

func reportStem(rep *report.MatchReport) string {
	return "match-" + rep.RunID + "-" + strings.ReplaceAll(rep.Pair, ":", "-")
}
