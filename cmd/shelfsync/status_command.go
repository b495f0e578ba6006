package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"shelfsync/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check that configured stores are reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			bucket, bucketErr := ctx.bucket()
			results := preflight.RunAll(cmd.Context(), cfg, bucket)
			if bucketErr != nil {
				results = append(results, preflight.Result{Name: "Object store", Detail: bucketErr.Error()})
			}

			if asJSON {
				if err := writeJSON(cmd, results); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				rows := make([][]string, 0, len(results))
				for _, r := range results {
					state := paint(colorize, ansiGreen, "ok")
					if !r.Passed {
						state = paint(colorize, ansiRed, "FAIL")
					}
					rows = append(rows, []string{r.Name, state, r.Detail})
				}
				fmt.Fprintln(out, renderTable([]string{"Check", "State", "Detail"}, rows, nil))
				if !cfg.ObjectStoreConfigured() {
					fmt.Fprintln(out, "Object store not configured; remote pairs are unavailable")
				}
			}

			if !preflight.AllPassed(results) {
				return &exitError{code: exitFailure, err: fmt.Errorf("one or more checks failed")}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print results as JSON")
	return cmd
}
