package preflight

import (
	"context"

	"shelfsync/internal/config"
	"shelfsync/internal/objstore"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// AllPassed reports whether every result passed.
func AllPassed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}

// RunAll executes all applicable preflight checks for the given config.
// bucket may be nil when no object store is configured.
func RunAll(ctx context.Context, cfg *config.Config, bucket objstore.Bucket) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckReadableDirectory("Local root", cfg.Paths.LocalRoot))
	results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))

	if bucket != nil {
		results = append(results, CheckBucket(ctx, bucket))
	}

	results = append(results, CheckLedger(ctx, cfg.Ledger.Path, cfg.Ledger.Table))

	return results
}
