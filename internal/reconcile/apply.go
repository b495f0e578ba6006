package reconcile

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"shelfsync/internal/catalog"
	"shelfsync/internal/logging"
	"shelfsync/internal/objstore"
	"shelfsync/internal/remediate"
)

// ApplyOptions configures a remediation run.
type ApplyOptions struct {
	DryRun    bool
	Workers   int
	LocalRoot string
	Bucket    objstore.Bucket
	Ledger    remediate.LedgerStore
	OpLog     remediate.OpLog
	// LockPath is the apply lock taken for live runs. Empty disables it.
	LockPath string
	Progress func(remediate.Op)
	Logger   *slog.Logger
}

// Apply plans decisions against a local:remote result and executes them.
// The result supplies the folder map so a local folder's ops target the
// remote folder it was matched to; a nil result maps folders by path.
func Apply(ctx context.Context, res *Result, decisions remediate.Decisions, opts ApplyOptions) (*remediate.Result, error) {
	var folders map[string]remediate.RemoteFolder
	if res != nil {
		if res.Pair != LocalRemote {
			return nil, fmt.Errorf("decisions apply to %s, not %s", LocalRemote, res.Pair)
		}
		folders = remediate.RemoteFoldersFromPairs(res.Pairs())
	}
	ops := remediate.NewPlanner(folders).Plan(decisions)
	return execute(ctx, ops, opts)
}

// SyncLedger converges the ledger toward a local:ledger result.
func SyncLedger(ctx context.Context, res *Result, prune bool, opts ApplyOptions) (*remediate.Result, error) {
	if res == nil || res.Pair != LocalLedger {
		return nil, fmt.Errorf("ledger sync needs a %s result", LocalLedger)
	}
	pairs := make([]remediate.LedgerPair, 0, len(res.Assignments))
	for _, asg := range res.Assignments {
		local := res.Entity(asg.A)
		if local == nil {
			continue
		}
		pair := remediate.LedgerPair{Local: local}
		if asg.Assigned() {
			pair.Row = res.Entity(*asg.B)
		}
		pairs = append(pairs, pair)
	}
	orphans := make([]*catalog.Entity, 0, len(res.Unmatched))
	for _, ref := range res.Unmatched {
		if e := res.Entity(ref); e != nil {
			orphans = append(orphans, e)
		}
	}
	return execute(ctx, remediate.PlanLedger(pairs, orphans, prune), opts)
}

func execute(ctx context.Context, ops []remediate.Op, opts ApplyOptions) (*remediate.Result, error) {
	runID, _ := logging.RunIDFromContext(ctx)
	if runID == "" {
		runID = uuid.NewString()
	}
	if !opts.DryRun && opts.LockPath != "" {
		lock, err := remediate.AcquireApplyLock(opts.LockPath)
		if err != nil {
			return nil, err
		}
		defer func() { _ = lock.Release() }()
	}
	exec := remediate.NewExecutor(
		remediate.WithLocalRoot(opts.LocalRoot),
		remediate.WithBucket(opts.Bucket),
		remediate.WithLedger(opts.Ledger),
		remediate.WithOpLog(opts.OpLog),
		remediate.WithWorkers(opts.Workers),
		remediate.WithDryRun(opts.DryRun),
		remediate.WithRunID(runID),
		remediate.WithLogger(opts.Logger),
		remediate.WithProgress(opts.Progress),
	)
	return exec.Execute(ctx, ops)
}
