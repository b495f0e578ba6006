package remediate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"shelfsync/internal/fault"
	"shelfsync/internal/ledger"
	"shelfsync/internal/logging"
	"shelfsync/internal/objstore"
	"shelfsync/internal/oplog"
)

// LedgerStore is the subset of the ledger the executor mutates.
type LedgerStore interface {
	Get(ctx context.Context, id string) (ledger.Record, error)
	Insert(ctx context.Context, rec ledger.Record) error
	Update(ctx context.Context, rec ledger.Record) error
	Delete(ctx context.Context, id string) error
}

// OpLog persists attempted ops.
type OpLog interface {
	Append(ctx context.Context, e oplog.Entry) (oplog.Entry, error)
}

// Executor applies ops with precondition checks.
type Executor struct {
	localRoot string
	bucket    objstore.Bucket
	ledger    LedgerStore
	log       OpLog
	workers   int
	dryRun    bool
	runID     string
	logger    *slog.Logger
	progress  func(Op)
	locks     *pathLocks
}

// Option configures an Executor.
type Option func(*Executor)

// WithLocalRoot sets the directory local paths are relative to.
func WithLocalRoot(root string) Option { return func(e *Executor) { e.localRoot = root } }

// WithBucket sets the object store.
func WithBucket(b objstore.Bucket) Option { return func(e *Executor) { e.bucket = b } }

// WithLedger sets the ledger store.
func WithLedger(l LedgerStore) Option { return func(e *Executor) { e.ledger = l } }

// WithOpLog sets the execution log. Live runs append every attempted op.
func WithOpLog(l OpLog) Option { return func(e *Executor) { e.log = l } }

// WithWorkers bounds how many entities are processed concurrently.
func WithWorkers(n int) Option {
	return func(e *Executor) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithDryRun disables every mutating call.
func WithDryRun(dryRun bool) Option { return func(e *Executor) { e.dryRun = dryRun } }

// WithRunID tags log entries with id.
func WithRunID(id string) Option { return func(e *Executor) { e.runID = id } }

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option { return func(e *Executor) { e.logger = logger } }

// WithProgress registers a callback invoked once per op after it settles.
// It may be called from several goroutines.
func WithProgress(fn func(Op)) Option { return func(e *Executor) { e.progress = fn } }

// NewExecutor builds an executor.
func NewExecutor(opts ...Option) *Executor {
	e := &Executor{workers: 4, locks: newPathLocks()}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logging.NewNop()
	}
	e.logger = logging.NewComponentLogger(e.logger, "remediate")
	return e
}

// DryRun reports whether the executor is in dry-run mode.
func (e *Executor) DryRun() bool { return e.dryRun }

// Result is the outcome of one Execute call.
type Result struct {
	RunID      string    `json:"run_id"`
	DryRun     bool      `json:"dry_run"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Ops        []Op      `json:"ops"`
}

// Counts tallies ops by status.
func (r *Result) Counts() map[Status]int {
	out := make(map[Status]int, 4)
	for _, op := range r.Ops {
		out[op.Status]++
	}
	return out
}

// Failed returns the number of failed ops.
func (r *Result) Failed() int { return r.Counts()[StatusFailed] }

// Execute applies ops. Ops for the same entity run in plan order while
// distinct entities proceed in parallel; ops touching the same path are
// serialized regardless of entity. A failed op never stops the batch.
// Cancellation is honored between ops and remaining ops are reported as
// skipped. The returned error is non-nil only when the execution log could
// not be written or ctx was canceled.
func (e *Executor) Execute(ctx context.Context, ops []Op) (*Result, error) {
	res := &Result{RunID: e.runID, DryRun: e.dryRun, StartedAt: time.Now().UTC()}
	res.Ops = append([]Op(nil), ops...)

	groups, order := groupByEntity(res.Ops)
	var (
		mu      sync.Mutex
		logErrs []error
	)
	g := new(errgroup.Group)
	g.SetLimit(e.workers)
	for _, entity := range order {
		idx := groups[entity]
		g.Go(func() error {
			for _, i := range idx {
				op := e.settle(ctx, res.Ops[i])
				res.Ops[i] = op
				if err := e.record(ctx, op); err != nil {
					mu.Lock()
					logErrs = append(logErrs, err)
					mu.Unlock()
				}
				if e.progress != nil {
					e.progress(op)
				}
			}
			return nil
		})
	}
	_ = g.Wait()
	res.FinishedAt = time.Now().UTC()

	counts := res.Counts()
	e.logger.InfoContext(ctx, "remediation finished",
		logging.String(logging.FieldRunID, e.runID),
		logging.Bool("dry_run", e.dryRun),
		logging.Int("done", counts[StatusDone]),
		logging.Int("skipped", counts[StatusSkipped]),
		logging.Int("failed", counts[StatusFailed]),
		logging.Int("pending", counts[StatusPending]),
		logging.Duration("elapsed", res.FinishedAt.Sub(res.StartedAt)),
	)

	if err := ctx.Err(); err != nil {
		logErrs = append(logErrs, err)
	}
	return res, errors.Join(logErrs...)
}

func groupByEntity(ops []Op) (map[string][]int, []string) {
	groups := make(map[string][]int)
	var order []string
	for i, op := range ops {
		if _, ok := groups[op.EntityPath]; !ok {
			order = append(order, op.EntityPath)
		}
		groups[op.EntityPath] = append(groups[op.EntityPath], i)
	}
	return groups, order
}

// settle drives one op to its final status.
func (e *Executor) settle(ctx context.Context, op Op) Op {
	if op.Terminal() {
		return op
	}
	if err := ctx.Err(); err != nil {
		op.Status = StatusSkipped
		op.Reason = "canceled before execution"
		return op
	}
	release := e.locks.acquire(lockKeys(op))
	defer release()

	out := e.apply(ctx, op)
	op.Status = out.status
	op.Reason = out.reason
	if out.err != nil {
		opErr := &fault.OpError{Kind: string(op.Kind), Path: op.String(), Err: out.err}
		op.Reason = opErr.Error()
		logging.WarnWithContext(e.logger, "remediation op failed", "op_failed",
			logging.String(logging.FieldRunID, e.runID),
			logging.String(logging.FieldOpKind, string(op.Kind)),
			logging.String(logging.FieldEntity, op.EntityPath),
			logging.String("filename", op.Filename),
			logging.Error(opErr),
			logging.String(logging.FieldErrorHint, hintFor(out.err)),
		)
	} else {
		e.logger.DebugContext(ctx, "remediation op settled",
			logging.String(logging.FieldOpKind, string(op.Kind)),
			logging.String(logging.FieldEntity, op.EntityPath),
			logging.String("status", string(op.Status)),
			logging.String("reason", op.Reason),
		)
	}
	return op
}

func hintFor(err error) string {
	switch {
	case fault.IsNotFound(err):
		return "rescan; the source no longer exists"
	case errors.Is(err, fault.ErrConfiguration):
		return "check store credentials and configuration"
	default:
		return "rerun apply with the same decisions once the store is reachable"
	}
}

func (e *Executor) record(ctx context.Context, op Op) error {
	if e.dryRun || e.log == nil {
		return nil
	}
	// Written even after cancellation so every attempted op is persisted.
	_, err := e.log.Append(context.WithoutCancel(ctx), oplog.Entry{
		RunID:      e.runID,
		Seq:        op.Seq,
		Kind:       string(op.Kind),
		EntityPath: op.EntityPath,
		Filename:   op.Filename,
		Source:     op.Source,
		Dest:       op.Dest,
		Overwrite:  op.Overwrite,
		Status:     string(op.Status),
		Reason:     op.Reason,
	})
	if err != nil {
		return fmt.Errorf("record %s: %w", op, err)
	}
	return nil
}

type outcome struct {
	status Status
	reason string
	err    error
}

func done(reason string) outcome    { return outcome{status: StatusDone, reason: reason} }
func skipped(reason string) outcome { return outcome{status: StatusSkipped, reason: reason} }
func failed(err error) outcome      { return outcome{status: StatusFailed, err: err} }

// commit runs a mutation, or reports what it would do in dry-run mode.
func (e *Executor) commit(desc string, mutate func() error) outcome {
	if e.dryRun {
		return outcome{status: StatusPending, reason: "dry run: would " + desc}
	}
	if err := mutate(); err != nil {
		return failed(err)
	}
	return done(desc)
}

func (e *Executor) apply(ctx context.Context, op Op) outcome {
	switch op.Kind {
	case NoAction:
		return skipped("no action requested")
	case RenameLocal:
		return e.renameLocal(op)
	case DeleteLocal:
		return e.deleteLocal(op.Source)
	case RenameRemote, CopyToLocal, CopyToRemote, DeleteRemote, DeleteBoth:
		if e.bucket == nil {
			return failed(fault.Wrap(fault.ErrConfiguration, "remediate", string(op.Kind), "object store not configured", nil))
		}
		switch op.Kind {
		case RenameRemote:
			return e.renameRemote(ctx, op)
		case CopyToLocal:
			return e.copyToLocal(ctx, op)
		case CopyToRemote:
			return e.copyToRemote(ctx, op)
		case DeleteRemote:
			return e.deleteRemote(ctx, op.Source)
		default:
			return e.deleteBoth(ctx, op)
		}
	case LedgerInsert, LedgerUpdate, LedgerDelete:
		if e.ledger == nil {
			return failed(fault.Wrap(fault.ErrConfiguration, "remediate", string(op.Kind), "ledger not configured", nil))
		}
		return e.applyLedger(ctx, op)
	default:
		return failed(fault.Wrap(fault.ErrValidation, "remediate", "apply", fmt.Sprintf("unsupported kind %q", op.Kind), nil))
	}
}
