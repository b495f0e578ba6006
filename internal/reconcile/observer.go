package reconcile

import (
	"log/slog"
	"sync"

	"shelfsync/internal/catalog"
	"shelfsync/internal/classify"
	"shelfsync/internal/logging"
	"shelfsync/internal/resolve"
)

// Observer receives pipeline events. Implementations must be safe for
// concurrent use because scans report from their own goroutines.
type Observer interface {
	ScanFinished(store catalog.Store, inv *catalog.Inventory, err error)
	PairScored(pair Pair, scored, eligible int)
	EntityClassified(pair Pair, asg resolve.Assignment)
	RunFinished(res *Result)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) ScanFinished(catalog.Store, *catalog.Inventory, error) {}
func (NopObserver) PairScored(Pair, int, int)                             {}
func (NopObserver) EntityClassified(Pair, resolve.Assignment)             {}
func (NopObserver) RunFinished(*Result)                                   {}

// LogObserver writes events to a structured logger.
type LogObserver struct {
	Logger *slog.Logger
}

// NewLogObserver returns an observer logging under the reconcile component.
func NewLogObserver(logger *slog.Logger) *LogObserver {
	return &LogObserver{Logger: logging.NewComponentLogger(logger, "reconcile")}
}

func (o *LogObserver) ScanFinished(store catalog.Store, inv *catalog.Inventory, err error) {
	if err != nil {
		logging.ErrorWithContext(o.Logger, "store scan failed", "scan_failed",
			logging.String(logging.FieldStore, string(store)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check connectivity and credentials for this store"),
			logging.String(logging.FieldImpact, "pairs involving this store are not reconciled"),
		)
		return
	}
	o.Logger.Info("store scanned",
		logging.String(logging.FieldStore, string(store)),
		logging.Int("entities", inv.Len()),
		logging.Int("items", inv.ItemTotal()),
	)
}

func (o *LogObserver) PairScored(pair Pair, scored, eligible int) {
	o.Logger.Info("candidates scored",
		logging.String("pair", pair.String()),
		logging.Int("pairs_scored", scored),
		logging.Int("eligible", eligible),
	)
}

func (o *LogObserver) EntityClassified(pair Pair, asg resolve.Assignment) {
	attrs := []logging.Attr{
		logging.String("pair", pair.String()),
		logging.String(logging.FieldEntity, asg.A.Key),
		logging.String("tier", asg.Tier.String()),
	}
	if asg.B != nil {
		attrs = append(attrs, logging.String("target", asg.B.Key))
	}
	o.Logger.Debug("entity classified", logging.Args(attrs...)...)
}

func (o *LogObserver) RunFinished(res *Result) {
	counts := res.TierCounts()
	attrs := []logging.Attr{
		logging.String(logging.FieldRunID, res.RunID),
		logging.String("pair", res.Pair.String()),
		logging.Int("unmatched_targets", len(res.Unmatched)),
		logging.Duration("elapsed", res.FinishedAt.Sub(res.StartedAt)),
	}
	for _, tier := range classify.Tiers() {
		attrs = append(attrs, logging.Int(tier.String(), counts[tier]))
	}
	o.Logger.Info("reconciliation finished", logging.Args(attrs...)...)
}

// Recorder keeps every event in memory.
type Recorder struct {
	mu         sync.Mutex
	Scans      map[catalog.Store]error
	Scored     map[Pair][2]int
	Classified []resolve.Assignment
	Finished   []*Result
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{Scans: map[catalog.Store]error{}, Scored: map[Pair][2]int{}}
}

func (r *Recorder) ScanFinished(store catalog.Store, _ *catalog.Inventory, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Scans[store] = err
}

func (r *Recorder) PairScored(pair Pair, scored, eligible int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Scored[pair] = [2]int{scored, eligible}
}

func (r *Recorder) EntityClassified(_ Pair, asg resolve.Assignment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Classified = append(r.Classified, asg)
}

func (r *Recorder) RunFinished(res *Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Finished = append(r.Finished, res)
}

// Observers fans events out to several observers.
type Observers []Observer

func (obs Observers) ScanFinished(store catalog.Store, inv *catalog.Inventory, err error) {
	for _, o := range obs {
		o.ScanFinished(store, inv, err)
	}
}

func (obs Observers) PairScored(pair Pair, scored, eligible int) {
	for _, o := range obs {
		o.PairScored(pair, scored, eligible)
	}
}

func (obs Observers) EntityClassified(pair Pair, asg resolve.Assignment) {
	for _, o := range obs {
		o.EntityClassified(pair, asg)
	}
}

func (obs Observers) RunFinished(res *Result) {
	for _, o := range obs {
		o.RunFinished(res)
	}
}
