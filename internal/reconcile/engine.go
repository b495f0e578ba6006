package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"shelfsync/internal/catalog"
	"shelfsync/internal/classify"
	"shelfsync/internal/config"
	"shelfsync/internal/keys"
	"shelfsync/internal/ledger"
	"shelfsync/internal/logging"
	"shelfsync/internal/match"
	"shelfsync/internal/normalize"
	"shelfsync/internal/objstore"
	"shelfsync/internal/resolve"
	"shelfsync/internal/scan"
)

// Engine wires the pipeline stages together.
type Engine struct {
	scanners map[catalog.Store]scan.Scanner
	bucket   objstore.Bucket
	sidecars objstore.Sidecars
	keygen   *keys.Generator
	matcher  *match.Matcher
	resolver *resolve.Resolver
	policy   classify.Policy
	observer Observer
	logger   *slog.Logger
	probes   int
}

// Option configures an Engine.
type Option func(*Engine)

// WithScanner registers the scanner for its store.
func WithScanner(s scan.Scanner) Option {
	return func(e *Engine) { e.scanners[s.Store()] = s }
}

// WithMetadata enables sidecar metadata probes against bucket.
func WithMetadata(b objstore.Bucket, sidecars objstore.Sidecars) Option {
	return func(e *Engine) {
		e.bucket = b
		e.sidecars = sidecars
	}
}

// WithKeyGenerator overrides the key generator.
func WithKeyGenerator(g *keys.Generator) Option { return func(e *Engine) { e.keygen = g } }

// WithMatcher overrides the matcher.
func WithMatcher(m *match.Matcher) Option { return func(e *Engine) { e.matcher = m } }

// WithPolicy overrides the classification policy.
func WithPolicy(p classify.Policy) Option { return func(e *Engine) { e.policy = p } }

// WithObserver sets the event observer.
func WithObserver(o Observer) Option { return func(e *Engine) { e.observer = o } }

// WithLogger sets the logger used by the engine and its default stages.
func WithLogger(logger *slog.Logger) Option { return func(e *Engine) { e.logger = logger } }

// WithProbeWorkers bounds concurrent metadata probes.
func WithProbeWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.probes = n
		}
	}
}

// NewEngine builds an engine with default stages for anything not set.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		scanners: make(map[catalog.Store]scan.Scanner),
		policy:   classify.DefaultPolicy(),
		sidecars: objstore.DefaultSidecars(),
		probes:   4,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logging.NewNop()
	}
	if e.keygen == nil {
		e.keygen = keys.NewGenerator(nil)
	}
	if e.matcher == nil {
		e.matcher = match.New(match.WithLogger(e.logger))
	}
	if e.observer == nil {
		e.observer = NopObserver{}
	}
	e.resolver = resolve.New(e.logger)
	e.logger = logging.NewComponentLogger(e.logger, "reconcile")
	return e
}

// Sources are the store handles an engine built from config scans.
type Sources struct {
	Bucket objstore.Bucket
	Ledger scan.LedgerSource
}

// NewEngineFromConfig builds the stages from configuration. Stores without
// a handle in src (or without a local root) have no scanner.
func NewEngineFromConfig(cfg *config.Config, src Sources, logger *slog.Logger, observer Observer) (*Engine, error) {
	norm, err := normalize.NewNamed(cfg.Matching.RuleSet, cfg.Matching.Extensions)
	if err != nil {
		return nil, err
	}
	sidecars := objstore.Sidecars{ArtifactsPrefix: cfg.ObjectStore.ArtifactsPrefix, OutputPrefix: cfg.ObjectStore.OutputPrefix}
	policy := classify.PolicyFromConfig(cfg)
	opts := []Option{
		WithLogger(logger),
		WithObserver(observer),
		WithPolicy(policy),
		WithKeyGenerator(keys.NewGenerator(norm, keys.WithStripAnyArtistPrefix(cfg.Matching.StripAnyArtistPrefix))),
		WithMatcher(match.New(
			match.WithThresholds(policy.Eligibility),
			match.WithFuzzyNames(cfg.Matching.FuzzyNames),
			match.WithWorkers(cfg.Matching.Workers),
			match.WithLogger(logger),
		)),
		WithProbeWorkers(cfg.ObjectStore.ListWorkers),
	}
	if cfg.Paths.LocalRoot != "" {
		opts = append(opts, WithScanner(scan.NewLocal(cfg.Paths.LocalRoot, logger)))
	}
	if src.Bucket != nil {
		opts = append(opts,
			WithScanner(scan.NewRemote(src.Bucket, sidecars, cfg.ObjectStore.ListWorkers, logger)),
			WithMetadata(src.Bucket, sidecars),
		)
	}
	if src.Ledger != nil {
		opts = append(opts, WithScanner(scan.NewLedger(src.Ledger, logger)))
	}
	return NewEngine(opts...), nil
}

// RuleSet names the normalization rule set in use.
func (e *Engine) RuleSet() string {
	return e.keygen.Normalizer().RuleSet().Name
}

// Run reconciles one pair. Scan failures are returned together with a
// partial result carrying the inventories that did succeed; an assignment
// conflict aborts the run.
func (e *Engine) Run(ctx context.Context, pair Pair) (*Result, error) {
	runID, _ := logging.RunIDFromContext(ctx)
	if runID == "" {
		runID = uuid.NewString()
		ctx = logging.WithRunID(ctx, runID)
	}
	res := &Result{
		RunID:     runID,
		Pair:      pair,
		RuleSet:   e.RuleSet(),
		StartedAt: time.Now().UTC(),
	}

	scanners := make([]scan.Scanner, 0, 2)
	for _, store := range []catalog.Store{pair.A, pair.B} {
		s, ok := e.scanners[store]
		if !ok {
			return nil, fmt.Errorf("no %s store configured for pair %s", store, pair)
		}
		scanners = append(scanners, s)
	}
	scanned, err := scan.ScanAll(ctx, scanners...)
	if err != nil {
		return nil, err
	}
	res.Inventories = scanned.Inventories
	res.ScanErrors = scanned.Errors
	for _, store := range []catalog.Store{pair.A, pair.B} {
		e.observer.ScanFinished(store, scanned.Inventory(store), scanned.Err(store))
	}
	if scanned.Failed() {
		res.FinishedAt = time.Now().UTC()
		errs := make([]error, 0, len(scanned.Errors))
		for _, store := range []catalog.Store{pair.A, pair.B} {
			if err := scanned.Err(store); err != nil {
				errs = append(errs, err)
			}
		}
		return res, errors.Join(errs...)
	}

	invA, invB := scanned.Inventory(pair.A), scanned.Inventory(pair.B)
	as := sortedKeys(e.keygen.ForAll(invA))
	bs := sortedKeys(e.keygen.ForAll(invB))

	pool, err := e.matcher.ScorePool(ctx, as, bs)
	if err != nil {
		return nil, err
	}
	res.Scored, res.Eligible = pool.Scored, pool.Len()
	e.observer.PairScored(pair, pool.Scored, pool.Len())

	targets := make([]catalog.EntityRef, len(bs))
	for i, b := range bs {
		targets[i] = b.Ref
	}
	resolution, err := e.resolver.Resolve(ctx, as, targets, pool)
	if err != nil {
		return nil, err
	}
	res.Assignments = resolution.Assignments
	res.Unmatched = resolution.Unmatched

	if err := e.probeMetadata(ctx, res); err != nil {
		return nil, err
	}
	for i := range res.Assignments {
		e.classify(&res.Assignments[i])
		e.observer.EntityClassified(pair, res.Assignments[i])
	}

	res.FinishedAt = time.Now().UTC()
	e.observer.RunFinished(res)
	return res, nil
}

func (e *Engine) classify(asg *resolve.Assignment) {
	if asg.Candidate == nil {
		asg.Tier = classify.NoMatch
		if asg.Alternatives > 0 {
			asg.Rationale = fmt.Sprintf("all %d eligible candidates already claimed", asg.Alternatives)
		} else {
			asg.Rationale = e.policy.Rationale(match.MatchCandidate{A: asg.A}, classify.NoMatch)
		}
		return
	}
	asg.Tier = e.policy.Classify(*asg.Candidate)
	asg.Rationale = e.policy.Rationale(*asg.Candidate, asg.Tier)
}

// probeMetadata sets metadata_present on every assigned candidate. The
// shared identifier is the ledger id when one side is the ledger, otherwise
// the id the ledger would derive for the driving entity.
func (e *Engine) probeMetadata(ctx context.Context, res *Result) error {
	if e.bucket == nil {
		return nil
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.probes)
	for i := range res.Assignments {
		asg := &res.Assignments[i]
		if asg.Candidate == nil {
			continue
		}
		id := sharedID(res, asg)
		asg.Candidate.MetadataID = id
		g.Go(func() error {
			ok, err := e.sidecars.HasMetadata(gctx, e.bucket, id)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				logging.WarnWithContext(e.logger, "metadata probe failed", "metadata_probe_failed",
					logging.String(logging.FieldEntity, asg.A.Key),
					logging.String("metadata_id", id),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "check object store reachability"),
					logging.String(logging.FieldImpact, "entity cannot reach PERFECT this run"),
				)
				return nil
			}
			asg.Candidate.MetadataPresent = ok
			return nil
		})
	}
	return g.Wait()
}

func sharedID(res *Result, asg *resolve.Assignment) string {
	if asg.B != nil && asg.B.Store == catalog.StoreLedger {
		return asg.B.Key
	}
	if asg.A.Store == catalog.StoreLedger {
		return asg.A.Key
	}
	a := res.Entity(asg.A)
	if a == nil {
		return ""
	}
	return ledger.DeriveID(ledger.CanonicalURI(a.Artist, a.Title))
}

func sortedKeys(m map[catalog.EntityRef]*keys.EntityKeys) []*keys.EntityKeys {
	out := make([]*keys.EntityKeys, 0, len(m))
	for _, k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ref.Key < out[j].Ref.Key })
	return out
}
