package match

import (
	"context"
	"log/slog"
	"runtime"
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"golang.org/x/sync/errgroup"

	"shelfsync/internal/catalog"
	"shelfsync/internal/keys"
	"shelfsync/internal/logging"
)

// Matcher computes MatchCandidates.
type Matcher struct {
	thresholds Thresholds
	fuzzyNames bool
	workers    int
	logger     *slog.Logger
}

// Option customises the Matcher.
type Option func(*Matcher)

// WithThresholds overrides the eligibility thresholds.
func WithThresholds(t Thresholds) Option {
	return func(m *Matcher) {
		m.thresholds = t
	}
}

// WithFuzzyNames toggles the fuzzy name signal.
func WithFuzzyNames(enabled bool) Option {
	return func(m *Matcher) {
		m.fuzzyNames = enabled
	}
}

// WithWorkers sets the number of scoring shards. Values below one use
// GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(m *Matcher) {
		m.workers = n
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Matcher) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// New constructs a Matcher with default thresholds and fuzzy names enabled.
func New(opts ...Option) *Matcher {
	m := &Matcher{
		thresholds: DefaultThresholds(),
		fuzzyNames: true,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.workers < 1 {
		m.workers = runtime.GOMAXPROCS(0)
	}
	m.logger = logging.NewComponentLogger(m.logger, "match")
	return m
}

// Thresholds returns the eligibility thresholds in use.
func (m *Matcher) Thresholds() Thresholds {
	return m.thresholds
}

// Eligible applies the matcher's thresholds.
func (m *Matcher) Eligible(c MatchCandidate) bool {
	return m.thresholds.Eligible(c)
}

// Score computes the signals for one pair. A drives the comparison: match_pct
// and count_diff_pct are relative to A.
func (m *Matcher) Score(a, b *keys.EntityKeys) MatchCandidate {
	c := MatchCandidate{
		A:      a.Ref,
		B:      b.Ref,
		CountA: a.Count,
		CountB: b.Count,
	}
	c.NameExact = variantsIntersect(a.Variants, b.Variants)
	if !c.NameExact && m.fuzzyNames {
		c.NameFuzzy = fuzzyVariants(a.Variants, b.Variants)
	}

	c.CountDiff = abs(b.Count - a.Count)
	c.CountDiffPct = float64(c.CountDiff) / float64(max(1, a.Count))

	if !a.ItemList || !b.ItemList {
		scoreNameOnly(&c, a, b)
		return c
	}

	for title := range a.Items {
		if _, ok := b.Items[title]; ok {
			c.OverlapCount++
		} else {
			c.AOnlyItems = append(c.AOnlyItems, title)
		}
	}
	for title := range b.Items {
		if _, ok := a.Items[title]; !ok {
			c.BOnlyItems = append(c.BOnlyItems, title)
		}
	}
	sort.Strings(c.AOnlyItems)
	sort.Strings(c.BOnlyItems)
	c.AOnly = len(c.AOnlyItems)
	c.BOnly = len(c.BOnlyItems)
	c.MatchPct = float64(c.OverlapCount) / float64(max(1, len(a.Items)))
	return c
}

func scoreNameOnly(c *MatchCandidate, a, b *keys.EntityKeys) {
	c.NameOnly = true
	switch {
	case c.NameExact:
		c.MatchPct = 1
	case c.NameFuzzy:
		c.MatchPct = bestSimilarity(a.Variants, b.Variants)
	}
	if c.NameExact || c.NameFuzzy {
		c.OverlapCount = min(a.Count, b.Count)
	}
	c.AOnly = max(0, a.Count-b.Count)
	c.BOnly = max(0, b.Count-a.Count)
}

// Pool holds the eligible candidates for each driving entity.
type Pool struct {
	ByA map[catalog.EntityRef][]MatchCandidate
	// Scored counts every pair that was scored, eligible or not.
	Scored int
}

// Candidates returns the eligible candidates for a.
func (p *Pool) Candidates(a catalog.EntityRef) []MatchCandidate {
	if p == nil {
		return nil
	}
	return p.ByA[a]
}

// Len returns the number of eligible candidates across all entities.
func (p *Pool) Len() int {
	if p == nil {
		return 0
	}
	n := 0
	for _, cands := range p.ByA {
		n += len(cands)
	}
	return n
}

// ScorePool scores every A against the B entities that share at least one
// item key or name key with it (plus fuzzy name neighbours for name-only
// pairs). Work is sharded across workers; the result is deterministic.
func (m *Matcher) ScorePool(ctx context.Context, as, bs []*keys.EntityKeys) (*Pool, error) {
	idx := newBlockIndex(bs)

	type shardResult struct {
		cands  []MatchCandidate
		scored int
	}
	results := make([]shardResult, len(as))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.workers)
	for i, a := range as {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			var res shardResult
			for _, bi := range idx.block(a, m.fuzzyNames) {
				c := m.Score(a, bs[bi])
				res.scored++
				if m.Eligible(c) {
					res.cands = append(res.cands, c)
				}
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	pool := &Pool{ByA: make(map[catalog.EntityRef][]MatchCandidate, len(as))}
	for i, a := range as {
		pool.Scored += results[i].scored
		if len(results[i].cands) > 0 {
			pool.ByA[a.Ref] = results[i].cands
		}
	}
	m.logger.DebugContext(ctx, "scored candidate pool",
		logging.Int("driving_entities", len(as)),
		logging.Int("target_entities", len(bs)),
		logging.Int("pairs_scored", pool.Scored),
		logging.Int("eligible", pool.Len()),
	)
	return pool, nil
}

func variantsIntersect(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for v := range a {
		if _, ok := b[v]; ok {
			return true
		}
	}
	return false
}

func fuzzyVariants(a, b map[string]struct{}) bool {
	for x := range a {
		for y := range b {
			if withinDistance(x, y) {
				return true
			}
		}
	}
	return false
}

func withinDistance(x, y string) bool {
	thr := distanceThreshold(min(len(x), len(y)))
	if abs(len(x)-len(y)) > thr {
		return false
	}
	return fuzzy.LevenshteinDistance(x, y) <= thr
}

func bestSimilarity(a, b map[string]struct{}) float64 {
	best := 0.0
	for x := range a {
		for y := range b {
			longest := max(len(x), len(y))
			if longest == 0 {
				continue
			}
			sim := 1 - float64(fuzzy.LevenshteinDistance(x, y))/float64(longest)
			if sim > best {
				best = sim
			}
		}
	}
	return best
}

// distanceThreshold calculates acceptable edit distance (~20% of length).
func distanceThreshold(n int) int {
	th := n / 5
	if th < 1 {
		return 1
	}
	if th > 3 {
		return 3
	}
	return th
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
