// Package match scores entity pairs across two inventories.
//
// Score is a pure function over two key sets. It reports whether the names
// intersect (exactly or within a small edit distance) and how the item sets
// overlap. A pair becomes a candidate only when it clears the eligibility
// thresholds: a high match percentage, or a large absolute overlap with a
// small count difference.
//
// ScorePool runs Score over blocked subsets of the two inventories, sharding
// the driving side across workers. It never decides assignments; that is the
// resolver's job and must run outside the parallel region.
package match
