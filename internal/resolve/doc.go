// Package resolve performs the one-to-one assignment of driving entities to
// target entities using scored candidate pools.
//
// The Resolver walks driving entities in a stable order (normalized name,
// then store key) and greedily claims the best remaining candidate for each,
// recording claimed targets in an ExclusionSet it owns for the duration of a
// single Resolve call. Assignment is order-dependent: an earlier entity can
// claim a target that would have been a better fit for a later one, and the
// Resolver never revisits a decision.
//
// Resolve must run outside any parallel region. Scoring is sharded by the
// match package beforehand and handed over as a complete Pool.
package resolve
