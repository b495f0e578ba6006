package reconcile

import (
	"time"

	"shelfsync/internal/catalog"
	"shelfsync/internal/classify"
	"shelfsync/internal/resolve"
)

// Result is the outcome of reconciling one pair.
type Result struct {
	RunID      string
	Pair       Pair
	RuleSet    string
	StartedAt  time.Time
	FinishedAt time.Time
	// Inventories holds the scanned side(s); a failed store is absent.
	Inventories map[catalog.Store]*catalog.Inventory
	ScanErrors  map[catalog.Store]error
	Assignments []resolve.Assignment
	// Unmatched lists B entities no A claimed.
	Unmatched []catalog.EntityRef
	Scored    int
	Eligible  int
}

// Entity returns the scanned entity for ref, or nil.
func (r *Result) Entity(ref catalog.EntityRef) *catalog.Entity {
	if r == nil {
		return nil
	}
	return r.Inventories[ref.Store].Lookup(ref)
}

// TierCounts tallies assignments per tier. Every tier is present.
func (r *Result) TierCounts() map[classify.Tier]int {
	out := make(map[classify.Tier]int, len(classify.Tiers()))
	for _, tier := range classify.Tiers() {
		out[tier] = 0
	}
	if r == nil {
		return out
	}
	for _, asg := range r.Assignments {
		out[asg.Tier]++
	}
	return out
}

// NeedsReview counts assignments in POOR or NO_MATCH.
func (r *Result) NeedsReview() int {
	n := 0
	for _, asg := range r.Assignments {
		if asg.Tier.NeedsReview() {
			n++
		}
	}
	return n
}

// Pairs maps each assigned A entity to its B entity.
func (r *Result) Pairs() map[*catalog.Entity]*catalog.Entity {
	out := make(map[*catalog.Entity]*catalog.Entity)
	for _, asg := range r.Assignments {
		if !asg.Assigned() {
			continue
		}
		a, b := r.Entity(asg.A), r.Entity(*asg.B)
		if a != nil && b != nil {
			out[a] = b
		}
	}
	return out
}
