package resolve

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"shelfsync/internal/catalog"
	"shelfsync/internal/classify"
	"shelfsync/internal/fault"
	"shelfsync/internal/keys"
	"shelfsync/internal/logging"
	"shelfsync/internal/match"
)

// Assignment pairs one driving entity with at most one target.
type Assignment struct {
	A catalog.EntityRef `json:"a"`
	// B is nil when no eligible, unclaimed candidate remained.
	B         *catalog.EntityRef    `json:"b,omitempty"`
	Tier      classify.Tier         `json:"tier"`
	Candidate *match.MatchCandidate `json:"candidate,omitempty"`
	Rationale string                `json:"rationale,omitempty"`
	// Alternatives counts eligible candidates that were already claimed
	// when this entity's turn came.
	Alternatives int `json:"alternatives,omitempty"`
}

// Assigned reports whether the entity received a target.
func (a Assignment) Assigned() bool {
	return a.B != nil
}

// Resolution is the outcome of resolving one store pair.
type Resolution struct {
	Assignments []Assignment
	// Unmatched lists targets no driving entity claimed, sorted by key.
	Unmatched []catalog.EntityRef
	Excluded  *ExclusionSet
}

// AssignedCount returns the number of assignments with a target.
func (r *Resolution) AssignedCount() int {
	n := 0
	for _, a := range r.Assignments {
		if a.Assigned() {
			n++
		}
	}
	return n
}

// Resolver performs greedy constrained assignment.
type Resolver struct {
	logger *slog.Logger
}

// New constructs a Resolver. A nil logger discards output.
func New(logger *slog.Logger) *Resolver {
	return &Resolver{logger: logging.NewComponentLogger(logger, "resolve")}
}

// Order sorts driving entities by normalized name, then store key, giving
// the stable processing order Resolve expects.
func Order(as []*keys.EntityKeys) []*keys.EntityKeys {
	out := make([]*keys.EntityKeys, len(as))
	copy(out, as)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Normalized != out[j].Normalized {
			return out[i].Normalized < out[j].Normalized
		}
		return out[i].Ref.Key < out[j].Ref.Key
	})
	return out
}

// Resolve assigns each driving entity in order to its best unclaimed
// candidate. targets lists every entity of the target store so unclaimed
// ones can be reported. A fresh ExclusionSet is created per call.
func (r *Resolver) Resolve(ctx context.Context, as []*keys.EntityKeys, targets []catalog.EntityRef, pool *match.Pool) (*Resolution, error) {
	ordered := Order(as)
	excluded := NewExclusionSet()
	res := &Resolution{
		Assignments: make([]Assignment, 0, len(ordered)),
		Excluded:    excluded,
	}

	for _, a := range ordered {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cands := pool.Candidates(a.Ref)
		available := make([]match.MatchCandidate, 0, len(cands))
		for _, c := range cands {
			if !excluded.Contains(c.B) {
				available = append(available, c)
			}
		}

		asg := Assignment{A: a.Ref, Tier: classify.NoMatch, Alternatives: len(cands) - len(available)}
		if len(available) > 0 {
			best := Best(available)
			if !excluded.Claim(best.B, a.Ref) {
				owner, _ := excluded.Owner(best.B)
				return nil, fault.Wrap(fault.ErrAssignmentConflict, "resolve", "claim",
					fmt.Sprintf("%s already claimed by %s, requested by %s", best.B, owner, a.Ref), nil)
			}
			b := best.B
			asg.B = &b
			asg.Candidate = &best
		}
		res.Assignments = append(res.Assignments, asg)
	}

	if err := CheckInjective(res.Assignments); err != nil {
		return nil, err
	}

	for _, t := range targets {
		if !excluded.Contains(t) {
			res.Unmatched = append(res.Unmatched, t)
		}
	}
	sort.Slice(res.Unmatched, func(i, j int) bool { return res.Unmatched[i].Key < res.Unmatched[j].Key })

	r.logger.DebugContext(ctx, "resolved assignments",
		logging.Int("driving_entities", len(ordered)),
		logging.Int("assigned", res.AssignedCount()),
		logging.Int("unmatched_targets", len(res.Unmatched)),
	)
	return res, nil
}

// Best picks the preferred candidate: smallest absolute count difference,
// then highest match_pct, then fewest unshared items, then target key.
func Best(cands []match.MatchCandidate) match.MatchCandidate {
	best := cands[0]
	for _, c := range cands[1:] {
		if less(c, best) {
			best = c
		}
	}
	return best
}

func less(x, y match.MatchCandidate) bool {
	if x.CountDiff != y.CountDiff {
		return x.CountDiff < y.CountDiff
	}
	if x.MatchPct != y.MatchPct {
		return x.MatchPct > y.MatchPct
	}
	if xs, ys := x.AOnly+x.BOnly, y.AOnly+y.BOnly; xs != ys {
		return xs < ys
	}
	return x.B.Key < y.B.Key
}

// CheckInjective verifies that no target appears in two assignments and no
// driving entity is assigned twice.
func CheckInjective(assignments []Assignment) error {
	seenA := make(map[catalog.EntityRef]struct{}, len(assignments))
	seenB := make(map[catalog.EntityRef]catalog.EntityRef, len(assignments))
	for _, asg := range assignments {
		if _, dup := seenA[asg.A]; dup {
			return fault.Wrap(fault.ErrAssignmentConflict, "resolve", "verify",
				fmt.Sprintf("%s assigned more than once", asg.A), nil)
		}
		seenA[asg.A] = struct{}{}
		if asg.B == nil {
			continue
		}
		if prev, dup := seenB[*asg.B]; dup {
			return fault.Wrap(fault.ErrAssignmentConflict, "resolve", "verify",
				fmt.Sprintf("%s targeted by both %s and %s", *asg.B, prev, asg.A), nil)
		}
		seenB[*asg.B] = asg.A
	}
	return nil
}
