package resolve

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"shelfsync/internal/catalog"
	"shelfsync/internal/fault"
	"shelfsync/internal/keys"
	"shelfsync/internal/match"
)

func ref(store catalog.Store, key string) catalog.EntityRef {
	return catalog.EntityRef{Store: store, Key: key}
}

func cand(a, b string, countDiff int, pct float64, unshared int) match.MatchCandidate {
	return match.MatchCandidate{
		A:         ref(catalog.StoreLocal, a),
		B:         ref(catalog.StoreRemote, b),
		CountDiff: countDiff,
		MatchPct:  pct,
		AOnly:     unshared,
	}
}

func drivers(names ...string) []*keys.EntityKeys {
	out := make([]*keys.EntityKeys, 0, len(names))
	for _, n := range names {
		out = append(out, &keys.EntityKeys{Ref: ref(catalog.StoreLocal, n), Normalized: n})
	}
	return out
}

func targets(names ...string) []catalog.EntityRef {
	out := make([]catalog.EntityRef, 0, len(names))
	for _, n := range names {
		out = append(out, ref(catalog.StoreRemote, n))
	}
	return out
}

func TestBestOrdersBySortKey(t *testing.T) {
	tests := []struct {
		name  string
		cands []match.MatchCandidate
		want  string
	}{
		{"count diff first", []match.MatchCandidate{cand("a", "x", 2, 1.0, 0), cand("a", "y", 0, 0.8, 3)}, "y"},
		{"then match pct", []match.MatchCandidate{cand("a", "x", 1, 0.85, 0), cand("a", "y", 1, 0.95, 0)}, "y"},
		{"then unshared", []match.MatchCandidate{cand("a", "x", 1, 0.9, 4), cand("a", "y", 1, 0.9, 1)}, "y"},
		{"then key", []match.MatchCandidate{cand("a", "y", 1, 0.9, 1), cand("a", "x", 1, 0.9, 1)}, "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Best(tt.cands); got.B.Key != tt.want {
				t.Fatalf("Best picked %s, want %s", got.B.Key, tt.want)
			}
		})
	}
}

func TestResolveIsGreedyAndOrderDependent(t *testing.T) {
	// "alpha" sorts first and claims x even though x is the only option for "beta".
	pool := &match.Pool{ByA: map[catalog.EntityRef][]match.MatchCandidate{
		ref(catalog.StoreLocal, "alpha"): {cand("alpha", "x", 0, 0.9, 1), cand("alpha", "y", 1, 0.9, 1)},
		ref(catalog.StoreLocal, "beta"):  {cand("beta", "x", 0, 1.0, 0)},
	}}
	res, err := New(nil).Resolve(context.Background(), drivers("beta", "alpha"), targets("x", "y", "z"), pool)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(res.Assignments) != 2 {
		t.Fatalf("expected 2 assignments, got %d", len(res.Assignments))
	}
	first, second := res.Assignments[0], res.Assignments[1]
	if first.A.Key != "alpha" || first.B == nil || first.B.Key != "x" {
		t.Fatalf("alpha should claim x, got %+v", first)
	}
	if second.A.Key != "beta" || second.Assigned() {
		t.Fatalf("beta should be unassigned, got %+v", second)
	}
	if second.Alternatives != 1 {
		t.Fatalf("beta should report 1 claimed alternative, got %d", second.Alternatives)
	}
	if len(res.Unmatched) != 2 || res.Unmatched[0].Key != "y" || res.Unmatched[1].Key != "z" {
		t.Fatalf("unexpected unmatched targets %v", res.Unmatched)
	}
}

func TestResolveExclusionSetIsPerCall(t *testing.T) {
	pool := &match.Pool{ByA: map[catalog.EntityRef][]match.MatchCandidate{
		ref(catalog.StoreLocal, "a"): {cand("a", "x", 0, 1, 0)},
	}}
	r := New(nil)
	for i := 0; i < 2; i++ {
		res, err := r.Resolve(context.Background(), drivers("a"), targets("x"), pool)
		if err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
		if !res.Assignments[0].Assigned() {
			t.Fatalf("run %d: expected assignment; state leaked between runs", i)
		}
	}
}

func TestResolveIsInjectiveOnRandomPools(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 200; trial++ {
		nA, nB := 1+rng.Intn(12), 1+rng.Intn(12)
		var aNames, bNames []string
		for i := 0; i < nA; i++ {
			aNames = append(aNames, fmt.Sprintf("a%02d", i))
		}
		for i := 0; i < nB; i++ {
			bNames = append(bNames, fmt.Sprintf("b%02d", i))
		}
		pool := &match.Pool{ByA: map[catalog.EntityRef][]match.MatchCandidate{}}
		for _, a := range aNames {
			for _, b := range bNames {
				if rng.Intn(3) == 0 {
					c := cand(a, b, rng.Intn(4), rng.Float64(), rng.Intn(5))
					pool.ByA[c.A] = append(pool.ByA[c.A], c)
				}
			}
		}
		res, err := New(nil).Resolve(context.Background(), drivers(aNames...), targets(bNames...), pool)
		if err != nil {
			t.Fatalf("trial %d: %v", trial, err)
		}
		if err := CheckInjective(res.Assignments); err != nil {
			t.Fatalf("trial %d: %v", trial, err)
		}
		if got := res.AssignedCount() + len(res.Unmatched); got != nB {
			t.Fatalf("trial %d: assigned+unmatched = %d, want %d", trial, got, nB)
		}
	}
}

func TestCheckInjectiveDetectsConflict(t *testing.T) {
	x := ref(catalog.StoreRemote, "x")
	err := CheckInjective([]Assignment{
		{A: ref(catalog.StoreLocal, "a"), B: &x},
		{A: ref(catalog.StoreLocal, "b"), B: &x},
	})
	if !errors.Is(err, fault.ErrAssignmentConflict) {
		t.Fatalf("expected assignment conflict, got %v", err)
	}
}

func TestExclusionSetClaim(t *testing.T) {
	s := NewExclusionSet()
	x := ref(catalog.StoreRemote, "x")
	if !s.Claim(x, ref(catalog.StoreLocal, "a")) {
		t.Fatal("first claim should succeed")
	}
	if s.Claim(x, ref(catalog.StoreLocal, "b")) {
		t.Fatal("second claim should fail")
	}
	if owner, _ := s.Owner(x); owner.Key != "a" {
		t.Fatalf("owner = %v", owner)
	}
	if s.Len() != 1 || len(s.Targets()) != 1 {
		t.Fatal("unexpected set size")
	}
}

func TestResolveHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(nil).Resolve(ctx, drivers("a"), nil, &match.Pool{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}
