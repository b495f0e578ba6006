package match

import (
	"context"
	"fmt"
	"testing"

	"shelfsync/internal/catalog"
	"shelfsync/internal/keys"
)

func entity(store catalog.Store, artist, title string, files ...string) *catalog.Entity {
	e := &catalog.Entity{Store: store, Artist: artist, Title: title, RawPath: catalog.FolderPath(artist, title)}
	for _, f := range files {
		e.AddItem(catalog.Item{Filename: f})
	}
	return e
}

func songs(prefix string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s %02d.pdf", prefix, i)
	}
	return out
}

func TestScoreExactMatch(t *testing.T) {
	g := keys.NewGenerator(nil)
	a := g.For(entity(catalog.StoreLocal, "Beatles", "Abbey Road", "Come Together.pdf", "Something.pdf"))
	b := g.For(entity(catalog.StoreRemote, "Beatles", "Abbey Road", "come_together.pdf", "something.pdf"))

	c := New().Score(a, b)
	if !c.NameExact {
		t.Fatal("expected exact name match")
	}
	if c.OverlapCount != 2 || c.AOnly != 0 || c.BOnly != 0 {
		t.Fatalf("unexpected overlap %+v", c)
	}
	if c.MatchPct != 1 || c.CountDiffPct != 0 {
		t.Fatalf("unexpected pct %+v", c)
	}
	if !New().Eligible(c) {
		t.Fatal("expected eligible")
	}
}

func TestScoreGoodButNotExact(t *testing.T) {
	g := keys.NewGenerator(nil)
	local := songs("Song", 10)
	a := g.For(entity(catalog.StoreLocal, "X", "Book", local...))
	b := g.For(entity(catalog.StoreRemote, "X", "Book", local[:9]...))

	c := New().Score(a, b)
	if c.OverlapCount != 9 || c.AOnly != 1 || c.BOnly != 0 {
		t.Fatalf("unexpected overlap %+v", c)
	}
	if c.MatchPct != 0.9 {
		t.Fatalf("match_pct = %v, want 0.9", c.MatchPct)
	}
	if c.CountDiffPct != 0.1 {
		t.Fatalf("count_diff_pct = %v, want 0.1", c.CountDiffPct)
	}
	if len(c.AOnlyItems) != 1 || c.AOnlyItems[0] != "song 09" {
		t.Fatalf("unexpected a_only items %v", c.AOnlyItems)
	}
}

func TestScoreNoMatchIsIneligible(t *testing.T) {
	g := keys.NewGenerator(nil)
	local := songs("Song", 10)
	remote := append(append([]string{}, local[:3]...), songs("Other", 7)...)
	a := g.For(entity(catalog.StoreLocal, "X", "Book", local...))
	b := g.For(entity(catalog.StoreRemote, "X", "Book", remote...))

	c := New().Score(a, b)
	if c.MatchPct != 0.3 {
		t.Fatalf("match_pct = %v, want 0.3", c.MatchPct)
	}
	if New().Eligible(c) {
		t.Fatal("expected ineligible candidate")
	}
}

func TestEligibilitySecondaryRule(t *testing.T) {
	th := DefaultThresholds()
	big := MatchCandidate{OverlapCount: 70, MatchPct: 0.7, CountDiffPct: 0.15}
	if !th.Eligible(big) {
		t.Fatal("large overlap with small count diff should be eligible")
	}
	small := MatchCandidate{OverlapCount: 4, MatchPct: 0.7, CountDiffPct: 0.0}
	if th.Eligible(small) {
		t.Fatal("small overlap below match threshold should be ineligible")
	}
	skewed := MatchCandidate{OverlapCount: 70, MatchPct: 0.7, CountDiffPct: 0.25}
	if th.Eligible(skewed) {
		t.Fatal("large count difference should be ineligible")
	}
}

func TestScoreNameOnlyAgainstLedger(t *testing.T) {
	g := keys.NewGenerator(nil)
	a := g.For(entity(catalog.StoreLocal, "Beatles", "Abbey Road", songs("s", 17)...))
	row := &catalog.Entity{Store: catalog.StoreLedger, Artist: "Beatles", Title: "Beatles - Abbey Road", RawPath: "Beatles/Beatles - Abbey Road", ID: "abc", ItemCount: 16}
	b := g.For(row)

	c := New().Score(a, b)
	if !c.NameOnly || !c.NameExact {
		t.Fatalf("expected name-only exact match, got %+v", c)
	}
	if c.MatchPct != 1 || c.AOnly != 1 || c.BOnly != 0 || c.OverlapCount != 16 {
		t.Fatalf("unexpected name-only signals %+v", c)
	}
	if !New().Eligible(c) {
		t.Fatal("expected name-only exact match to be eligible")
	}
}

func TestScoreFuzzyName(t *testing.T) {
	g := keys.NewGenerator(nil)
	a := g.For(entity(catalog.StoreLocal, "Beatles", "Abbey Road"))
	b := g.For(&catalog.Entity{Store: catalog.StoreLedger, Artist: "Beatles", Title: "Abey Road", ID: "x"})

	c := New().Score(a, b)
	if c.NameExact || !c.NameFuzzy {
		t.Fatalf("expected fuzzy-only name match, got %+v", c)
	}
	if c.MatchPct <= 0.8 || c.MatchPct >= 1 {
		t.Fatalf("unexpected fuzzy similarity %v", c.MatchPct)
	}

	c = New(WithFuzzyNames(false)).Score(a, b)
	if c.NameFuzzy {
		t.Fatal("fuzzy signal should be disabled")
	}
}

func TestScorePoolBlocksAndIsDeterministic(t *testing.T) {
	g := keys.NewGenerator(nil)
	localInv := catalog.NewInventory(catalog.StoreLocal, []*catalog.Entity{
		entity(catalog.StoreLocal, "A", "One", "x.pdf", "y.pdf"),
		entity(catalog.StoreLocal, "B", "Two", "p.pdf", "q.pdf"),
		entity(catalog.StoreLocal, "C", "Three", "lonely.pdf"),
	})
	remoteInv := catalog.NewInventory(catalog.StoreRemote, []*catalog.Entity{
		entity(catalog.StoreRemote, "A", "One", "x.pdf", "y.pdf"),
		entity(catalog.StoreRemote, "A", "One Copy", "x.pdf", "y.pdf"),
		entity(catalog.StoreRemote, "B", "Two", "p.pdf", "q.pdf"),
	})
	as := orderedKeys(g, localInv)
	bs := orderedKeys(g, remoteInv)

	for _, workers := range []int{1, 4} {
		pool, err := New(WithWorkers(workers)).ScorePool(context.Background(), as, bs)
		if err != nil {
			t.Fatalf("ScorePool: %v", err)
		}
		if got := len(pool.Candidates(as[0].Ref)); got != 2 {
			t.Fatalf("workers=%d: expected 2 candidates for A/One, got %d", workers, got)
		}
		if got := len(pool.Candidates(as[2].Ref)); got != 0 {
			t.Fatalf("workers=%d: expected no candidates for C/Three, got %d", workers, got)
		}
		if pool.Scored != 3 {
			t.Fatalf("workers=%d: expected blocking to score 3 pairs, got %d", workers, pool.Scored)
		}
		first := pool.Candidates(as[0].Ref)
		if first[0].B.Key != "A/One" || first[1].B.Key != "A/One Copy" {
			t.Fatalf("workers=%d: non-deterministic order %v", workers, first)
		}
	}
}

func TestScorePoolHonoursCancellation(t *testing.T) {
	g := keys.NewGenerator(nil)
	inv := catalog.NewInventory(catalog.StoreLocal, []*catalog.Entity{entity(catalog.StoreLocal, "A", "One", "x.pdf")})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New().ScorePool(ctx, orderedKeys(g, inv), orderedKeys(g, inv)); err == nil {
		t.Fatal("expected cancellation error")
	}
}

func orderedKeys(g *keys.Generator, inv *catalog.Inventory) []*keys.EntityKeys {
	out := make([]*keys.EntityKeys, 0, inv.Len())
	for _, e := range inv.Entities {
		out = append(out, g.For(e))
	}
	return out
}

func TestScoreEmptyFolderUsesItemOverlap(t *testing.T) {
	g := keys.NewGenerator(nil)
	a := g.For(entity(catalog.StoreLocal, "Queen", "Jazz"))
	b := g.For(entity(catalog.StoreRemote, "Queen", "Jazz", songs("Mustapha", 10)...))

	c := New().Score(a, b)
	if c.NameOnly {
		t.Fatal("an empty folder still has an item list")
	}
	if !c.NameExact || c.OverlapCount != 0 || c.MatchPct != 0 || c.BOnly != 10 {
		t.Fatalf("unexpected signals %+v", c)
	}
	if New().Eligible(c) {
		t.Fatal("empty folder must not be eligible")
	}
}
