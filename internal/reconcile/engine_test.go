package reconcile_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"shelfsync/internal/catalog"
	"shelfsync/internal/classify"
	"shelfsync/internal/fault"
	"shelfsync/internal/ledger"
	"shelfsync/internal/objstore"
	"shelfsync/internal/reconcile"
	"shelfsync/internal/remediate"
	"shelfsync/internal/resolve"
	"shelfsync/internal/testsupport"
)

func songs(prefix, word string, from, to int) map[string]int {
	out := make(map[string]int)
	for i := from; i <= to; i++ {
		out[fmt.Sprintf("%s%s %02d.pdf", prefix, word, i)] = 10 + i
	}
	return out
}

func merge(maps ...map[string]int) map[string]int {
	out := make(map[string]int)
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}

// scenarioStores builds the three documented scenarios: an exact match,
// a 10-vs-9 near match, and a 3-item overlap that is not a match.
func scenarioStores(t *testing.T, withMetadata bool) (*reconcile.Engine, *objstore.Memory, *reconcile.Recorder) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	testsupport.WriteCatalog(t, cfg.Paths.LocalRoot, merge(
		map[string]int{
			"Beatles/Abbey Road/Come Together.pdf": 5,
			"Beatles/Abbey Road/Something.pdf":     6,
		},
		songs("Queen/Jazz/", "Mustapha", 1, 10),
		songs("Blur/Parklife/", "Tracy", 1, 10),
	))
	bucket := testsupport.NewMemoryBucket(merge(
		map[string]int{
			"Beatles/Abbey Road/come_together.pdf":   5,
			"Beatles/Abbey Road/Songs/something.pdf": 6,
		},
		songs("Queen/Jazz/", "Mustapha", 1, 9),
		songs("Blur/Parklife/", "Tracy", 1, 3),
		songs("Blur/Parklife/", "Tracy", 30, 39),
	))
	if withMetadata {
		id := ledger.DeriveID(ledger.CanonicalURI("Beatles", "Abbey Road"))
		bucket.Put("output/"+id+"/manifest.json", []byte("{}"))
	}
	rec := reconcile.NewRecorder()
	engine, err := reconcile.NewEngineFromConfig(cfg, reconcile.Sources{Bucket: bucket}, nil, rec)
	if err != nil {
		t.Fatalf("NewEngineFromConfig: %v", err)
	}
	return engine, bucket, rec
}

func tierOf(t *testing.T, res *reconcile.Result, key string) resolve.Assignment {
	t.Helper()
	for _, asg := range res.Assignments {
		if asg.A.Key == key {
			return asg
		}
	}
	t.Fatalf("no assignment for %s", key)
	return resolve.Assignment{}
}

func TestScenarioTiers(t *testing.T) {
	engine, _, rec := scenarioStores(t, false)
	res, err := engine.Run(context.Background(), reconcile.LocalRemote)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	abbey := tierOf(t, res, "Beatles/Abbey Road")
	if abbey.Tier != classify.Excellent {
		t.Fatalf("exact match without metadata should be EXCELLENT, got %s (%s)", abbey.Tier, abbey.Rationale)
	}
	jazz := tierOf(t, res, "Queen/Jazz")
	if jazz.Tier != classify.Good {
		t.Fatalf("10 vs 9 should be GOOD, got %s", jazz.Tier)
	}
	if jazz.Candidate.MatchPct != 0.9 || jazz.Candidate.CountDiffPct != 0.1 {
		t.Fatalf("unexpected signals %+v", jazz.Candidate)
	}
	parklife := tierOf(t, res, "Blur/Parklife")
	if parklife.Tier != classify.NoMatch || parklife.Assigned() {
		t.Fatalf("3-item overlap should be NO_MATCH, got %s", parklife.Tier)
	}
	if len(res.Unmatched) != 1 || res.Unmatched[0].Key != "Blur/Parklife" {
		t.Fatalf("expected remote Parklife unmatched, got %v", res.Unmatched)
	}
	if res.NeedsReview() != 1 {
		t.Fatalf("expected one entity needing review, got %d", res.NeedsReview())
	}
	if err := resolve.CheckInjective(res.Assignments); err != nil {
		t.Fatal(err)
	}

	if len(rec.Classified) != 3 || len(rec.Finished) != 1 {
		t.Fatalf("observer saw %d classifications, %d finishes", len(rec.Classified), len(rec.Finished))
	}
	if rec.Scans[catalog.StoreLocal] != nil || rec.Scans[catalog.StoreRemote] != nil {
		t.Fatalf("unexpected scan errors %v", rec.Scans)
	}
}

func TestScenarioPerfectWithMetadata(t *testing.T) {
	engine, _, _ := scenarioStores(t, true)
	res, err := engine.Run(context.Background(), reconcile.LocalRemote)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	abbey := tierOf(t, res, "Beatles/Abbey Road")
	if abbey.Tier != classify.Perfect || !abbey.Candidate.MetadataPresent {
		t.Fatalf("expected PERFECT with metadata, got %s %+v", abbey.Tier, abbey.Candidate)
	}
	if jazz := tierOf(t, res, "Queen/Jazz"); jazz.Candidate.MetadataPresent {
		t.Fatal("metadata must be probed per entity")
	}
}

func TestEmptyLocalFolderDoesNotClaimTarget(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WriteCatalog(t, cfg.Paths.LocalRoot, songs("Queen/Jazz Deluxe/", "Mustapha", 1, 10))
	if err := os.MkdirAll(filepath.Join(cfg.Paths.LocalRoot, "Queen", "Jazz"), 0o755); err != nil {
		t.Fatal(err)
	}
	bucket := testsupport.NewMemoryBucket(songs("Queen/Jazz/", "Mustapha", 1, 10))
	engine, err := reconcile.NewEngineFromConfig(cfg, reconcile.Sources{Bucket: bucket}, nil, nil)
	if err != nil {
		t.Fatalf("NewEngineFromConfig: %v", err)
	}
	res, err := engine.Run(context.Background(), reconcile.LocalRemote)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	empty := tierOf(t, res, "Queen/Jazz")
	if empty.Tier != classify.NoMatch || empty.Assigned() {
		t.Fatalf("empty folder should be NO_MATCH and unassigned, got %s assigned=%v", empty.Tier, empty.Assigned())
	}
	deluxe := tierOf(t, res, "Queen/Jazz Deluxe")
	if !deluxe.Assigned() || deluxe.B.Key != "Queen/Jazz" {
		t.Fatalf("populated folder should claim the remote book, got %+v", deluxe)
	}
	if deluxe.Candidate.OverlapCount != 10 || deluxe.Candidate.NameOnly {
		t.Fatalf("unexpected signals %+v", deluxe.Candidate)
	}
	if len(res.Unmatched) != 0 {
		t.Fatalf("expected every remote book claimed, got %v", res.Unmatched)
	}
}

func TestScanFailureIsReportedPerStore(t *testing.T) {
	engine, bucket, rec := scenarioStores(t, false)
	bucket.SetFault(func(op, key string) error {
		if op == "list" {
			return errors.New("access denied")
		}
		return nil
	})
	res, err := engine.Run(context.Background(), reconcile.LocalRemote)
	if !errors.Is(err, fault.ErrScan) {
		t.Fatalf("expected scan error, got %v", err)
	}
	if res == nil || res.Inventories[catalog.StoreLocal] == nil {
		t.Fatal("local inventory should survive a remote failure")
	}
	if rec.Scans[catalog.StoreRemote] == nil {
		t.Fatal("observer should see the failed store")
	}
}

func TestLedgerPairUsesNameOnlyScoring(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WriteCatalog(t, cfg.Paths.LocalRoot, merge(
		map[string]int{"Beatles/Abbey Road/Come Together.pdf": 5, "Beatles/Abbey Road/Something.pdf": 6},
		songs("Queen/Jazz/", "Mustapha", 1, 10),
	))
	store := testsupport.MustOpenLedger(t, cfg)
	testsupport.InsertRecord(t, store, "Beatles", "Abbey Road", 2)
	testsupport.InsertRecord(t, store, "Queen", "Jazz", 7)
	orphan := testsupport.InsertRecord(t, store, "Nobody", "Nothing", 1)

	engine, err := reconcile.NewEngineFromConfig(cfg, reconcile.Sources{Ledger: store}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	res, err := engine.Run(context.Background(), reconcile.LocalLedger)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	abbey := tierOf(t, res, "Beatles/Abbey Road")
	if !abbey.Assigned() || !abbey.Candidate.NameOnly {
		t.Fatalf("expected name-only match, got %+v", abbey)
	}
	if len(res.Unmatched) != 1 || res.Unmatched[0].Key != orphan.ID {
		t.Fatalf("expected orphan row unmatched, got %v", res.Unmatched)
	}

	out, err := reconcile.SyncLedger(context.Background(), res, true, reconcile.ApplyOptions{Ledger: store})
	if err != nil {
		t.Fatalf("SyncLedger: %v", err)
	}
	counts := out.Counts()
	if counts[remediate.StatusDone] == 0 || counts[remediate.StatusFailed] != 0 {
		t.Fatalf("unexpected sync outcome %+v", out.Ops)
	}
	if _, err := store.Get(context.Background(), orphan.ID); !fault.IsNotFound(err) {
		t.Fatalf("prune should delete the orphan row, got %v", err)
	}
}

func TestApplyUsesMatchedRemoteFolder(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WriteCatalog(t, cfg.Paths.LocalRoot, songs("Queen/Jazz/", "Mustapha", 1, 6))
	bucket := testsupport.NewMemoryBucket(songs("Queen/Jazz (Remaster)/Songs/", "Mustapha", 1, 5))
	engine, err := reconcile.NewEngineFromConfig(cfg, reconcile.Sources{Bucket: bucket}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	res, err := engine.Run(context.Background(), reconcile.LocalRemote)
	if err != nil {
		t.Fatal(err)
	}
	decisions := remediate.Decisions{
		"Queen/Jazz": {FileDecisions: map[string]remediate.FileDecision{
			"Mustapha 06.pdf": {Action: "copy-to-remote"},
		}},
	}
	log := testsupport.MustOpenOpLog(t, cfg)
	out, err := reconcile.Apply(context.Background(), res, decisions, reconcile.ApplyOptions{
		LocalRoot: cfg.Paths.LocalRoot,
		Bucket:    bucket,
		OpLog:     log,
		LockPath:  cfg.LockPath(),
	})
	if err != nil || out.Failed() != 0 {
		t.Fatalf("Apply: %v %+v", err, out)
	}
	if ok, _ := bucket.Exists(context.Background(), "Queen/Jazz (Remaster)/Songs/Mustapha 06.pdf"); !ok {
		t.Fatalf("upload should follow the matched folder and its Songs layout, keys=%v", bucket.Keys())
	}
}

func TestParsePair(t *testing.T) {
	for _, value := range []string{"local:remote", "LOCAL:ledger", "remote:ledger"} {
		if _, err := reconcile.ParsePair(value); err != nil {
			t.Fatalf("ParsePair(%q): %v", value, err)
		}
	}
	for _, value := range []string{"remote:local", "local", "local:disk"} {
		if _, err := reconcile.ParsePair(value); err == nil {
			t.Fatalf("ParsePair(%q) should fail", value)
		}
	}
}
