package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"shelfsync/internal/catalog"
	"shelfsync/internal/classify"
	"shelfsync/internal/fault"
	"shelfsync/internal/match"
	"shelfsync/internal/reconcile"
	"shelfsync/internal/remediate"
	"shelfsync/internal/resolve"
)

func sampleResult() *reconcile.Result {
	local := catalog.NewInventory(catalog.StoreLocal, []*catalog.Entity{
		{Store: catalog.StoreLocal, Artist: "Beatles", Title: "Abbey Road", RawPath: "Beatles/Abbey Road", ItemCount: 2},
		{Store: catalog.StoreLocal, Artist: "Blur", Title: "Parklife", RawPath: "Blur/Parklife", ItemCount: 10},
	})
	remote := catalog.NewInventory(catalog.StoreRemote, []*catalog.Entity{
		{Store: catalog.StoreRemote, Artist: "Beatles", Title: "Abbey Road", RawPath: "Beatles/Abbey Road", ItemCount: 2},
		{Store: catalog.StoreRemote, Artist: "Oasis", Title: "Morning Glory", RawPath: "Oasis/Morning Glory", ItemCount: 12},
	})
	a := catalog.EntityRef{Store: catalog.StoreLocal, Key: "Beatles/Abbey Road"}
	b := catalog.EntityRef{Store: catalog.StoreRemote, Key: "Beatles/Abbey Road"}
	return &reconcile.Result{
		RunID:      "run-1",
		Pair:       reconcile.LocalRemote,
		RuleSet:    "v4",
		FinishedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Inventories: map[catalog.Store]*catalog.Inventory{
			catalog.StoreLocal:  local,
			catalog.StoreRemote: remote,
		},
		Assignments: []resolve.Assignment{
			{
				A: a, B: &b, Tier: classify.Excellent, Rationale: "name match with near-identical item sets",
				Candidate: &match.MatchCandidate{A: a, B: b, NameExact: true, OverlapCount: 2, CountA: 2, CountB: 2, MatchPct: 1},
			},
			{
				A:         catalog.EntityRef{Store: catalog.StoreLocal, Key: "Blur/Parklife"},
				Tier:      classify.NoMatch,
				Rationale: "no eligible candidate",
			},
		},
		Unmatched: []catalog.EntityRef{{Store: catalog.StoreRemote, Key: "Oasis/Morning Glory"}},
	}
}

func TestMatchReportJSONShape(t *testing.T) {
	rep := BuildMatch(sampleResult())
	var buf bytes.Buffer
	if err := rep.WriteJSON(&buf); err != nil {
		t.Fatal(err)
	}
	var decoded struct {
		Tiers   map[string][]map[string]any `json:"tiers"`
		Summary struct {
			Counts map[string]int `json:"counts"`
		} `json:"summary"`
		UnmatchedTargets []TargetRecord `json:"unmatched_targets"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decoded.Tiers) != 6 || len(decoded.Summary.Counts) != 6 {
		t.Fatalf("every tier must be present: %v", decoded.Summary.Counts)
	}
	if decoded.Summary.Counts["EXCELLENT"] != 1 || decoded.Summary.Counts["NO_MATCH"] != 1 {
		t.Fatalf("unexpected counts %v", decoded.Summary.Counts)
	}
	if got := decoded.Tiers["EXCELLENT"][0]["tier"]; got != "EXCELLENT" {
		t.Fatalf("tier should serialize by name, got %v", got)
	}
	if len(decoded.UnmatchedTargets) != 1 || decoded.UnmatchedTargets[0].Count != 12 {
		t.Fatalf("unexpected unmatched targets %+v", decoded.UnmatchedTargets)
	}
}

func TestMatchReportCSVOneRowPerEntity(t *testing.T) {
	rep := BuildMatch(sampleResult())
	var buf bytes.Buffer
	if err := rep.WriteCSV(&buf); err != nil {
		t.Fatal(err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(rows))
	}
	if rows[1][0] != "EXCELLENT" || rows[2][0] != "NO_MATCH" {
		t.Fatalf("rows must be ordered best tier first: %v", rows)
	}
	if rows[1][16] != "1.0000" {
		t.Fatalf("unexpected match_pct column %q", rows[1][16])
	}
}

func TestMatchReportCarriesScanErrors(t *testing.T) {
	res := sampleResult()
	res.ScanErrors = map[catalog.Store]error{
		catalog.StoreRemote: &fault.ScanError{Store: "remote", Err: errors.New("access denied")},
	}
	rep := BuildMatch(res)
	if rep.ScanErrors["remote"] == "" {
		t.Fatalf("scan error missing: %+v", rep.ScanErrors)
	}
}

func TestExecutionReportAndSave(t *testing.T) {
	rep := BuildExecution(&remediate.Result{
		RunID: "apply-1",
		Ops: []remediate.Op{
			{Seq: 0, Kind: remediate.RenameLocal, EntityPath: "Queen/Jazz", Filename: "a.pdf", Source: "Queen/Jazz/a.pdf", Dest: "Queen/Jazz/A.pdf", Status: remediate.StatusDone},
			{Seq: 1, Kind: remediate.DeleteRemote, EntityPath: "Queen/Jazz", Filename: "b.pdf", Source: "Queen/Jazz/b.pdf", Status: remediate.StatusSkipped, Reason: "already absent"},
		},
	})
	if rep.Summary["done"] != 1 || rep.Summary["skipped"] != 1 || rep.Summary["failed"] != 0 {
		t.Fatalf("unexpected summary %v", rep.Summary)
	}

	dir := filepath.Join(t.TempDir(), "reports")
	jsonPath, csvPath, err := Save(dir, "apply-1", rep)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	data, err := os.ReadFile(csvPath)
	if err != nil {
		t.Fatal(err)
	}
	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil || len(rows) != 3 || rows[2][8] != "already absent" {
		t.Fatalf("unexpected csv %v %v", rows, err)
	}
	if _, err := os.Stat(jsonPath); err != nil {
		t.Fatal(err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 2 {
		t.Fatalf("temporary files left behind: %v", entries)
	}
}
