package oplog_test

import (
	"context"
	"path/filepath"
	"testing"

	"shelfsync/internal/oplog"
)

func openLog(t *testing.T) *oplog.Store {
	t.Helper()
	store, err := oplog.Open(filepath.Join(t.TempDir(), "state", "oplog.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestAppendAndListByRun(t *testing.T) {
	store := openLog(t)
	ctx := context.Background()

	entries := []oplog.Entry{
		{RunID: "run-1", Seq: 0, Kind: "rename-local", EntityPath: "A/B", Filename: "x.pdf", Dest: "y.pdf", Status: "done"},
		{RunID: "run-1", Seq: 1, Kind: "delete-remote", EntityPath: "A/B", Filename: "z.pdf", Status: "failed", Reason: "timeout"},
		{RunID: "run-2", Seq: 0, Kind: "rename-local", EntityPath: "A/B", Filename: "x.pdf", Dest: "y.pdf", Status: "skipped"},
	}
	for _, e := range entries {
		got, err := store.Append(ctx, e)
		if err != nil {
			t.Fatalf("Append: %v", err)
		}
		if got.ID == 0 || got.RecordedAt.IsZero() {
			t.Fatalf("expected id and timestamp, got %+v", got)
		}
	}

	run1, err := store.List(ctx, oplog.Filter{RunID: "run-1"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(run1) != 2 || run1[0].Seq != 0 || run1[1].Reason != "timeout" {
		t.Fatalf("unexpected run-1 entries %+v", run1)
	}

	latest, err := store.List(ctx, oplog.Filter{Limit: 1})
	if err != nil || len(latest) != 1 || latest[0].RunID != "run-2" {
		t.Fatalf("List limit = %+v, %v", latest, err)
	}
}

func TestAppendRequiresRunID(t *testing.T) {
	store := openLog(t)
	if _, err := store.Append(context.Background(), oplog.Entry{Kind: "no-action"}); err == nil {
		t.Fatal("expected error without run id")
	}
}

func TestRunsSummarizesStatuses(t *testing.T) {
	store := openLog(t)
	ctx := context.Background()
	for i, status := range []string{"done", "done", "failed"} {
		if _, err := store.Append(ctx, oplog.Entry{RunID: "r", Seq: i, Kind: "copy-to-local", EntityPath: "A/B", Status: status}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	runs, err := store.Runs(ctx, 10)
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(runs) != 1 || runs[0].Total != 3 || runs[0].ByStatus["done"] != 2 || runs[0].ByStatus["failed"] != 1 {
		t.Fatalf("unexpected summary %+v", runs)
	}
}
