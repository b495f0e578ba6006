package testsupport

import (
	"context"
	"testing"

	"shelfsync/internal/config"
	"shelfsync/internal/ledger"
	"shelfsync/internal/objstore"
	"shelfsync/internal/oplog"
)

// MustOpenLedger opens the configured ledger for tests and registers cleanup.
func MustOpenLedger(t testing.TB, cfg *config.Config) *ledger.Store {
	t.Helper()

	store, err := ledger.Open(cfg)
	if err != nil {
		t.Fatalf("ledger.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustOpenOpLog opens the execution log under the state directory.
func MustOpenOpLog(t testing.TB, cfg *config.Config) *oplog.Store {
	t.Helper()

	store, err := oplog.Open(cfg.OpLogPath())
	if err != nil {
		t.Fatalf("oplog.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// InsertRecord adds a ledger row for artist/book and returns it.
func InsertRecord(t testing.TB, store *ledger.Store, artist, book string, itemCount int) ledger.Record {
	t.Helper()

	rec := ledger.NewRecord(artist, book, itemCount)
	if err := store.Insert(context.Background(), rec); err != nil {
		t.Fatalf("ledger.Insert: %v", err)
	}
	return rec
}

// NewMemoryBucket returns an in-memory bucket holding one object per key,
// each sized as given.
func NewMemoryBucket(objects map[string]int) *objstore.Memory {
	b := objstore.NewMemory("test")
	for key, size := range objects {
		if size <= 0 {
			size = 1
		}
		b.Put(key, pattern(size))
	}
	return b
}

func pattern(size int) []byte {
	buf := make([]byte, size)
	for i := range buf {
		buf[i] = 0x42
	}
	return buf
}
