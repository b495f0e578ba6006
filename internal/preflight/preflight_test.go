package preflight

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"shelfsync/internal/config"
	"shelfsync/internal/objstore"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckReadableDirectory("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckBucket(t *testing.T) {
	mem := objstore.NewMemory("books")
	if r := CheckBucket(context.Background(), mem); !r.Passed {
		t.Fatalf("expected pass, got %s", r.Detail)
	}
	if r := CheckBucket(context.Background(), nil); r.Passed {
		t.Fatal("expected failure for nil bucket")
	}
}

type unreachable struct{ *objstore.Memory }

func (unreachable) Ping(context.Context) error { return errors.New("dial tcp: connection refused") }

func TestCheckBucket_Unreachable(t *testing.T) {
	r := CheckBucket(context.Background(), unreachable{objstore.NewMemory("books")})
	if r.Passed {
		t.Fatal("expected failure for unreachable bucket")
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(context.Background(), nil, nil); results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_MinimalConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LocalRoot = t.TempDir()
	cfg.Paths.StateDir = t.TempDir()
	cfg.Ledger.Path = filepath.Join(t.TempDir(), "ledger.db")

	results := RunAll(context.Background(), &cfg, nil)
	// Local root, state dir, ledger; the bucket is skipped.
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if !AllPassed(results) {
		t.Fatalf("expected all checks to pass: %+v", results)
	}

	results = RunAll(context.Background(), &cfg, objstore.NewMemory("books"))
	if len(results) != 4 || !AllPassed(results) {
		t.Fatalf("expected 4 passing results, got %+v", results)
	}
}
