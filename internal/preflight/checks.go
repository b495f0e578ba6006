package preflight

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"shelfsync/internal/fault"
	"shelfsync/internal/ledger"
	"shelfsync/internal/objstore"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	return checkDirectory(name, path, unix.R_OK|unix.W_OK|unix.X_OK, "read/write ok")
}

// CheckReadableDirectory verifies that the directory exists and can be listed.
// Scans only need read access; apply checks write access per operation.
func CheckReadableDirectory(name, path string) Result {
	return checkDirectory(name, path, unix.R_OK|unix.X_OK, "read ok")
}

func checkDirectory(name, path string, mode uint32, okDetail string) Result {
	if path == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, mode); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", path, okDetail)}
}

// CheckBucket verifies that the bucket is reachable with the configured
// credentials. It uses a 10-second timeout and a single attempt.
func CheckBucket(ctx context.Context, bucket objstore.Bucket) Result {
	const name = "Object store"
	if bucket == nil {
		return Result{Name: name, Detail: "not configured"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := bucket.Ping(checkCtx); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (%s)", bucket.Name(), summarizeBucketError(err))}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (reachable)", bucket.Name())}
}

// CheckLedger verifies that the ledger database opens and can be listed.
func CheckLedger(ctx context.Context, path, table string) Result {
	const name = "Ledger"
	store, err := ledger.OpenPath(path, table)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	defer store.Close()
	rows, err := store.List(ctx)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d rows)", path, len(rows))}
}

func summarizeBucketError(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timed out (endpoint unreachable)"
	case fault.IsNotFound(err):
		return "bucket does not exist"
	case errors.Is(err, fault.ErrConfiguration):
		return "access denied (check credentials)"
	default:
		return err.Error()
	}
}
