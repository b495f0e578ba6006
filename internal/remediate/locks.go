package remediate

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/gofrs/flock"

	"shelfsync/internal/fault"
)

// pathLocks serializes ops that touch the same logical path.
type pathLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newPathLocks() *pathLocks {
	return &pathLocks{locks: make(map[string]*sync.Mutex)}
}

// acquire locks every key in sorted order and returns the release func.
func (p *pathLocks) acquire(keys []string) func() {
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)
	sorted = dedupe(sorted)

	held := make([]*sync.Mutex, 0, len(sorted))
	for _, key := range sorted {
		p.mu.Lock()
		m, ok := p.locks[key]
		if !ok {
			m = &sync.Mutex{}
			p.locks[key] = m
		}
		p.mu.Unlock()
		m.Lock()
		held = append(held, m)
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}

func dedupe(sorted []string) []string {
	out := sorted[:0]
	for i, key := range sorted {
		if i > 0 && key == sorted[i-1] {
			continue
		}
		out = append(out, key)
	}
	return out
}

// lockKeys returns the logical paths an op touches.
func lockKeys(op Op) []string {
	switch op.Kind {
	case RenameLocal:
		return []string{"local:" + op.Source, "local:" + op.Dest}
	case RenameRemote:
		return []string{"remote:" + op.Source, "remote:" + op.Dest}
	case CopyToLocal:
		return []string{"remote:" + op.Source, "local:" + op.Dest}
	case CopyToRemote:
		return []string{"local:" + op.Source, "remote:" + op.Dest}
	case DeleteLocal:
		return []string{"local:" + op.Source}
	case DeleteRemote:
		return []string{"remote:" + op.Source}
	case DeleteBoth:
		return []string{"local:" + op.Source, "remote:" + op.Dest}
	case LedgerInsert, LedgerUpdate, LedgerDelete:
		return []string{"ledger:" + op.Dest}
	default:
		return nil
	}
}

// ApplyLock guards against two live runs against the same state directory.
type ApplyLock struct {
	lock *flock.Flock
}

// AcquireApplyLock takes the exclusive apply lock at path without blocking.
func AcquireApplyLock(path string) (*ApplyLock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fault.Wrap(fault.ErrConfiguration, "remediate", "lock", "create lock directory", err)
	}
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fault.Wrap(fault.ErrTransient, "remediate", "lock", path, err)
	}
	if !ok {
		return nil, fault.Wrap(fault.ErrValidation, "remediate", "lock",
			fmt.Sprintf("another apply run holds %s", path), nil)
	}
	return &ApplyLock{lock: lock}, nil
}

// Release drops the lock.
func (l *ApplyLock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}
