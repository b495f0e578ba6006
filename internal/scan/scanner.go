package scan

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"shelfsync/internal/catalog"
	"shelfsync/internal/fault"
)

// Scanner produces one store's inventory.
type Scanner interface {
	Store() catalog.Store
	Scan(ctx context.Context) (*catalog.Inventory, error)
}

// Results collects the outcome of a multi-store scan.
type Results struct {
	Inventories map[catalog.Store]*catalog.Inventory
	Errors      map[catalog.Store]error
}

// Inventory returns the inventory for store, or nil when it failed or was
// not scanned.
func (r *Results) Inventory(store catalog.Store) *catalog.Inventory {
	if r == nil {
		return nil
	}
	return r.Inventories[store]
}

// Err returns the scan error for store.
func (r *Results) Err(store catalog.Store) error {
	if r == nil {
		return nil
	}
	return r.Errors[store]
}

// Failed reports whether any store failed.
func (r *Results) Failed() bool {
	return r != nil && len(r.Errors) > 0
}

// ScanAll runs every scanner concurrently. A failing store does not cancel
// the others; its error is recorded as a *fault.ScanError. Only parent
// context cancellation stops the whole scan.
func ScanAll(ctx context.Context, scanners ...Scanner) (*Results, error) {
	res := &Results{
		Inventories: make(map[catalog.Store]*catalog.Inventory, len(scanners)),
		Errors:      make(map[catalog.Store]error),
	}
	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	for _, s := range scanners {
		g.Go(func() error {
			inv, err := s.Scan(ctx)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				res.Errors[s.Store()] = asScanError(s.Store(), err)
				return nil
			}
			res.Inventories[s.Store()] = inv
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return res, err
	}
	return res, nil
}

func asScanError(store catalog.Store, err error) error {
	var se *fault.ScanError
	if errors.As(err, &se) {
		return se
	}
	return &fault.ScanError{Store: string(store), Err: err}
}
