package remediate

import (
	"context"
	"fmt"

	"shelfsync/internal/fault"
)

func (e *Executor) applyLedger(ctx context.Context, op Op) outcome {
	id := op.Dest
	if op.Record != nil && op.Record.ID != "" {
		id = op.Record.ID
	}
	if id == "" {
		return failed(fault.Wrap(fault.ErrValidation, "remediate", string(op.Kind), "missing ledger id", nil))
	}
	current, err := e.ledger.Get(ctx, id)
	exists := err == nil
	if err != nil && !fault.IsNotFound(err) {
		return failed(err)
	}

	switch op.Kind {
	case LedgerInsert:
		if op.Record == nil {
			return failed(fault.Wrap(fault.ErrValidation, "remediate", "ledger-insert", "missing record", nil))
		}
		if exists {
			return skipped("already applied: row exists")
		}
		rec := *op.Record
		return e.commit("insert ledger row "+id, func() error {
			return e.ledger.Insert(ctx, rec)
		})
	case LedgerUpdate:
		if op.Record == nil {
			return failed(fault.Wrap(fault.ErrValidation, "remediate", "ledger-update", "missing record", nil))
		}
		if !exists {
			return failed(fault.Wrap(fault.ErrNotFound, "remediate", "ledger-update", id, nil))
		}
		want := *op.Record
		if current.Artist == want.Artist && current.Book == want.Book &&
			current.ItemCount == want.ItemCount && current.SourceURI == want.SourceURI {
			return skipped("already applied: row is up to date")
		}
		if want.Status == "" {
			want.Status = current.Status
		}
		return e.commit(fmt.Sprintf("update ledger row %s to %s/%s", id, want.Artist, want.Book), func() error {
			return e.ledger.Update(ctx, want)
		})
	default:
		if !exists {
			return skipped("already absent")
		}
		return e.commit("delete ledger row "+id, func() error {
			return e.ledger.Delete(ctx, id)
		})
	}
}
