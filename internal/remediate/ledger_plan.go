package remediate

import (
	"sort"

	"shelfsync/internal/catalog"
	"shelfsync/internal/ledger"
)

// LedgerPair is a resolved local entity and its ledger row. Row is nil for
// local folders no ledger row matched.
type LedgerPair struct {
	Local *catalog.Entity
	Row   *catalog.Entity
}

// PlanLedger converges the ledger toward the local tree. Matched rows whose
// artist, book, or item count drifted are updated in place under their
// existing id; unmatched local folders are inserted with a derived id; and
// unmatched rows are deleted only when prune is set.
func PlanLedger(pairs []LedgerPair, orphans []*catalog.Entity, prune bool) []Op {
	var ops []Op
	sorted := append([]LedgerPair(nil), pairs...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Local.RawPath < sorted[j].Local.RawPath })

	for _, pair := range sorted {
		local := pair.Local
		if pair.Row == nil {
			rec := ledger.NewRecord(local.Artist, local.Title, local.ItemCount)
			ops = append(ops, Op{
				Kind:       LedgerInsert,
				EntityPath: local.RawPath,
				Source:     rec.SourceURI,
				Dest:       rec.ID,
				Record:     &rec,
				Status:     StatusPending,
			})
			continue
		}
		row := pair.Row
		if row.Artist == local.Artist && row.Title == local.Title && row.ItemCount == local.ItemCount {
			continue
		}
		rec := ledger.Record{
			ID:        row.ID,
			Artist:    local.Artist,
			Book:      local.Title,
			Status:    row.Status,
			ItemCount: local.ItemCount,
			SourceURI: ledger.CanonicalURI(local.Artist, local.Title),
		}
		ops = append(ops, Op{
			Kind:       LedgerUpdate,
			EntityPath: local.RawPath,
			Source:     row.RawPath,
			Dest:       row.ID,
			Record:     &rec,
			Status:     StatusPending,
		})
	}

	if prune {
		rows := append([]*catalog.Entity(nil), orphans...)
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
		for _, row := range rows {
			ops = append(ops, Op{
				Kind:       LedgerDelete,
				EntityPath: row.RawPath,
				Dest:       row.ID,
				Status:     StatusPending,
			})
		}
	}

	for i := range ops {
		ops[i].Seq = i
	}
	return ops
}
