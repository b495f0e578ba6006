package scan

import (
	"context"
	"fmt"
	"log/slog"

	"shelfsync/internal/catalog"
	"shelfsync/internal/ledger"
	"shelfsync/internal/logging"
)

// LedgerSource lists ledger rows.
type LedgerSource interface {
	List(ctx context.Context) ([]ledger.Record, error)
}

// Ledger inventories the processing ledger: one name-only entity per row,
// keyed by the row identifier.
type Ledger struct {
	Source LedgerSource
	Logger *slog.Logger
}

// NewLedger returns a scanner over source.
func NewLedger(source LedgerSource, logger *slog.Logger) *Ledger {
	return &Ledger{Source: source, Logger: logger}
}

func (l *Ledger) Store() catalog.Store { return catalog.StoreLedger }

func (l *Ledger) Scan(ctx context.Context) (*catalog.Inventory, error) {
	logger := logging.NewComponentLogger(l.Logger, "scan").With(logging.String(logging.FieldStore, string(catalog.StoreLedger)))
	rows, err := l.Source.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list ledger: %w", err)
	}
	entities := make([]*catalog.Entity, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))
	var warnings []string
	for _, row := range rows {
		if _, dup := seen[row.ID]; dup {
			warnings = append(warnings, fmt.Sprintf("duplicate ledger id %s", row.ID))
			continue
		}
		seen[row.ID] = struct{}{}
		entities = append(entities, row.Entity())
	}
	inv := catalog.NewInventory(catalog.StoreLedger, entities)
	for _, w := range warnings {
		inv.Warn(w)
	}
	logger.InfoContext(ctx, "ledger inventory built", logging.Int("entities", inv.Len()))
	return inv, nil
}
