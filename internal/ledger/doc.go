// Package ledger persists the processing ledger in SQLite.
//
// Each row is keyed by a content-derived identifier (a digest of the
// canonical source URI) and records the artist, book, status, and item count
// of one logical catalog entry. The reconciliation engine reads the ledger as
// a third inventory and converges it by inserting, updating, or deleting
// rows. Updates are always keyed by the existing identifier so sidecar
// metadata stored under that identifier is never orphaned when only the
// folder path changed.
package ledger
