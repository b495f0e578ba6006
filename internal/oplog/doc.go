// Package oplog persists every attempted remediation operation to SQLite so
// interrupted batches can be inspected and safely re-run.
//
// Entries are append-only and grouped by run identifier. Dry runs never write
// here.
package oplog
