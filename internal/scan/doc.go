// Package scan builds inventories from the local filesystem, the object
// store, and the ledger.
//
// Each Scanner is independent and shares no mutable state, so ScanAll runs
// them concurrently. A scanner that cannot reach its store returns a
// *fault.ScanError; the other stores still complete. Within the object store,
// top-level artist prefixes are listed by a bounded worker pool while each
// prefix is paged through by a single sequential cursor.
package scan
