// Package reconcile runs the identity pipeline for one pair of stores:
// scan both sides, derive keys, score candidates, resolve a 1:1 assignment,
// probe sidecar metadata, and classify every driving entity into a tier.
//
// Progress is reported through an Observer so the CLI, tests, and log
// output consume the same events. Apply turns a reviewed decisions file
// into remediation ops for the local/remote pair, and SyncLedger converges
// the ledger toward the local tree.
package reconcile
