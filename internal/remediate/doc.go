// Package remediate turns review decisions into ordered remediation
// operations and applies them against the local tree, the object store, and
// the ledger.
//
// Planning is pure: Planner and PlanLedger only read decisions and
// resolutions. The Executor verifies each op's preconditions before acting,
// reports an op whose post-condition already holds as Skipped, records
// per-op failures without aborting the batch, and appends every attempted
// op to the execution log. Dry runs take the same path through
// precondition checks and stop short of every mutating call.
//
// Operations on different entity folders run concurrently; operations that
// touch the same local path or object key are serialized.
package remediate
