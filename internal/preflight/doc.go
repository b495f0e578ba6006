// Package preflight provides readiness checks for the stores and paths
// shelfsync depends on.
//
// These checks run in two contexts:
//   - The apply command calls RunAll before mutating anything. If any check
//     fails, the batch is not started.
//   - The CLI "shelfsync status" command renders every result as a table.
//
// Each check is gated by its config: an unconfigured object store is skipped.
package preflight
