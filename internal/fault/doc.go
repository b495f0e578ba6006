// Package fault defines the error taxonomy shared by scanners, the resolver,
// and the remediation executor.
//
// Errors are tagged with one of the exported sentinel markers so callers can
// classify them with errors.Is regardless of how deeply they were wrapped.
// ScanError and OpError carry the store or operation that failed so the
// final report can attribute every failure without parsing messages.
package fault
