// Package report serializes reconciliation results and remediation runs.
//
// A match report groups one record per driving entity under its tier and
// carries per-tier counts plus the targets nobody claimed. The CSV form is
// the same data flattened to one row per driving entity. Execution reports
// list every op with its final status.
package report
