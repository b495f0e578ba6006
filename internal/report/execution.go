package report

import (
	"encoding/json"
	"io"
	"time"

	"shelfsync/internal/remediate"
)

// ExecutionReport lists the ops of one remediation run.
type ExecutionReport struct {
	RunID      string         `json:"run_id"`
	DryRun     bool           `json:"dry_run"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Summary    map[string]int `json:"summary"`
	Ops        []remediate.Op `json:"ops"`
}

// BuildExecution converts an executor result into a report.
func BuildExecution(res *remediate.Result) *ExecutionReport {
	rep := &ExecutionReport{
		RunID:      res.RunID,
		DryRun:     res.DryRun,
		StartedAt:  res.StartedAt,
		FinishedAt: res.FinishedAt,
		Summary:    make(map[string]int, 4),
		Ops:        res.Ops,
	}
	if rep.Ops == nil {
		rep.Ops = []remediate.Op{}
	}
	for _, status := range remediate.Statuses() {
		rep.Summary[string(status)] = 0
	}
	for status, n := range res.Counts() {
		rep.Summary[string(status)] = n
	}
	return rep
}

// WriteJSON writes the report as indented JSON.
func (r *ExecutionReport) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

var executionHeader = []string{
	"seq", "kind", "entity_path", "filename", "source", "dest", "overwrite", "status", "reason",
}

// WriteCSV writes one row per op in plan order.
func (r *ExecutionReport) WriteCSV(w io.Writer) error {
	rows := make([][]string, 0, len(r.Ops))
	for _, op := range r.Ops {
		rows = append(rows, []string{
			itoa(op.Seq), string(op.Kind), op.EntityPath, op.Filename,
			op.Source, op.Dest, btoa(op.Overwrite), string(op.Status), op.Reason,
		})
	}
	return writeCSV(w, executionHeader, rows)
}
